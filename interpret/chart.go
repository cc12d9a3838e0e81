package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

// chartSpec is the declarative schema the visualization agent must
// emit. The model describes the chart it wants; a fixed renderer
// interprets the description against the current table. Model output
// is never executed.
type chartSpec struct {
	Type  string         `json:"type"`
	Title string         `json:"title,omitempty"`
	X     chartEncoding  `json:"x"`
	Y     chartEncoding  `json:"y"`
	Color *chartEncoding `json:"color,omitempty"`
}

type chartEncoding struct {
	Field string `json:"field"`
	Type  string `json:"type,omitempty"`
}

// Chart is a renderable chart: a compiled Vega-Lite document, opaque
// to callers and serialized as-is for the browser to embed.
type Chart struct {
	spec map[string]any
}

// MarshalJSON emits the underlying Vega-Lite document.
func (c *Chart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.spec)
}

// VegaLite exposes the compiled document, mainly for tests.
func (c *Chart) VegaLite() map[string]any {
	return c.spec
}

var supportedMarks = map[string]string{
	"bar":   "bar",
	"line":  "line",
	"area":  "area",
	"point": "point",
	"pie":   "arc",
}

// SynthesizeChart turns a model-supplied chart payload into a chart
// for the given table, or nil when the payload cannot be understood.
// An empty or absent table short-circuits to the placeholder chart
// regardless of the payload. All rejections are logged, never fatal.
func SynthesizeChart(raw string, table *Table) *Chart {
	if table.Empty() {
		return NoDataChart()
	}

	clean := stripThinking(raw)
	clean = strings.ReplaceAll(clean, "```python", "")
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	// Heuristic guard against malformed or non-spec payloads.
	if clean == "" || strings.HasPrefix(clean, "<") {
		log.Infof("chart synthesizer: no usable chart payload, skipping chart generation")
		return nil
	}
	if strings.Contains(strings.ToLower(clean), "import") {
		log.Warnf("chart synthesizer: payload looks like program code; specs are interpreted, not executed")
		return nil
	}

	var spec chartSpec
	if err := json.Unmarshal([]byte(clean), &spec); err != nil {
		log.Warnf("chart synthesizer: invalid chart spec: %v", err)
		return nil
	}
	chart, err := compileChart(&spec, table)
	if err != nil {
		log.Warnf("chart synthesizer: %v", err)
		return nil
	}
	log.Debugf("chart synthesizer: compiled %s chart %q", spec.Type, spec.Title)
	return chart
}

// compileChart validates the spec against the table and builds the
// Vega-Lite document.
func compileChart(spec *chartSpec, table *Table) (*Chart, error) {
	mark, ok := supportedMarks[strings.ToLower(spec.Type)]
	if !ok {
		return nil, fmt.Errorf("unsupported chart type %q", spec.Type)
	}
	for _, enc := range []struct {
		name string
		enc  *chartEncoding
	}{{"x", &spec.X}, {"y", &spec.Y}} {
		if enc.enc.Field == "" {
			return nil, fmt.Errorf("chart spec is missing the %s field", enc.name)
		}
		if !hasColumn(table, enc.enc.Field) {
			return nil, fmt.Errorf("%s field %q is not a column of the result", enc.name, enc.enc.Field)
		}
	}
	if spec.Color != nil && spec.Color.Field != "" && !hasColumn(table, spec.Color.Field) {
		return nil, fmt.Errorf("color field %q is not a column of the result", spec.Color.Field)
	}

	x := encodingDoc(spec.X, table)
	y := encodingDoc(spec.Y, table)
	var encoding map[string]any
	if mark == "arc" {
		encoding = map[string]any{"theta": y, "color": x}
	} else {
		encoding = map[string]any{"x": x, "y": y}
		if spec.Color != nil && spec.Color.Field != "" {
			encoding["color"] = encodingDoc(*spec.Color, table)
		}
	}

	doc := map[string]any{
		"$schema":  "https://vega.github.io/schema/vega-lite/v5.json",
		"data":     map[string]any{"values": table.Rows},
		"mark":     mark,
		"encoding": encoding,
		"width":    500,
		"height":   300,
	}
	if spec.Title != "" {
		doc["title"] = spec.Title
	}
	return &Chart{spec: doc}, nil
}

func encodingDoc(enc chartEncoding, table *Table) map[string]any {
	encType := enc.Type
	if encType == "" {
		encType = inferEncodingType(table, enc.Field)
	}
	return map[string]any{"field": enc.Field, "type": encType}
}

// inferEncodingType guesses quantitative for numeric cells and nominal
// otherwise, based on the first row.
func inferEncodingType(table *Table, field string) string {
	if _, ok := table.Cell(0, field).(float64); ok {
		return "quantitative"
	}
	return "nominal"
}

func hasColumn(table *Table, name string) bool {
	for _, c := range table.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// NoDataChart is the fixed placeholder shown when a query succeeds but
// returns no rows: a single centered text annotation.
func NoDataChart() *Chart {
	return &Chart{spec: map[string]any{
		"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
		"title":   "Visual Insight Summary",
		"data": map[string]any{
			"values": []map[string]any{{"message": "No Data to Display for this Query"}},
		},
		"mark": map[string]any{
			"type":       "text",
			"size":       18,
			"color":      "#718096",
			"fontWeight": 500,
			"font":       "Source Code Pro",
		},
		"encoding": map[string]any{
			"text": map[string]any{"field": "message", "type": "nominal"},
		},
		"width":  500,
		"height": 300,
		"config": map[string]any{"view": map[string]any{"strokeWidth": 0}},
	}}
}
