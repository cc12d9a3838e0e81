package interpret

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"trpc.group/trpc-go/trpc-agent-go/log"
)

// Row is a single result row keyed by column name. Cell values are
// float64 when the source text parses as a number, otherwise string.
type Row map[string]any

// QueryResult is the normalized outcome of parsing a raw query-results
// string. When Success is true Data holds the rows (possibly zero) and
// Columns preserves the source column order; when false Data is empty
// and Err carries the reason.
type QueryResult struct {
	Success bool
	Columns []string
	Data    []Row
	Err     string
}

// resultStrategy is one member of the fixed-priority parse cascade. A
// strategy either produces a QueryResult or reports why the input is
// not in its format so the next strategy can try.
type resultStrategy struct {
	name  string
	parse func(raw string) (*QueryResult, error)
}

var resultStrategies = []resultStrategy{
	{name: "json", parse: parseJSONResults},
	{name: "markdown-table", parse: parseMarkdownTable},
}

const parseErrorPreviewLimit = 100

// ParseResults classifies a raw results string as JSON, a Markdown
// table, or unparseable text. Strategies run in fixed order and the
// first one that succeeds wins; when all fail the input is treated as
// an error message from the upstream executor.
func ParseResults(raw string) *QueryResult {
	trimmed := strings.TrimSpace(raw)
	for _, s := range resultStrategies {
		qr, err := s.parse(trimmed)
		if err != nil {
			log.Debugf("result parser: %s strategy rejected input: %v", s.name, err)
			continue
		}
		log.Debugf("result parser: %s strategy parsed %d rows", s.name, len(qr.Data))
		return qr
	}
	preview := trimmed
	if runes := []rune(preview); len(runes) > parseErrorPreviewLimit {
		preview = string(runes[:parseErrorPreviewLimit])
	}
	return &QueryResult{
		Success: false,
		Err:     "Could not parse query results. Output: " + preview,
	}
}

var (
	leadingFenceRe  = regexp.MustCompile("(?i)^```[a-z]*[ \t\r\n]*")
	trailingFenceRe = regexp.MustCompile("[ \t\r\n]*```$")
)

// stripJSONFence removes one leading fenced-code marker (with optional
// case-insensitive language tag) and one trailing marker.
func stripJSONFence(raw string) string {
	clean := leadingFenceRe.ReplaceAllString(raw, "")
	return trailingFenceRe.ReplaceAllString(clean, "")
}

func parseJSONResults(raw string) (*QueryResult, error) {
	clean := stripJSONFence(raw)
	var parsed any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, err
	}
	switch v := parsed.(type) {
	case []any:
		rows, err := rowsFromList(v)
		if err != nil {
			return nil, err
		}
		return &QueryResult{
			Success: true,
			Columns: objectColumns([]byte(clean), "[0]"),
			Data:    rows,
		}, nil
	case map[string]any:
		// A mapping is taken as-is: the executor already emitted the
		// {success, data, error} shape.
		qr := &QueryResult{}
		if b, ok := v["success"].(bool); ok {
			qr.Success = b
		}
		if msg, ok := v["error"].(string); ok {
			qr.Err = msg
		}
		if list, ok := v["data"].([]any); ok {
			rows, err := rowsFromList(list)
			if err != nil {
				return nil, err
			}
			qr.Data = rows
			qr.Columns = objectColumns([]byte(clean), "data", "[0]")
		}
		return qr, nil
	default:
		return nil, fmt.Errorf("JSON value %T is neither a list nor an object", parsed)
	}
}

func rowsFromList(list []any) ([]Row, error) {
	rows := make([]Row, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %T, not an object", i, item)
		}
		rows = append(rows, Row(obj))
	}
	return rows, nil
}

// objectColumns recovers column order from the raw JSON text, which
// encoding/json discards when decoding into a map.
func objectColumns(data []byte, path ...string) []string {
	var cols []string
	err := jsonparser.ObjectEach(data, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		cols = append(cols, string(key))
		return nil
	}, path...)
	if err != nil {
		return nil
	}
	return cols
}

func parseMarkdownTable(raw string) (*QueryResult, error) {
	var tableLines []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.Contains(trimmed, "|") {
			tableLines = append(tableLines, trimmed)
		}
	}
	// Header, separator and at least one data row.
	if len(tableLines) < 3 {
		return nil, fmt.Errorf("invalid table format: found %d pipe lines", len(tableLines))
	}

	headers := splitTableRow(tableLines[0])
	for i, h := range headers {
		headers[i] = strings.ReplaceAll(h, `\_`, "_")
	}

	var rows []Row
	for _, line := range tableLines[2:] {
		if strings.HasPrefix(line, ":") || strings.Contains(line, "---") {
			continue
		}
		values := splitTableRow(line)
		if len(values) != len(headers) || equalCells(values, headers) {
			continue
		}
		row := make(Row, len(headers))
		for i, header := range headers {
			if f, err := strconv.ParseFloat(values[i], 64); err == nil {
				row[header] = f
			} else {
				row[header] = values[i]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows extracted from table")
	}
	return &QueryResult{Success: true, Columns: headers, Data: rows}, nil
}

func splitTableRow(line string) []string {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func equalCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
