package interpret

import (
	"fmt"
	"sort"
	"strconv"
)

// Table is a rows-by-named-columns view over parsed query results,
// built per request and owned by that request alone.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// BuildTable materializes the tabular result of a successful parse.
// Column order follows the parsed source when known; columns seen only
// in later rows are appended in sorted order so output stays stable.
func BuildTable(qr *QueryResult) *Table {
	if qr == nil || !qr.Success {
		return nil
	}
	t := &Table{Columns: append([]string(nil), qr.Columns...)}
	if len(qr.Data) == 0 {
		return t
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = true
	}
	var extra []string
	for _, row := range qr.Data {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				extra = append(extra, key)
			}
		}
	}
	sort.Strings(extra)
	t.Columns = append(t.Columns, extra...)
	t.Rows = append([]Row(nil), qr.Data...)
	return t
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Cell returns the value at (row, column), or nil when absent.
func (t *Table) Cell(row int, column string) any {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][column]
}

// FormatCell renders a cell value for textual output such as CSV and
// PDF. Floats drop trailing zeros so 1.0 prints as "1".
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
