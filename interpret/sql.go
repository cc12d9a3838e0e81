// Package interpret converts the raw state outputs of a BI agent run
// into a cleaned SQL statement, a tabular result and a renderable
// chart. Every stage is best-effort: model output that cannot be
// understood degrades to an explicit error variant or a nil chart,
// never to a failure of the whole request.
package interpret

import "strings"

const thinkingCloseTag = "</thinking_process>"

// CleanSQL strips chain-of-thought markers and Markdown code fences
// from a model-generated SQL string. Absence of markers is a no-op, so
// the function is a fixed point on already-clean input.
func CleanSQL(raw string) string {
	sql := raw
	// Keep only what follows the last thinking block.
	if idx := strings.LastIndex(sql, thinkingCloseTag); idx >= 0 {
		sql = sql[idx+len(thinkingCloseTag):]
	}
	sql = strings.TrimSpace(sql)
	switch {
	case strings.HasPrefix(sql, "```sql"):
		sql = strings.ReplaceAll(sql, "```sql", "")
		sql = strings.ReplaceAll(sql, "```", "")
		sql = strings.TrimSpace(sql)
	case strings.HasPrefix(sql, "```"):
		sql = strings.ReplaceAll(sql, "```", "")
		sql = strings.TrimSpace(sql)
	}
	return sql
}

// stripThinking removes a <thinking_process>...</thinking_process>
// prefix, returning the trimmed remainder. Shared by the SQL and chart
// cleaners.
func stripThinking(s string) string {
	if idx := strings.LastIndex(s, thinkingCloseTag); idx >= 0 {
		return strings.TrimSpace(s[idx+len(thinkingCloseTag):])
	}
	return strings.TrimSpace(s)
}
