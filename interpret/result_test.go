package interpret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResultsJSONList(t *testing.T) {
	qr := ParseResults(`[{"a":1},{"a":2}]`)
	require.True(t, qr.Success)
	require.Empty(t, qr.Err)
	require.Equal(t, []string{"a"}, qr.Columns)
	require.Len(t, qr.Data, 2)
	require.Equal(t, 1.0, qr.Data[0]["a"])
	require.Equal(t, 2.0, qr.Data[1]["a"])
}

func TestParseResultsFencedJSON(t *testing.T) {
	qr := ParseResults("```JSON\n[{\"name\":\"Chain\",\"price\":20.24}]\n```")
	require.True(t, qr.Success)
	require.Equal(t, []string{"name", "price"}, qr.Columns)
	require.Equal(t, "Chain", qr.Data[0]["name"])
	require.Equal(t, 20.24, qr.Data[0]["price"])
}

func TestParseResultsJSONMappingUsedAsIs(t *testing.T) {
	qr := ParseResults(`{"success": false, "data": [], "error": "no such table: sales"}`)
	require.False(t, qr.Success)
	require.Equal(t, "no such table: sales", qr.Err)
	require.Empty(t, qr.Data)
}

func TestParseResultsJSONMappingWithData(t *testing.T) {
	qr := ParseResults(`{"success": true, "data": [{"b": 2, "a": "x"}]}`)
	require.True(t, qr.Success)
	// Column order follows the raw JSON text, not map iteration.
	require.Equal(t, []string{"b", "a"}, qr.Columns)
	require.Equal(t, 2.0, qr.Data[0]["b"])
	require.Equal(t, "x", qr.Data[0]["a"])
}

func TestParseResultsMarkdownTable(t *testing.T) {
	raw := strings.Join([]string{
		"| a | b |",
		"|---|---|",
		"| 1 | x |",
		"| 2 | y |",
	}, "\n")
	qr := ParseResults(raw)
	require.True(t, qr.Success)
	require.Equal(t, []string{"a", "b"}, qr.Columns)
	require.Len(t, qr.Data, 2)
	require.Equal(t, 1.0, qr.Data[0]["a"])
	require.Equal(t, "x", qr.Data[0]["b"])
	require.Equal(t, 2.0, qr.Data[1]["a"])
	require.Equal(t, "y", qr.Data[1]["b"])
}

func TestParseResultsMarkdownUnescapesHeaders(t *testing.T) {
	raw := strings.Join([]string{
		`| product\_id | list\_price |`,
		"|---|---|",
		"| 7 | 34.99 |",
	}, "\n")
	qr := ParseResults(raw)
	require.True(t, qr.Success)
	require.Equal(t, []string{"product_id", "list_price"}, qr.Columns)
	require.Equal(t, 7.0, qr.Data[0]["product_id"])
}

func TestParseResultsMarkdownSkipsRepeatedHeaderAndSeparators(t *testing.T) {
	raw := strings.Join([]string{
		"| a | b |",
		"|:---|---:|",
		"| a | b |",
		":--- extra alignment line |",
		"| 3 | z |",
	}, "\n")
	qr := ParseResults(raw)
	require.True(t, qr.Success)
	require.Len(t, qr.Data, 1)
	require.Equal(t, 3.0, qr.Data[0]["a"])
}

func TestParseResultsMarkdownTooFewLinesFallsThrough(t *testing.T) {
	qr := ParseResults("| a | b |\n|---|---|")
	require.False(t, qr.Success)
	require.Contains(t, qr.Err, "Could not parse query results. Output: ")
}

func TestParseResultsPlainTextError(t *testing.T) {
	qr := ParseResults("connection refused")
	require.False(t, qr.Success)
	require.Empty(t, qr.Data)
	require.Equal(t, "Could not parse query results. Output: connection refused", qr.Err)
}

func TestParseResultsTruncatesLongOutput(t *testing.T) {
	long := strings.Repeat("x", 250)
	qr := ParseResults(long)
	require.False(t, qr.Success)
	require.Equal(t, "Could not parse query results. Output: "+strings.Repeat("x", 100), qr.Err)
}

func TestParseResultsScalarJSONIsNotAResult(t *testing.T) {
	qr := ParseResults("42")
	require.False(t, qr.Success)
	require.Equal(t, "Could not parse query results. Output: 42", qr.Err)
}

func TestBuildTablePreservesColumnOrder(t *testing.T) {
	qr := ParseResults(`[{"z":1,"a":2},{"z":3,"a":4,"m":5}]`)
	require.True(t, qr.Success)
	table := BuildTable(qr)
	// Source order first, columns discovered later appended.
	require.Equal(t, []string{"z", "a", "m"}, table.Columns)
	require.Len(t, table.Rows, 2)
	require.False(t, table.Empty())
}

func TestBuildTableFromFailureIsNil(t *testing.T) {
	require.Nil(t, BuildTable(&QueryResult{Success: false}))
	require.Nil(t, BuildTable(nil))
}

func TestBuildTableEmptyData(t *testing.T) {
	qr := ParseResults("[]")
	require.True(t, qr.Success)
	table := BuildTable(qr)
	require.NotNil(t, table)
	require.True(t, table.Empty())
}

func TestFormatCell(t *testing.T) {
	require.Equal(t, "1", FormatCell(1.0))
	require.Equal(t, "20.24", FormatCell(20.24))
	require.Equal(t, "x", FormatCell("x"))
	require.Equal(t, "", FormatCell(nil))
}
