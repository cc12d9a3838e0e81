package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dewdew978/GBI-BI-Agent/interpret"
)

func TestReport(t *testing.T) {
	report, err := Report(
		"top products by price",
		"SELECT name, list_price FROM products ORDER BY list_price DESC",
		sampleTable(),
		"### 📈 Strategic Trends\nBikes dominate.",
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(report[:5]), "%PDF-"))
	require.Greater(t, len(report), 1000)
}

func TestReportEmptyTable(t *testing.T) {
	report, err := Report("q", "SELECT 1 WHERE 0", &interpret.Table{}, "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(report[:5]), "%PDF-"))
}

func TestReportTruncatesLargeTables(t *testing.T) {
	table := &interpret.Table{Columns: []string{"n"}}
	for i := 0; i < maxReportRows+10; i++ {
		table.Rows = append(table.Rows, interpret.Row{"n": float64(i)})
	}
	report, err := Report("q", "SELECT n FROM t", table, "")
	require.NoError(t, err)
	require.NotEmpty(t, report)
}
