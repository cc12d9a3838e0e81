package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-agent-go/agent"
	"trpc.group/trpc-go/trpc-agent-go/event"
	"trpc.group/trpc-go/trpc-agent-go/model"
)

// fakeRunner replays canned events instead of driving a real agent.
type fakeRunner struct {
	events []*event.Event
	err    error
	calls  int
}

func (f *fakeRunner) Run(
	_ context.Context,
	_ string,
	_ string,
	_ model.Message,
	_ ...agent.RunOption,
) (<-chan *event.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan *event.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func deltaEvent(deltas map[string]string) *event.Event {
	evt := event.New("inv", "tester")
	evt.StateDelta = make(map[string][]byte, len(deltas))
	for k, v := range deltas {
		evt.StateDelta[k] = []byte(v)
	}
	return evt
}

func TestAnalyzeEmptyQuestionSkipsRunner(t *testing.T) {
	r := &fakeRunner{}
	a := New(r).Analyze(context.Background(), "user", "   ")
	require.True(t, a.Failed)
	require.Equal(t, "Error: Please enter a question", a.SQL)
	require.Equal(t, "Error: No question provided", a.Insights)
	require.Nil(t, a.Table)
	require.Nil(t, a.Chart)
	require.Zero(t, r.calls)
}

func TestAnalyzeSuccess(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{
			StateKeySQLQuery: "<thinking_process>plan</thinking_process>```sql\n" +
				"SELECT category, SUM(total) AS total FROM products GROUP BY category\n```",
		}),
		deltaEvent(map[string]string{
			StateKeyQueryResults: `[{"category":"Bikes","total":11589.81},{"category":"Clothing","total":68.48}]`,
		}),
		deltaEvent(map[string]string{
			StateKeyChartSpec:     `{"type":"bar","x":{"field":"category"},"y":{"field":"total"}}`,
			StateKeyTrendInsights: "Bikes dominate revenue.",
			StateKeyExplanation:   "Two categories returned.",
		}),
	}}

	a := New(r).Analyze(context.Background(), "user", "totals by category")
	require.False(t, a.Failed)
	require.Equal(t,
		"SELECT category, SUM(total) AS total FROM products GROUP BY category", a.SQL)
	require.NotNil(t, a.Table)
	require.Len(t, a.Table.Rows, 2)
	require.Equal(t, []string{"category", "total"}, a.Table.Columns)
	require.NotNil(t, a.Chart)
	require.Equal(t, "bar", a.Chart.VegaLite()["mark"])
	require.Contains(t, a.Insights, "### 📈 Strategic Trends\nBikes dominate revenue.")
	require.Contains(t, a.Insights, "### 💡 Data Summary\nTwo categories returned.")
	require.Equal(t, 1, r.calls)
}

func TestAnalyzeLastWriterWinsPerKey(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{StateKeySQLQuery: "SELECT 1"}),
		deltaEvent(map[string]string{StateKeySQLQuery: "SELECT 2"}),
		deltaEvent(map[string]string{StateKeyQueryResults: `[{"n":2}]`}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.Equal(t, "SELECT 2", a.SQL)
}

func TestAnalyzeDecodesJSONEncodedStateValues(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{
			StateKeySQLQuery:     `"SELECT 1"`,
			StateKeyQueryResults: `[{"n":1}]`,
		}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.Equal(t, "SELECT 1", a.SQL)
}

func TestAnalyzeParseFailureAnnotatesSQL(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{
			StateKeySQLQuery:     "SELECT * FROM sales",
			StateKeyQueryResults: "connection refused",
		}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.True(t, a.Failed)
	require.Equal(t,
		"-- Error executing query\nSELECT * FROM sales\n\n"+
			"-- Error: Could not parse query results. Output: connection refused", a.SQL)
	require.Equal(t,
		"Error executing query: Could not parse query results. Output: connection refused",
		a.Insights)
	require.Nil(t, a.Table)
	require.Nil(t, a.Chart)
}

func TestAnalyzeEmptyDataGetsPlaceholderChart(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{
			StateKeySQLQuery:     "SELECT 1 WHERE 0",
			StateKeyQueryResults: "[]",
			StateKeyChartSpec:    `{"type":"bar","x":{"field":"a"},"y":{"field":"b"}}`,
		}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.False(t, a.Failed)
	require.True(t, a.Table.Empty())
	require.NotNil(t, a.Chart)
	require.Equal(t, "Visual Insight Summary", a.Chart.VegaLite()["title"])
	require.Equal(t, noDataInsight, a.Insights)
}

func TestAnalyzeMissingResultsIsUnknownError(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{StateKeySQLQuery: "SELECT 1"}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.True(t, a.Failed)
	require.Contains(t, a.SQL, "-- Error: Unknown error")
}

func TestAnalyzeRunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("model unavailable")}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.True(t, a.Failed)
	require.Contains(t, a.SQL, "model unavailable")
	require.Contains(t, a.Insights, "model unavailable")
}

// panicRunner blows up below the Analyze frame.
type panicRunner struct{}

func (p *panicRunner) Run(
	_ context.Context,
	_ string,
	_ string,
	_ model.Message,
	_ ...agent.RunOption,
) (<-chan *event.Event, error) {
	panic("session service exploded")
}

func TestAnalyzeRecoversPanic(t *testing.T) {
	a := New(&panicRunner{}).Analyze(context.Background(), "user", "q")
	require.True(t, a.Failed)
	require.Equal(t, "Error: session service exploded", a.SQL)
	require.Equal(t, "Error: session service exploded", a.Insights)
	require.Equal(t, "q", a.Question)
	require.Nil(t, a.Table)
	require.Nil(t, a.Chart)
}

func TestAnalyzeInsightsFallback(t *testing.T) {
	r := &fakeRunner{events: []*event.Event{
		deltaEvent(map[string]string{
			StateKeySQLQuery:     "SELECT 1",
			StateKeyQueryResults: `[{"n":1}]`,
		}),
	}}
	a := New(r).Analyze(context.Background(), "user", "q")
	require.False(t, a.Failed)
	require.Equal(t, fallbackInsight, a.Insights)
	// No chart payload at all: nil chart, not a placeholder.
	require.Nil(t, a.Chart)
}
