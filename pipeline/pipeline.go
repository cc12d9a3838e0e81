// Package pipeline drives one BI agent run per user question and
// interprets the state it leaves behind. The agent pipeline itself
// (prompting, SQL generation, tool calls) lives in the runner; this
// package only collects its state deltas and shapes the four outputs
// the UI renders: SQL, table, chart and insights.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/model"
	"trpc.group/trpc-go/trpc-agent-go/runner"

	"github.com/dewdew978/GBI-BI-Agent/interpret"
)

// State keys the agent pipeline writes through output-key bindings.
const (
	StateKeySQLQuery      = "sql_query"
	StateKeyQueryResults  = "query_results"
	StateKeyChartSpec     = "chart_spec"
	StateKeyTrendInsights = "trend_insights"
	StateKeyExplanation   = "explanation_text"
)

const (
	noDataInsight   = "The query executed successfully but returned no data."
	fallbackInsight = "The query executed successfully but no additional insights were generated."
)

// Analysis is the complete outcome of one question: the four outputs
// plus a failure flag. It is always fully populated; failures are
// reported through the SQL annotation and Insights text, never as a
// raised error.
type Analysis struct {
	Question string
	SQL      string
	Table    *interpret.Table
	Chart    *interpret.Chart
	Insights string
	Failed   bool
}

// Pipeline runs the BI agent and interprets its results.
type Pipeline struct {
	runner runner.Runner
}

// New wraps an agent runner into a question-answering pipeline.
func New(r runner.Runner) *Pipeline {
	return &Pipeline{runner: r}
}

// Analyze answers one natural-language question. It never returns an
// error: any failure, including a panic below this frame, degrades to
// an Analysis carrying the error text.
func (p *Pipeline) Analyze(ctx context.Context, userID, question string) (analysis *Analysis) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("pipeline: recovered from panic: %v", r)
			analysis = failedAnalysis(question, fmt.Sprintf("Error: %v", r), fmt.Sprintf("Error: %v", r))
		}
	}()

	if strings.TrimSpace(question) == "" {
		return failedAnalysis(question, "Error: Please enter a question", "Error: No question provided")
	}

	state, err := p.runState(ctx, userID, question)
	if err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		return failedAnalysis(question, msg, msg)
	}

	sql := interpret.CleanSQL(state[StateKeySQLQuery])
	rawResults, ok := state[StateKeyQueryResults]
	if !ok {
		rawResults = "{}"
	}
	qr := interpret.ParseResults(rawResults)

	if !qr.Success {
		errMsg := qr.Err
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		return &Analysis{
			Question: question,
			SQL:      fmt.Sprintf("-- Error executing query\n%s\n\n-- Error: %s", sql, errMsg),
			Insights: "Error executing query: " + errMsg,
			Failed:   true,
		}
	}

	table := interpret.BuildTable(qr)
	if table.Empty() {
		return &Analysis{
			Question: question,
			SQL:      sql,
			Table:    table,
			Chart:    interpret.NoDataChart(),
			Insights: noDataInsight,
		}
	}

	return &Analysis{
		Question: question,
		SQL:      sql,
		Table:    table,
		Chart:    interpret.SynthesizeChart(state[StateKeyChartSpec], table),
		Insights: composeInsights(state[StateKeyTrendInsights], state[StateKeyExplanation]),
	}
}

// runState performs one runner invocation under a fresh session and
// folds the emitted state deltas into a snapshot, last writer wins per
// key.
func (p *Pipeline) runState(ctx context.Context, userID, question string) (map[string]string, error) {
	sessionID := uuid.NewString()
	events, err := p.runner.Run(ctx, userID, sessionID, model.NewUserMessage(question))
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	state := make(map[string]string)
	for evt := range events {
		if evt == nil {
			continue
		}
		if evt.Error != nil {
			log.Warnf("pipeline: agent %s reported error: %s", evt.Author, evt.Error.Message)
		}
		for key, value := range evt.StateDelta {
			state[key] = decodeStateValue(value)
		}
	}
	return state, nil
}

// decodeStateValue turns a state delta payload into text. Output-key
// bindings store either raw text or a JSON-encoded string depending on
// the producing agent.
func decodeStateValue(value []byte) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return string(value)
}

// composeInsights concatenates the trend and explanation sections,
// keeping only those present.
func composeInsights(trend, explanation string) string {
	var b strings.Builder
	if trend != "" {
		fmt.Fprintf(&b, "### 📈 Strategic Trends\n%s\n\n---\n", trend)
	}
	if explanation != "" {
		fmt.Fprintf(&b, "### 💡 Data Summary\n%s", explanation)
	}
	if b.Len() == 0 {
		return fallbackInsight
	}
	return b.String()
}

func failedAnalysis(question, sql, insight string) *Analysis {
	return &Analysis{Question: question, SQL: sql, Insights: insight, Failed: true}
}
