// Package biagent assembles the Business Intelligence agent pipeline:
// text-to-SQL, SQL execution, trend analysis, and an insight chain of
// visualization and explanation, run in sequence by a chain agent.
// Each stage publishes its output to session state under the key the
// result interpreter reads back.
package biagent

import (
	"database/sql"

	"trpc.group/trpc-go/trpc-agent-go/agent"
	"trpc.group/trpc-go/trpc-agent-go/agent/chainagent"
	"trpc.group/trpc-go/trpc-agent-go/agent/llmagent"
	"trpc.group/trpc-go/trpc-agent-go/model"
	"trpc.group/trpc-go/trpc-agent-go/tool"

	"github.com/dewdew978/GBI-BI-Agent/pipeline"
)

// AgentName is the root agent registered with the runner.
const AgentName = "bi-pipeline"

// NewRootAgent builds the sequential BI pipeline on top of the given
// model and demo database.
func NewRootAgent(modelInstance model.Model, db *sql.DB) agent.Agent {
	genConfig := model.GenerationConfig{
		MaxTokens:   intPtr(2000),
		Temperature: floatPtr(0.2),
		Stream:      false,
	}

	textToSQL := llmagent.New(
		"text-to-sql",
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Generates a SQL query from a natural language question."),
		llmagent.WithInstruction(textToSQLInstruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithOutputKey(pipeline.StateKeySQLQuery),
	)

	sqlExecutor := llmagent.New(
		"sql-executor",
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Executes the generated SQL against the product database."),
		llmagent.WithInstruction(sqlExecutorInstruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithTools([]tool.Tool{NewExecuteSQLTool(db)}),
		llmagent.WithOutputKey(pipeline.StateKeyQueryResults),
	)

	trendAnalyst := llmagent.New(
		"trend-analyst",
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Highlights business-significant aspects of the result set."),
		llmagent.WithInstruction(trendAnalystInstruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithOutputKey(pipeline.StateKeyTrendInsights),
	)

	visualization := llmagent.New(
		"visualization",
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Emits a declarative chart specification for the results."),
		llmagent.WithInstruction(visualizationInstruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithOutputKey(pipeline.StateKeyChartSpec),
	)

	explanation := llmagent.New(
		"explanation",
		llmagent.WithModel(modelInstance),
		llmagent.WithDescription("Explains the results in plain language."),
		llmagent.WithInstruction(explanationInstruction),
		llmagent.WithGenerationConfig(genConfig),
		llmagent.WithOutputKey(pipeline.StateKeyExplanation),
	)

	insightPipeline := chainagent.New(
		"insight-pipeline",
		chainagent.WithSubAgents([]agent.Agent{visualization, explanation}),
	)

	return chainagent.New(
		AgentName,
		chainagent.WithSubAgents([]agent.Agent{
			textToSQL,
			sqlExecutor,
			trendAnalyst,
			insightPipeline,
		}),
	)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
