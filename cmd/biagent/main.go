// Command biagent serves the Business Intelligence agent console: a
// natural-language question goes through the text-to-SQL / execution /
// trend / visualization / explanation pipeline and comes back as SQL,
// a table, a chart and insights.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"trpc.group/trpc-go/trpc-agent-go/log"
	"trpc.group/trpc-go/trpc-agent-go/model/openai"
	"trpc.group/trpc-go/trpc-agent-go/runner"
	sessioninmemory "trpc.group/trpc-go/trpc-agent-go/session/inmemory"

	"github.com/dewdew978/GBI-BI-Agent/biagent"
	"github.com/dewdew978/GBI-BI-Agent/config"
	"github.com/dewdew978/GBI-BI-Agent/pipeline"
	"github.com/dewdew978/GBI-BI-Agent/server"
)

const appName = "bi_agent"

var (
	configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file")
	envFile    = flag.String("env-file", ".env", "Path to a .env file with API credentials")
	addr       = flag.String("addr", "", "Listen address, overrides the config file")
	modelName  = flag.String("model", "", "Model name, overrides the config file")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Debugf("no env file loaded from %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *modelName != "" {
		cfg.Model.Name = *modelName
	}
	log.SetLevel(cfg.Log.Level)

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := biagent.EnsureDemoData(ctx, db); err != nil {
		log.Fatalf("prepare demo database: %v", err)
	}

	modelInstance := openai.New(cfg.Model.Name)
	rootAgent := biagent.NewRootAgent(modelInstance, db)
	agentRunner := runner.NewRunner(
		appName,
		rootAgent,
		runner.WithSessionService(sessioninmemory.NewSessionService()),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(pipeline.New(agentRunner)).Handler(),
	}

	go func() {
		log.Infof("BI agent console listening on %s (model %s)", cfg.Server.Addr, cfg.Model.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	log.Infof("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
