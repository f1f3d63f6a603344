// Command quilldbd opens a quilldb database file and keeps its
// orchestrator alive behind a metrics endpoint. No RPC transport is
// wired in here — spec.md's Non-goals exclude it — so this is the
// flag-parsing, logging, and metrics-exposing shell around
// internal/server.Server, grounded on
// NayanaChandrika99-DocReasoner/tree_db/cmd/treestore/main.go's
// flag-based wiring and graceful-shutdown shape, minus the grpc.Server
// it wraps there.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quilldb/quilldb/db"
	"github.com/quilldb/quilldb/exec"
	"github.com/quilldb/quilldb/internal/logger"
	"github.com/quilldb/quilldb/internal/metrics"
	"github.com/quilldb/quilldb/internal/server"
)

// config is quilldbd's flag-populated configuration, following
// spec.md's DESIGN NOTES "global state" split: process-wide constants
// live as package vars elsewhere (row.TDEF_META/TDEF_TABLE); anything
// that varies per deployment lives here.
type config struct {
	dbPath        string
	metricsAddr   string
	logLevel      string
	logPretty     bool
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.dbPath, "db", "quilldb.db", "database file path")
	flag.StringVar(&cfg.metricsAddr, "metrics-addr", ":9090", "address to serve /metrics and /healthz on")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&cfg.logPretty, "log-pretty", false, "pretty-print logs for local development")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	logger.InitGlobal(logger.Config{Level: cfg.logLevel, Pretty: cfg.logPretty, WithCaller: cfg.logPretty})
	log := logger.Global()
	met := metrics.New()

	database, err := db.Open(cfg.dbPath)
	if err != nil {
		log.Error("failed to open database").Str("path", cfg.dbPath).Err(err).Send()
		os.Exit(1)
	}
	database.WithMetrics(met)
	defer database.Close()

	engine := exec.New(database, log.WithComponent("exec"), met)
	_ = server.New(engine) // wired for a future transport; none is mounted here

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	httpServer := &http.Server{Addr: cfg.metricsAddr, Handler: mux}

	go func() {
		log.Info("metrics endpoint listening").Str("addr", cfg.metricsAddr).Send()
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed").Err(err).Send()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down").Send()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}
