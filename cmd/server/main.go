// Package main provides the unified evaluation service:
// - Batch (scheduled): evaluates all active phase accounts, commits outcomes
// - Ingestion (continuous, optional): WebSocket trade fill feed
// - HTTP: /health, /metrics, /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalabhaftu/propeval/internal/batch"
	"github.com/kalabhaftu/propeval/internal/config"
	"github.com/kalabhaftu/propeval/internal/domain"
	"github.com/kalabhaftu/propeval/internal/evaluation"
	"github.com/kalabhaftu/propeval/internal/ingestion"
	"github.com/kalabhaftu/propeval/internal/observability"
	"github.com/kalabhaftu/propeval/internal/payout"
	"github.com/kalabhaftu/propeval/internal/storage"
	chstore "github.com/kalabhaftu/propeval/internal/storage/clickhouse"
	"github.com/kalabhaftu/propeval/internal/storage/memory"
	"github.com/kalabhaftu/propeval/internal/storage/migrations"
	pgstore "github.com/kalabhaftu/propeval/internal/storage/postgres"
)

// Server holds all components of the evaluation service.
type Server struct {
	evalInterval time.Duration
	wsEndpoint   string

	stores       *allStores
	runner       *batch.Runner
	payoutSvc    *payout.Service
	payoutPolicy *domain.PayoutPolicy
	logger       *log.Logger

	mu           sync.Mutex
	started      time.Time
	lastBatchRun time.Time
	batchRunning bool
	batchRuns    int
	lastSummary  *batch.Summary
}

// allStores holds all storage implementations.
type allStores struct {
	phaseStore  storage.PhaseAccountStore
	tradeStore  storage.TradeStore
	anchorStore storage.AnchorStore
	breachStore storage.BreachRecordStore
	payoutStore storage.PayoutStore
	equityStore storage.EquityTimeseriesStore
}

func main() {
	// Load .env if present; system env wins.
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, equity analytics)")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("FILLS_WS_ENDPOINT"), "Trade fill feed WebSocket endpoint (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	evalInterval := flag.Duration("eval-interval", 5*time.Minute, "Batch evaluation interval")
	workers := flag.Int("workers", batch.DefaultWorkers, "Batch evaluation concurrency")
	templatePath := flag.String("template", os.Getenv("RULE_TEMPLATE"), "YAML rule template (payout section enables the /payout endpoint)")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for health/metrics/status")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	evaluator := evaluation.New(evaluation.Options{
		PhaseAccountStore: stores.phaseStore,
		TradeStore:        stores.tradeStore,
		AnchorStore:       stores.anchorStore,
		Logger:            log.New(os.Stdout, "[evaluation] ", log.LstdFlags),
	})

	runner := batch.New(batch.Options{
		PhaseAccountStore:     stores.phaseStore,
		TradeStore:            stores.tradeStore,
		BreachRecordStore:     stores.breachStore,
		EquityTimeseriesStore: stores.equityStore,
		Evaluator:             evaluator,
		Workers:               *workers,
		Logger:                log.New(os.Stdout, "[batch] ", log.LstdFlags),
	})

	server := &Server{
		evalInterval: *evalInterval,
		wsEndpoint:   *wsEndpoint,
		stores:       stores,
		runner:       runner,
		logger:       logger,
		started:      time.Now(),
	}

	if *templatePath != "" {
		tpl, err := config.LoadTemplate(*templatePath)
		if err != nil {
			logger.Fatalf("Load template: %v", err)
		}
		if policy := tpl.PayoutPolicy(); policy != nil {
			server.payoutPolicy = policy
			server.payoutSvc = payout.NewService(payout.ServiceOptions{
				PhaseAccountStore: stores.phaseStore,
				TradeStore:        stores.tradeStore,
				BreachRecordStore: stores.breachStore,
				PayoutStore:       stores.payoutStore,
				Logger:            log.New(os.Stdout, "[payout] ", log.LstdFlags),
			})
			logger.Printf("Payout eligibility endpoint enabled (template %s)", tpl.Name)
		}
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go server.startHTTPServer(*metricsAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			phaseStore:  memory.NewPhaseAccountStore(),
			tradeStore:  memory.NewTradeStore(),
			anchorStore: memory.NewAnchorStore(),
			breachStore: memory.NewBreachRecordStore(),
			payoutStore: memory.NewPayoutStore(),
			equityStore: memory.NewEquityTimeseriesStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		phaseStore:  pgstore.NewPhaseAccountStore(pool),
		tradeStore:  pgstore.NewTradeStore(pool),
		anchorStore: pgstore.NewAnchorStore(pool),
		breachStore: pgstore.NewBreachRecordStore(pool),
		payoutStore: pgstore.NewPayoutStore(pool),
	}

	cleanup := func() { pool.Close() }

	// ClickHouse is optional; without it the equity curve is simply not written.
	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.equityStore = chstore.NewEquityTimeseriesStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// Run starts the batch scheduler and optional ingestion.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting evaluation service...")

	errCh := make(chan error, 2)

	if s.wsEndpoint != "" {
		go func() {
			if err := s.runIngestion(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("ingestion: %w", err)
			}
		}()
	}

	go func() {
		if err := s.runBatchScheduler(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("batch scheduler: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runIngestion runs continuous fill ingestion from the WebSocket feed.
func (s *Server) runIngestion(ctx context.Context) error {
	s.logger.Printf("Starting fill ingestion from %s...", s.wsEndpoint)

	source, err := ingestion.NewWSFillSource(ctx, s.wsEndpoint, nil,
		log.New(os.Stdout, "[ingestion] ", log.LstdFlags))
	if err != nil {
		return fmt.Errorf("create fill source: %w", err)
	}
	defer source.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:     source,
		TradeStore: s.stores.tradeStore,
		Logger:     log.New(os.Stdout, "[ingestion] ", log.LstdFlags),
	})

	return runner.Run(ctx)
}

// runBatchScheduler runs the evaluation sweep on schedule.
func (s *Server) runBatchScheduler(ctx context.Context) error {
	s.logger.Printf("Starting batch scheduler (interval: %v)...", s.evalInterval)

	// Run immediately on start
	s.runBatch(ctx)

	ticker := time.NewTicker(s.evalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runBatch(ctx)
		}
	}
}

// runBatch executes one evaluation sweep.
func (s *Server) runBatch(ctx context.Context) {
	s.mu.Lock()
	if s.batchRunning {
		s.mu.Unlock()
		s.logger.Println("Batch already running, skipping...")
		return
	}
	s.batchRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchRunning = false
		s.lastBatchRun = time.Now()
		s.batchRuns++
		s.mu.Unlock()
	}()

	summary, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Printf("Batch error: %v", err)
		return
	}

	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()

	observability.DefaultMetrics.LastSuccessfulBatch.Set(float64(time.Now().Unix()))
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)

	if s.payoutSvc != nil {
		mux.HandleFunc("/payout", s.handlePayout)
	}

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastBatchRun    time.Time `json:"last_batch_run,omitempty"`
	BatchRuns       int       `json:"batch_runs"`
	BatchRunning    bool      `json:"batch_running"`
	LastRunID       string    `json:"last_run_id,omitempty"`
	LastEvaluated   int       `json:"last_evaluated"`
	LastBreached    int       `json:"last_breached"`
	LastAdvanceable int       `json:"last_advance_eligible"`
	LastErrors      int       `json:"last_errors"`
}

// handlePayout returns payout eligibility for one phase account as JSON.
func (s *Server) handlePayout(w http.ResponseWriter, r *http.Request) {
	phaseID := r.URL.Query().Get("phase")
	if phaseID == "" {
		http.Error(w, "missing phase query parameter", http.StatusBadRequest)
		return
	}

	eligibility, err := s.payoutSvc.CheckAccount(r.Context(), phaseID, *s.payoutPolicy)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "phase account not found", http.StatusNotFound)
			return
		}
		s.logger.Printf("Payout eligibility for %s: %v", phaseID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eligibility)
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		LastBatchRun: s.lastBatchRun,
		BatchRuns:    s.batchRuns,
		BatchRunning: s.batchRunning,
	}
	if s.lastSummary != nil {
		resp.LastRunID = s.lastSummary.RunID
		resp.LastEvaluated = s.lastSummary.Evaluated
		resp.LastBreached = s.lastSummary.Breached
		resp.LastAdvanceable = s.lastSummary.AdvanceEligible
		resp.LastErrors = len(s.lastSummary.Errors)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
