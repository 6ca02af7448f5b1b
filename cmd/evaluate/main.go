// Package main provides one-shot evaluation of a single phase account.
// It prints the evaluation result as JSON and never persists a transition;
// committing outcomes is the batch runner's job.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kalabhaftu/propeval/internal/config"
	"github.com/kalabhaftu/propeval/internal/evaluation"
	"github.com/kalabhaftu/propeval/internal/payout"
	"github.com/kalabhaftu/propeval/internal/storage/migrations"
	pgstore "github.com/kalabhaftu/propeval/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	masterID := flag.String("master", "", "Master account ID (optional ownership check)")
	phaseID := flag.String("phase", "", "Phase account ID to evaluate")
	templatePath := flag.String("template", "", "YAML rule template for a what-if run")
	templatePhase := flag.String("template-phase", "", "Phase name inside the template (default: first phase)")
	checkPayout := flag.Bool("payout", false, "Check payout eligibility instead of evaluating (requires --template with a payout section)")
	pretty := flag.Bool("pretty", true, "Indent JSON output")

	flag.Parse()

	logger := log.New(os.Stderr, "[evaluate] ", log.LstdFlags)

	if *phaseID == "" {
		logger.Fatal("--phase is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Run migrations: %v", err)
	}

	phaseStore := pgstore.NewPhaseAccountStore(pool)
	tradeStore := pgstore.NewTradeStore(pool)
	anchorStore := pgstore.NewAnchorStore(pool)

	var tpl *config.Template
	if *templatePath != "" {
		tpl, err = config.LoadTemplate(*templatePath)
		if err != nil {
			logger.Fatalf("Load template: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	if *checkPayout {
		if tpl == nil || tpl.PayoutPolicy() == nil {
			logger.Fatal("--payout requires --template with a payout section")
		}
		svc := payout.NewService(payout.ServiceOptions{
			PhaseAccountStore: phaseStore,
			TradeStore:        tradeStore,
			BreachRecordStore: pgstore.NewBreachRecordStore(pool),
			PayoutStore:       pgstore.NewPayoutStore(pool),
			Logger:            logger,
		})
		eligibility, err := svc.CheckAccount(ctx, *phaseID, *tpl.PayoutPolicy())
		if err != nil {
			logger.Fatalf("Check payout eligibility for %s: %v", *phaseID, err)
		}
		if err := enc.Encode(eligibility); err != nil {
			logger.Fatalf("Encode eligibility: %v", err)
		}
		return
	}

	// A what-if run overlays template rules on the stored account before
	// evaluation, without writing anything back.
	opts := evaluation.Options{
		PhaseAccountStore: phaseStore,
		TradeStore:        tradeStore,
		AnchorStore:       anchorStore,
		Logger:            logger,
	}
	if tpl != nil {
		rules := &tpl.Phases[0]
		if *templatePhase != "" {
			rules = tpl.Phase(*templatePhase)
			if rules == nil {
				logger.Fatalf("Template %s has no phase named %q", tpl.Name, *templatePhase)
			}
		}
		opts.PhaseAccountStore = &templatedPhaseStore{
			PhaseAccountStore: phaseStore,
			template:          tpl,
			rules:             rules,
		}
	}

	evaluator := evaluation.New(opts)

	result, err := evaluator.EvaluatePhase(ctx, *masterID, *phaseID)
	if err != nil {
		logger.Fatalf("Evaluate phase %s: %v", *phaseID, err)
	}

	if err := enc.Encode(result); err != nil {
		logger.Fatalf("Encode result: %v", err)
	}

	fmt.Fprintf(os.Stderr, "next action: %s\n", result.NextAction)
}
