package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/flexprice/usagebilling/internal/cache"
	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/domain/invoice"
	"github.com/flexprice/usagebilling/internal/domain/usage"
	ierr "github.com/flexprice/usagebilling/internal/errors"
	"github.com/flexprice/usagebilling/internal/logger"
	"github.com/flexprice/usagebilling/internal/repository"
	"github.com/flexprice/usagebilling/internal/repository/memory"
	"github.com/flexprice/usagebilling/internal/service"
	"github.com/flexprice/usagebilling/internal/types"
	"github.com/flexprice/usagebilling/internal/validator"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

// app holds the dependencies the command drives
type app struct {
	fx.In

	Logger          *logger.Logger
	CatalogStore    *memory.CatalogStore
	RawUsageRepo    usage.Repository
	InvoiceItemRepo invoice.Repository
	UsageService    service.UsageInArrearService
}

func main() {
	bill := flag.Bool("bill", false, "Store the billable items once computed")
	timeout := flag.Duration("timeout", time.Minute, "Timeout of the billing run")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <input.json|->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	// a missing .env file is fine, the environment and config.yaml still apply
	_ = godotenv.Load()

	var deps app
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Repositories
			repository.NewCatalogStore,
			repository.NewCatalogRepository,
			repository.NewRawUsageRepository,
			repository.NewInvoiceItemRepository,

			// Services
			service.NewServiceParams,
			service.NewUsageInArrearService,
		),
		fx.Invoke(validator.NewValidator),
		fx.Populate(&deps),
	)
	if err := fxApp.Err(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))

	if err := run(ctx, deps, flag.Arg(0), *bill, os.Stdout); err != nil {
		deps.Logger.Errorw("evaluation failed", "error", err, "hints", ierr.GetHints(err))
		_ = deps.Logger.Sync()
		os.Exit(1)
	}
	_ = deps.Logger.Sync()
}

func run(ctx context.Context, deps app, path string, bill bool, out io.Writer) error {
	raw, err := readInput(path)
	if err != nil {
		return err
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return err
	}

	reqs, err := doc.load(ctx, deps)
	if err != nil {
		return err
	}

	results, err := evaluate(ctx, deps, reqs, bill)
	if err != nil {
		return err
	}

	deps.Logger.WithContext(ctx).Infow("evaluated subscriptions",
		"subscriptions", len(results),
		"target_date", doc.targetDate,
		"bill", bill)
	return writeOutput(out, results)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func evaluate(ctx context.Context, deps app, reqs []*service.SubscriptionUsageRequest, bill bool) ([]*service.SubscriptionUsageResult, error) {
	if !bill {
		return deps.UsageService.ComputeUsage(ctx, reqs)
	}

	results := make([]*service.SubscriptionUsageResult, 0, len(reqs))
	for _, req := range reqs {
		result, err := deps.UsageService.BillSubscriptionUsage(ctx, req)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
