// Command importer loads the labeled tweets corpus into the configured
// database. It is a thin composition layer: all side effects (DB
// constructors, the import entrypoint, metrics backend construction) are
// injected via Deps so run() stays fully testable.
//
// Design goals:
//   - Keep main() tiny and delegate to run() for testability.
//   - Avoid hidden globals and make behavior obvious from Deps.
//   - Prefer explicit, readable control flow over cleverness.
package main

import (
	"context"
	"fmt"
	"log"

	"tweetsent/internal/config"
	"tweetsent/internal/db"
	"tweetsent/internal/importer"
	"tweetsent/internal/metrics"
	"tweetsent/internal/metrics/prompush"
	"tweetsent/internal/skiplog"
)

// Deps holds injectable dependencies so run() is fully testable. Each field
// is a boundary that would otherwise be hard-coded in main(). Tests pass
// fakes here; defaultDeps() provides the real implementations.
type Deps struct {
	// Constructors (DB adapters)
	NewPgStore    func(ctx context.Context, dsn string) (db.TweetStore, error)
	NewMSSQLStore func(dsn string) (db.TweetStore, error)

	// Import entrypoint
	ImportTweets func(ctx context.Context, cfg *config.Config, factory db.TweetStoreFactory, path string, skips *skiplog.Log) (*importer.Result, error)

	// Metrics backend constructor (Pushgateway); only used when configured.
	NewMetricsBackend func(jobName, gatewayURL string) (*prompush.Backend, error)
}

// defaultDeps wires production implementations. Tests inject fakes.
func defaultDeps() Deps {
	return Deps{
		NewPgStore:        db.NewPgTweetStore,
		NewMSSQLStore:     db.NewMSSQLTweetStore,
		ImportTweets:      importer.ImportTweets,
		NewMetricsBackend: prompush.NewBackend,
	}
}

// storeFactory builds the TweetStoreFactory for the selected driver.
func storeFactory(cfg *config.Config, deps Deps) (db.TweetStoreFactory, error) {
	switch cfg.DBDriver {
	case "postgres":
		dsn := cfg.PostgresDSN()
		return func(ctx context.Context) (db.TweetStore, error) {
			return deps.NewPgStore(ctx, dsn)
		}, nil
	case "mssql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("--dsn required for mssql")
		}
		return func(ctx context.Context) (db.TweetStore, error) {
			return deps.NewMSSQLStore(cfg.DSN)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported --db_driver=%q", cfg.DBDriver)
	}
}

// run executes the import:
//
//  1. Optionally wires the Pushgateway metrics backend.
//  2. Builds the store factory for the selected driver (postgres|mssql).
//  3. Opens the skipped-rows log and streams the corpus in batches.
//  4. Reports the run-local imported count and the resulting table size.
func run(ctx context.Context, cfg *config.Config, deps Deps) error {
	if cfg.PushgatewayURL != "" {
		backend, err := deps.NewMetricsBackend(cfg.MetricsJob, cfg.PushgatewayURL)
		if err != nil {
			return fmt.Errorf("init metrics backend: %w", err)
		}
		metrics.SetBackend(backend)
	}

	factory, err := storeFactory(cfg, deps)
	if err != nil {
		return err
	}

	skips := skiplog.NewTally()
	if cfg.SkippedCSV != "" {
		skips, err = skiplog.New(cfg.SkippedCSV)
		if err != nil {
			return fmt.Errorf("open skip log: %w", err)
		}
		defer skips.Close()
	}

	res, err := deps.ImportTweets(ctx, cfg, factory, cfg.TweetsCSV, skips)
	if err != nil {
		return fmt.Errorf("tweets import failed: %w", err)
	}

	// Post-load verification: the run-local count is authoritative for this
	// run; COUNT(*) reflects the whole table, prior runs included.
	store, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("open store for verification: %w", err)
	}
	defer store.Close(ctx)
	total, err := store.CountTweets(ctx)
	if err != nil {
		return fmt.Errorf("verify row count: %w", err)
	}
	log.Printf("import complete: imported=%d skipped=%d batches=%d table_rows=%d",
		res.Imported, res.Skipped, res.Batches, total)

	if err := metrics.Flush(); err != nil {
		log.Printf("⚠️ metrics flush failed: %v", err)
	}
	return nil
}

// main is intentionally tiny. It loads config, builds real deps, and runs.
// Any error is fatal; we log once and exit non-zero.
func main() {
	cfg := config.Load()
	if err := run(context.Background(), cfg, defaultDeps()); err != nil {
		log.Fatal(err)
	}
}
