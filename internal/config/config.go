// Package config centralizes application configuration. It follows a
// "clean" configuration pattern where all tunables live outside the
// code and are sourced from command-line flags with environment-variable
// fallbacks (12-factor friendly). Flags are defined first so that
// `-help` shows all available knobs and their defaults.
//
// Typical usage:
//
//	cfg := config.Load() // reads os.Args and os.Environ
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-batch_size=10"})
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds all process configuration derived from flags and
// environment variables. All fields are plain values so the struct
// can be safely copied after construction.
type Config struct {
	// IO controls input/diagnostic file locations.
	TweetsCSV  string // Path to the tweets CSV corpus.
	SkippedCSV string // Path for the skipped-row CSV log; empty disables the file (tally only).

	// DB describes the target database. For MSSQL a full DSN is required.
	// For Postgres, DSN is optional (it can be built from discrete parts).
	DBDriver   string // Database driver: "postgres" or "mssql".
	DSN        string // Full DSN (required for MSSQL; optional for Postgres).
	DBUser     string // Database username (Postgres convenience).
	DBPassword string // Database password (Postgres convenience).
	DBHost     string // Database host (Postgres convenience).
	DBPort     string // Database port (Postgres convenience).
	DBName     string // Database name (Postgres convenience).

	// Import tunables.
	BatchSize int // Number of rows per transactional batch.

	// GenAI describes the external text-generation service.
	GenAIKey     string // API key (bearer token).
	GenAIBaseURL string // Base URL of the chat-completions API.
	GenAIModel   string // Model identifier.
	GenAITimeout int    // Per-request timeout in seconds.

	// Metrics (optional; empty gateway URL keeps the no-op backend).
	PushgatewayURL string // Prometheus Pushgateway base URL.
	MetricsJob     string // Pushgateway job label.
}

// PostgresDSN returns cfg.DSN when set, otherwise a DSN assembled from the
// discrete Postgres fields.
func (c *Config) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag
// to an environment-variable fallback via getenv, and then parsing args.
// This is the most testable entry point: callers supply a private FlagSet,
// a getenv func (often backed by a map), and a synthetic arg slice.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// The returned Config is fully populated; no further mutation occurs.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	// Inline helpers use the provided getenv to avoid touching process env.
	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}

	// IO paths
	fs.StringVar(&cfg.TweetsCSV, "tweets_csv", envOrDefaultFn("TWEETS_CSV", "training.1600000.processed.noemoticon.csv"), "Path to the tweets CSV corpus")
	fs.StringVar(&cfg.SkippedCSV, "skipped_csv", envOrDefaultFn("SKIPPED_CSV", "./skipped/skipped_tweets.csv"), "Path for the skipped-row CSV log (empty = tally only)")

	// DB connectivity
	fs.StringVar(&cfg.DBDriver, "db_driver", envOrDefaultFn("DB_DRIVER", "postgres"), "Database driver: 'postgres' or 'mssql'.")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN (required for mssql).")

	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("DB_USER", "postgres"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOrDefaultFn("DB_PASSWORD", "postgres"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("DB_HOST", "localhost"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", envOrDefaultFn("DB_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("DB_NAME", "tweets_dataset"), "DB name")

	// Throughput
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 1000), "Number of rows per transactional batch")

	// GenAI
	fs.StringVar(&cfg.GenAIKey, "genai_key", getenv("OPENAI_API_KEY"), "Text-generation API key")
	fs.StringVar(&cfg.GenAIBaseURL, "genai_base_url", envOrDefaultFn("OPENAI_BASE_URL", "https://api.openai.com/v1"), "Chat-completions API base URL")
	fs.StringVar(&cfg.GenAIModel, "genai_model", envOrDefaultFn("OPENAI_MODEL", "gpt-3.5-turbo"), "Model identifier")
	fs.IntVar(&cfg.GenAITimeout, "genai_timeout", intEnvOrDefaultFn("OPENAI_TIMEOUT", 60), "Per-request timeout in seconds")

	// Metrics
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway URL (empty disables metrics)")
	fs.StringVar(&cfg.MetricsJob, "metrics_job", envOrDefaultFn("METRICS_JOB", "tweetsent"), "Pushgateway job label")

	// Parse the provided args (nil means no extra args).
	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// LoadFrom is a compatibility wrapper around LoadFromArgs for call-sites
// that don't need to pass args explicitly (useful in some tests).
func LoadFrom(fs *flag.FlagSet, getenv func(string) string) *Config {
	return LoadFromArgs(fs, getenv, nil)
}

// Load is the production entry point. It wires the loader to the process
// flag set (flag.CommandLine), reads environment variables via os.Getenv,
// and parses os.Args[1:] as the CLI arguments.
func Load() *Config {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}
