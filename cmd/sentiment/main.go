// Command sentiment looks up a user's stored tweets and drives the
// generation-backed workflows: a sentiment explanation for one tweet, or a
// negative-to-positive rewrite that is persisted back to the store.
//
// Like the importer, it keeps main() tiny and funnels all side effects
// through Deps so run() is testable end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"tweetsent/internal/annotate"
	"tweetsent/internal/config"
	"tweetsent/internal/db"
	"tweetsent/internal/domain"
	"tweetsent/internal/genai"
	"tweetsent/internal/textnorm"
)

// Options are the per-invocation arguments on top of Config.
type Options struct {
	// Username to look up. A leading @ is tolerated and stripped.
	Username string

	// AnalyzeID, when non-zero, asks for a sentiment explanation of that
	// tweet. RewriteID, when non-zero, rewrites that tweet to positive and
	// persists it. Both default to listing only.
	AnalyzeID int64
	RewriteID int64
}

// Deps holds injectable boundaries for run().
type Deps struct {
	NewPgStore    func(ctx context.Context, dsn string) (db.TweetStore, error)
	NewMSSQLStore func(dsn string) (db.TweetStore, error)
	NewGenerator  func(cfg *config.Config) genai.Generator
	Out           io.Writer
}

func defaultDeps() Deps {
	return Deps{
		NewPgStore:    db.NewPgTweetStore,
		NewMSSQLStore: db.NewMSSQLTweetStore,
		NewGenerator: func(cfg *config.Config) genai.Generator {
			return genai.NewClient(genai.Config{
				APIKey:  cfg.GenAIKey,
				BaseURL: cfg.GenAIBaseURL,
				Model:   cfg.GenAIModel,
				Timeout: time.Duration(cfg.GenAITimeout) * time.Second,
			})
		},
		Out: os.Stdout,
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

// sentimentWord renders the stored label for display.
func sentimentWord(tw domain.Tweet) string {
	if tw.Positive() {
		return "Positive"
	}
	return "Negative"
}

// printTweet writes the listing block for one tweet: raw text, normalized
// text, extracted emojis (or None), label word, and date when present.
func printTweet(w io.Writer, tw domain.Tweet) {
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Tweet ID: %d\n", tw.ID)
	fmt.Fprintf(w, "Original Text: %s\n", tw.Text)
	fmt.Fprintf(w, "Processed Text: %s\n", textnorm.Normalize(tw.Text))
	emojis := textnorm.ExtractEmojis(tw.Text)
	if emojis == "" {
		emojis = "None"
	}
	fmt.Fprintf(w, "Emojis: %s\n", emojis)
	fmt.Fprintf(w, "Sentiment: %s\n", sentimentWord(tw))
	if tw.TweetDate != nil {
		fmt.Fprintf(w, "Date: %s\n", tw.TweetDate.Format("2006-01-02 15:04:05"))
	}
}

// run lists the user's tweets and optionally runs one workflow against a
// selected tweet id.
func run(ctx context.Context, cfg *config.Config, opts Options, deps Deps) error {
	username := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(opts.Username), "@"))
	if username == "" {
		return fmt.Errorf("--username required")
	}

	factory, err := storeFactory(cfg, deps)
	if err != nil {
		return err
	}

	store, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("open tweet store: %w", err)
	}
	tweets, err := store.TweetsByUsername(ctx, username)
	_ = store.Close(ctx)
	if err != nil {
		return fmt.Errorf("fetch tweets for %s: %w", username, err)
	}

	if len(tweets) == 0 {
		fmt.Fprintf(deps.Out, "No tweets found for username: %s\n", username)
		return nil
	}

	fmt.Fprintf(deps.Out, "Tweets for @%s\n", username)
	for _, tw := range tweets {
		printTweet(deps.Out, tw)
	}

	findTweet := func(id int64) (domain.Tweet, error) {
		for _, tw := range tweets {
			if tw.ID == id {
				return tw, nil
			}
		}
		return domain.Tweet{}, fmt.Errorf("tweet %d does not belong to @%s", id, username)
	}

	if opts.AnalyzeID != 0 {
		tw, err := findTweet(opts.AnalyzeID)
		if err != nil {
			return err
		}
		fmt.Fprintln(deps.Out, "### Sentiment Analysis")
		fmt.Fprintln(deps.Out, annotate.Explain(ctx, deps.NewGenerator(cfg), tw))
	}

	if opts.RewriteID != 0 {
		tw, err := findTweet(opts.RewriteID)
		if err != nil {
			return err
		}
		rewritten, err := annotate.RewritePositive(ctx, deps.NewGenerator(cfg), factory, tw)
		if err != nil {
			return err
		}
		fmt.Fprintln(deps.Out, "Successfully converted tweet to positive!")
		fmt.Fprintln(deps.Out, "### Updated Tweet")
		tw.Text = rewritten
		tw.Sentiment = domain.SentimentPositive
		printTweet(deps.Out, tw)
	}

	return nil
}

func main() {
	// Action flags live on the shared flag set so config.Load parses
	// everything in one pass.
	username := flag.String("username", "", "Twitter username to look up (leading @ tolerated)")
	analyzeID := flag.Int64("analyze", 0, "Tweet id to produce a sentiment explanation for")
	rewriteID := flag.Int64("positive", 0, "Tweet id to rewrite as positive and persist")

	cfg := config.Load()
	opts := Options{
		Username:  *username,
		AnalyzeID: *analyzeID,
		RewriteID: *rewriteID,
	}
	if err := run(context.Background(), cfg, opts, defaultDeps()); err != nil {
		log.Fatal(err)
	}
}
