package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"tweetsent/internal/config"
	"tweetsent/internal/db"
	"tweetsent/internal/domain"
	"tweetsent/internal/genai"
)

// memStore serves canned tweets and records rewrites.
type memStore struct {
	byUser      map[string][]domain.Tweet
	gotUsername string
	updatedID   int64
	updatedText string
	updatedSent int
}

func (m *memStore) Close(ctx context.Context) error                      { return nil }
func (m *memStore) CreateTweetsTable(ctx context.Context) error          { return nil }
func (m *memStore) InsertTweets(ctx context.Context, rows [][]any) error { return nil }
func (m *memStore) TweetsByUsername(ctx context.Context, username string) ([]domain.Tweet, error) {
	m.gotUsername = username
	return m.byUser[username], nil
}
func (m *memStore) UpdateTweetRewrite(ctx context.Context, id int64, text string, sentiment int) error {
	m.updatedID, m.updatedText, m.updatedSent = id, text, sentiment
	return nil
}
func (m *memStore) CountTweets(ctx context.Context) (int64, error) { return 0, nil }

// cannedGen returns a fixed completion.
type cannedGen struct{ out string }

func (g cannedGen) Chat(ctx context.Context, system, user string) (string, error) {
	return g.out, nil
}

func depsFor(store *memStore, gen genai.Generator, out *bytes.Buffer) Deps {
	return Deps{
		NewPgStore: func(ctx context.Context, dsn string) (db.TweetStore, error) {
			return store, nil
		},
		NewGenerator: func(cfg *config.Config) genai.Generator { return gen },
		Out:          out,
	}
}

func pgConfig() *config.Config {
	return &config.Config{
		DBDriver: "postgres",
		DBUser:   "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d",
	}
}

func sampleTweets() map[string][]domain.Tweet {
	date := time.Date(2009, 4, 6, 22, 19, 45, 0, time.UTC)
	return map[string][]domain.Tweet{
		"alice": {
			{ID: 1, Sentiment: domain.SentimentNegative, TweetID: 100, TweetDate: &date, Username: "alice", Text: "worst monday 😢 @boss"},
			{ID: 2, Sentiment: domain.SentimentPositive, TweetID: 101, Username: "alice", Text: "great coffee"},
		},
	}
}

// TestRun_ListsTweets covers the lookup path: leading @ and mixed case are
// stripped, and the listing shows raw text, processed text, emojis, and the
// label word.
func TestRun_ListsTweets(t *testing.T) {
	store := &memStore{byUser: sampleTweets()}
	var out bytes.Buffer

	err := run(context.Background(), pgConfig(), Options{Username: "@AlIcE"}, depsFor(store, cannedGen{}, &out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.gotUsername != "alice" {
		t.Fatalf("username not cleaned: %q", store.gotUsername)
	}
	text := out.String()
	for _, want := range []string{
		"Tweets for @alice",
		"Original Text: worst monday 😢 @boss",
		"Processed Text: worst monday",
		"Emojis: 😢",
		"Sentiment: Negative",
		"Sentiment: Positive",
		"Date: 2009-04-06 22:19:45",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("listing missing %q:\n%s", want, text)
		}
	}
	// The emoji-free tweet shows the explicit marker.
	if !strings.Contains(text, "Emojis: None") {
		t.Fatalf("missing None marker:\n%s", text)
	}
}

// TestRun_NoTweetsFound prints the not-found message without erroring.
func TestRun_NoTweetsFound(t *testing.T) {
	store := &memStore{byUser: map[string][]domain.Tweet{}}
	var out bytes.Buffer

	if err := run(context.Background(), pgConfig(), Options{Username: "ghost"}, depsFor(store, cannedGen{}, &out)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "No tweets found for username: ghost") {
		t.Fatalf("missing not-found message:\n%s", out.String())
	}
}

// TestRun_AnalyzeTweet appends the generated analysis after the listing.
func TestRun_AnalyzeTweet(t *testing.T) {
	store := &memStore{byUser: sampleTweets()}
	var out bytes.Buffer

	err := run(context.Background(), pgConfig(),
		Options{Username: "alice", AnalyzeID: 1},
		depsFor(store, cannedGen{out: "Clearly negative."}, &out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "### Sentiment Analysis") || !strings.Contains(out.String(), "Clearly negative.") {
		t.Fatalf("analysis missing:\n%s", out.String())
	}
}

// TestRun_RewritePersistsAndPrints rewrites a tweet, persists the positive
// label, and prints the updated block.
func TestRun_RewritePersistsAndPrints(t *testing.T) {
	store := &memStore{byUser: sampleTweets()}
	var out bytes.Buffer

	err := run(context.Background(), pgConfig(),
		Options{Username: "alice", RewriteID: 1},
		depsFor(store, cannedGen{out: "mondays are a fresh start!"}, &out))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.updatedID != 1 || store.updatedText != "mondays are a fresh start!" {
		t.Fatalf("rewrite not persisted: id=%d text=%q", store.updatedID, store.updatedText)
	}
	if store.updatedSent != domain.SentimentPositive {
		t.Fatalf("label %d, want %d", store.updatedSent, domain.SentimentPositive)
	}
	text := out.String()
	if !strings.Contains(text, "Successfully converted tweet to positive!") {
		t.Fatalf("missing success message:\n%s", text)
	}
	if !strings.Contains(text, "### Updated Tweet") || !strings.Contains(text, "mondays are a fresh start!") {
		t.Fatalf("updated block missing:\n%s", text)
	}
}

// TestRun_UnknownTweetID rejects ids outside the user's tweets.
func TestRun_UnknownTweetID(t *testing.T) {
	store := &memStore{byUser: sampleTweets()}
	var out bytes.Buffer

	err := run(context.Background(), pgConfig(),
		Options{Username: "alice", AnalyzeID: 999},
		depsFor(store, cannedGen{}, &out))
	if err == nil || !strings.Contains(err.Error(), "does not belong") {
		t.Fatalf("want ownership error, got %v", err)
	}
}

// TestRun_MissingUsername is a configuration error.
func TestRun_MissingUsername(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), pgConfig(), Options{}, depsFor(&memStore{}, cannedGen{}, &out))
	if err == nil || !strings.Contains(err.Error(), "--username required") {
		t.Fatalf("want username error, got %v", err)
	}
}
