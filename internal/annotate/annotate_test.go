package annotate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tweetsent/internal/db"
	"tweetsent/internal/domain"
)

// fakeGen captures the prompt pair and returns a canned completion.
type fakeGen struct {
	system string
	user   string
	out    string
	err    error
}

func (g *fakeGen) Chat(ctx context.Context, system, user string) (string, error) {
	g.system, g.user = system, user
	return g.out, g.err
}

// fakeStore records the rewrite call.
type fakeStore struct {
	updatedID   int64
	updatedText string
	updatedSent int
	updateErr   error
}

func (f *fakeStore) Close(ctx context.Context) error             { return nil }
func (f *fakeStore) CreateTweetsTable(ctx context.Context) error { return nil }
func (f *fakeStore) InsertTweets(ctx context.Context, rows [][]any) error {
	return nil
}
func (f *fakeStore) TweetsByUsername(ctx context.Context, username string) ([]domain.Tweet, error) {
	return nil, nil
}
func (f *fakeStore) UpdateTweetRewrite(ctx context.Context, id int64, text string, sentiment int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedID, f.updatedText, f.updatedSent = id, text, sentiment
	return nil
}
func (f *fakeStore) CountTweets(ctx context.Context) (int64, error) { return 0, nil }

func factoryFor(f *fakeStore) db.TweetStoreFactory {
	return func(ctx context.Context) (db.TweetStore, error) { return f, nil }
}

// TestExplain_PromptCarriesAllForms checks the prompt includes the raw text,
// the normalized text, and the extracted emojis.
func TestExplain_PromptCarriesAllForms(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{out: "Overall sentiment: Negative."}
	tw := domain.Tweet{ID: 1, Sentiment: 0, Text: "ugh @boss http://x.co worst monday 😢"}

	got := Explain(context.Background(), gen, tw)
	if got != "Overall sentiment: Negative." {
		t.Fatalf("unexpected analysis: %q", got)
	}
	if !strings.Contains(gen.user, "ugh @boss http://x.co worst monday 😢") {
		t.Fatalf("raw text missing from prompt:\n%s", gen.user)
	}
	if !strings.Contains(gen.user, "Processed Tweet: ugh worst monday") {
		t.Fatalf("normalized text missing from prompt:\n%s", gen.user)
	}
	if !strings.Contains(gen.user, "Emojis: 😢") {
		t.Fatalf("emojis missing from prompt:\n%s", gen.user)
	}
	if !strings.Contains(gen.system, "sentiment analysis") {
		t.Fatalf("system prompt: %q", gen.system)
	}
}

// TestExplain_NoEmojisMarkedNone checks the explicit "None" marker.
func TestExplain_NoEmojisMarkedNone(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{out: "ok"}
	Explain(context.Background(), gen, domain.Tweet{Text: "plain text only"})
	if !strings.Contains(gen.user, "Emojis: None") {
		t.Fatalf("missing None marker:\n%s", gen.user)
	}
}

// TestExplain_ErrorBecomesMessage verifies generation failures are rendered
// inline instead of propagating as errors.
func TestExplain_ErrorBecomesMessage(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{err: errors.New("model offline")}
	got := Explain(context.Background(), gen, domain.Tweet{Text: "hi"})
	if !strings.Contains(got, "Error in sentiment analysis") || !strings.Contains(got, "model offline") {
		t.Fatalf("error not rendered: %q", got)
	}
}

// TestRewritePositive_PersistsRewrite checks the happy path: generated text
// lands in the store under the tweet's id with the positive label.
func TestRewritePositive_PersistsRewrite(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{out: "making the best of monday!"}
	store := &fakeStore{}
	tw := domain.Tweet{ID: 42, Sentiment: domain.SentimentNegative, Text: "worst monday ever"}

	got, err := RewritePositive(context.Background(), gen, factoryFor(store), tw)
	if err != nil {
		t.Fatalf("RewritePositive: %v", err)
	}
	if got != "making the best of monday!" {
		t.Fatalf("rewritten text: %q", got)
	}
	if store.updatedID != 42 || store.updatedText != got {
		t.Fatalf("store update wrong: id=%d text=%q", store.updatedID, store.updatedText)
	}
	if store.updatedSent != domain.SentimentPositive {
		t.Fatalf("sentiment label %d, want %d", store.updatedSent, domain.SentimentPositive)
	}
	if !strings.Contains(gen.user, "Provide only the converted positive tweet text.") {
		t.Fatalf("rewrite prompt incomplete:\n%s", gen.user)
	}
}

// TestRewritePositive_GenerationErrorSkipsStore ensures nothing is persisted
// when generation fails.
func TestRewritePositive_GenerationErrorSkipsStore(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{err: errors.New("quota exceeded")}
	store := &fakeStore{}

	_, err := RewritePositive(context.Background(), gen, factoryFor(store), domain.Tweet{ID: 7, Text: "bad"})
	if err == nil {
		t.Fatalf("want generation error")
	}
	if store.updatedID != 0 {
		t.Fatalf("store must not be touched on generation failure")
	}
}

// TestRewritePositive_StoreErrorSurfaces propagates persistence failures.
func TestRewritePositive_StoreErrorSurfaces(t *testing.T) {
	t.Parallel()

	gen := &fakeGen{out: "fine"}
	store := &fakeStore{updateErr: errors.New("db down")}

	_, err := RewritePositive(context.Background(), gen, factoryFor(store), domain.Tweet{ID: 7, Text: "bad"})
	if err == nil || !strings.Contains(err.Error(), "persist rewrite") {
		t.Fatalf("want persistence error, got %v", err)
	}
}
