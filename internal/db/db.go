package db

import (
	"context"

	"tweetsent/internal/domain"
)

// TweetColumns is the column order used for bulk inserts into the tweets
// table. Batch rows handed to InsertTweets must align with it.
var TweetColumns = []string{"sentiment", "tweet_id", "tweet_date", "query", "username", "tweet_text"}

// TweetStore is the narrow persistence capability the importer and the
// annotation workflows depend on. Each adapter owns its connection and the
// transaction lifecycle of every call: InsertTweets and UpdateTweetRewrite
// are atomic (commit on success, rollback otherwise).
type TweetStore interface {
	Close(ctx context.Context) error

	// CreateTweetsTable is idempotent create-if-absent of the destination
	// table and its username index. Safe to call on every startup.
	CreateTweetsTable(ctx context.Context) error

	// InsertTweets persists one batch as a single transactional multi-row
	// insert. Rows must align with TweetColumns.
	InsertTweets(ctx context.Context, rows [][]any) error

	// TweetsByUsername returns the user's tweets, matched case-insensitively,
	// ordered by tweet date descending.
	TweetsByUsername(ctx context.Context, username string) ([]domain.Tweet, error)

	// UpdateTweetRewrite overwrites the stored text and sentiment label for
	// one surrogate key, in one transaction.
	UpdateTweetRewrite(ctx context.Context, id int64, text string, sentiment int) error

	// CountTweets reports the current table size (post-load verification).
	CountTweets(ctx context.Context) (int64, error)
}

// TweetStoreFactory mints a fresh TweetStore with its own connection. The
// annotation workflows open and close one per action, independent of the
// importer's connection lifetime.
type TweetStoreFactory func(ctx context.Context) (TweetStore, error)
