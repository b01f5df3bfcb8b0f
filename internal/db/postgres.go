// Package db provides database adapter implementations for Postgres (pgx)
// and MSSQL behind the TweetStore interface. This file contains the
// Postgres adapter, which wraps pgx.Conn while remaining testable via a
// lightweight seam.
//
// Design goals:
//   - Allow mocking via the pgConnLike interface (for hermetic unit tests).
//   - Keep behavior minimal and predictable—no implicit retries.
//   - Maintain parity with the MSSQL adapter where possible.
package db

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tweetsent/internal/domain"
)

// pgConnLike defines the minimal subset of methods used from *pgx.Conn.
// This seam allows injecting a test double that mimics *pgx.Conn behavior,
// enabling hermetic (non-networked) testing of the adapter.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// pgTweets is the Postgres TweetStore adapter.
type pgTweets struct{ conn pgConnLike }

// NewPgTweetStore connects to Postgres using pgx.Connect and wraps the
// connection. Callers are responsible for closing it via Close().
func NewPgTweetStore(ctx context.Context, dsn string) (TweetStore, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgTweets{conn: c}, nil
}

// CreateTweetsTable ensures the "tweets" table exists using proper Postgres
// DDL semantics ("IF NOT EXISTS"). The surrogate key is store-assigned; the
// creation timestamp defaults server-side.
func (p *pgTweets) CreateTweetsTable(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS tweets (
		id SERIAL PRIMARY KEY,
		sentiment INTEGER,
		tweet_id BIGINT,
		tweet_date TIMESTAMP,
		query VARCHAR(255),
		username VARCHAR(255),
		tweet_text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS tweets_username_idx ON tweets(LOWER(username));`
	_, err := p.conn.Exec(ctx, ddl)
	return err
}

// InsertTweets performs a COPY FROM operation for bulk inserts into the
// "tweets" table. It runs within a transaction to ensure atomicity: either
// the whole batch lands or none of it does.
func (p *pgTweets) InsertTweets(ctx context.Context, rows [][]any) error {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"tweets"},
		TweetColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres CopyFrom tweets: %w", err)
	}

	// Log if fewer rows were inserted than expected.
	if n != int64(len(rows)) {
		log.Printf("⚠️ postgres CopyFrom inserted %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres commit tweets: %w", err)
	}
	return nil
}

// TweetsByUsername fetches all tweets for a username, case-insensitively,
// newest first.
func (p *pgTweets) TweetsByUsername(ctx context.Context, username string) ([]domain.Tweet, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT id, sentiment, tweet_id, tweet_date, query, username, tweet_text
		FROM tweets
		WHERE LOWER(username) = $1
		ORDER BY tweet_date DESC`,
		strings.ToLower(username),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres query tweets: %w", err)
	}
	defer rows.Close()

	var out []domain.Tweet
	for rows.Next() {
		var tw domain.Tweet
		if err := rows.Scan(&tw.ID, &tw.Sentiment, &tw.TweetID, &tw.TweetDate, &tw.Query, &tw.Username, &tw.Text); err != nil {
			return nil, fmt.Errorf("postgres scan tweet: %w", err)
		}
		out = append(out, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres read tweets: %w", err)
	}
	return out, nil
}

// UpdateTweetRewrite overwrites text and sentiment for one surrogate key in
// a transaction; rollback on any failure.
func (p *pgTweets) UpdateTweetRewrite(ctx context.Context, id int64, text string, sentiment int) error {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE tweets SET tweet_text = $1, sentiment = $2 WHERE id = $3`,
		text, sentiment, id,
	); err != nil {
		return fmt.Errorf("postgres update tweet %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

// CountTweets returns the total number of rows in the tweets table.
func (p *pgTweets) CountTweets(ctx context.Context) (int64, error) {
	var n int64
	if err := p.conn.QueryRow(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres count tweets: %w", err)
	}
	return n, nil
}

// Close closes the underlying pgx.Conn.
func (p *pgTweets) Close(ctx context.Context) error { return p.conn.Close(ctx) }

// newPgTweetsFromConn constructs a pgTweets from a pgConnLike fake.
// Used exclusively in unit tests.
func newPgTweetsFromConn(c pgConnLike) *pgTweets { return &pgTweets{conn: c} }
