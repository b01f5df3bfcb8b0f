// Package db: portable SQL adapter (MSSQL via database/sql). The adapter
// favors portability over engine-specific bulk paths, so the batch insert
// falls back to a prepared INSERT executed per row inside one transaction.
// This is slower than Postgres COPY but keeps import code database-agnostic.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"tweetsent/internal/domain"
)

//
// Testability-first seams: we keep sqlDBCore compatible with *sql.DB
// (BeginTx returns *sql.Tx) so callers and tests can inject a real *sql.DB,
// while unit tests inject light fakes—no sockets required.
//

// stmtCore is the minimal subset of *sql.Stmt we use.
type stmtCore interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	Close() error
}

// sqlTxCore is the subset of a transaction the adapter uses.
type sqlTxCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (stmtCore, error)
	Commit() error
	Rollback() error
}

// sqlDBCore is the minimal subset of *sql.DB we use. It must match *sql.DB.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// realSQLTx adapts *sql.Tx to sqlTxCore.
type realSQLTx struct{ tx *sql.Tx }

func (r realSQLTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.tx.ExecContext(ctx, q, args...)
}
func (r realSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	st, err := r.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return realStmt{st}, nil
}
func (r realSQLTx) Commit() error   { return r.tx.Commit() }
func (r realSQLTx) Rollback() error { return r.tx.Rollback() }

type realStmt struct{ s *sql.Stmt }

func (r realStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return r.s.ExecContext(ctx, args...)
}
func (r realStmt) Close() error { return r.s.Close() }

// sqlTweets is the portable TweetStore adapter for engines behind
// database/sql (SQL Server today).
type sqlTweets struct {
	db sqlDBCore
	// beginTx indirection lets unit tests substitute a fake transaction.
	beginTx func(ctx context.Context) (sqlTxCore, error)
}

// NewMSSQLTweetStore opens a SQL Server connection and pings to confirm
// connectivity.
func NewMSSQLTweetStore(dsn string) (TweetStore, error) {
	d, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	s := &sqlTweets{db: d}
	s.beginTx = func(ctx context.Context) (sqlTxCore, error) {
		raw, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		return realSQLTx{tx: raw}, nil
	}
	return s, nil
}

// CreateTweetsTable ensures the "tweets" table exists with SQL Server types.
func (m *sqlTweets) CreateTweetsTable(ctx context.Context) error {
	ddl := `
	IF OBJECT_ID(N'tweets', N'U') IS NULL
	CREATE TABLE tweets (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		sentiment INT,
		tweet_id BIGINT,
		tweet_date DATETIME2 NULL,
		query NVARCHAR(255),
		username NVARCHAR(255),
		tweet_text NVARCHAR(MAX),
		created_at DATETIME2 DEFAULT SYSUTCDATETIME()
	)`
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tweets (mssql): %w", err)
	}
	_, err := m.db.ExecContext(ctx, `IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'tweets_username_idx')
	  CREATE INDEX tweets_username_idx ON tweets(username)`)
	return err
}

// InsertTweets emulates bulk insert by preparing an INSERT and executing
// once per row, all inside one transaction.
func (m *sqlTweets) InsertTweets(ctx context.Context, rows [][]any) error {
	tx, err := m.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(TweetColumns))
	for i := range TweetColumns {
		placeholders[i] = fmt.Sprintf("@p%d", i+1) // SQL Server style
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO tweets (%s) VALUES (%s)",
		strings.Join(TweetColumns, ","),
		strings.Join(placeholders, ","),
	))
	if err != nil {
		return fmt.Errorf("mssql prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("mssql insert tweet row: %w", err)
		}
	}
	return tx.Commit()
}

// TweetsByUsername fetches all tweets for a username, case-insensitively,
// newest first.
func (m *sqlTweets) TweetsByUsername(ctx context.Context, username string) ([]domain.Tweet, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sentiment, tweet_id, tweet_date, query, username, tweet_text
		FROM tweets
		WHERE LOWER(username) = @p1
		ORDER BY tweet_date DESC`,
		strings.ToLower(username),
	)
	if err != nil {
		return nil, fmt.Errorf("mssql query tweets: %w", err)
	}
	defer rows.Close()

	var out []domain.Tweet
	for rows.Next() {
		var (
			tw   domain.Tweet
			date sql.NullTime
		)
		if err := rows.Scan(&tw.ID, &tw.Sentiment, &tw.TweetID, &date, &tw.Query, &tw.Username, &tw.Text); err != nil {
			return nil, fmt.Errorf("mssql scan tweet: %w", err)
		}
		if date.Valid {
			t := date.Time
			tw.TweetDate = &t
		}
		out = append(out, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql read tweets: %w", err)
	}
	return out, nil
}

// UpdateTweetRewrite overwrites text and sentiment for one surrogate key in
// a transaction.
func (m *sqlTweets) UpdateTweetRewrite(ctx context.Context, id int64, text string, sentiment int) error {
	tx, err := m.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tweets SET tweet_text = @p1, sentiment = @p2 WHERE id = @p3`,
		text, sentiment, id,
	); err != nil {
		return fmt.Errorf("mssql update tweet %d: %w", id, err)
	}
	return tx.Commit()
}

// CountTweets returns the total number of rows in the tweets table.
func (m *sqlTweets) CountTweets(ctx context.Context) (int64, error) {
	var n int64
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("mssql count tweets: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (m *sqlTweets) Close(ctx context.Context) error { return m.db.Close() }
