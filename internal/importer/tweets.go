// Package importer ingests the labeled tweets CSV into the tweet store in
// transactional batches. Malformed rows never abort the run: they are tallied
// and logged to a skipped-rows CSV, and the importer moves on.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"tweetsent/internal/config"
	"tweetsent/internal/db"
	"tweetsent/internal/domain"
	"tweetsent/internal/metrics"
	"tweetsent/internal/skiplog"
)

// tweetFieldCount is the column count of the sentiment140 corpus:
// sentiment, tweet_id, tweet_date, query, username, tweet_text.
const tweetFieldCount = 6

// Result summarizes one import run. Imported is the run-local count of rows
// this run actually flushed, which is authoritative; a post-load COUNT(*) is
// reported separately as the table size because the table may hold rows from
// earlier runs.
type Result struct {
	Imported int
	Skipped  int
	Batches  int
	// DatesUnparsed counts imported rows whose date field matched no known
	// layout; the rows are kept with a NULL date.
	DatesUnparsed int
	Duration      time.Duration
}

// parseRecord converts one raw CSV record into a Tweet. The record must have
// at least tweetFieldCount fields; extra fields are ignored. Sentiment and
// tweet id must be integers. An unparseable date is not an error: the tweet
// keeps a nil date, matching the store's nullable column.
func parseRecord(fields []string) (*domain.Tweet, error) {
	if len(fields) < tweetFieldCount {
		return nil, fmt.Errorf("want %d fields, got %d", tweetFieldCount, len(fields))
	}
	sentiment, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid sentiment: %v", err)
	}
	tweetID, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tweet id: %v", err)
	}
	return &domain.Tweet{
		Sentiment: sentiment,
		TweetID:   tweetID,
		TweetDate: domain.ParseTweetDate(fields[2]),
		Query:     fields[3],
		Username:  fields[4],
		Text:      fields[5],
	}, nil
}

// ImportTweets streams the corpus CSV at path into a fresh store from the
// factory. The file is decoded as ISO-8859-1 (the corpus is not UTF-8).
// Batches of cfg.BatchSize rows are flushed as single transactions; a final
// partial batch is flushed at EOF. Skipped rows go to the skip log with a
// reason. A missing input file is fatal; everything after that is per-row.
func ImportTweets(ctx context.Context, cfg *config.Config, factory db.TweetStoreFactory, path string, skips *skiplog.Log) (*Result, error) {
	start := time.Now()

	store, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("open tweet store: %w", err)
	}
	defer store.Close(ctx)

	if err := store.CreateTweetsTable(ctx); err != nil {
		return nil, fmt.Errorf("create tweets table: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tweets csv: %w", err)
	}
	defer f.Close()

	// sentiment140 ships latin-1 encoded; transcode on the fly.
	r := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	res := &Result{}
	batch := make([][]any, 0, cfg.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stepStart := time.Now()
		err := store.InsertTweets(ctx, batch)
		metrics.RecordStep("import", "insert_batch", err, time.Since(stepStart))
		if err != nil {
			return err
		}
		res.Imported += len(batch)
		res.Batches++
		batch = batch[:0]

		elapsed := time.Since(start).Seconds()
		rps := float64(res.Imported)
		if elapsed > 0 {
			rps = float64(res.Imported) / elapsed
		}
		log.Printf("tweets: inserted=%d skipped=%d rate_per_second=%.0f", res.Imported, res.Skipped, rps)
		return nil
	}

	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineNum := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				lineNum = perr.Line
			}
			res.Skipped++
			skips.Add("parse_error", lineNum, "")
			metrics.RecordRow("import", "skipped", 1)
			continue
		}
		// File line this record starts on; quoted fields may span lines.
		lineNum, _ := r.FieldPos(0)

		tw, err := parseRecord(fields)
		if err != nil {
			res.Skipped++
			reason := "field_parse_error"
			if len(fields) < tweetFieldCount {
				reason = "column_mismatch"
			}
			skips.Add(reason, lineNum, strings.Join(fields, ","))
			metrics.RecordRow("import", "skipped", 1)
			continue
		}

		if tw.TweetDate == nil {
			res.DatesUnparsed++
			metrics.RecordRow("import", "date_unparsed", 1)
			log.Printf("⚠️ could not parse tweet date %q (line %d); storing NULL", fields[2], lineNum)
		}

		batch = append(batch, []any{
			tw.Sentiment, tw.TweetID, tw.TweetDate, tw.Query, tw.Username, tw.Text,
		})
		if len(batch) >= cfg.BatchSize {
			if err := flush(); err != nil {
				return res, fmt.Errorf("insert tweets batch: %w", err)
			}
		}
	}

	if err := flush(); err != nil {
		return res, fmt.Errorf("insert tweets final batch: %w", err)
	}

	res.Duration = time.Since(start)
	metrics.RecordRow("import", "imported", int64(res.Imported))
	metrics.RecordBatches("import", int64(res.Batches))
	metrics.RecordStep("import", "load_csv", nil, res.Duration)

	log.Printf("tweets: done inserted=%d skipped=%d dates_unparsed=%d (%s), duration=%s, rate_per_second=%.0f",
		res.Imported, res.Skipped, res.DatesUnparsed, skips.Summary(),
		res.Duration.Round(time.Millisecond),
		float64(res.Imported)/res.Duration.Seconds())

	return res, nil
}
