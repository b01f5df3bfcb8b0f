// Package skiplog records rows the importer skipped, both as a per-reason
// tally and (optionally) as a CSV file for later inspection. A skipped row
// is a modeled outcome of the load, not an error, so nothing here aborts
// the run.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Log tallies skipped rows by reason and mirrors them to a CSV writer when
// one is attached. The zero value is unusable; use New or NewTally.
type Log struct {
	reasons map[string]int
	total   int
	w       *csv.Writer
	closeFn func() error
}

// NewTally returns a Log that only counts; nothing is written to disk.
func NewTally() *Log {
	return &Log{reasons: make(map[string]int)}
}

// New creates the parent directory and the CSV file at path, writes the
// header, and returns a Log that mirrors every skip to it. Call Close when
// the run finishes.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"reason", "line_number", "raw_line"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return &Log{
		reasons: make(map[string]int),
		w:       w,
		closeFn: func() error {
			w.Flush()
			if err := w.Error(); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}, nil
}

// Add records one skipped row.
func (l *Log) Add(reason string, lineNum int, raw string) {
	l.reasons[reason]++
	l.total++
	if l.w != nil {
		_ = l.w.Write([]string{reason, strconv.Itoa(lineNum), raw})
	}
}

// Total returns the number of rows recorded.
func (l *Log) Total() int { return l.total }

// Count returns the tally for one reason.
func (l *Log) Count(reason string) int { return l.reasons[reason] }

// Summary formats the per-reason tallies as "reason=n, reason=n" with
// reasons in sorted order, for the end-of-run log line.
func (l *Log) Summary() string {
	keys := make([]string, 0, len(l.reasons))
	for k := range l.reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, l.reasons[k]))
	}
	return strings.Join(parts, ", ")
}

// Close flushes and closes the underlying file, if any.
func (l *Log) Close() error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}
