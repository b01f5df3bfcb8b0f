package domain

import "time"

// Date layouts observed in the sentiment140 corpus. The zone abbreviation
// varies between PDT and PST, so both are tried in order.
var TweetDateLayouts = []string{
	"Mon Jan 02 15:04:05 PDT 2006",
	"Mon Jan 02 15:04:05 PST 2006",
}

// Sentiment labels as they appear in the corpus.
const (
	SentimentNegative = 0
	SentimentPositive = 4
)

// business object for one row of the tweets CSV.
type Tweet struct {
	ID        int64 // surrogate key, assigned by the store
	Sentiment int
	TweetID   int64 // identifier from the source dataset; may repeat
	TweetDate *time.Time
	Query     string
	Username  string
	Text      string
}

// Positive reports whether the tweet carries the positive label.
func (t *Tweet) Positive() bool { return t.Sentiment == SentimentPositive }

// ParseTweetDate parses a corpus date string, trying each known layout in
// order. It returns nil when no layout matches; an unparseable date is an
// expected outcome, not an error.
func ParseTweetDate(s string) *time.Time {
	for _, layout := range TweetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
