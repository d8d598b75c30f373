package feed

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

var errBadCursor = errors.New("malformed cursor")

// cursor marks the last item a client has seen and the instant the feed was ranked at.
// Later pages rank against that same instant so recency decay cannot reorder them.
type cursor struct {
	FeedType  Type    `json:"f"`
	Score     float64 `json:"s"`
	CreatedAt int64   `json:"t"` // unix nanoseconds
	ID        string  `json:"id"`
	RankedAt  int64   `json:"n,omitempty"` // unix nanoseconds
}

func cursorFor(t Type, it *ranked, rankedAt time.Time) cursor {
	return cursor{
		FeedType:  t,
		Score:     it.score,
		CreatedAt: it.post.CreatedAt.UnixNano(),
		ID:        it.post.ID,
		RankedAt:  rankedAt.UnixNano(),
	}
}

// rankedAt returns the instant the first page was ranked at, or fallback for old cursors
func (c cursor) rankedAt(fallback time.Time) time.Time {
	if c.RankedAt <= 0 {
		return fallback
	}
	return time.Unix(0, c.RankedAt).UTC()
}

func (c cursor) encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, errBadCursor
	}

	var c cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return cursor{}, errBadCursor
	}
	if c.ID == "" || !c.FeedType.Valid() {
		return cursor{}, errBadCursor
	}
	return c, nil
}

// ranksAfter reports whether it comes strictly after the cursor position in feed order
func (c cursor) ranksAfter(it *ranked) bool {
	if it.score != c.Score {
		return it.score < c.Score
	}
	if t := it.post.CreatedAt.UnixNano(); t != c.CreatedAt {
		return t < c.CreatedAt
	}
	return it.post.ID > c.ID
}
