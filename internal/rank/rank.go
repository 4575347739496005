// Package rank orders documents HackerNews-style: vote score plus a
// recency bonus for documents published within the last week.
package rank

import (
	"sort"
	"time"
)

const (
	recencyWindowDays = 7
	recencyWeight     = 2
)

// Item is anything rankable: a publication date (YYYY-MM-DD) and a
// vote score.
type Item interface {
	PublishedOn() string
	VoteScore() int
}

// Ranker sorts annotated documents. The clock is injectable for tests.
type Ranker struct {
	now func() time.Time
}

// New creates a Ranker using the wall clock.
func New() *Ranker {
	return &Ranker{now: time.Now}
}

// NewWithClock creates a Ranker with a fixed clock source.
func NewWithClock(now func() time.Time) *Ranker {
	return &Ranker{now: now}
}

// Sort orders items by vote score plus recency bonus, descending,
// in place. The sort is stable so equally scored documents keep
// upstream order (which is newest-first).
func Sort[T Item](r *Ranker, items []T) {
	now := r.now()
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i], now) > score(items[j], now)
	})
}

func score(it Item, now time.Time) int {
	s := it.VoteScore()
	pub, err := time.Parse("2006-01-02", it.PublishedOn())
	if err != nil {
		return s
	}
	daysOld := int(now.Sub(pub).Hours() / 24)
	if daysOld >= 0 && daysOld < recencyWindowDays {
		s += (recencyWindowDays - daysOld) * recencyWeight
	}
	return s
}
