package store

import (
	"sync"
	"time"

	"github.com/mwhitfield/rulewatch/internal/model"
)

// MemoryStore keeps votes and comments in process memory. State is lost
// on restart and is not shared across processes.
type MemoryStore struct {
	mu       sync.RWMutex
	counts   map[string]*counts
	voters   map[string]map[string]model.Direction // docID -> voterKey -> direction
	comments map[string][]model.Comment
	closed   bool
	now      func() time.Time
}

type counts struct {
	up   int
	down int
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		counts:   make(map[string]*counts),
		voters:   make(map[string]map[string]model.Direction),
		comments: make(map[string][]model.Comment),
		now:      time.Now,
	}
}

// Close marks the store closed. Subsequent calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// BackendType returns "memory".
func (s *MemoryStore) BackendType() string { return "memory" }

// ApplyVote implements Store.
func (s *MemoryStore) ApplyVote(docID, voterKey string, direction model.Direction) (model.VoteTally, error) {
	if err := checkVote(docID, direction); err != nil {
		return model.VoteTally{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.VoteTally{}, ErrClosed
	}

	c := s.counts[docID]
	if c == nil {
		c = &counts{}
		s.counts[docID] = c
	}
	byVoter := s.voters[docID]
	if byVoter == nil {
		byVoter = make(map[string]model.Direction)
		s.voters[docID] = byVoter
	}

	previous := byVoter[voterKey]
	if previous != direction {
		c.up, c.down = move(c.up, c.down, previous, direction)
		byVoter[voterKey] = direction
	}

	return model.VoteTally{
		Up:        c.up,
		Down:      c.down,
		Score:     c.up - c.down,
		Direction: direction,
	}, nil
}

// Tally implements Store.
func (s *MemoryStore) Tally(docID, voterKey string) (model.VoteTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.VoteTally{}, ErrClosed
	}

	var t model.VoteTally
	if c := s.counts[docID]; c != nil {
		t.Up, t.Down = c.up, c.down
		t.Score = c.up - c.down
	}
	if byVoter := s.voters[docID]; byVoter != nil {
		t.Direction = byVoter[voterKey]
	}
	return t, nil
}

// AddComment implements Store.
func (s *MemoryStore) AddComment(docID, author, text string) (int, error) {
	author, err := checkComment(docID, author, text)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	s.comments[docID] = append(s.comments[docID], model.Comment{
		DocumentID: docID,
		Author:     author,
		Text:       text,
		CreatedAt:  s.now(),
	})
	return len(s.comments[docID]), nil
}

// Comments implements Store.
func (s *MemoryStore) Comments(docID string) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Comment, len(s.comments[docID]))
	copy(out, s.comments[docID])
	return out, nil
}

// CommentCount implements Store.
func (s *MemoryStore) CommentCount(docID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.comments[docID]), nil
}
