// Package store provides vote and comment state backends.
package store

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mwhitfield/rulewatch/internal/model"
	"github.com/mwhitfield/rulewatch/internal/validate"
)

// ErrValidation marks user-input failures. The message is surfaced to
// the client verbatim; no mutation happens when it is returned.
var ErrValidation = errors.New("validation failed")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store is closed")

// Store is the state store for votes and comments. Implementations:
// memory (process lifetime), SQLite (single host persistence) and
// Postgres (shared across workers).
type Store interface {
	Close() error

	// BackendType returns the backend name ("memory", "SQLite", "PostgreSQL").
	BackendType() string

	// ApplyVote records voterKey's vote on docID. Repeating the same
	// direction is a no-op returning the unchanged tally; switching
	// direction moves one count to the other. Counts never go negative.
	ApplyVote(docID, voterKey string, direction model.Direction) (model.VoteTally, error)

	// Tally returns current counts for docID and the direction voterKey
	// holds, zero values if the document has never been voted on.
	Tally(docID, voterKey string) (model.VoteTally, error)

	// AddComment appends a comment and returns the new total for docID.
	AddComment(docID, author, text string) (int, error)

	// Comments returns the comments for docID in insertion order.
	Comments(docID string) ([]model.Comment, error)

	// CommentCount returns the number of comments for docID.
	CommentCount(docID string) (int, error)
}

// checkVote validates ApplyVote inputs.
func checkVote(docID string, direction model.Direction) error {
	if !validate.DocumentID(docID) {
		return fmt.Errorf("%w: invalid document ID", ErrValidation)
	}
	if !direction.Valid() {
		return fmt.Errorf("%w: invalid vote direction", ErrValidation)
	}
	return nil
}

// checkComment validates AddComment inputs and returns the author to
// store (empty author becomes "Anonymous").
func checkComment(docID, author, text string) (string, error) {
	if !validate.DocumentID(docID) {
		return "", fmt.Errorf("%w: invalid document ID", ErrValidation)
	}
	if text == "" {
		return "", fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(text) > validate.MaxCommentLen {
		return "", fmt.Errorf("%w: comment exceeds %d characters", ErrValidation, validate.MaxCommentLen)
	}
	if utf8.RuneCountInString(author) > validate.MaxAuthorLen {
		return "", fmt.Errorf("%w: author name exceeds %d characters", ErrValidation, validate.MaxAuthorLen)
	}
	if author == "" {
		author = "Anonymous"
	}
	return author, nil
}

// move applies a direction change to a pair of counts, flooring at zero.
func move(up, down int, previous, next model.Direction) (int, int) {
	switch previous {
	case model.DirectionUp:
		if up > 0 {
			up--
		}
	case model.DirectionDown:
		if down > 0 {
			down--
		}
	}
	switch next {
	case model.DirectionUp:
		up++
	case model.DirectionDown:
		down++
	}
	return up, down
}
