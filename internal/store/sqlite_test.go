package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mwhitfield/rulewatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteVoteLifecycle(t *testing.T) {
	s := testSQLite(t)

	tally, err := s.ApplyVote(testDoc, "alice", model.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Up)
	assert.Equal(t, 1, tally.Score)

	// Idempotent repeat.
	again, err := s.ApplyVote(testDoc, "alice", model.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, tally, again)

	// Switch moves the count across.
	switched, err := s.ApplyVote(testDoc, "alice", model.DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, 0, switched.Up)
	assert.Equal(t, 1, switched.Down)
	assert.Equal(t, -1, switched.Score)

	got, err := s.Tally(testDoc, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.DirectionDown, got.Direction)
	assert.Equal(t, 1, got.Down)
}

func TestSQLiteVoteValidation(t *testing.T) {
	s := testSQLite(t)

	_, err := s.ApplyVote("not-a-doc", "alice", model.DirectionUp)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.ApplyVote(testDoc, "alice", "diagonal")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSQLiteComments(t *testing.T) {
	s := testSQLite(t)

	count, err := s.AddComment(testDoc, "", "first comment")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.AddComment(testDoc, "bob", "second comment")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	comments, err := s.Comments(testDoc)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Anonymous", comments[0].Author)
	assert.Equal(t, "first comment", comments[0].Text)
	assert.Equal(t, "second comment", comments[1].Text)
	assert.False(t, comments[0].CreatedAt.IsZero())

	n, err := s.CommentCount(testDoc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Other documents are untouched.
	n, err = s.CommentCount("2024-99999")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	_, err = s.ApplyVote(testDoc, "alice", model.DirectionUp)
	require.NoError(t, err)
	_, err = s.AddComment(testDoc, "alice", "kept")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	tally, err := s.Tally(testDoc, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Up)
	assert.Equal(t, model.DirectionUp, tally.Direction)

	n, err := s.CommentCount(testDoc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteRetentionPurge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	// Backdate writes past the retention window.
	s.now = func() time.Time { return time.Now().AddDate(0, 0, -(RetentionDays + 1)) }
	_, err = s.ApplyVote(testDoc, "alice", model.DirectionUp)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	tally, err := s.Tally(testDoc, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{}, tally)
}
