package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := openTemp(t)
	base := time.Date(2004, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(Entry{Sequence: 1, User: "alice", Timestamp: base, Comment: "initial", Revisions: 3, Committed: true}))
	require.NoError(t, j.Record(Entry{Sequence: 2, User: "bob", Timestamp: base.Add(time.Hour), Revisions: 1, Tags: []string{"v1", "v1-2"}}))
	require.NoError(t, j.Record(Entry{Sequence: 3, User: "alice", Timestamp: base.Add(2 * time.Hour), Revisions: 2, Error: "commit failed"}))

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "alice", entries[0].User)
	assert.Equal(t, "initial", entries[0].Comment)
	assert.True(t, entries[0].Committed)
	assert.True(t, base.Equal(entries[0].Timestamp))
	assert.Nil(t, entries[0].Tags)

	assert.Equal(t, []string{"v1", "v1-2"}, entries[1].Tags)
	assert.False(t, entries[1].Committed)
	assert.Equal(t, "commit failed", entries[2].Error)
}

func TestListLimitKeepsLatest(t *testing.T) {
	j := openTemp(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.Record(Entry{Sequence: i, User: "u"}))
	}

	entries, err := j.List(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 4, entries[0].Sequence)
	assert.Equal(t, 5, entries[1].Sequence)
}

func TestRecordReplacesAndReset(t *testing.T) {
	j := openTemp(t)
	require.NoError(t, j.Record(Entry{Sequence: 1, User: "first"}))
	require.NoError(t, j.Record(Entry{Sequence: 1, User: "second"}))

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries[0].User)

	require.NoError(t, j.Reset())
	entries, err = j.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(Entry{Sequence: 7, User: "carol"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Sequence)
}
