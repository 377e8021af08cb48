package changeset

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/vss2git/pkg/models"
)

var (
	epoch   = time.Date(2005, 6, 1, 8, 0, 0, 0, time.UTC)
	project = models.ItemName{PhysicalName: "AAAAAAAA", LogicalName: "$", IsProject: true}
)

func file(physical string) models.ItemName {
	return models.ItemName{PhysicalName: physical, LogicalName: physical + ".txt"}
}

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

func edit(sec int, user, physical, comment string) models.Revision {
	return models.Revision{Timestamp: at(sec), User: user, Item: file(physical), Comment: comment, Action: models.Edit{PhysicalName: physical}}
}

func newBuilder() *Builder {
	return NewBuilder(30*time.Second, 10*time.Minute, nil)
}

func sizes(changesets []*models.Changeset) []int {
	var out []int
	for _, cs := range changesets {
		out = append(out, len(cs.Revisions))
	}
	return out
}

func TestBuildThresholdBoundary(t *testing.T) {
	stream := func(addComment string) []models.Revision {
		return []models.Revision{
			{Timestamp: at(0), User: "userA", Item: file("f1"), Action: models.Create{Name: file("f1")}},
			{Timestamp: at(5), User: "userA", Item: project, Comment: addComment, Action: models.Add{Name: file("f1")}},
			edit(40, "userA", "f1", "fix"),
			edit(9000, "userA", "f1", "fix"),
		}
	}

	t.Run("uncommented add closes the window", func(t *testing.T) {
		got := newBuilder().Build(stream(""))
		assert.Equal(t, []int{2, 1, 1}, sizes(got))
	})

	t.Run("same comment extends the window", func(t *testing.T) {
		got := newBuilder().Build(stream("fix"))
		require.Equal(t, []int{3, 1}, sizes(got))
		assert.Equal(t, at(40), got[0].Timestamp)
		assert.Equal(t, "fix", got[0].Comment)
		assert.Equal(t, at(9000), got[1].Timestamp)
	})
}

func TestBuildSameCommentLimit(t *testing.T) {
	b := newBuilder()

	got := b.Build([]models.Revision{
		edit(0, "alice", "f1", "wip"),
		edit(599, "alice", "f2", "wip"),
		edit(1200, "alice", "f3", "wip"),
	})
	assert.Equal(t, []int{2, 1}, sizes(got))

	// the window is exclusive at the threshold
	got = b.Build([]models.Revision{
		edit(0, "bob", "f1", "wip"),
		edit(600, "bob", "f2", "wip"),
	})
	assert.Equal(t, []int{1, 1}, sizes(got))
}

func TestBuildConflictSplits(t *testing.T) {
	got := newBuilder().Build([]models.Revision{
		edit(0, "alice", "f1", ""),
		edit(2, "alice", "f2", ""),
		edit(4, "alice", "f1", ""),
	})
	require.Equal(t, []int{2, 1}, sizes(got))
	assert.True(t, got[0].Touches("f1"))
	assert.True(t, got[0].Touches("f2"))
}

func TestBuildNonconflictingActions(t *testing.T) {
	sub := models.ItemName{PhysicalName: "BAAAAAAA", LogicalName: "sub", IsProject: true}
	got := newBuilder().Build([]models.Revision{
		{Timestamp: at(0), User: "alice", Item: project, Action: models.Share{Name: file("f1")}},
		{Timestamp: at(1), User: "alice", Item: sub, Action: models.Share{Name: file("f1")}},
		{Timestamp: at(2), User: "alice", Item: file("f2"), Action: models.Branch{Name: file("f2"), Source: file("f1")}},
		{Timestamp: at(3), User: "alice", Item: file("f2"), Action: models.Create{Name: file("f2")}},
		{Timestamp: at(4), User: "alice", Item: sub, Action: models.Branch{Name: file("f2"), Source: file("f1")}},
		{Timestamp: at(5), User: "alice", Item: sub, Action: models.Branch{Name: file("f2"), Source: file("f1")}},
	})
	assert.Equal(t, []int{5, 1}, sizes(got))
}

func TestBuildUsersInterleave(t *testing.T) {
	got := newBuilder().Build([]models.Revision{
		edit(0, "alice", "f1", "a1"),
		edit(1, "bob", "f2", "b1"),
		edit(2, "alice", "f3", "a2"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].User)
	assert.Equal(t, "a1\na2", got[0].Comment)
	assert.Equal(t, "bob", got[1].User)
}

func TestBuildConflictAcrossUsers(t *testing.T) {
	got := newBuilder().Build([]models.Revision{
		edit(0, "alice", "f1", ""),
		edit(1, "bob", "f1", ""),
		edit(2, "alice", "f2", ""),
	})
	require.Len(t, got, 3)
	assert.Equal(t, "alice", got[0].User)
	assert.Len(t, got[0].Revisions, 1)
	assert.Equal(t, "bob", got[1].User)
	assert.Equal(t, "alice", got[2].User)
}

func TestBuildCommentMerging(t *testing.T) {
	got := newBuilder().Build([]models.Revision{
		edit(0, "alice", "f1", "  fix the parser  "),
		edit(1, "alice", "f2", "parser"),
		edit(2, "alice", "f3", ""),
		edit(3, "alice", "f4", "docs"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "fix the parser\ndocs", got[0].Comment)
}

func TestBuildInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	users := []string{"alice", "bob", "carol"}
	files := []string{"f1", "f2", "f3", "f4", "f5"}

	var revisions []models.Revision
	sec := 0
	for i := 0; i < 500; i++ {
		sec += rng.Intn(45)
		revisions = append(revisions, edit(sec, users[rng.Intn(len(users))], files[rng.Intn(len(files))], ""))
	}

	b := newBuilder()
	got := b.Build(revisions)

	total := 0
	for _, cs := range got {
		total += len(cs.Revisions)
		seen := map[string]bool{}
		for i, rev := range cs.Revisions {
			assert.Equal(t, cs.User, rev.User)
			assert.False(t, seen[rev.Target()], "conflicting revisions of %s share a changeset", rev.Target())
			seen[rev.Target()] = true
			if i > 0 {
				gap := rev.Timestamp.Sub(cs.Revisions[i-1].Timestamp)
				assert.LessOrEqual(t, gap, b.AnyCommentThreshold)
			}
		}
		assert.Equal(t, cs.Revisions[len(cs.Revisions)-1].Timestamp, cs.Timestamp)
	}
	assert.Equal(t, len(revisions), total)
}
