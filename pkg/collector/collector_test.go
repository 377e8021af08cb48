package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/vss2git/pkg/models"
	"github.com/mattsolo1/vss2git/pkg/pathmatch"
	"github.com/mattsolo1/vss2git/pkg/source/yamldb"
)

const treeDB = `
root: AAAAAAAA
items:
  - physical: AAAAAAAA
    name: $
    project: true
    entries: [BAAAAAAA, CAAAAAAA, XAAAAAAA]
    revisions:
      - {time: 2002-05-01T09:00:00Z, user: alice, action: create}
      - {time: 2002-05-01T09:00:01Z, user: alice, action: add, fields: {name: {physical: BAAAAAAA, logical: src, project: true}}}
      - {time: 2002-05-01T09:00:02Z, user: alice, action: add, fields: {name: {physical: CAAAAAAA, logical: lib, project: true}}}
      - {time: 2002-05-01T09:00:03Z, user: alice, action: add, fields: {name: {physical: XAAAAAAA, logical: bin, project: true}}}
  - physical: BAAAAAAA
    name: src
    project: true
    entries: [FAAAAAAA, GAAAAAAA, HAAAAAAA]
    revisions:
      - {time: 2002-05-01T09:00:01Z, user: alice, action: create}
      - {time: 2002-05-01T09:00:04Z, user: alice, action: add, fields: {name: {physical: FAAAAAAA, logical: shared.c}}}
      - {time: 2002-05-01T09:00:05Z, user: alice, action: add, fields: {name: {physical: GAAAAAAA, logical: a.obj}}}
      - {time: 2002-05-01T09:00:06Z, user: alice, action: add, fields: {name: {physical: HAAAAAAA, logical: b.c}}}
      - {time: 2002-05-01T09:00:07Z, user: bob, action: destroy, fields: {name: {physical: KAAAAAAA, logical: old.c}}}
  - physical: CAAAAAAA
    name: lib
    project: true
    entries: [FAAAAAAA]
    revisions:
      - {time: 2002-05-01T09:00:02Z, user: alice, action: create}
      - {time: 2002-05-01T09:00:09Z, user: bob, action: share, fields: {name: {physical: FAAAAAAA, logical: shared.c}}}
  - physical: XAAAAAAA
    name: bin
    project: true
    revisions:
      - {time: 2002-05-01T09:00:03Z, user: alice, action: create}
  - physical: FAAAAAAA
    name: shared.c
    revisions:
      - {time: 2002-05-01T09:00:04Z, user: alice, action: create, content: "x\n"}
      - {time: 2002-05-01T09:00:10Z, user: bob, action: edit, content: "y\n"}
  - physical: GAAAAAAA
    name: a.obj
    revisions:
      - {time: 2002-05-01T09:00:05Z, user: alice, action: create, content: "obj"}
  - physical: HAAAAAAA
    name: b.c
    revisions:
      - {time: 2002-05-01T09:00:06Z, user: alice, action: create, content: "b\n"}
      - {time: 2002-05-01T09:00:08Z, user: alice, action: bogus}
`

func newCollector(t *testing.T, exclude string) *Collector {
	t.Helper()
	db, err := yamldb.Parse([]byte(treeDB))
	require.NoError(t, err)
	return New(db, Options{Exclude: pathmatch.Parse(exclude), Workers: 2}, nil)
}

func TestCollect(t *testing.T) {
	c := newCollector(t, "**/bin;**.obj")

	result, err := c.Collect(context.Background(), "$")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Projects)
	assert.Equal(t, 1, result.ExcludedProjects)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 1, result.ExcludedFiles)
	assert.Equal(t, 1, result.DecodeErrors)

	assert.Contains(t, result.Processed, "FAAAAAAA")
	assert.Contains(t, result.Processed, "HAAAAAAA")
	assert.NotContains(t, result.Processed, "GAAAAAAA")
	assert.True(t, result.IsDestroyed("KAAAAAAA"))
	require.Len(t, result.Roots, 1)
	assert.Equal(t, "AAAAAAAA", result.Roots[0].Item.PhysicalName)

	for i := 1; i < len(result.Revisions); i++ {
		assert.False(t, result.Revisions[i].Timestamp.Before(result.Revisions[i-1].Timestamp), "stream must be time ordered")
	}

	var sharedEdits, objAdds, binRevs int
	for _, rev := range result.Revisions {
		if rev.Item.PhysicalName == "FAAAAAAA" {
			sharedEdits++
		}
		if add, ok := rev.Action.(models.Add); ok && add.Name.PhysicalName == "GAAAAAAA" {
			objAdds++
		}
		if rev.Item.PhysicalName == "XAAAAAAA" {
			binRevs++
		}
	}
	assert.Equal(t, 2, sharedEdits, "shared file history is collected once")
	assert.Zero(t, objAdds, "actions targeting excluded files are dropped")
	assert.Zero(t, binRevs, "excluded projects are skipped")

	// the project's Add of b.c and b.c's Create share a timestamp; discovery order wins
	var tied []models.ActionKind
	for _, rev := range result.Revisions {
		if rev.Timestamp.Equal(result.Revisions[0].Timestamp.Add(6*time.Second)) {
			tied = append(tied, rev.Action.Kind())
		}
	}
	assert.Equal(t, []models.ActionKind{models.ActionAdd, models.ActionCreate}, tied)
}

func TestCollectSubproject(t *testing.T) {
	c := newCollector(t, "")

	result, err := c.Collect(context.Background(), "$/lib")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Projects)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, "$/lib", result.Roots[0].Path)
}

func TestCollectErrors(t *testing.T) {
	c := newCollector(t, "")

	_, err := c.Collect(context.Background(), "$/nowhere")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Collect(ctx, "$")
	assert.ErrorIs(t, err, context.Canceled)
}
