package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/journal"
)

const legacyDB = `
root: AAAAAAAA
items:
  - physical: AAAAAAAA
    name: $
    project: true
    entries: [CAAAAAAA]
    revisions:
      - {time: 2004-01-01T10:00:00Z, user: alice, action: create}
      - {time: 2004-01-01T10:00:01Z, user: alice, comment: initial, action: add, fields: {name: {physical: CAAAAAAA, logical: readme.txt}}}
      - {time: 2004-01-03T10:00:00Z, user: alice, action: label, fields: {label: "v1"}}
  - physical: CAAAAAAA
    name: readme.txt
    revisions:
      - {time: 2004-01-01T10:00:01Z, user: alice, comment: initial, action: create, content: "hello\n"}
      - {time: 2004-01-02T10:00:00Z, user: bob, comment: typo, action: edit, content: "hello world\n"}
`

func setup(t *testing.T) (string, *logrus.Entry) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.InitConfig()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db.yaml"), []byte(legacyDB), 0o644))

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return dir, logrus.NewEntry(log)
}

func TestExportDryRunWritesJournal(t *testing.T) {
	dir, logger := setup(t)
	journalPath := filepath.Join(dir, "journal.db")

	cmd := NewExportCmd(&logger)
	cmd.SetArgs([]string{"-d", filepath.Join(dir, "db.yaml"), "--dry-run", "--journal", journalPath})
	require.NoError(t, cmd.Execute())

	j, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Committed)
	assert.Equal(t, "bob", entries[1].User)
	assert.Equal(t, []string{"v1"}, entries[2].Tags)
}

func TestExportRequiresOutput(t *testing.T) {
	dir, logger := setup(t)

	cmd := NewExportCmd(&logger)
	cmd.SetArgs([]string{"-d", filepath.Join(dir, "db.yaml")})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}

func TestFileVersionDefaultsToLatest(t *testing.T) {
	dir, _ := setup(t)
	viper.Set("database", filepath.Join(dir, "db.yaml"))
	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := openDatabase(cfg)
	require.NoError(t, err)

	v, err := fileVersion(db, "CAAAAAAA", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = fileVersion(db, "CAAAAAAA", []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = fileVersion(db, "CAAAAAAA", []string{"x"})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	dir, logger := setup(t)
	viper.Set("database", filepath.Join(dir, "db.yaml"))
	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := openDatabase(cfg)
	require.NoError(t, err)

	collected, changesets, err := buildChangesets(t.Context(), db, cfg, logger)
	require.NoError(t, err)
	summary := summarize(collected, changesets)

	assert.Equal(t, 1, summary.Projects)
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 5, summary.Revisions)
	require.Len(t, summary.Changesets, 3)
	assert.Equal(t, "initial", summary.Changesets[0].Comment)
	assert.Equal(t, []string{"readme.txt: Edit CAAAAAAA"}, summary.Changesets[1].Revisions)
}
