// Package export replays reconstructed changesets against a working tree and
// records each one as a commit in the target version control system.
package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/vss2git/pkg/collector"
	"github.com/mattsolo1/vss2git/pkg/delta"
	"github.com/mattsolo1/vss2git/pkg/journal"
	"github.com/mattsolo1/vss2git/pkg/models"
	"github.com/mattsolo1/vss2git/pkg/source"
	"github.com/mattsolo1/vss2git/pkg/tree"
	"github.com/mattsolo1/vss2git/pkg/vcs"
)

// Options controls how changesets become commits and tags.
type Options struct {
	// EmailDomain completes author addresses not found in Authors.
	EmailDomain string
	// DefaultComment is the commit message of changesets with no comment.
	DefaultComment string
	// ForceAnnotatedTags makes labels without a comment annotated tags
	// carrying the label text.
	ForceAnnotatedTags bool
	// Authors maps a lower-cased legacy user to "Name <email>" or "email".
	Authors map[string]string
}

// Journal receives the outcome of every replayed changeset.
type Journal interface {
	Record(entry journal.Entry) error
}

type Exporter struct {
	db      source.Database
	content *delta.Reconstructor
	vcs     vcs.Handler
	opts    Options
	journal Journal
	logger  *logrus.Entry

	mapper      *tree.Mapper
	collected   *collector.Result
	tags        *tagNamer
	report      *Report
	commitCount int
}

func New(db source.Database, store delta.Store, handler vcs.Handler, opts Options, logger *logrus.Entry) *Exporter {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if opts.EmailDomain == "" {
		opts.EmailDomain = models.DefaultEmailDomain
	}
	if opts.DefaultComment == "" {
		opts.DefaultComment = models.DefaultComment
	}
	return &Exporter{
		db:      db,
		content: delta.NewReconstructor(store),
		vcs:     handler,
		opts:    opts,
		logger:  logger.WithField("component", "export"),
	}
}

// SetJournal makes the exporter record every changeset outcome to j.
func (e *Exporter) SetJournal(j Journal) {
	e.journal = j
}

// Export creates the repository at repoPath, maps every collected root under
// it, and replays changesets in order. Structural failures abort the run.
// Commit and tag failures are kept in the report and returned joined once
// every changeset has been replayed.
func (e *Exporter) Export(ctx context.Context, repoPath string, collected *collector.Result, changesets []*models.Changeset) (*Report, error) {
	e.mapper = tree.NewMapper()
	e.collected = collected
	e.tags = newTagNamer()
	e.report = NewReport()
	e.commitCount = 0
	defer e.report.Complete()

	if err := e.vcs.Init(ctx); err != nil {
		return e.report, fmt.Errorf("failed to initialize repository: %w", err)
	}

	for _, root := range collected.Roots {
		workingPath := tree.WorkingPath(repoPath, root.Path)
		if err := os.MkdirAll(workingPath, 0o755); err != nil {
			return e.report, fmt.Errorf("failed to create %s: %w", workingPath, err)
		}
		e.mapper.SetProjectPath(root.Item.PhysicalName, workingPath, root.Path)
		e.logger.WithFields(logrus.Fields{"project": root.Path, "path": workingPath}).Info("Mapped root project")
	}

	for i, cs := range changesets {
		if err := ctx.Err(); err != nil {
			return e.report, err
		}
		if err := e.exportChangeset(ctx, i+1, cs); err != nil {
			return e.report, fmt.Errorf("changeset %d: %w", i+1, err)
		}
	}

	return e.report, e.report.Err()
}

func (e *Exporter) exportChangeset(ctx context.Context, seq int, cs *models.Changeset) error {
	e.report.Changesets++
	e.report.Revisions += len(cs.Revisions)
	e.logger.WithFields(logrus.Fields{
		"changeset": seq,
		"user":      cs.User,
		"revisions": len(cs.Revisions),
	}).Debug("Replaying changeset")

	entry := journal.Entry{
		Sequence:  seq,
		User:      cs.User,
		Timestamp: cs.Timestamp,
		Comment:   cs.Comment,
		Revisions: len(cs.Revisions),
	}

	var labels []models.Revision
	needCommit := false
	for _, rev := range cs.Revisions {
		changed, err := e.replayRevision(ctx, rev, &labels)
		if err != nil {
			return err
		}
		needCommit = needCommit || changed
	}

	committed := true
	if needCommit {
		ok, err := e.commit(ctx, cs)
		if err != nil {
			e.report.AddFailure(seq, "commit", err)
			e.logger.WithError(err).WithField("changeset", seq).Error("Commit failed")
			entry.Error = err.Error()
			committed = false
		} else if ok {
			e.commitCount++
			e.report.Commits++
			entry.Committed = true
		}
	}

	if committed {
		for _, label := range labels {
			tag, err := e.tag(ctx, label)
			if err != nil {
				e.report.AddFailure(seq, "tag", err)
				e.logger.WithError(err).WithField("changeset", seq).Error("Tag failed")
				entry.Error = err.Error()
				continue
			}
			if tag != "" {
				entry.Tags = append(entry.Tags, tag)
			}
		}
	} else if len(labels) > 0 {
		e.report.DroppedLabels += len(labels)
	}

	if e.journal != nil {
		if err := e.journal.Record(entry); err != nil {
			return fmt.Errorf("failed to record journal entry: %w", err)
		}
	}
	return nil
}

func (e *Exporter) commit(ctx context.Context, cs *models.Changeset) (bool, error) {
	if err := e.vcs.AddAll(ctx); err != nil {
		return false, err
	}
	message := cs.Comment
	if message == "" {
		message = e.opts.DefaultComment
	}
	author, email := e.author(cs.User)
	return e.vcs.Commit(ctx, author, email, message, cs.Timestamp)
}

// tag turns a deferred label into a tag and returns its name. Labels before
// the first commit of the run have nothing to point at and are dropped.
func (e *Exporter) tag(ctx context.Context, rev models.Revision) (string, error) {
	label := rev.Action.(models.Label).Label
	if strings.TrimSpace(label) == "" {
		return "", nil
	}
	if e.commitCount == 0 {
		e.logger.WithField("label", label).Warn("Skipping label before initial commit")
		e.report.DroppedLabels++
		return "", nil
	}

	name := e.tags.name(label)
	message := strings.TrimSpace(rev.Comment)
	if message == "" && e.opts.ForceAnnotatedTags {
		message = label
	}
	author, email := e.author(rev.User)
	e.logger.WithFields(logrus.Fields{"label": label, "tag": name}).Info("Creating tag")
	if _, err := e.vcs.Tag(ctx, name, author, email, message, rev.Timestamp); err != nil {
		return "", err
	}
	e.report.Tags++
	return name, nil
}

// author resolves the commit identity of a legacy user.
func (e *Exporter) author(user string) (string, string) {
	if mapped, ok := e.opts.Authors[strings.ToLower(user)]; ok {
		if open := strings.Index(mapped, "<"); open >= 0 {
			if end := strings.Index(mapped[open:], ">"); end > 0 {
				name := strings.TrimSpace(mapped[:open])
				if name == "" {
					name = user
				}
				return name, strings.TrimSpace(mapped[open+1 : open+end])
			}
		}
		return user, strings.TrimSpace(mapped)
	}
	local := strings.ToLower(strings.ReplaceAll(user, " ", "."))
	return user, local + "@" + e.opts.EmailDomain
}
