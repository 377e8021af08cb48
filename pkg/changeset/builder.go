// Package changeset groups a time-ordered revision stream into changesets,
// one per commit.
package changeset

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/vss2git/pkg/models"
)

// Builder clusters revisions by user, time proximity, comment and conflicts.
type Builder struct {
	// AnyCommentThreshold is the largest gap tolerated between a changeset
	// and its next revision.
	AnyCommentThreshold time.Duration
	// SameCommentThreshold extends the gap for revisions repeating the
	// changeset's last comment.
	SameCommentThreshold time.Duration

	logger *logrus.Entry
}

func NewBuilder(anyComment, sameComment time.Duration, logger *logrus.Entry) *Builder {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Builder{
		AnyCommentThreshold:  anyComment,
		SameCommentThreshold: sameComment,
		logger:               logger.WithField("component", "changeset"),
	}
}

// IsConflicting reports whether an action mutates existing state. Two
// conflicting revisions of the same target never share a changeset.
func IsConflicting(rev models.Revision) bool {
	switch rev.Action.(type) {
	case models.Create, models.Share:
		return false
	case models.Branch:
		return rev.Item.IsProject
	}
	return true
}

// Build consumes revisions, which must be sorted by timestamp, in one pass.
// Pending changesets are examined and flushed in creation order.
func (b *Builder) Build(revisions []models.Revision) []*models.Changeset {
	var result []*models.Changeset
	var pending []*models.Changeset

	for _, rev := range revisions {
		target := rev.Target()
		conflicting := IsConflicting(rev)
		comment := strings.TrimSpace(rev.Comment)

		var active *models.Changeset
		kept := pending[:0]
		for _, cs := range pending {
			if b.shouldFlush(cs, rev, comment, target, conflicting) {
				result = append(result, cs)
				continue
			}
			if cs.User == rev.User {
				active = cs
			}
			kept = append(kept, cs)
		}
		pending = kept

		if active == nil {
			active = models.NewChangeset(rev.User)
			pending = append(pending, active)
		}
		active.Append(rev, conflicting)
	}

	result = append(result, pending...)
	b.logger.WithFields(logrus.Fields{
		"revisions":  len(revisions),
		"changesets": len(result),
	}).Info("Changesets built")
	return result
}

func (b *Builder) shouldFlush(cs *models.Changeset, rev models.Revision, comment, target string, conflicting bool) bool {
	gap := rev.Timestamp.Sub(cs.Timestamp)
	if gap > b.AnyCommentThreshold {
		sameComment := comment != "" && comment == strings.TrimSpace(cs.LastComment())
		if sameComment && gap < b.SameCommentThreshold {
			return false
		}
		b.logger.WithFields(logrus.Fields{
			"user": cs.User,
			"gap":  gap,
		}).Debug("Flushing changeset after time gap")
		return true
	}
	if conflicting && cs.Touches(target) {
		b.logger.WithFields(logrus.Fields{
			"user":   cs.User,
			"target": target,
		}).Debug("Flushing changeset on conflicting revision")
		return true
	}
	return false
}
