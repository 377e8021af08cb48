package models

import (
	"strings"
	"time"
)

// Changeset groups revisions that are committed together.
type Changeset struct {
	User           string
	Timestamp      time.Time
	Comment        string
	Revisions      []Revision
	TouchedTargets map[string]struct{}
}

func NewChangeset(user string) *Changeset {
	return &Changeset{
		User:           user,
		TouchedTargets: make(map[string]struct{}),
	}
}

// Touches reports whether a conflicting revision of physicalName is already
// part of the changeset.
func (c *Changeset) Touches(physicalName string) bool {
	_, ok := c.TouchedTargets[physicalName]
	return ok
}

// LastComment returns the comment of the most recently appended revision.
func (c *Changeset) LastComment() string {
	if len(c.Revisions) == 0 {
		return ""
	}
	return c.Revisions[len(c.Revisions)-1].Comment
}

// Append adds rev and folds its comment into the changeset comment.
func (c *Changeset) Append(rev Revision, conflicting bool) {
	c.Revisions = append(c.Revisions, rev)
	c.Timestamp = rev.Timestamp
	if conflicting {
		c.TouchedTargets[rev.Target()] = struct{}{}
	}

	comment := strings.TrimSpace(rev.Comment)
	if comment == "" || strings.Contains(c.Comment, comment) {
		return
	}
	if c.Comment != "" {
		c.Comment += "\n"
	}
	c.Comment += comment
}

// Labels returns the label texts carried by the changeset's revisions,
// paired with their revisions.
func (c *Changeset) Labels() []Revision {
	var labels []Revision
	for _, rev := range c.Revisions {
		if _, ok := rev.Action.(Label); ok {
			labels = append(labels, rev)
		}
	}
	return labels
}
