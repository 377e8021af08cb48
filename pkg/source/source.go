// Package source defines the decoded legacy database the exporter reads
// and turns its revision records into actions.
package source

import (
	"errors"
	"time"

	"github.com/mattsolo1/vss2git/pkg/models"
)

// ErrDecode marks a record or item that could not be read. It is fatal for
// that item only.
var ErrDecode = errors.New("decode error")

// ErrNotFound is returned when a path or physical name does not exist.
var ErrNotFound = errors.New("item not found")

// RevisionRecord is one decoded history record of a project or file.
type RevisionRecord struct {
	Kind      models.ActionKind
	Fields    map[string]interface{}
	Timestamp time.Time
	User      string
	Comment   string
	Version   int
}

// Database is the read-only view of a legacy database.
type Database interface {
	// Root resolves a legacy path such as "$" or "$/proj/sub" to its project.
	Root(path string) (models.ItemName, error)

	// Entries lists the current children of a project in database order.
	Entries(project string) ([]models.ItemName, error)

	// Records returns an item's history, oldest first.
	Records(item models.ItemName) ([]RevisionRecord, error)

	// ItemExists reports whether the physical item still exists in the
	// database. Destroyed items do not.
	ItemExists(physicalName string) bool
}
