// Package yamldb implements source.Database over a YAML document holding an
// already decoded legacy database. File histories may give full content
// snapshots, from which reverse deltas are computed on load, or explicit
// reverse-delta operations.
package yamldb

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/vss2git/pkg/delta"
	"github.com/mattsolo1/vss2git/pkg/models"
	"github.com/mattsolo1/vss2git/pkg/source"
)

// Document is the on-disk layout.
type Document struct {
	// Root is the physical name of the "$" project.
	Root  string  `yaml:"root"`
	Items []*Item `yaml:"items"`
}

// Item is one project or file.
type Item struct {
	Physical  string     `yaml:"physical"`
	Name      string     `yaml:"name"`
	Project   bool       `yaml:"project,omitempty"`
	Destroyed bool       `yaml:"destroyed,omitempty"`
	Entries   []string   `yaml:"entries,omitempty"`
	Latest    *string    `yaml:"latest,omitempty"`
	Revisions []Revision `yaml:"revisions"`
}

// Revision is one history record. Content is the file content after the
// revision; Delta is the reverse delta back to the previous version.
type Revision struct {
	Version int                    `yaml:"version,omitempty"`
	Time    time.Time              `yaml:"time"`
	User    string                 `yaml:"user"`
	Comment string                 `yaml:"comment,omitempty"`
	Action  string                 `yaml:"action"`
	Fields  map[string]interface{} `yaml:"fields,omitempty"`
	Content *string                `yaml:"content,omitempty"`
	Delta   []DeltaOp              `yaml:"delta,omitempty"`
}

// DeltaOp is either {log: "text"} or {offset: n, length: m}.
type DeltaOp struct {
	Log    *string `yaml:"log,omitempty"`
	Offset int     `yaml:"offset,omitempty"`
	Length int     `yaml:"length,omitempty"`
}

// DB is a loaded document. It implements source.Database and delta.Store.
type DB struct {
	root  string
	items map[string]*Item

	mu    sync.Mutex
	files map[string]*delta.FileData
}

var (
	_ source.Database = (*DB)(nil)
	_ delta.Store     = (*DB)(nil)
)

// Load reads and parses the document at path.
func Load(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	return Parse(data)
}

// Parse builds a DB from YAML.
func Parse(data []byte) (*DB, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrDecode, err)
	}
	return New(&doc)
}

// New builds a DB from an in-memory document.
func New(doc *Document) (*DB, error) {
	db := &DB{
		root:  doc.Root,
		items: make(map[string]*Item, len(doc.Items)),
		files: make(map[string]*delta.FileData),
	}
	for _, it := range doc.Items {
		if it.Physical == "" {
			return nil, fmt.Errorf("%w: item %q has no physical name", source.ErrDecode, it.Name)
		}
		if _, dup := db.items[it.Physical]; dup {
			return nil, fmt.Errorf("%w: duplicate physical name %s", source.ErrDecode, it.Physical)
		}
		for i := range it.Revisions {
			if it.Revisions[i].Version == 0 {
				it.Revisions[i].Version = i + 1
			}
		}
		db.items[it.Physical] = it
	}
	if db.root == "" && len(doc.Items) > 0 {
		db.root = doc.Items[0].Physical
	}
	if root, ok := db.items[db.root]; !ok || !root.Project {
		return nil, fmt.Errorf("%w: root project %q not found", source.ErrDecode, db.root)
	}
	return db, nil
}

func (db *DB) name(it *Item) models.ItemName {
	return models.ItemName{PhysicalName: it.Physical, LogicalName: it.Name, IsProject: it.Project}
}

// Root resolves "$" or "$/a/b". Path segments match case-insensitively.
func (db *DB) Root(path string) (models.ItemName, error) {
	path = strings.ReplaceAll(path, "\\", "/")
	if path != "$" && !strings.HasPrefix(path, "$/") {
		return models.ItemName{}, fmt.Errorf("%w: %q is not a database path", source.ErrNotFound, path)
	}

	fold := cases.Fold()
	current := db.items[db.root]
	for _, segment := range strings.Split(strings.TrimPrefix(path, "$"), "/") {
		if segment == "" {
			continue
		}
		var next *Item
		for _, child := range current.Entries {
			it, ok := db.items[child]
			if ok && it.Project && fold.String(it.Name) == fold.String(segment) {
				next = it
				break
			}
		}
		if next == nil {
			return models.ItemName{}, fmt.Errorf("%w: %s", source.ErrNotFound, path)
		}
		current = next
	}
	return db.name(current), nil
}

func (db *DB) Entries(project string) ([]models.ItemName, error) {
	it, ok := db.items[project]
	if !ok || !it.Project {
		return nil, fmt.Errorf("%w: project %s", source.ErrNotFound, project)
	}
	entries := make([]models.ItemName, 0, len(it.Entries))
	for _, physical := range it.Entries {
		child, ok := db.items[physical]
		if !ok {
			return nil, fmt.Errorf("%w: project %s lists unknown entry %s", source.ErrDecode, project, physical)
		}
		entries = append(entries, db.name(child))
	}
	return entries, nil
}

func (db *DB) Records(item models.ItemName) ([]source.RevisionRecord, error) {
	it, ok := db.items[item.PhysicalName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrNotFound, item.PhysicalName)
	}
	records := make([]source.RevisionRecord, 0, len(it.Revisions))
	for _, r := range it.Revisions {
		records = append(records, source.RevisionRecord{
			Kind:      models.ActionKind(r.Action),
			Fields:    r.Fields,
			Timestamp: r.Time,
			User:      r.User,
			Comment:   r.Comment,
			Version:   r.Version,
		})
	}
	return records, nil
}

func (db *DB) ItemExists(physicalName string) bool {
	it, ok := db.items[physicalName]
	return ok && !it.Destroyed
}

// FileData builds, once, the delta chain of a file.
func (db *DB) FileData(physicalName string) (*delta.FileData, error) {
	return db.fileData(physicalName, map[string]bool{})
}

func (db *DB) fileData(physicalName string, visiting map[string]bool) (*delta.FileData, error) {
	db.mu.Lock()
	cached, ok := db.files[physicalName]
	db.mu.Unlock()
	if ok {
		return cached, nil
	}

	it, ok := db.items[physicalName]
	switch {
	case !ok:
		return nil, fmt.Errorf("no data file for %s", physicalName)
	case it.Project:
		return nil, fmt.Errorf("%s is a project", physicalName)
	case it.Destroyed:
		return nil, fmt.Errorf("%s was destroyed", physicalName)
	case visiting[physicalName]:
		return nil, fmt.Errorf("branch cycle through %s", physicalName)
	}
	visiting[physicalName] = true
	defer delete(visiting, physicalName)

	file, err := db.build(it, &visitStore{db: db, visiting: visiting})
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	db.files[physicalName] = file
	db.mu.Unlock()
	return file, nil
}

// visitStore threads the cycle guard through branch base reconstruction.
type visitStore struct {
	db       *DB
	visiting map[string]bool
}

func (s *visitStore) FileData(physicalName string) (*delta.FileData, error) {
	return s.db.fileData(physicalName, s.visiting)
}

func recordKind(action string) delta.RecordKind {
	switch models.ActionKind(action) {
	case models.ActionEdit:
		return delta.RecordEdit
	case models.ActionBranch:
		return delta.RecordBranch
	}
	return delta.RecordOther
}

func (db *DB) build(it *Item, store delta.Store) (*delta.FileData, error) {
	name := db.name(it)
	revs := it.Revisions
	snaps := make([][]byte, len(revs))
	known := make([]bool, len(revs))
	file := &delta.FileData{PhysicalName: it.Physical}

	for i, r := range revs {
		kind := recordKind(r.Action)
		rec := delta.Record{Version: r.Version, Kind: kind, Timestamp: r.Time}

		if kind == delta.RecordBranch {
			action, err := source.DecodeAction(name, source.RevisionRecord{Kind: models.ActionBranch, Fields: r.Fields, Version: r.Version})
			if err != nil {
				return nil, err
			}
			rec.BranchSource = action.(models.Branch).Source.PhysicalName
		}

		switch {
		case r.Content != nil:
			snaps[i], known[i] = []byte(*r.Content), true
		case i == 0 && kind == delta.RecordBranch:
			base, err := delta.NewReconstructor(store).Revision(rec.BranchSource, r.Version-1)
			if err != nil {
				return nil, fmt.Errorf("branch base of %s: %w", it.Physical, err)
			}
			snaps[i], known[i] = base.Data, true
		case i == 0:
			known[i] = true
		case kind == delta.RecordEdit && r.Delta != nil:
		default:
			snaps[i], known[i] = snaps[i-1], known[i-1]
		}

		if kind == delta.RecordEdit && i > 0 {
			switch {
			case r.Delta != nil:
				rec.Delta = convertOps(r.Delta)
			case known[i] && known[i-1]:
				rec.Delta = delta.Diff(snaps[i], snaps[i-1])
			default:
				return nil, fmt.Errorf("%w: %s v%d: cannot derive delta without content", source.ErrDecode, it.Physical, r.Version)
			}
		}
		file.Records = append(file.Records, rec)
	}

	switch {
	case it.Latest != nil:
		file.Latest = []byte(*it.Latest)
	case len(revs) > 0 && known[len(revs)-1]:
		file.Latest = snaps[len(revs)-1]
	default:
		return nil, fmt.Errorf("%w: %s has no latest content", source.ErrDecode, it.Physical)
	}
	return file, nil
}

func convertOps(ops []DeltaOp) []delta.Operation {
	out := make([]delta.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Log != nil {
			out = append(out, delta.WriteLog([]byte(*op.Log)))
			continue
		}
		out = append(out, delta.WriteSuccessor(op.Offset, op.Length))
	}
	return out
}
