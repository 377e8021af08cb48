// Package collector walks a legacy database and flattens every item's
// history into one time-ordered revision stream.
package collector

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/vss2git/pkg/models"
	"github.com/mattsolo1/vss2git/pkg/pathmatch"
	"github.com/mattsolo1/vss2git/pkg/source"
)

// Options controls a collection run.
type Options struct {
	// Exclude drops matching projects, files, and actions targeting them.
	Exclude *pathmatch.Matcher
	// Workers bounds parallel record decoding. Zero means 4.
	Workers int
}

// Root is a collected root project and its legacy path.
type Root struct {
	Item models.ItemName
	Path string
}

// Result is the output of Collect.
type Result struct {
	Roots     []Root
	Revisions []models.Revision
	// Processed holds every file whose history was collected.
	Processed map[string]struct{}
	// Destroyed holds every item a Destroy action removed for good.
	Destroyed map[string]struct{}

	Projects         int
	Files            int
	ExcludedProjects int
	ExcludedFiles    int
	DecodeErrors     int
	Duration         time.Duration
}

// IsDestroyed reports whether physicalName was destroyed.
func (r *Result) IsDestroyed(physicalName string) bool {
	_, ok := r.Destroyed[physicalName]
	return ok
}

type Collector struct {
	db     source.Database
	opts   Options
	logger *logrus.Entry
}

func New(db source.Database, opts Options, logger *logrus.Entry) *Collector {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Collector{
		db:     db,
		opts:   opts,
		logger: logger.WithField("component", "collector"),
	}
}

// work is one item whose records need decoding.
type work struct {
	item models.ItemName
	path string
}

// decoded is the per-item outcome of decoding.
type decoded struct {
	revisions []models.Revision
	destroyed []string
	errors    int
}

// Collect walks each root path depth first and returns the merged stream,
// sorted by timestamp. Revisions with equal timestamps keep discovery order.
func (c *Collector) Collect(ctx context.Context, rootPaths ...string) (*Result, error) {
	start := time.Now()
	result := &Result{
		Processed: make(map[string]struct{}),
		Destroyed: make(map[string]struct{}),
	}

	var items []work
	for _, path := range rootPaths {
		root, err := c.db.Root(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root project %s: %w", path, err)
		}
		if !root.IsProject {
			return nil, fmt.Errorf("root %s is not a project", path)
		}
		c.logger.WithField("path", path).Info("Building revision list")
		result.Roots = append(result.Roots, Root{Item: root, Path: path})
		items = c.walk(root, path, result, items)
	}

	slots := make([]decoded, len(items))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i := range items {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			slots[i] = c.decode(items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, slot := range slots {
		result.Revisions = append(result.Revisions, slot.revisions...)
		for _, name := range slot.destroyed {
			result.Destroyed[name] = struct{}{}
		}
		result.DecodeErrors += slot.errors
	}
	slices.SortStableFunc(result.Revisions, func(a, b models.Revision) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	result.Duration = time.Since(start)

	c.logger.WithFields(logrus.Fields{
		"projects":          result.Projects,
		"excluded_projects": result.ExcludedProjects,
		"files":             result.Files,
		"excluded_files":    result.ExcludedFiles,
		"revisions":         len(result.Revisions),
		"decode_errors":     result.DecodeErrors,
		"duration":          result.Duration,
	}).Info("Analysis complete")
	return result, nil
}

// walk appends project and claimed file work items in depth-first order.
func (c *Collector) walk(project models.ItemName, path string, result *Result, items []work) []work {
	if c.opts.Exclude.Matches(path) {
		c.logger.WithField("path", path).Info("Excluding project")
		result.ExcludedProjects++
		return items
	}
	items = append(items, work{item: project, path: path})
	result.Projects++

	entries, err := c.db.Entries(project.PhysicalName)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Error("Failed to read project entries")
		result.DecodeErrors++
		return items
	}
	for _, entry := range entries {
		childPath := path + "/" + entry.LogicalName
		if entry.IsProject {
			items = c.walk(entry, childPath, result, items)
			continue
		}
		if c.opts.Exclude.Matches(childPath) {
			c.logger.WithField("path", childPath).Info("Excluding file")
			result.ExcludedFiles++
			continue
		}
		// shared files are collected through the first path that reaches them
		if _, seen := result.Processed[entry.PhysicalName]; seen {
			continue
		}
		result.Processed[entry.PhysicalName] = struct{}{}
		items = append(items, work{item: entry, path: childPath})
		result.Files++
	}
	return items
}

func (c *Collector) decode(w work) decoded {
	var out decoded
	logger := c.logger.WithField("path", w.path)

	records, err := c.db.Records(w.item)
	if err != nil {
		logger.WithError(err).Error("Failed to read item history")
		out.errors++
		return out
	}

	for _, rec := range records {
		rev, err := source.Decode(w.item, rec)
		if err != nil {
			logger.WithError(err).Warn("Skipping undecodable revision")
			out.errors++
			continue
		}
		if named, ok := rev.Action.(models.NamedAction); ok {
			target := named.Target()
			if rev.Action.Kind() == models.ActionDestroy {
				out.destroyed = append(out.destroyed, target.PhysicalName)
			}
			if w.item.IsProject && c.opts.Exclude.Matches(w.path+"/"+target.LogicalName) {
				continue
			}
		}
		out.revisions = append(out.revisions, rev)
	}
	return out
}
