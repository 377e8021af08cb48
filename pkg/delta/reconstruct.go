package delta

import (
	"errors"
	"fmt"
	"time"
)

// ErrContentUnavailable marks a revision whose content cannot be rebuilt:
// the data file is missing, the item was destroyed, or its chain is broken.
var ErrContentUnavailable = errors.New("content unavailable")

// RecordKind classifies a file revision record for chain walking.
type RecordKind int

const (
	RecordOther RecordKind = iota
	RecordEdit
	RecordBranch
)

// Record is one revision record of a physical file.
type Record struct {
	Version   int
	Kind      RecordKind
	Timestamp time.Time
	// Delta rebuilds version-1 from this version. Edit records only; an
	// empty list is a valid delta whose predecessor is empty.
	Delta []Operation
	// BranchSource is the physical file this one was branched from.
	BranchSource string
}

// FileData is everything the reconstructor needs about one physical file.
// Records are ordered by ascending version.
type FileData struct {
	PhysicalName string
	Latest       []byte
	Records      []Record
}

// LastVersion returns the version of the newest record.
func (f *FileData) LastVersion() int {
	if len(f.Records) == 0 {
		return 0
	}
	return f.Records[len(f.Records)-1].Version
}

// Store yields file data by physical name.
type Store interface {
	FileData(physicalName string) (*FileData, error)
}

// Content is the rebuilt content of one file revision.
type Content struct {
	PhysicalName string
	Version      int
	Data         []byte
	Timestamp    time.Time
}

// Reconstructor rebuilds file revisions from a Store. It holds no mutable
// state and is safe for concurrent use.
type Reconstructor struct {
	store Store
}

func NewReconstructor(store Store) *Reconstructor {
	return &Reconstructor{store: store}
}

// Revision rebuilds version of physicalName. Records newer than version are
// walked newest first and their deltas merged; a branch record switches the
// walk to the branch source below the branch point. The merged list is then
// applied to the file's latest blob.
func (r *Reconstructor) Revision(physicalName string, version int) (*Content, error) {
	file, err := r.store.FileData(physicalName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContentUnavailable, physicalName, err)
	}
	if version < 1 || version > file.LastVersion() {
		return nil, fmt.Errorf("%w: %s has no version %d", ErrContentUnavailable, physicalName, version)
	}

	content := &Content{PhysicalName: physicalName, Version: version}
	var ops []Operation
	merged := false

	current := file
	i := len(current.Records) - 1
	for i >= 0 && current.Records[i].Version > version {
		rec := current.Records[i]
		if rec.Kind == RecordBranch && rec.BranchSource != "" {
			source, err := r.store.FileData(rec.BranchSource)
			if err != nil {
				return nil, fmt.Errorf("%w: %s branched from %s: %v", ErrContentUnavailable, physicalName, rec.BranchSource, err)
			}
			current = source
			i = len(current.Records) - 1
			for i >= 0 && current.Records[i].Version >= rec.Version {
				i--
			}
			continue
		}

		if rec.Kind == RecordEdit {
			if !merged {
				ops = rec.Delta
				merged = true
			} else {
				ops, err = Merge(ops, rec.Delta)
				if err != nil {
					return nil, fmt.Errorf("%w: %s v%d: %v", ErrContentUnavailable, physicalName, rec.Version, err)
				}
			}
		}
		i--
	}
	if i >= 0 && current.Records[i].Version == version {
		content.Timestamp = current.Records[i].Timestamp
	}

	if !merged {
		content.Data = append([]byte(nil), file.Latest...)
		return content, nil
	}
	content.Data, err = Apply(ops, file.Latest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s v%d: %v", ErrContentUnavailable, physicalName, version, err)
	}
	return content, nil
}
