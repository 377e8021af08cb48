package source

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mattsolo1/vss2git/pkg/models"
)

// actionFields is the union of every field a record may carry.
type actionFields struct {
	Name            models.ItemName `mapstructure:"name"`
	Label           string          `mapstructure:"label"`
	OriginalName    string          `mapstructure:"original_name"`
	OriginalProject string          `mapstructure:"original_project"`
	NewProject      string          `mapstructure:"new_project"`
	Pinned          bool            `mapstructure:"pinned"`
	Revision        int             `mapstructure:"revision"`
	Source          models.ItemName `mapstructure:"source"`
	ArchivePath     string          `mapstructure:"archive_path"`
}

// Decode converts a record of item's history into a Revision.
func Decode(item models.ItemName, rec RevisionRecord) (models.Revision, error) {
	action, err := DecodeAction(item, rec)
	if err != nil {
		return models.Revision{}, err
	}
	return models.Revision{
		Timestamp: rec.Timestamp,
		User:      rec.User,
		Item:      item,
		Version:   rec.Version,
		Comment:   rec.Comment,
		Action:    action,
	}, nil
}

// DecodeAction builds the action for rec. Unknown kinds, unknown fields and
// missing targets are decode errors.
func DecodeAction(item models.ItemName, rec RevisionRecord) (models.Action, error) {
	var f actionFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(rec.Fields); err != nil {
		return nil, fmt.Errorf("%w: %s v%d %s: %v", ErrDecode, item.PhysicalName, rec.Version, rec.Kind, err)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: %s v%d %s: missing %s", ErrDecode, item.PhysicalName, rec.Version, rec.Kind, field)
	}
	needName := func() error {
		if f.Name.PhysicalName == "" {
			return missing("name")
		}
		return nil
	}

	switch rec.Kind {
	case models.ActionLabel:
		if f.Label == "" {
			return nil, missing("label")
		}
		return models.Label{Label: f.Label}, nil
	case models.ActionEdit:
		return models.Edit{PhysicalName: item.PhysicalName}, nil
	case models.ActionCreate:
		if f.Name.PhysicalName == "" {
			f.Name = item
		}
		return models.Create{Name: f.Name}, nil
	case models.ActionBranch:
		if f.Name.PhysicalName == "" {
			f.Name = item
		}
		if f.Source.PhysicalName == "" {
			return nil, missing("source")
		}
		return models.Branch{Name: f.Name, Source: f.Source}, nil
	}

	if err := needName(); err != nil {
		return nil, err
	}
	switch rec.Kind {
	case models.ActionAdd:
		return models.Add{Name: f.Name}, nil
	case models.ActionShare:
		return models.Share{Name: f.Name}, nil
	case models.ActionRecover:
		return models.Recover{Name: f.Name}, nil
	case models.ActionDelete:
		return models.Delete{Name: f.Name}, nil
	case models.ActionDestroy:
		return models.Destroy{Name: f.Name}, nil
	case models.ActionRename:
		return models.Rename{Name: f.Name, OriginalName: f.OriginalName}, nil
	case models.ActionMoveFrom:
		return models.MoveFrom{Name: f.Name, OriginalProject: f.OriginalProject}, nil
	case models.ActionMoveTo:
		return models.MoveTo{Name: f.Name, NewProject: f.NewProject}, nil
	case models.ActionPin:
		return models.Pin{Name: f.Name, Pinned: f.Pinned, Revision: f.Revision}, nil
	case models.ActionArchive:
		return models.Archive{Name: f.Name, ArchivePath: f.ArchivePath}, nil
	case models.ActionRestore:
		return models.Restore{Name: f.Name, ArchivePath: f.ArchivePath}, nil
	}
	return nil, fmt.Errorf("%w: %s v%d: unknown action %q", ErrDecode, item.PhysicalName, rec.Version, rec.Kind)
}
