package models

import (
	"fmt"
	"time"
)

// Revision is one historical event of a project or file.
type Revision struct {
	Timestamp time.Time
	User      string
	Item      ItemName
	Version   int
	Comment   string
	Action    Action
}

// Target returns the physical name the revision acts on.
func (r Revision) Target() string {
	return TargetOf(r.Item, r.Action).PhysicalName
}

func (r Revision) String() string {
	return fmt.Sprintf("%s %s v%d %s: %s", r.Timestamp.Format(time.RFC3339), r.User, r.Version, r.Item.LogicalName, r.Action)
}
