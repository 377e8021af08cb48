package models

import "fmt"

// ItemName identifies a legacy project or file. PhysicalName is the only
// stable identity; LogicalName changes with renames.
type ItemName struct {
	PhysicalName string `yaml:"physical" json:"physical" mapstructure:"physical"`
	LogicalName  string `yaml:"logical" json:"logical" mapstructure:"logical"`
	IsProject    bool   `yaml:"project,omitempty" json:"project,omitempty" mapstructure:"project"`
}

func (n ItemName) String() string {
	kind := "file"
	if n.IsProject {
		kind = "project"
	}
	return fmt.Sprintf("%s %s (%s)", kind, n.LogicalName, n.PhysicalName)
}

// IsZero reports whether the name carries no identity.
func (n ItemName) IsZero() bool {
	return n.PhysicalName == ""
}
