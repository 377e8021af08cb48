package models

import "time"

const (
	DefaultAnyCommentThreshold  = 30 * time.Second
	DefaultSameCommentThreshold = 10 * time.Minute
	DefaultComment              = "Vss2Git"
	DefaultEmailDomain          = "localhost"
)

// Config is the run configuration of an export. Field tags match the keys
// of the config file and the VSS2GIT_* environment.
type Config struct {
	Database             string            `mapstructure:"database"`
	Projects             []string          `mapstructure:"project"`
	Exclude              string            `mapstructure:"exclude"`
	AnyCommentThreshold  time.Duration     `mapstructure:"any_comment_threshold"`
	SameCommentThreshold time.Duration     `mapstructure:"same_comment_threshold"`
	Output               string            `mapstructure:"output"`
	EmailDomain          string            `mapstructure:"email_domain"`
	DefaultComment       string            `mapstructure:"default_comment"`
	CommitEncoding       string            `mapstructure:"commit_encoding"`
	ForceAnnotatedTags   bool              `mapstructure:"force_annotated_tags"`
	Authors              map[string]string `mapstructure:"authors"`
	Git                  string            `mapstructure:"git"`
	Workers              int               `mapstructure:"workers"`
	Journal              string            `mapstructure:"journal"`
}

// DefaultConfig returns a Config with every optional value filled in.
func DefaultConfig() *Config {
	return &Config{
		Projects:             []string{"$"},
		AnyCommentThreshold:  DefaultAnyCommentThreshold,
		SameCommentThreshold: DefaultSameCommentThreshold,
		EmailDomain:          DefaultEmailDomain,
		DefaultComment:       DefaultComment,
		CommitEncoding:       "UTF-8",
		ForceAnnotatedTags:   true,
		Git:                  "git",
		Workers:              4,
	}
}
