package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mattsolo1/vss2git/pkg/models"
)

var cfgFile string

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(home, ".config", "vss2git"))
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vss2git")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VSS2GIT")

	// Set defaults
	defaults := models.DefaultConfig()
	viper.SetDefault("database", "")
	viper.SetDefault("project", defaults.Projects)
	viper.SetDefault("exclude", "")
	viper.SetDefault("any_comment_threshold", defaults.AnyCommentThreshold)
	viper.SetDefault("same_comment_threshold", defaults.SameCommentThreshold)
	viper.SetDefault("output", "")
	viper.SetDefault("email_domain", defaults.EmailDomain)
	viper.SetDefault("default_comment", defaults.DefaultComment)
	viper.SetDefault("commit_encoding", defaults.CommitEncoding)
	viper.SetDefault("force_annotated_tags", defaults.ForceAnnotatedTags)
	viper.SetDefault("authors", map[string]string{})
	viper.SetDefault("git", defaults.Git)
	viper.SetDefault("workers", defaults.Workers)
	viper.SetDefault("journal", "")
	viper.SetDefault("verbose", 0)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// BindFlags binds every flag of cmd that names a config key, "-" standing
// for "_", so flags override the config file and the environment. Binding
// happens when the command runs, since commands share key names.
func BindFlags(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnownKey(key) {
			return
		}
		if err := viper.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	return bindErr
}

func isKnownKey(key string) bool {
	for _, k := range viper.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Load returns the effective configuration.
func Load() (*models.Config, error) {
	cfg := models.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.AnyCommentThreshold < 0 || cfg.SameCommentThreshold < 0 {
		return nil, fmt.Errorf("comment thresholds must not be negative")
	}
	if cfg.SameCommentThreshold < cfg.AnyCommentThreshold {
		cfg.SameCommentThreshold = cfg.AnyCommentThreshold
	}
	if len(cfg.Projects) == 0 {
		cfg.Projects = []string{"$"}
	}
	return cfg, nil
}

// AddGlobalFlags adds --config and --verbose to the root command unless its
// constructor already registered them. A registered --config is read back
// through ConfigFlag.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	if flags.Lookup("config") == nil {
		flags.StringVar(&cfgFile, "config", "", "config file (default is ./.vss2git.yaml or $HOME/.config/vss2git/.vss2git.yaml)")
	}
	if flags.Lookup("verbose") == nil {
		shorthand := "v"
		if flags.ShorthandLookup(shorthand) != nil {
			shorthand = ""
		}
		flags.CountP("verbose", shorthand, "Increase log verbosity (-v info, -vv debug)")
	}
}

// ConfigFlag picks up the config file path from the root command's --config
// flag, whoever registered it.
func ConfigFlag(root *cobra.Command) {
	if flag := root.PersistentFlags().Lookup("config"); flag != nil && flag.Changed {
		cfgFile = flag.Value.String()
	}
}

// AddDatabaseFlags adds the flags every command reading the database needs.
func AddDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("database", "d", "", "Path to the decoded legacy database (YAML)")
	cmd.Flags().StringSliceP("project", "p", nil, "Legacy project path to export (repeatable, default \"$\")")
	cmd.Flags().String("exclude", "", "Semicolon separated glob patterns of paths to skip")
	cmd.Flags().Int("workers", 0, "Parallel record decoders")
	cmd.Flags().Duration("any-comment-threshold", models.DefaultAnyCommentThreshold, "Largest gap between revisions of one changeset")
	cmd.Flags().Duration("same-comment-threshold", models.DefaultSameCommentThreshold, "Largest gap between revisions sharing a comment")
}
