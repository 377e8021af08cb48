package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/delta"
)

func NewCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <physical-name> [version]",
		Short: "Print one revision of a file",
		Long: `Rebuild a file revision from its reverse-delta chain and print it.
Without a version the latest revision is printed.

Examples:
  vss2git cat -d db.yaml CAAAAAAA      # Latest revision
  vss2git cat -d db.yaml CAAAAAAA 3    # Version 3`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}

			version, err := fileVersion(db, args[0], args[1:])
			if err != nil {
				return err
			}
			content, err := delta.NewReconstructor(db).Revision(args[0], version)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(content.Data)
			return err
		},
	}

	cmd.Flags().StringP("database", "d", "", "Path to the decoded legacy database (YAML)")

	return cmd
}

// fileVersion parses an optional version argument, defaulting to the last
// version of the file.
func fileVersion(store delta.Store, physical string, args []string) (int, error) {
	if len(args) > 0 && args[0] != "" {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q", args[0])
		}
		return v, nil
	}
	file, err := store.FileData(physical)
	if err != nil {
		return 0, err
	}
	return file.LastVersion(), nil
}
