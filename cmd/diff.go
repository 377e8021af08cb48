package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/delta"
	"github.com/mattsolo1/vss2git/pkg/diff"
)

func NewDiffCmd() *cobra.Command {
	var context int

	cmd := &cobra.Command{
		Use:   "diff <physical-name> <from> [to]",
		Short: "Show a unified diff between two revisions of a file",
		Long: `Rebuild two revisions of a file and print their unified diff.
Without a second version, the diff is against the next version.

Examples:
  vss2git diff -d db.yaml CAAAAAAA 2      # Version 2 against 3
  vss2git diff -d db.yaml CAAAAAAA 1 5    # Version 1 against 5`,
		Args: cobra.RangeArgs(2, 3),
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

			physical := args[0]
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}
			to := from + 1
			if len(args) > 2 {
				if to, err = strconv.Atoi(args[2]); err != nil {
					return fmt.Errorf("invalid version %q", args[2])
				}
			}

			r := delta.NewReconstructor(db)
			a, err := r.Revision(physical, from)
			if err != nil {
				return err
			}
			b, err := r.Revision(physical, to)
			if err != nil {
				return err
			}

			out, err := diff.Unified(
				fmt.Sprintf("%s@%d", physical, from),
				fmt.Sprintf("%s@%d", physical, to),
				a.Data, b.Data, context)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringP("database", "d", "", "Path to the decoded legacy database (YAML)")
	cmd.Flags().IntVarP(&context, "unified", "U", diff.DefaultContext, "Lines of context")

	return cmd
}
