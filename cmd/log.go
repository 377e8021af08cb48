package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/journal"
)

func NewLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the journal of the last export",
		Long: `List the changesets recorded by "export --journal".

Examples:
  vss2git log --journal export.db          # Every changeset
  vss2git log --journal export.db -n 20    # The last 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Journal == "" {
				return fmt.Errorf("no journal specified (use --journal)")
			}
			if _, err := os.Stat(cfg.Journal); err != nil {
				return fmt.Errorf("journal %s: %w", cfg.Journal, err)
			}

			j, err := journal.Open(cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No changesets recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tTIME\tUSER\tREVS\tCOMMIT\tTAGS\tCOMMENT")
			for _, e := range entries {
				status := "-"
				switch {
				case e.Error != "":
					status = "failed"
				case e.Committed:
					status = "yes"
				}
				comment, _, _ := strings.Cut(e.Comment, "\n")
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
					e.Sequence, e.Timestamp.Format("2006-01-02 15:04:05"), e.User,
					e.Revisions, status, strings.Join(e.Tags, ","), comment)
			}
			w.Flush()

			for _, e := range entries {
				if e.Error != "" {
					fmt.Printf("\nchangeset %d: %s\n", e.Sequence, e.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("journal", "", "Journal written by export --journal")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last n changesets")

	return cmd
}
