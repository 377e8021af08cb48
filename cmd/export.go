package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/collector"
	"github.com/mattsolo1/vss2git/pkg/export"
	"github.com/mattsolo1/vss2git/pkg/journal"
	"github.com/mattsolo1/vss2git/pkg/vcs"
)

func NewExportCmd(logger **logrus.Entry) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export legacy history into a git repository",
		Long: `Replay the history of the configured projects into a new git repository,
one commit per reconstructed changeset. Labels become tags.

Examples:
  vss2git export -d db.yaml -o ./repo                # Export everything under $
  vss2git export -d db.yaml -p '$/src' -o ./repo     # Export one project
  vss2git export -d db.yaml --exclude '*.obj;$/old'  # Skip matching paths
  vss2git export -d db.yaml --dry-run                # Replay without git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Output == "" && !dryRun {
				return fmt.Errorf("no output directory specified (use --output)")
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			collected, changesets, err := buildChangesets(cmd.Context(), db, cfg, *logger)
			if err != nil {
				return err
			}

			output := cfg.Output
			var handler vcs.Handler
			if dryRun {
				tmp, err := os.MkdirTemp("", "vss2git-dry-run-*")
				if err != nil {
					return err
				}
				defer os.RemoveAll(tmp)
				output = tmp
				handler = vcs.NewRecorder()
			} else {
				if entries, err := os.ReadDir(output); err == nil && len(entries) > 0 {
					return fmt.Errorf("output directory %s is not empty", output)
				}
				handler, err = vcs.NewGit(output, vcs.GitOptions{
					Executable:     cfg.Git,
					CommitEncoding: cfg.CommitEncoding,
				}, *logger)
				if err != nil {
					return err
				}
			}

			exporter := export.New(db, db, handler, export.Options{
				EmailDomain:        cfg.EmailDomain,
				DefaultComment:     cfg.DefaultComment,
				ForceAnnotatedTags: cfg.ForceAnnotatedTags,
				Authors:            cfg.Authors,
			}, *logger)

			if cfg.Journal != "" {
				j, err := journal.Open(cfg.Journal)
				if err != nil {
					return err
				}
				defer j.Close()
				if err := j.Reset(); err != nil {
					return fmt.Errorf("reset journal: %w", err)
				}
				exporter.SetJournal(j)
			}

			report, exportErr := exporter.Export(cmd.Context(), output, collected, changesets)
			if report != nil {
				printExportReport(collected, report, dryRun)
			}
			return exportErr
		},
	}

	config.AddDatabaseFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Directory of the new git repository")
	cmd.Flags().String("email-domain", "", "Domain of generated author addresses")
	cmd.Flags().String("default-comment", "", "Commit message of changesets without a comment")
	cmd.Flags().String("commit-encoding", "", "Encoding of commit messages")
	cmd.Flags().Bool("force-annotated-tags", true, "Create annotated tags for labels without a comment")
	cmd.Flags().String("git", "", "Path of the git executable")
	cmd.Flags().String("journal", "", "Record every changeset outcome to this SQLite file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Replay into a temporary directory without running git")

	return cmd
}

func printExportReport(collected *collector.Result, report *export.Report, dryRun bool) {
	fmt.Printf("\nExport Report\n")
	fmt.Printf("=============\n")
	fmt.Printf("Projects:        %d\n", collected.Projects)
	fmt.Printf("Files:           %d\n", collected.Files)
	fmt.Printf("Revisions:       %d\n", report.Revisions)
	fmt.Printf("Changesets:      %d\n", report.Changesets)
	fmt.Printf("Commits:         %d\n", report.Commits)
	fmt.Printf("Tags:            %d\n", report.Tags)

	if report.SkippedWrites > 0 {
		fmt.Printf("Skipped writes:  %d\n", report.SkippedWrites)
	}
	if report.DroppedLabels > 0 {
		fmt.Printf("Dropped labels:  %d\n", report.DroppedLabels)
	}
	if collected.DecodeErrors > 0 {
		fmt.Printf("Decode errors:   %d\n", collected.DecodeErrors)
	}

	fmt.Printf("Duration:        %s\n", report.Duration())

	if len(report.Failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range report.Failures {
			fmt.Printf("  %v\n", f)
		}
	}

	if dryRun {
		fmt.Println("\nDry run complete. No repository was written.")
	}
}
