package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/vss2git/cmd/config"
	"github.com/mattsolo1/vss2git/pkg/collector"
	"github.com/mattsolo1/vss2git/pkg/models"
)

type changesetSummary struct {
	Sequence  int       `yaml:"seq"`
	User      string    `yaml:"user"`
	Timestamp time.Time `yaml:"time"`
	Comment   string    `yaml:"comment,omitempty"`
	Revisions []string  `yaml:"revisions"`
}

type analysisSummary struct {
	Projects         int                `yaml:"projects"`
	Files            int                `yaml:"files"`
	ExcludedProjects int                `yaml:"excluded_projects"`
	ExcludedFiles    int                `yaml:"excluded_files"`
	Revisions        int                `yaml:"revisions"`
	DecodeErrors     int                `yaml:"decode_errors"`
	Changesets       []changesetSummary `yaml:"changesets"`
}

func NewAnalyzeCmd(logger **logrus.Entry) *cobra.Command {
	var (
		yamlOutput  bool
		showDetails bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Show the changesets an export would commit",
		Long: `Collect the history of the configured projects and group it into changesets
without writing anything.

Examples:
  vss2git analyze -d db.yaml                 # Summary
  vss2git analyze -d db.yaml --changesets    # One line per changeset
  vss2git analyze -d db.yaml --yaml          # Full YAML listing`,
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
			collected, changesets, err := buildChangesets(cmd.Context(), db, cfg, *logger)
			if err != nil {
				return err
			}

			summary := summarize(collected, changesets)
			if yamlOutput {
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(summary)
			}

			printAnalysisReport(summary, collected)
			if showDetails {
				printChangesets(summary.Changesets)
			}
			return nil
		},
	}

	config.AddDatabaseFlags(cmd)
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "Output the analysis as YAML")
	cmd.Flags().BoolVar(&showDetails, "changesets", false, "List every changeset")

	return cmd
}

func summarize(collected *collector.Result, changesets []*models.Changeset) analysisSummary {
	summary := analysisSummary{
		Projects:         collected.Projects,
		Files:            collected.Files,
		ExcludedProjects: collected.ExcludedProjects,
		ExcludedFiles:    collected.ExcludedFiles,
		Revisions:        len(collected.Revisions),
		DecodeErrors:     collected.DecodeErrors,
	}
	for i, cs := range changesets {
		s := changesetSummary{
			Sequence:  i + 1,
			User:      cs.User,
			Timestamp: cs.Timestamp,
			Comment:   cs.Comment,
		}
		for _, rev := range cs.Revisions {
			s.Revisions = append(s.Revisions, fmt.Sprintf("%s: %s", rev.Item.LogicalName, rev.Action))
		}
		summary.Changesets = append(summary.Changesets, s)
	}
	return summary
}

func printAnalysisReport(summary analysisSummary, collected *collector.Result) {
	fmt.Printf("\nAnalysis Report\n")
	fmt.Printf("===============\n")
	fmt.Printf("Projects:        %d\n", summary.Projects)
	fmt.Printf("Files:           %d\n", summary.Files)
	if summary.ExcludedProjects > 0 || summary.ExcludedFiles > 0 {
		fmt.Printf("Excluded:        %d projects, %d files\n", summary.ExcludedProjects, summary.ExcludedFiles)
	}
	fmt.Printf("Destroyed:       %d\n", len(collected.Destroyed))
	fmt.Printf("Revisions:       %d\n", summary.Revisions)
	fmt.Printf("Changesets:      %d\n", len(summary.Changesets))
	if summary.DecodeErrors > 0 {
		fmt.Printf("Decode errors:   %d\n", summary.DecodeErrors)
	}
	fmt.Printf("Duration:        %s\n", collected.Duration)
}

func printChangesets(changesets []changesetSummary) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tUSER\tREVISIONS\tCOMMENT")
	for _, cs := range changesets {
		comment, _, _ := strings.Cut(cs.Comment, "\n")
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			cs.Sequence, cs.Timestamp.Format("2006-01-02 15:04:05"), cs.User, len(cs.Revisions), comment)
	}
	w.Flush()
}
