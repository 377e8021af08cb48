package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/vss2git/cmd"
	"github.com/mattsolo1/vss2git/cmd/config"
)

var logger *logrus.Entry

func main() {
	rootCmd := cli.NewStandardCommand(
		"vss2git",
		"Convert a legacy version control database into a git repository",
	)
	rootCmd.SilenceUsage = true
	config.AddGlobalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.ConfigFlag(rootCmd)
		config.InitConfig()
		if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
			return err
		}

		log := logrus.New()
		log.SetOutput(os.Stderr)
		switch verbosity := viper.GetInt("verbose"); {
		case verbosity >= 2:
			log.SetLevel(logrus.DebugLevel)
		case verbosity == 1:
			log.SetLevel(logrus.InfoLevel)
		default:
			log.SetLevel(logrus.WarnLevel)
		}
		logger = logrus.NewEntry(log)
		return nil
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewExportCmd(&logger))
	rootCmd.AddCommand(cmd.NewAnalyzeCmd(&logger))
	rootCmd.AddCommand(cmd.NewCatCmd())
	rootCmd.AddCommand(cmd.NewDiffCmd())
	rootCmd.AddCommand(cmd.NewLogCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
