package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/vss2git/pkg/changeset"
	"github.com/mattsolo1/vss2git/pkg/collector"
	"github.com/mattsolo1/vss2git/pkg/models"
	"github.com/mattsolo1/vss2git/pkg/pathmatch"
	"github.com/mattsolo1/vss2git/pkg/source/yamldb"
)

func openDatabase(cfg *models.Config) (*yamldb.DB, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("no database specified (use --database or VSS2GIT_DATABASE)")
	}
	db, err := yamldb.Load(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database, err)
	}
	return db, nil
}

// buildChangesets runs the collector and the changeset builder over the
// configured projects.
func buildChangesets(ctx context.Context, db *yamldb.DB, cfg *models.Config, logger *logrus.Entry) (*collector.Result, []*models.Changeset, error) {
	c := collector.New(db, collector.Options{
		Exclude: pathmatch.Parse(cfg.Exclude),
		Workers: cfg.Workers,
	}, logger)
	result, err := c.Collect(ctx, cfg.Projects...)
	if err != nil {
		return nil, nil, err
	}

	builder := changeset.NewBuilder(cfg.AnyCommentThreshold, cfg.SameCommentThreshold, logger)
	return result, builder.Build(result.Revisions), nil
}
