package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/recbatch/pipeline"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one precompute batch (snapshot → train → rank → publish)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			job, err := cfg.BuildJob(pipeline.DefaultFactory())
			if err != nil {
				return err
			}
			job.Logger = logger
			defer job.Store.Close()

			report, err := job.Run(cmd.Context())
			if err != nil {
				if report != nil && report.Publish != nil && len(report.Publish.Failed) > 0 {
					logger.Error("run finished with failed users",
						zap.Int("stored", report.Publish.Stored),
						zap.Int("intended", report.Publish.Intended),
						zap.Strings("failed_users", report.Publish.Failed),
					)
				}
				return err
			}

			fmt.Printf("run %s done: %d interactions, %d users, %d items, %d lists stored\n",
				report.RunID, report.Interactions, report.Users, report.Items, report.Publish.Stored)
			fmt.Printf("timing: snapshot=%s train=%s rank=%s publish=%s\n",
				report.SnapshotTime.Round(time.Millisecond), report.TrainTime.Round(time.Millisecond),
				report.RankTime.Round(time.Millisecond), report.PublishTime.Round(time.Millisecond))
			return nil
		},
	}
}

func loadConfig(path string) (*pipeline.Config, error) {
	if strings.HasSuffix(path, ".json") {
		return pipeline.LoadFromJSON(path)
	}
	return pipeline.LoadFromYAML(path)
}
