package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/pkg/conv"
	"github.com/rushteam/recbatch/store"
)

// load 命令把 CSV 交互数据分块导入 MySQL interactions 表，
// 供后续 run 命令以 mysql 数据源消费。
func newLoadCmd() *cobra.Command {
	var csvPath string
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load interaction CSV into the MySQL store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			dsn := conv.ConfigGet[string](cfg.Job.Source.Config, "dsn", "")
			if dsn == "" {
				return fmt.Errorf("load: job.source.config.dsn required")
			}
			gs, err := store.NewGormStore(dsn)
			if err != nil {
				return err
			}
			defer gs.Close()

			src := &store.CSVSource{Path: csvPath}
			ctx := cmd.Context()

			var chunk []core.Interaction
			total := 0
			flush := func() error {
				if len(chunk) == 0 {
					return nil
				}
				if err := gs.SaveInteractions(ctx, chunk); err != nil {
					return err
				}
				total += len(chunk)
				logger.Info("chunk loaded", zap.Int("rows", len(chunk)), zap.Int("total", total))
				chunk = chunk[:0]
				return nil
			}

			err = src.Scan(ctx, func(in core.Interaction) error {
				chunk = append(chunk, in)
				if len(chunk) >= chunkSize {
					return flush()
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}

			fmt.Printf("loaded %d interactions from %s\n", total, csvPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "interactions.csv", "interaction csv file (user_id,item_id,rating[,timestamp])")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 10000, "rows per insert batch")
	return cmd
}
