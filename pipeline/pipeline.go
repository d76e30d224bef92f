package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/filter"
	"github.com/rushteam/recbatch/publish"
	"github.com/rushteam/recbatch/rank"
	"github.com/rushteam/recbatch/train"
)

// Job 是一次批处理运行：快照 → 训练 → 排序 → 发布。
//
// 约束：
//   - 一次运行只读一个一致性快照，已评分索引与训练数据同源
//   - 全部列表反映本次运行的单个模型，绝不混用两次训练的结果
//   - 模型是阶段间显式传递的值，不放进任何全局注册表
//   - 阶段之间有取消检查点：训练/排序失败或 ctx 取消时，发布阶段
//     不会执行，已有存储内容保持原样
type Job struct {
	// Source 交互数据源
	Source core.InteractionSource

	// Scale 评分量表，校验输入用
	Scale core.RatingScale

	// Train 训练超参数
	Train train.Config

	// TopN 每个用户保留的推荐数
	TopN int

	// MaxConcurrent 排序阶段的并发度
	MaxConcurrent int

	// Filters 排序阶段的额外候选过滤规则
	Filters []filter.Filter

	// Store 推荐结果存储
	Store core.RecommendationStore

	// BatchSize 发布阶段单批写入的列表数
	BatchSize int

	// ModelPath 非空时训练完成后将模型落盘（JSON）
	ModelPath string

	// Logger 可选；nil 时不输出日志
	Logger *zap.Logger
}

// Report 是一次运行的汇总。
type Report struct {
	RunID        string
	Interactions int
	Users        int
	Items        int
	Lists        int
	Publish      *publish.Report

	SnapshotTime time.Duration
	TrainTime    time.Duration
	RankTime     time.Duration
	PublishTime  time.Duration
}

// Run 执行完整批处理。训练/排序错误在发布之前中止整个运行；
// 发布阶段的部分失败通过 Report.Publish 汇报，error 为 PARTIAL_WRITE。
func (j *Job) Run(ctx context.Context) (*Report, error) {
	logger := j.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	report := &Report{RunID: uuid.NewString()}
	logger = logger.With(zap.String("run_id", report.RunID))

	// 阶段 1：读取快照
	start := time.Now()
	snap, err := j.loadSnapshot(ctx)
	if err != nil {
		return report, fmt.Errorf("snapshot: %w", err)
	}
	report.SnapshotTime = time.Since(start)
	report.Interactions = len(snap.Interactions)
	report.Users = snap.NumUsers()
	report.Items = snap.NumItems()
	logger.Info("snapshot loaded",
		zap.String("source", j.Source.Name()),
		zap.Int("interactions", report.Interactions),
		zap.Int("users", report.Users),
		zap.Int("items", report.Items),
		zap.Duration("took", report.SnapshotTime),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	// 阶段 2：训练
	start = time.Now()
	trainer := &train.Trainer{Config: j.Train, Logger: logger}
	model, err := trainer.Fit(ctx, snap)
	if err != nil {
		return report, fmt.Errorf("train: %w", err)
	}
	report.TrainTime = time.Since(start)
	logger.Info("model trained", zap.Duration("took", report.TrainTime))

	if j.ModelPath != "" {
		if err := model.Save(j.ModelPath); err != nil {
			return report, fmt.Errorf("save model: %w", err)
		}
		logger.Info("model saved", zap.String("path", j.ModelPath))
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	// 阶段 3：排序
	start = time.Now()
	ranker := &rank.Ranker{
		Model:         model,
		TopN:          j.TopN,
		MaxConcurrent: j.MaxConcurrent,
		Filters:       j.Filters,
		Logger:        logger,
	}
	lists, err := ranker.RankAll(ctx, snap)
	if err != nil {
		return report, fmt.Errorf("rank: %w", err)
	}
	report.RankTime = time.Since(start)
	report.Lists = len(lists)
	logger.Info("lists ranked", zap.Int("lists", report.Lists), zap.Duration("took", report.RankTime))
	if err := ctx.Err(); err != nil {
		return report, err
	}

	// 阶段 4：发布（排序完整产出之后才推进到这里）
	start = time.Now()
	publisher := &publish.Publisher{Store: j.Store, BatchSize: j.BatchSize, Logger: logger}
	pubReport, err := publisher.Publish(ctx, lists)
	report.Publish = pubReport
	report.PublishTime = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("publish: %w", err)
	}
	logger.Info("run done",
		zap.Int("stored", pubReport.Stored),
		zap.Int("intended", pubReport.Intended),
		zap.Duration("took", report.PublishTime),
	)
	return report, nil
}

// loadSnapshot 一次性读完数据源并构建快照。
func (j *Job) loadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if j.Source == nil {
		return nil, core.NewDomainError(core.ModuleInput, core.ErrorCodeInvalidInput, "pipeline: nil source")
	}

	var interactions []core.Interaction
	err := j.Source.Scan(ctx, func(in core.Interaction) error {
		interactions = append(interactions, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return core.BuildSnapshot(interactions, j.Scale)
}
