package publish

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/recbatch/core"
)

// Publisher 将一次运行产出的全量推荐列表按批 upsert 到存储。
//
// 语义：
//   - 按 user_id 整表替换，发布时覆盖 computed_at；从不做部分更新
//   - 同一份输出重放多次，存储最终状态一致（幂等）
//   - 按 BatchSize 分批提交，限制内存与单次事务大小；单批内全量成功
//     或全量失败，已提交批次不回滚
//   - 某批失败时继续发布后续批次，最后汇总 Report 并返回
//     PARTIAL_WRITE 错误，调用方可只针对失败用户重试
type Publisher struct {
	Store core.RecommendationStore

	// BatchSize 单批写入的列表数；<= 0 时取 500
	BatchSize int

	// Now 时间注入点（测试用）；nil 时取 time.Now
	Now func() time.Time

	// Logger 可选；nil 时不输出日志
	Logger *zap.Logger
}

// Report 记录一次发布的结果：目标用户数、实际写入数、失败用户。
type Report struct {
	Intended int
	Stored   int
	Failed   []string // 未写入的用户 ID，可用于针对性重试
}

// Publish 发布全部推荐列表。返回的 Report 永远非 nil；
// 任一批失败时 error 为 PARTIAL_WRITE，已成功批次保持可读。
func (p *Publisher) Publish(ctx context.Context, lists []*core.RecommendationList) (*Report, error) {
	if p.Store == nil {
		return &Report{}, core.NewDomainError(core.ModulePublish, core.ErrorCodeInvalidInput, "publish: nil store")
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	report := &Report{Intended: len(lists)}
	publishedAt := now()
	var firstErr error

	for start := 0; start < len(lists); start += batchSize {
		end := min(start+batchSize, len(lists))
		batch := lists[start:end]

		// ctx 取消时剩余批次全部计入失败，已提交的保留
		if err := ctx.Err(); err != nil {
			for _, l := range lists[start:] {
				report.Failed = append(report.Failed, l.UserID)
			}
			return report, err
		}

		for _, l := range batch {
			l.ComputedAt = publishedAt
		}

		if err := p.Store.UpsertBatch(ctx, batch); err != nil {
			for _, l := range batch {
				report.Failed = append(report.Failed, l.UserID)
			}
			if firstErr == nil {
				firstErr = err
			}
			logger.Warn("batch upsert failed",
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		report.Stored += len(batch)
	}

	if firstErr != nil {
		return report, fmt.Errorf("%w: stored %d of %d lists (first failure: %v)",
			core.NewDomainError(core.ModulePublish, core.ErrorCodePartialWrite, "publish: partial write"),
			report.Stored, report.Intended, firstErr)
	}

	logger.Info("publish done",
		zap.String("store", p.Store.Name()),
		zap.Int("stored", report.Stored),
		zap.Int("batch_size", batchSize),
	)
	return report, nil
}
