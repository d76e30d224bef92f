package rank

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/filter"
)

// Ranker 是离线 Top-N 排序器：为训练模型覆盖的每个用户，对其未评分过的
// 全部候选物品打分，按分数取前 N。
//
// 核心思想：候选集 = 物品全集 − 该用户已评分集合（已评分索引与训练数据
// 同源，保证排除规则不漂移）。打分直接查表 + 点积，不做任何反序列化。
//
// 语义：
//   - 分数是模型原始输出，不截断到评分量表（下游只关心相对排序）
//   - 候选不足 N 个时返回全部；候选为空返回空列表（不是错误）
//   - 分数相同按物品 ID 升序，同一次运行内结果确定
//   - 冷用户（模型中不存在）不产出列表，读取侧自行兜底
//
// 用户之间相互独立，按 MaxConcurrent 并发打分；模型在打分期间只读。
type Ranker struct {
	Model *core.TrainedModel

	// TopN 每个用户保留的物品数；<= 0 时取 20
	TopN int

	// MaxConcurrent 并发打分的最大 goroutine 数；<= 0 时取 GOMAXPROCS
	MaxConcurrent int

	// Filters 额外的候选过滤规则（黑名单/CEL 规则等），可为空
	Filters []filter.Filter

	// Logger 可选；nil 时不输出日志
	Logger *zap.Logger
}

// RankAll 为模型覆盖的全部用户产出推荐列表，顺序与 Model.Users() 一致。
// 任一用户打分失败即中止整个阶段（排序错误发生在发布之前，不会落库）。
func (r *Ranker) RankAll(ctx context.Context, snap *core.Snapshot) ([]*core.RecommendationList, error) {
	if r.Model == nil {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidInput, "rank: nil model")
	}

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	users := r.Model.Users()
	lists := make([]*core.RecommendationList, len(users))

	maxConcurrent := r.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrent)
	for i, userID := range users {
		i, userID := i, userID
		eg.Go(func() error {
			list, err := r.RankUser(egCtx, userID, snap)
			if err != nil {
				return fmt.Errorf("rank user %s: %w", userID, err)
			}
			lists[i] = list
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("ranking done",
		zap.Int("users", len(users)),
		zap.Int("catalog", snap.NumItems()),
		zap.Int("top_n", r.topN()),
	)
	return lists, nil
}

// RankUser 为单个用户打分并取 Top-N。
func (r *Ranker) RankUser(ctx context.Context, userID string, snap *core.Snapshot) (*core.RecommendationList, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	known := snap.KnownItems(userID)
	items := make([]core.ScoredItem, 0, snap.NumItems()-len(known))

	for _, itemID := range snap.Catalog() {
		if _, rated := known[itemID]; rated {
			continue
		}
		skip, err := r.shouldFilter(ctx, userID, itemID)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		items = append(items, core.ScoredItem{
			ItemID: itemID,
			Score:  r.Model.Predict(userID, itemID),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemID < items[j].ItemID
	})
	if n := r.topN(); len(items) > n {
		items = items[:n]
	}

	return &core.RecommendationList{UserID: userID, Items: items}, nil
}

func (r *Ranker) shouldFilter(ctx context.Context, userID, itemID string) (bool, error) {
	for _, f := range r.Filters {
		skip, err := f.ShouldFilter(ctx, userID, itemID)
		if err != nil {
			return false, fmt.Errorf("filter %s: %w", f.Name(), err)
		}
		if skip {
			return true, nil
		}
	}
	return false, nil
}

func (r *Ranker) topN() int {
	if r.TopN <= 0 {
		return 20
	}
	return r.TopN
}
