package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/rushteam/recbatch/core"
)

// Config 是训练超参数，全部显式配置（零值由 withDefaults 补齐）。
type Config struct {
	// Factors 隐向量维度 K
	Factors int `yaml:"factors" json:"factors"`

	// Epochs 训练轮数；每轮完整处理一遍全部交互
	Epochs int `yaml:"epochs" json:"epochs"`

	// LearningRate SGD 学习率
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`

	// Regularization L2 正则化权重，作用于所有偏置与隐向量
	Regularization float64 `yaml:"regularization" json:"regularization"`

	// InitStdDev 隐向量初始化的正态分布标准差
	InitStdDev float64 `yaml:"init_std_dev" json:"init_std_dev"`

	// Seed 随机种子；相同种子 + 相同输入 → 相同模型
	Seed int64 `yaml:"seed" json:"seed"`
}

// withDefaults 补齐零值超参数。默认值对齐常见 SVD 实现（K=50，20 轮）。
func (c Config) withDefaults() Config {
	if c.Factors <= 0 {
		c.Factors = 50
	}
	if c.Epochs <= 0 {
		c.Epochs = 20
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.005
	}
	if c.Regularization < 0 {
		c.Regularization = 0
	}
	if c.Regularization == 0 {
		c.Regularization = 0.02
	}
	if c.InitStdDev <= 0 {
		c.InitStdDev = 0.1
	}
	return c
}

// Trainer 是带偏置的隐因子模型训练器（FunkSVD 风格 SGD）。
//
// 目标：最小化观测评分的平方误差 + L2 正则项。
// 每条样本的更新：
//
//	e  = r - (mu + bu + bi + pu·qi)
//	bu += lr * (e - reg*bu)
//	bi += lr * (e - reg*bi)
//	pu += lr * (e*qi - reg*pu)
//	qi += lr * (e*pu - reg*qi)
//
// 全局偏置 mu 固定为快照评分均值，不参与 SGD 更新。
//
// 轮与轮之间串行（每轮依赖上一轮的参数）；轮内遍历顺序由种子随机
// 打散，相同种子下完全可复现。
type Trainer struct {
	Config Config

	// Logger 可选；nil 时不输出日志
	Logger *zap.Logger
}

// New 创建训练器。
func New(cfg Config) *Trainer {
	return &Trainer{Config: cfg}
}

// Fit 在快照上训练并返回模型。
//
// 失败情形：
//   - 快照为空 → ErrEmptyDataset
//   - 损失出现非有限值（发散）→ NUMERIC_INSTABILITY，中止而不是产出坏模型
//   - ctx 取消 → 在轮间检查点返回 ctx.Err()
func (t *Trainer) Fit(ctx context.Context, snap *core.Snapshot) (*core.TrainedModel, error) {
	if snap == nil || len(snap.Interactions) == 0 {
		return nil, core.ErrEmptyDataset
	}

	cfg := t.Config.withDefaults()
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	model := initModel(snap, cfg, rng)

	lr := cfg.LearningRate
	reg := cfg.Regularization
	n := len(snap.Interactions)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var sse float64
		for _, idx := range rng.Perm(n) {
			in := snap.Interactions[idx]
			bu := model.UserBias[in.UserID]
			bi := model.ItemBias[in.ItemID]
			pu := model.UserFactors[in.UserID]
			qi := model.ItemFactors[in.ItemID]

			pred := model.GlobalBias + bu + bi
			for f := 0; f < cfg.Factors; f++ {
				pred += pu[f] * qi[f]
			}
			e := in.Rating - pred
			sse += e * e

			model.UserBias[in.UserID] = bu + lr*(e-reg*bu)
			model.ItemBias[in.ItemID] = bi + lr*(e-reg*bi)
			for f := 0; f < cfg.Factors; f++ {
				puf := pu[f]
				qif := qi[f]
				pu[f] = puf + lr*(e*qif-reg*puf)
				qi[f] = qif + lr*(e*puf-reg*qif)
			}
		}

		rmse := math.Sqrt(sse / float64(n))
		if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
			return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeNumericInstability,
				fmt.Sprintf("train: loss diverged at epoch %d (rmse is not finite)", epoch))
		}
		logger.Debug("epoch done",
			zap.Int("epoch", epoch),
			zap.Float64("rmse", rmse),
		)
	}

	logger.Info("training done",
		zap.Int("factors", cfg.Factors),
		zap.Int("epochs", cfg.Epochs),
		zap.Int("users", model.NumUsers()),
		zap.Int("items", model.NumItems()),
	)
	return model, nil
}

// initModel 初始化参数：偏置为 0，隐向量 ~ N(0, InitStdDev²)。
// 用户/物品按升序初始化，保证相同种子下 rng 消耗顺序一致。
func initModel(snap *core.Snapshot, cfg Config, rng *rand.Rand) *core.TrainedModel {
	model := &core.TrainedModel{
		Factors:     cfg.Factors,
		GlobalBias:  snap.MeanRating(),
		UserBias:    make(map[string]float64, snap.NumUsers()),
		ItemBias:    make(map[string]float64, snap.NumItems()),
		UserFactors: make(map[string][]float64, snap.NumUsers()),
		ItemFactors: make(map[string][]float64, snap.NumItems()),
	}
	for _, u := range snap.Users() {
		model.UserBias[u] = 0
		model.UserFactors[u] = randVector(rng, cfg.Factors, cfg.InitStdDev)
	}
	for _, it := range snap.Catalog() {
		model.ItemBias[it] = 0
		model.ItemFactors[it] = randVector(rng, cfg.Factors, cfg.InitStdDev)
	}
	return model
}

func randVector(rng *rand.Rand, n int, std float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64() * std
	}
	return v
}
