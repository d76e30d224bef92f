package core

import (
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
)

// TrainedModel 是一次训练运行产出的带偏置隐因子模型。
//
// 预测公式：
//
//	score = GlobalBias + UserBias[u] + ItemBias[i] + dot(UserFactors[u], ItemFactors[i])
//
// 模型由单次训练运行独占产出，训练完成后只读；排序阶段只做查表和点积，
// 不在打分过程中原地修改任何参数。
//
// 快照中没有交互的用户/物品不会有对应条目（冷启动实体），Predict 对缺失
// 条目按 0 处理，但排序器只会为模型中存在的用户产出列表。
type TrainedModel struct {
	Factors     int                  `json:"factors"`
	GlobalBias  float64              `json:"global_bias"`
	UserBias    map[string]float64   `json:"user_bias"`
	ItemBias    map[string]float64   `json:"item_bias"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`
}

// Predict 计算 (user, item) 的预测分数。
// 分数是模型原始输出，不截断到评分量表——下游只关心相对排序。
func (m *TrainedModel) Predict(userID, itemID string) float64 {
	score := m.GlobalBias + m.UserBias[userID] + m.ItemBias[itemID]
	return score + dot(m.UserFactors[userID], m.ItemFactors[itemID])
}

// HasUser 判断模型是否包含该用户（有交互才有参数）。
func (m *TrainedModel) HasUser(userID string) bool {
	_, ok := m.UserFactors[userID]
	return ok
}

// HasItem 判断模型是否包含该物品。
func (m *TrainedModel) HasItem(itemID string) bool {
	_, ok := m.ItemFactors[itemID]
	return ok
}

// Users 返回模型覆盖的用户 ID（升序，保证批处理遍历确定性）。
func (m *TrainedModel) Users() []string {
	users := make([]string, 0, len(m.UserFactors))
	for u := range m.UserFactors {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// NumUsers 返回模型覆盖的用户数。
func (m *TrainedModel) NumUsers() int { return len(m.UserFactors) }

// NumItems 返回模型覆盖的物品数。
func (m *TrainedModel) NumItems() int { return len(m.ItemFactors) }

// Save 将模型序列化为 JSON 并写入文件（模型落盘供复用，属调用方职责）。
func (m *TrainedModel) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return nil
}

// LoadModel 从文件读取 Save 落盘的模型。
func LoadModel(path string) (*TrainedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	var m TrainedModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}
	return &m, nil
}

// dot 计算两个向量的点积；长度不一致（缺失条目）返回 0。
func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
