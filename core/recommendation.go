package core

import "time"

// ScoredItem 是推荐列表中的一项：物品 ID 与模型预测分数。
type ScoredItem struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// RecommendationList 是一个用户的预计算推荐结果。
// 每次批处理运行整表替换（upsert），从不做部分更新；Items 按分数降序，
// 分数相同按物品 ID 升序，保证同一次运行内结果确定。
type RecommendationList struct {
	UserID     string       `json:"user_id"`
	Items      []ScoredItem `json:"items"`
	ComputedAt time.Time    `json:"computed_at"`
}

// Truncate 返回最多前 limit 项（读取侧按请求 limit 截断用）。
// limit <= 0 或超过列表长度时返回全部。
func (l *RecommendationList) Truncate(limit int) []ScoredItem {
	if limit <= 0 || limit >= len(l.Items) {
		return l.Items
	}
	return l.Items[:limit]
}
