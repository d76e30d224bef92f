package filter

import "context"

// Filter 是候选过滤器的抽象接口，在排序打分前对 (user, item) 候选做剔除。
// 返回 true 表示应该过滤（移除），false 表示保留。
//
// 注意：已评分物品的排除不走 Filter——它是排序器的硬性约束，直接由
// 训练同源的快照索引保证。Filter 承载的是额外的业务规则。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断候选物品是否应该从该用户的候选集中剔除
	ShouldFilter(ctx context.Context, userID, itemID string) (bool, error)
}
