package filter

import "context"

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品（全局，不分用户）。
type BlacklistFilter struct {
	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(_ context.Context, _ string, itemID string) (bool, error) {
	_, ok := f.ids[itemID]
	return ok, nil
}
