package core

import (
	"fmt"
	"sort"
)

// RatingScale 是评分量表 [Min, Max]，由调用方声明（如 1~5 星、0.5~5.0）。
type RatingScale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains 判断评分是否落在量表内。
func (s RatingScale) Contains(rating float64) bool {
	return rating >= s.Min && rating <= s.Max
}

// Valid 判断量表本身是否合法（Min < Max）。
func (s RatingScale) Valid() bool {
	return s.Min < s.Max
}

// Interaction 是一条用户-物品评分事件，记录后不可变。
// 同一 (user, item) 允许出现多条，训练时全部使用。
type Interaction struct {
	UserID    string  `json:"user_id"`
	ItemID    string  `json:"item_id"`
	Rating    float64 `json:"rating"`
	Timestamp int64   `json:"timestamp"` // epoch 秒
}

// Snapshot 是一次批处理运行的交互数据快照：训练数据、物品全集、已交互索引
// 来自同一份数据，一次性派生。排除规则与模型因此不会漂移（不允许中途重查）。
type Snapshot struct {
	Interactions []Interaction
	Scale        RatingScale

	users   []string // 有序，保证遍历确定性
	catalog []string // 有序物品全集
	known   map[string]map[string]struct{}
}

// BuildSnapshot 校验评分量表并构建快照。
// 空数据返回 ErrEmptyDataset；评分越界返回 OUT_OF_RANGE_RATING 错误。
func BuildSnapshot(interactions []Interaction, scale RatingScale) (*Snapshot, error) {
	if len(interactions) == 0 {
		return nil, ErrEmptyDataset
	}
	if !scale.Valid() {
		return nil, NewDomainError(ModuleInput, ErrorCodeInvalidInput,
			fmt.Sprintf("input: invalid rating scale [%v, %v]", scale.Min, scale.Max))
	}

	known := make(map[string]map[string]struct{})
	items := make(map[string]struct{})
	for i, in := range interactions {
		if in.UserID == "" || in.ItemID == "" {
			return nil, NewDomainError(ModuleInput, ErrorCodeInvalidInput,
				fmt.Sprintf("input: interaction %d has empty user/item id", i))
		}
		if !scale.Contains(in.Rating) {
			return nil, NewDomainError(ModuleInput, ErrorCodeOutOfRangeRating,
				fmt.Sprintf("input: rating %v for (%s, %s) outside scale [%v, %v]",
					in.Rating, in.UserID, in.ItemID, scale.Min, scale.Max))
		}
		if known[in.UserID] == nil {
			known[in.UserID] = make(map[string]struct{})
		}
		known[in.UserID][in.ItemID] = struct{}{}
		items[in.ItemID] = struct{}{}
	}

	users := make([]string, 0, len(known))
	for u := range known {
		users = append(users, u)
	}
	sort.Strings(users)

	catalog := make([]string, 0, len(items))
	for it := range items {
		catalog = append(catalog, it)
	}
	sort.Strings(catalog)

	return &Snapshot{
		Interactions: interactions,
		Scale:        scale,
		users:        users,
		catalog:      catalog,
		known:        known,
	}, nil
}

// Users 返回快照中出现过的用户 ID（升序）。
func (s *Snapshot) Users() []string { return s.users }

// Catalog 返回快照中出现过的物品 ID 全集（升序）。
func (s *Snapshot) Catalog() []string { return s.catalog }

// KnownItems 返回用户已评分过的物品集合；未知用户返回 nil。
func (s *Snapshot) KnownItems(userID string) map[string]struct{} {
	return s.known[userID]
}

// HasRated 判断用户是否评分过某物品。
func (s *Snapshot) HasRated(userID, itemID string) bool {
	items, ok := s.known[userID]
	if !ok {
		return false
	}
	_, ok = items[itemID]
	return ok
}

// MeanRating 返回快照内所有评分的均值（训练用全局偏置）。
func (s *Snapshot) MeanRating() float64 {
	if len(s.Interactions) == 0 {
		return 0
	}
	var sum float64
	for _, in := range s.Interactions {
		sum += in.Rating
	}
	return sum / float64(len(s.Interactions))
}

// NumUsers 返回用户数。
func (s *Snapshot) NumUsers() int { return len(s.users) }

// NumItems 返回物品数。
func (s *Snapshot) NumItems() int { return len(s.catalog) }
