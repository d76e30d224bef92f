package rank

import (
	"context"
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/filter"
	"github.com/rushteam/recbatch/train"
)

var testScale = core.RatingScale{Min: 0.5, Max: 5.0}

func testSnapshot(t *testing.T, interactions []core.Interaction) *core.Snapshot {
	t.Helper()
	snap, err := core.BuildSnapshot(interactions, testScale)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	return snap
}

// biasModel 构造一个只有物品偏置的模型，分数完全可控。
func biasModel(users []string, itemBias map[string]float64) *core.TrainedModel {
	m := &core.TrainedModel{
		UserBias:    map[string]float64{},
		ItemBias:    itemBias,
		UserFactors: map[string][]float64{},
		ItemFactors: map[string][]float64{},
	}
	for _, u := range users {
		m.UserBias[u] = 0
		m.UserFactors[u] = []float64{}
	}
	for i := range itemBias {
		m.ItemFactors[i] = []float64{}
	}
	return m
}

// 场景：U1 已评分 I1、I2，目录为 {I1,I2,I3} → U1 的候选集只有 I3。
func TestRankAllExcludesRatedItems(t *testing.T) {
	snap := testSnapshot(t, []core.Interaction{
		{UserID: "U1", ItemID: "I1", Rating: 5.0},
		{UserID: "U1", ItemID: "I2", Rating: 3.0},
		{UserID: "U2", ItemID: "I1", Rating: 4.0},
		{UserID: "U3", ItemID: "I3", Rating: 4.0},
	})

	model, err := train.New(train.Config{Factors: 2, Epochs: 20, Seed: 42}).Fit(context.Background(), snap)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	ranker := &Ranker{Model: model, TopN: 5}
	lists, err := ranker.RankAll(context.Background(), snap)
	if err != nil {
		t.Fatalf("RankAll() error = %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("RankAll() produced %d lists, want 3", len(lists))
	}

	byUser := make(map[string]*core.RecommendationList)
	for _, l := range lists {
		byUser[l.UserID] = l
	}

	u1 := byUser["U1"]
	if len(u1.Items) != 1 || u1.Items[0].ItemID != "I3" {
		t.Errorf("U1 list = %+v, want exactly [I3]", u1.Items)
	}

	// U2 已评分 I1 → 候选 {I2, I3}；TopN=5 时返回 2 条，不报错
	u2 := byUser["U2"]
	if len(u2.Items) != 2 {
		t.Errorf("U2 list has %d items, want 2 (fewer than N is not an error)", len(u2.Items))
	}
}

// 排除不变量的随机化检验：任何用户的列表都不含其已评分物品。
func TestRankAllExclusionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	var interactions []core.Interaction
	seen := make(map[[2]int]struct{})
	for len(interactions) < 150 {
		u, i := rng.Intn(12), rng.Intn(20)
		if _, ok := seen[[2]int{u, i}]; ok {
			continue
		}
		seen[[2]int{u, i}] = struct{}{}
		interactions = append(interactions, core.Interaction{
			UserID: "u" + strconv.Itoa(u),
			ItemID: "i" + strconv.Itoa(i),
			Rating: 0.5 + rng.Float64()*4.5,
		})
	}
	snap := testSnapshot(t, interactions)

	model, err := train.New(train.Config{Factors: 4, Epochs: 5, Seed: 1}).Fit(context.Background(), snap)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	ranker := &Ranker{Model: model, TopN: 10, MaxConcurrent: 4}
	lists, err := ranker.RankAll(context.Background(), snap)
	if err != nil {
		t.Fatalf("RankAll() error = %v", err)
	}

	for _, l := range lists {
		if len(l.Items) > 10 {
			t.Errorf("user %s list has %d items, want <= 10", l.UserID, len(l.Items))
		}
		candidates := snap.NumItems() - len(snap.KnownItems(l.UserID))
		if len(l.Items) > candidates {
			t.Errorf("user %s list has %d items, more than %d candidates", l.UserID, len(l.Items), candidates)
		}
		for _, item := range l.Items {
			if snap.HasRated(l.UserID, item.ItemID) {
				t.Errorf("user %s list contains already-rated item %s", l.UserID, item.ItemID)
			}
		}
		for i := 1; i < len(l.Items); i++ {
			if l.Items[i-1].Score < l.Items[i].Score {
				t.Errorf("user %s list not sorted descending at %d", l.UserID, i)
			}
		}
	}
}

func TestRankUserOrderingAndTieBreak(t *testing.T) {
	snap := testSnapshot(t, []core.Interaction{
		{UserID: "u1", ItemID: "seed", Rating: 3.0},
		{UserID: "u2", ItemID: "ia", Rating: 3.0},
		{UserID: "u2", ItemID: "ib", Rating: 3.0},
		{UserID: "u2", ItemID: "ic", Rating: 3.0},
		{UserID: "u2", ItemID: "id", Rating: 3.0},
	})

	model := biasModel([]string{"u1"}, map[string]float64{
		"seed": 0, "ia": 1.0, "ib": 2.0, "ic": 2.0, "id": 0.5,
	})

	ranker := &Ranker{Model: model, TopN: 3}
	list, err := ranker.RankUser(context.Background(), "u1", snap)
	if err != nil {
		t.Fatalf("RankUser() error = %v", err)
	}

	// ib 与 ic 同分 → 按物品 ID 升序
	want := []string{"ib", "ic", "ia"}
	got := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		got = append(got, item.ItemID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankUser() order = %v, want %v", got, want)
	}
}

func TestRankUserEmptyCandidates(t *testing.T) {
	// u1 评分过目录中全部物品 → 空列表，不是错误
	snap := testSnapshot(t, []core.Interaction{
		{UserID: "u1", ItemID: "i1", Rating: 3.0},
		{UserID: "u1", ItemID: "i2", Rating: 4.0},
	})
	model := biasModel([]string{"u1"}, map[string]float64{"i1": 0, "i2": 0})

	list, err := (&Ranker{Model: model, TopN: 5}).RankUser(context.Background(), "u1", snap)
	if err != nil {
		t.Fatalf("RankUser() error = %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("RankUser() = %+v, want empty list", list.Items)
	}
}

func TestRankAllAppliesFilters(t *testing.T) {
	snap := testSnapshot(t, []core.Interaction{
		{UserID: "u1", ItemID: "i1", Rating: 3.0},
		{UserID: "u2", ItemID: "i2", Rating: 4.0},
		{UserID: "u2", ItemID: "i3", Rating: 4.0},
	})
	model := biasModel([]string{"u1", "u2"}, map[string]float64{"i1": 0, "i2": 1, "i3": 2})

	ranker := &Ranker{
		Model:   model,
		TopN:    5,
		Filters: []filter.Filter{filter.NewBlacklistFilter([]string{"i3"})},
	}
	lists, err := ranker.RankAll(context.Background(), snap)
	if err != nil {
		t.Fatalf("RankAll() error = %v", err)
	}
	for _, l := range lists {
		for _, item := range l.Items {
			if item.ItemID == "i3" {
				t.Errorf("user %s list contains blacklisted item", l.UserID)
			}
		}
	}
}

// 相同输入 + 相同种子的两次完整执行必须产出相同的列表顺序。
func TestRankAllDeterministic(t *testing.T) {
	interactions := []core.Interaction{
		{UserID: "u1", ItemID: "i1", Rating: 5.0},
		{UserID: "u1", ItemID: "i4", Rating: 1.0},
		{UserID: "u2", ItemID: "i2", Rating: 3.5},
		{UserID: "u3", ItemID: "i3", Rating: 4.0},
		{UserID: "u3", ItemID: "i5", Rating: 2.0},
	}

	run := func() []*core.RecommendationList {
		snap := testSnapshot(t, interactions)
		model, err := train.New(train.Config{Factors: 4, Epochs: 10, Seed: 42}).Fit(context.Background(), snap)
		if err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		lists, err := (&Ranker{Model: model, TopN: 3, MaxConcurrent: 3}).RankAll(context.Background(), snap)
		if err != nil {
			t.Fatalf("RankAll() error = %v", err)
		}
		return lists
	}

	if got, want := run(), run(); !reflect.DeepEqual(got, want) {
		t.Fatal("two runs with same seed produced different lists")
	}
}
