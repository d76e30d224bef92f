package core

import (
	"math"
	"path/filepath"
	"testing"
)

func testModel() *TrainedModel {
	return &TrainedModel{
		Factors:    2,
		GlobalBias: 3.5,
		UserBias:   map[string]float64{"u1": 0.2},
		ItemBias:   map[string]float64{"i1": -0.1},
		UserFactors: map[string][]float64{
			"u1": {0.5, -0.25},
		},
		ItemFactors: map[string][]float64{
			"i1": {0.4, 0.8},
		},
	}
}

func TestTrainedModelPredict(t *testing.T) {
	m := testModel()

	// score = mu + bu + bi + pu·qi
	want := 3.5 + 0.2 + (-0.1) + (0.5*0.4 + (-0.25)*0.8)
	if got := m.Predict("u1", "i1"); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Predict() = %v, want %v", got, want)
	}
}

// 加性检验：单独改动任一加性项，预测分数应恰好变化相同的增量。
func TestTrainedModelPredictAdditivity(t *testing.T) {
	const delta = 0.7

	tests := []struct {
		name  string
		tweak func(*TrainedModel)
	}{
		{"global bias", func(m *TrainedModel) { m.GlobalBias += delta }},
		{"user bias", func(m *TrainedModel) { m.UserBias["u1"] += delta }},
		{"item bias", func(m *TrainedModel) { m.ItemBias["i1"] += delta }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			base := m.Predict("u1", "i1")
			tt.tweak(m)
			if got := m.Predict("u1", "i1") - base; math.Abs(got-delta) > 1e-12 {
				t.Errorf("prediction delta = %v, want %v", got, delta)
			}
		})
	}
}

func TestTrainedModelColdEntities(t *testing.T) {
	m := testModel()

	if m.HasUser("u9") || m.HasItem("i9") {
		t.Errorf("HasUser/HasItem for cold entity = true, want false")
	}
	if !m.HasUser("u1") || !m.HasItem("i1") {
		t.Errorf("HasUser/HasItem for trained entity = false, want true")
	}

	// 冷实体缺失的项按 0 处理
	if got := m.Predict("u9", "i9"); got != m.GlobalBias {
		t.Errorf("Predict(cold, cold) = %v, want global bias %v", got, m.GlobalBias)
	}
}

func TestTrainedModelSaveLoad(t *testing.T) {
	m := testModel()
	path := filepath.Join(t.TempDir(), "model.json")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	if got.Factors != m.Factors || got.GlobalBias != m.GlobalBias {
		t.Errorf("loaded model header mismatch: %+v", got)
	}
	if got.Predict("u1", "i1") != m.Predict("u1", "i1") {
		t.Errorf("loaded model predicts %v, want %v", got.Predict("u1", "i1"), m.Predict("u1", "i1"))
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadModel() on missing file: want error")
	}
}
