package filter

import (
	"context"
	"testing"
)

func TestBlacklistFilter(t *testing.T) {
	f := NewBlacklistFilter([]string{"i1", "i3"})

	tests := []struct {
		itemID string
		want   bool
	}{
		{"i1", true},
		{"i2", false},
		{"i3", true},
		{"", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), "u1", tt.itemID)
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.itemID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.itemID, got, tt.want)
		}
	}
}

func TestNewRuleFilterRejectsBadExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"syntax error", "item_id =="},
		{"unknown variable", "rating > 3.0"},
		{"non-bool result", "item_id + user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRuleFilter(tt.expr); err == nil {
				t.Fatalf("NewRuleFilter(%q): want error", tt.expr)
			}
		})
	}
}

func TestRuleFilterEvaluate(t *testing.T) {
	f, err := NewRuleFilter(`item_id.startsWith("promo_") || (user_id == "u1" && item_id == "i9")`)
	if err != nil {
		t.Fatalf("NewRuleFilter() error = %v", err)
	}

	tests := []struct {
		userID, itemID string
		want           bool
	}{
		{"u1", "promo_1", true},
		{"u2", "promo_x", true},
		{"u1", "i9", true},
		{"u2", "i9", false},
		{"u1", "i1", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), tt.userID, tt.itemID)
		if err != nil {
			t.Fatalf("ShouldFilter(%s, %s) error = %v", tt.userID, tt.itemID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s, %s) = %v, want %v", tt.userID, tt.itemID, got, tt.want)
		}
	}
}
