package conv

import "testing"

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int
		wantOK bool
	}{
		{"int", 3, 3, true},
		{"int64", int64(7), 7, true},
		{"float64", 2.0, 2, true},
		{"string", "3", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ToInt(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"path": "a.csv", "no_header": true, "db": 2.0}

	if got := ConfigGet[string](m, "path", ""); got != "a.csv" {
		t.Errorf("ConfigGet(path) = %q", got)
	}
	if got := ConfigGet[string](m, "missing", "fallback"); got != "fallback" {
		t.Errorf("ConfigGet(missing) = %q, want fallback", got)
	}
	if got := ConfigGet[bool](m, "no_header", false); !got {
		t.Error("ConfigGet(no_header) = false, want true")
	}
	// 类型不符时落回默认值
	if got := ConfigGet[int](m, "path", 9); got != 9 {
		t.Errorf("ConfigGet with wrong type = %d, want 9", got)
	}
	if got := ConfigGet[string](nil, "path", "d"); got != "d" {
		t.Errorf("ConfigGet(nil map) = %q, want d", got)
	}

	// YAML/JSON 解析出的数字可能是 float64
	if got := ConfigGetInt(m, "db", 0); got != 2 {
		t.Errorf("ConfigGetInt(db) = %d, want 2", got)
	}
	if got := ConfigGetInt(m, "missing", 5); got != 5 {
		t.Errorf("ConfigGetInt(missing) = %d, want 5", got)
	}
}
