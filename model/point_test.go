package model

import (
	"math"
	"testing"
)

func TestPointTowards(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
		dist     float64
		want     Point
	}{
		{"partial step", Pt(0, 0), Pt(100, 0), 10, Pt(10, 0)},
		{"never overshoots", Pt(0, 0), Pt(3, 4), 10, Pt(3, 4)},
		{"same point", Pt(2, 2), Pt(2, 2), 5, Pt(2, 2)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.from.Towards(tc.to, tc.dist)
			if math.Abs(got.X-tc.want.X) > 1e-9 || math.Abs(got.Y-tc.want.Y) > 1e-9 {
				t.Errorf("Towards = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPointNormAndRotate(t *testing.T) {
	if n := Pt(0, 0).Norm(); !n.IsZero() {
		t.Errorf("Norm of zero vector = %v, want zero", n)
	}
	if l := Pt(3, 4).Norm().Len(); math.Abs(l-1) > 1e-9 {
		t.Errorf("Norm length = %f, want 1", l)
	}
	r := Pt(1, 0).Rotate(math.Pi / 2)
	if math.Abs(r.X) > 1e-9 || math.Abs(r.Y-1) > 1e-9 {
		t.Errorf("Rotate 90° = %v, want (0,1)", r)
	}
}

func TestRatiosDefaultToFull(t *testing.T) {
	u := UnitView{Health: 0, HealthMax: 0}
	if u.HealthRatio() != 1 || u.ShieldRatio() != 1 {
		t.Errorf("missing data should read as full, got health=%f shield=%f", u.HealthRatio(), u.ShieldRatio())
	}
	u = UnitView{Health: 25, HealthMax: 100, Shield: 150, ShieldMax: 100}
	if u.HealthRatio() != 0.25 {
		t.Errorf("HealthRatio = %f, want 0.25", u.HealthRatio())
	}
	if u.ShieldRatio() != 1 {
		t.Errorf("ShieldRatio should clamp to 1, got %f", u.ShieldRatio())
	}
}

func TestTypeSetMatchesVariants(t *testing.T) {
	s := NewTypeSet("Hatchery", "lair")
	if !s.Has("hatchery.burrowed") || !s.Has("LAIR") {
		t.Error("TypeSet should match case-insensitively and ignore variant suffixes")
	}
	if s.Has("hive") {
		t.Error("hive is not in the set")
	}
}
