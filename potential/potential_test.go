package potential

import (
	"math"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

func testConfig() config.Repulsion {
	return config.Repulsion{
		Enemy:          config.Field{Weight: 1.0, Radius: 6},
		Structure:      config.Field{Weight: 0.5, Radius: 4},
		Terrain:        config.Field{Weight: 0.6, Radius: 3},
		Splash:         config.Field{Weight: 1.5, Radius: 9},
		SplashTypes:    []string{"siegetanksieged"},
		SteerThreshold: 0.5,
		SteerStep:      3,
	}
}

func enemyAt(typ string, x, y float64) model.EnemyView {
	return model.EnemyView{UnitView: model.UnitView{Type: typ, Pos: model.Pt(x, y)}}
}

func TestNoContributionAtOrBeyondRadius(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}

	for _, d := range []float64{6, 6.5, 50} {
		v := c.RepulsionVector(unit, []model.EnemyView{enemyAt("marine", d, 0)}, nil, nil)
		if !v.IsZero() {
			t.Errorf("enemy at %f: got %v, want zero", d, v)
		}
	}
	v := c.RepulsionVector(unit, nil, []model.Point{model.Pt(0, 3)}, []model.EnemyView{enemyAt("pylon", 4, 0)})
	if !v.IsZero() {
		t.Errorf("terrain and structure at their radii should not push, got %v", v)
	}
}

func TestMagnitudeApproachesWeightNearZero(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}

	v := c.RepulsionVector(unit, []model.EnemyView{enemyAt("marine", 0.001, 0)}, nil, nil)
	if math.Abs(v.Len()-1.0) > 1e-3 {
		t.Errorf("magnitude near zero distance = %f, want ~1.0", v.Len())
	}
	if v.X >= 0 {
		t.Errorf("push should point away from the obstacle, got %v", v)
	}

	v = c.RepulsionVector(unit, []model.EnemyView{enemyAt("marine", 0, 0)}, nil, nil)
	if math.Abs(v.Len()-1.0) > 1e-9 {
		t.Errorf("coincident obstacle should push with full weight, got %f", v.Len())
	}
}

func TestLinearFalloff(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}
	// Halfway to the radius: half strength, pushed toward -Y.
	v := c.RepulsionVector(unit, []model.EnemyView{enemyAt("marine", 0, 3)}, nil, nil)
	if math.Abs(v.X) > 1e-9 || math.Abs(v.Y+0.5) > 1e-9 {
		t.Errorf("got %v, want (0,-0.5)", v)
	}
}

func TestSplashAddsExtraTerm(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}

	plain := c.RepulsionVector(unit, []model.EnemyView{enemyAt("siegetank", 3, 0)}, nil, nil)
	sieged := c.RepulsionVector(unit, []model.EnemyView{enemyAt("siegetanksieged", 3, 0)}, nil, nil)
	// enemy: 0.5*1.0, splash: (9-3)/9*1.5 = 1.0
	if math.Abs(plain.Len()-0.5) > 1e-9 {
		t.Errorf("plain = %f, want 0.5", plain.Len())
	}
	if math.Abs(sieged.Len()-1.5) > 1e-9 {
		t.Errorf("sieged = %f, want 1.5", sieged.Len())
	}

	// Outside the enemy radius only the splash term remains.
	far := c.RepulsionVector(unit, []model.EnemyView{enemyAt("siegetanksieged", 7.5, 0)}, nil, nil)
	if math.Abs(far.Len()-(1.5/9*1.5)) > 1e-9 {
		t.Errorf("far sieged = %f, want %f", far.Len(), 1.5/9*1.5)
	}
}

func TestFlyingIgnoresTerrain(t *testing.T) {
	c := New(testConfig())
	wall := []model.Point{model.Pt(1, 0)}

	ground := c.RepulsionVector(model.UnitView{Pos: model.Pt(0, 0)}, nil, wall, nil)
	air := c.RepulsionVector(model.UnitView{Pos: model.Pt(0, 0), Flying: true}, nil, wall, nil)
	if ground.IsZero() {
		t.Error("ground unit should be pushed by terrain")
	}
	if !air.IsZero() {
		t.Errorf("flying unit should ignore terrain, got %v", air)
	}
}

func TestBadObstacleSkipped(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}
	enemies := []model.EnemyView{enemyAt("marine", math.NaN(), 0), enemyAt("marine", 3, 0)}
	v := c.RepulsionVector(unit, enemies, nil, nil)
	if math.IsNaN(v.X) || math.Abs(v.Len()-0.5) > 1e-9 {
		t.Errorf("NaN obstacle should be skipped, got %v", v)
	}
}

func TestSteer(t *testing.T) {
	c := New(testConfig())
	unit := model.UnitView{Pos: model.Pt(0, 0)}
	goal := model.Pt(10, 0)

	if p, moved := c.Steer(unit, goal, model.Pt(0.1, 0)); moved || p != goal {
		t.Errorf("weak repulsion should keep the goal, got %v moved=%v", p, moved)
	}

	p, moved := c.Steer(unit, goal, model.Pt(-2, 0))
	if !moved {
		t.Fatal("strong repulsion should steer")
	}
	// Goal (1,0) + repulsion (-2,0) = (-1,0): step back 3.
	if math.Abs(p.X+3) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("steer point = %v, want (-3,0)", p)
	}

	// Perfect cancellation falls back to the repulsion direction.
	p, _ = c.Steer(unit, goal, model.Pt(-1, 0))
	if math.Abs(p.X+3) > 1e-9 {
		t.Errorf("cancelled blend should follow repulsion, got %v", p)
	}
}

func TestForUnitUsesTerrainGrid(t *testing.T) {
	c := New(testConfig())
	grid := &model.TerrainGrid{
		Cols: 2, Rows: 1, CellW: 4, CellH: 4,
		Grid: []model.TerrainType{model.Land, model.Cliff},
	}
	ctx := tick.New(&model.Snapshot{}, grid)
	// Cliff zone center is (6,2); unit at (4,2) is 2 away.
	v := c.ForUnit(ctx, model.UnitView{Pos: model.Pt(4, 2)})
	if v.X >= 0 {
		t.Errorf("unit should be pushed away from the cliff, got %v", v)
	}
}
