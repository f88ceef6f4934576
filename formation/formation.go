package formation

import (
	"math"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Type identifies the shape requested from GetOptimalPosition.
type Type int

const (
	Concave   Type = iota // fan at effective range facing the anchor
	Line                  // flat line at effective range, perpendicular to the approach
	Defensive             // hold one and a half ranges back from the anchor
)

// Placement is one unit's slot in a formation.
type Placement struct {
	Unit   model.UnitView
	Target model.Point
}

// Manager places units relative to an enemy anchor. All geometry is 2D;
// movement to the slots is left to the engine.
type Manager struct {
	cfg config.Formation
}

func New(cfg config.Formation) *Manager {
	return &Manager{cfg: cfg}
}

// IsMelee reports whether u fights at melee range.
func (m *Manager) IsMelee(u model.UnitView) bool {
	return u.Range <= m.cfg.MeleeRange
}

// FormConcave fans ranged units over a 180° arc at effective range on our
// side of the anchor, and stacks melee units a short screen distance in
// front of it. ourBase sets which side is ours.
func (m *Manager) FormConcave(units []model.UnitView, anchor, ourBase model.Point) []Placement {
	if len(units) == 0 {
		return nil
	}
	// back points from the anchor toward us.
	back := approach(anchor, ourBase).Scale(-1)

	var ranged, melee []model.UnitView
	for _, u := range units {
		if m.IsMelee(u) {
			melee = append(melee, u)
		} else {
			ranged = append(ranged, u)
		}
	}

	out := make([]Placement, 0, len(units))
	for i, u := range ranged {
		dir := back.Rotate(arcAngle(i, len(ranged)))
		out = append(out, Placement{Unit: u, Target: anchor.Add(dir.Scale(m.cfg.EffectiveRange))})
	}
	screen := anchor.Add(back.Scale(m.cfg.MeleeScreen))
	for _, u := range melee {
		out = append(out, Placement{Unit: u, Target: screen})
	}
	return out
}

// GetOptimalPosition is the slot for a single unit when no group context is
// available. The approach direction is taken from the unit itself.
func (m *Manager) GetOptimalPosition(unit model.UnitView, anchor model.Point, ft Type) model.Point {
	back := approach(anchor, unit.Pos).Scale(-1)
	dist := m.cfg.EffectiveRange
	if m.IsMelee(unit) {
		dist = m.cfg.MeleeScreen
	}
	switch ft {
	case Line:
		// Project onto the line through the range point, perpendicular to
		// the approach, keeping the unit's lateral offset.
		base := anchor.Add(back.Scale(dist))
		side := back.Rotate(math.Pi / 2)
		offset := unit.Pos.Sub(base)
		lateral := offset.X*side.X + offset.Y*side.Y
		return base.Add(side.Scale(lateral))
	case Defensive:
		return anchor.Add(back.Scale(dist * 1.5))
	default:
		return anchor.Add(back.Scale(dist))
	}
}

// ShouldAvoidChoke reports whether the enemy is holding a narrow spot in
// force: more than OutnumberRatio times our count and tightly clustered.
func (m *Manager) ShouldAvoidChoke(units []model.UnitView, enemies []model.EnemyView) bool {
	if len(enemies) == 0 {
		return false
	}
	if float64(len(enemies)) <= m.cfg.OutnumberRatio*float64(len(units)) {
		return false
	}
	return Spread(enemyPoints(enemies)) < m.cfg.ClusterSpread
}

// FindChokepoint looks for a choke zone on the straight line from our base
// to the enemy centroid, nearest our base first. Without terrain it falls
// back to the enemy centroid when the enemy is tightly clustered.
func (m *Manager) FindChokepoint(enemies []model.EnemyView, ourBase model.Point, terrain *model.TerrainGrid) (model.Point, bool) {
	if len(enemies) == 0 {
		return model.Point{}, false
	}
	pts := enemyPoints(enemies)
	centroid := model.Centroid(pts)

	if terrain != nil && terrain.CellW > 0 && terrain.CellH > 0 {
		step := float64(min(terrain.CellW, terrain.CellH)) / 2
		total := ourBase.Dist(centroid)
		for d := 0.0; d <= total; d += step {
			p := ourBase.Towards(centroid, d)
			col, row, _ := terrain.Zone(p)
			if terrain.IsChoke(col, row) {
				return terrain.ZoneCenter(col, row), true
			}
		}
		return model.Point{}, false
	}
	if Spread(pts) < m.cfg.ClusterSpread {
		return centroid, true
	}
	return model.Point{}, false
}

// Spread is the mean distance of pts to their centroid.
func Spread(pts []model.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	c := model.Centroid(pts)
	sum := 0.0
	for _, p := range pts {
		sum += p.Dist(c)
	}
	return sum / float64(len(pts))
}

// approach is the unit direction from `from` toward anchor. When they
// coincide it defaults to +X.
func approach(anchor, from model.Point) model.Point {
	d := anchor.Sub(from).Norm()
	if d.IsZero() {
		return model.Pt(1, 0)
	}
	return d
}

// arcAngle spreads n slots evenly over [-90°, +90°]; a single slot sits in
// the middle.
func arcAngle(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return -math.Pi/2 + math.Pi*float64(i)/float64(n-1)
}

func enemyPoints(enemies []model.EnemyView) []model.Point {
	pts := make([]model.Point, len(enemies))
	for i, e := range enemies {
		pts[i] = e.Pos
	}
	return pts
}
