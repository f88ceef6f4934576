package potential

import (
	"math"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// coincident is the distance below which an obstacle is treated as sitting on
// the unit; the push then goes along +X.
const coincident = 1e-6

// Controller computes repulsion vectors from a fixed set of fields.
type Controller struct {
	cfg    config.Repulsion
	splash model.TypeSet
}

func New(cfg config.Repulsion) *Controller {
	return &Controller{cfg: cfg, splash: model.NewTypeSet(cfg.SplashTypes...)}
}

// RepulsionVector sums the push on unit from every obstacle inside its
// class radius. The result is not normalized; callers add their own intent
// and normalize once. Flying units ignore terrain. Splash-capable enemies
// push a second time with the splash field.
func (c *Controller) RepulsionVector(unit model.UnitView, enemies []model.EnemyView, terrain []model.Point, structures []model.EnemyView) model.Point {
	var v model.Point
	for _, e := range enemies {
		v = v.Add(push(unit.Pos, e.Pos, c.cfg.Enemy))
		if c.splash.Has(e.Type) {
			v = v.Add(push(unit.Pos, e.Pos, c.cfg.Splash))
		}
	}
	for _, s := range structures {
		v = v.Add(push(unit.Pos, s.Pos, c.cfg.Structure))
	}
	if !unit.Flying {
		for _, p := range terrain {
			v = v.Add(push(unit.Pos, p, c.cfg.Terrain))
		}
	}
	return v
}

// ForUnit gathers the obstacles around unit from the tick and returns its
// repulsion vector.
func (c *Controller) ForUnit(ctx *tick.Context, unit model.UnitView) model.Point {
	var terrain []model.Point
	if !unit.Flying && ctx.Terrain != nil {
		terrain = ctx.Terrain.ImpassableNear(unit.Pos, c.cfg.Terrain.Radius)
	}
	return c.RepulsionVector(unit, ctx.Snap.EnemyUnits(), terrain, ctx.Snap.EnemyStructures())
}

// Steer blends the direction to goal with repulsion. Below the steer
// threshold it returns goal unchanged and false, meaning the caller should
// keep its attack-move. Otherwise it returns a point one step along the
// blended direction.
func (c *Controller) Steer(unit model.UnitView, goal, repulsion model.Point) (model.Point, bool) {
	if repulsion.Len() < c.cfg.SteerThreshold {
		return goal, false
	}
	dir := goal.Sub(unit.Pos).Norm().Add(repulsion).Norm()
	if dir.IsZero() {
		dir = repulsion.Norm()
	}
	return unit.Pos.Add(dir.Scale(c.cfg.SteerStep)), true
}

// push is one obstacle's contribution: linear falloff from weight at the
// obstacle to zero at the field radius, pointing away from the obstacle.
// The direction is a true unit vector rather than delta/(d+0.1), so the
// magnitude reaches weight as d goes to 0. An obstacle on top of the unit
// pushes along +X.
func push(unit, obstacle model.Point, f config.Field) model.Point {
	if f.Radius <= 0 || f.Weight == 0 || !finite(obstacle) {
		return model.Point{}
	}
	delta := unit.Sub(obstacle)
	d := delta.Len()
	if d >= f.Radius {
		return model.Point{}
	}
	strength := (f.Radius - d) / f.Radius
	dir := model.Pt(1, 0)
	if d > coincident {
		dir = delta.Scale(1 / d)
	}
	return dir.Scale(strength * f.Weight)
}

func finite(p model.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
