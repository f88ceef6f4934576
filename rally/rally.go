package rally

import (
	"log/slog"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// Calculator owns the army rally point: slightly forward of the base closest
// to the map center, but still inside it.
type Calculator struct {
	cfg   config.Rally
	point model.Point
	set   bool
}

func New(cfg config.Rally) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute recomputes the rally point. With more than one base the anchor is
// the base nearest the map center. The point is the anchor moved a fixed
// step toward the center, never past it. With no bases the rally point is
// cleared and ok is false.
func (c *Calculator) Compute(bases []model.Point, center model.Point, baseCount int) (model.Point, bool) {
	if len(bases) == 0 {
		c.Clear()
		return model.Point{}, false
	}
	anchor := bases[0]
	if baseCount > 1 {
		best := anchor.DistSq(center)
		for _, b := range bases[1:] {
			if d := b.DistSq(center); d < best {
				anchor, best = b, d
			}
		}
	}
	p := anchor.Towards(center, c.cfg.ForwardStep)
	if !c.set || p != c.point {
		slog.Debug("rally point updated", "x", p.X, "y", p.Y, "bases", baseCount)
	}
	c.point, c.set = p, true
	return p, true
}

// Point returns the current rally point, if any.
func (c *Calculator) Point() (model.Point, bool) { return c.point, c.set }

func (c *Calculator) Clear() {
	c.point, c.set = model.Point{}, false
}

// Gather orders units to the rally point. Units already near it and busy are
// left alone so orders are not re-issued every tick. It returns the number
// of orders issued.
func (c *Calculator) Gather(batch *tick.Batch, units []model.UnitView, rally model.Point, isIdle func(model.UnitView) bool) int {
	n := 0
	for _, u := range units {
		if !isIdle(u) && u.Pos.Dist(rally) <= c.cfg.GatherDistance {
			continue
		}
		if u.Pos.Dist(rally) <= c.cfg.TightDistance {
			continue
		}
		batch.Add(model.Command{Tag: u.Tag, Kind: model.OrderMove, Target: rally})
		n++
	}
	return n
}

// IsGathered reports whether at least the configured share of units is
// within the tight distance of the rally point. An empty group is not
// gathered.
func (c *Calculator) IsGathered(units []model.UnitView, rally model.Point) bool {
	if len(units) == 0 {
		return false
	}
	near := 0
	for _, u := range units {
		if u.Pos.Dist(rally) <= c.cfg.TightDistance {
			near++
		}
	}
	return float64(near)/float64(len(units)) >= c.cfg.GatheredRatio
}
