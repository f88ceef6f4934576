package prong

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/nstehr/vimy/vimy-tactics/assignment"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/destroyer"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/potential"
	"github.com/nstehr/vimy/vimy-tactics/targeting"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// Prong task names.
const (
	Main   = "prong:main"
	RunBy  = "prong:runby"
	Harass = "prong:harass"
)

// Owner is the claims owner used for the harass unit pool.
const Owner = "multiprong"

// sameBase is the distance under which a townhall sighting is taken to be a
// base we already know.
const sameBase = 10

var prongs = []string{Main, RunBy, Harass}

type knownBase struct {
	tag model.Tag // zero until a townhall is actually seen
	pos model.Point
}

// Coordinator runs simultaneous attacks on several enemy bases.
type Coordinator struct {
	cfg    config.Prong
	melee  float64
	tasks  *assignment.Manager
	claims *assignment.Claims
	target *targeting.Targeting
	field  *potential.Controller

	harass    model.TypeSet
	townhalls model.TypeSet

	supply      float64
	supplyAt    float64
	supplyValid bool

	bases  []knownBase // discovery order
	seeded bool
	active bool
}

func New(cfg config.Config, tasks *assignment.Manager, claims *assignment.Claims, tgt *targeting.Targeting, field *potential.Controller) *Coordinator {
	return &Coordinator{
		cfg:       cfg.Prong,
		melee:     cfg.Formation.MeleeRange,
		tasks:     tasks,
		claims:    claims,
		target:    tgt,
		field:     field,
		harass:    model.NewTypeSet(cfg.Prong.HarassTypes...),
		townhalls: model.NewTypeSet(cfg.Destroyer.Townhall...),
	}
}

// Active reports whether an attack is underway.
func (c *Coordinator) Active() bool { return c.active }

// OnTick tracks enemy bases, executes a running attack every tick and
// re-evaluates launching one every two seconds.
func (c *Coordinator) OnTick(ctx *tick.Context) error {
	c.trackBases(ctx.Snap)

	if c.active {
		if c.finished() {
			slog.Info("multi-prong attack finished", "iteration", ctx.Iteration())
			c.Reset()
			return nil
		}
		if !c.retarget(ctx.Snap.Map.Center) {
			slog.Info("multi-prong attack ended, no enemy base left", "iteration", ctx.Iteration())
			c.Reset()
			return nil
		}
		c.Execute(ctx)
		return nil
	}
	if !ctx.Every(tick.TwoSeconds) || !c.ShouldInitiate(ctx.Snap) {
		return nil
	}
	if c.Plan(ctx.Snap) {
		c.Execute(ctx)
	}
	return nil
}

// ArmySupply is the ground army supply, refreshed at most once per
// ArmyCacheSeconds of game time.
func (c *Coordinator) ArmySupply(snap *model.Snapshot) float64 {
	if c.supplyValid && snap.GameTime-c.supplyAt < c.cfg.ArmyCacheSeconds {
		return c.supply
	}
	s := 0.0
	for _, u := range snap.Army() {
		if !u.Flying {
			s += u.Supply
		}
	}
	c.supply, c.supplyAt, c.supplyValid = s, snap.GameTime, true
	return s
}

// ShouldInitiate is the readiness gate: enough army, enough harass units,
// a known target and no other subsystem holding the harass pool.
func (c *Coordinator) ShouldInitiate(snap *model.Snapshot) bool {
	if c.ArmySupply(snap) <= c.cfg.MinArmySupply {
		return false
	}
	n := 0
	for _, u := range snap.Army() {
		if c.harass.Has(u.Type) {
			n++
		}
	}
	if n < c.cfg.MinHarass {
		return false
	}
	for _, t := range c.cfg.HarassTypes {
		if c.claims.HeldElsewhere(t, Owner) {
			return false
		}
	}
	return len(c.bases) > 0
}

// Plan claims the harass pool, splits the available army into prongs and
// binds each prong to a target. It reports false if nothing was assigned.
func (c *Coordinator) Plan(snap *model.Snapshot) bool {
	for _, t := range c.cfg.HarassTypes {
		if !c.claims.Claim(t, Owner) {
			c.releaseClaims()
			return false
		}
	}

	var harass, rest []model.UnitView
	for _, u := range snap.Army() {
		if u.Range <= 0 || !c.available(u.Tag) {
			continue
		}
		if c.harass.Has(u.Type) {
			harass = append(harass, u)
		} else {
			rest = append(rest, u)
		}
	}
	slices.SortFunc(rest, func(a, b model.UnitView) int { return cmp.Compare(a.Tag, b.Tag) })

	nMain := int(math.Round(float64(len(rest)) * c.cfg.MainShare))
	for i, u := range rest {
		if i < nMain {
			c.tasks.Assign(u.Tag, Main)
		} else {
			c.tasks.Assign(u.Tag, RunBy)
		}
	}
	for _, u := range harass {
		c.tasks.Assign(u.Tag, Harass)
	}

	c.retarget(snap.Map.Center)
	if c.finished() {
		c.releaseClaims()
		return false
	}
	c.active = true
	slog.Info("multi-prong attack launched",
		"main", len(c.tasks.UnitsIn(Main)),
		"runby", len(c.tasks.UnitsIn(RunBy)),
		"harass", len(c.tasks.UnitsIn(Harass)),
		"bases", len(c.bases))
	return true
}

// Targets resolves the prong targets from the known enemy bases: main at
// the first base, run-by at its mineral line and harass at the second base
// or, failing that, the mineral line. Prongs without a target are absent.
func (c *Coordinator) Targets(center model.Point) map[string]model.Point {
	out := make(map[string]model.Point)
	if len(c.bases) == 0 {
		return out
	}
	first := c.bases[0].pos
	line := c.mineralLine(first, center)
	out[Main] = first
	out[RunBy] = line
	if len(c.bases) > 1 {
		out[Harass] = c.bases[1].pos
	} else {
		out[Harass] = line
	}
	return out
}

// retarget binds each prong to its target from the current base list, so a
// prong moves on when its base falls. It reports false once no base is known.
func (c *Coordinator) retarget(center model.Point) bool {
	targets := c.Targets(center)
	for name, p := range targets {
		c.tasks.SetTaskTarget(name, p)
	}
	return len(targets) > 0
}

// Execute orders every prong unit: focus fire on the best target in range,
// otherwise step away from heavy repulsion (ranged ground units only),
// otherwise attack-move to the prong target.
func (c *Coordinator) Execute(ctx *tick.Context) {
	snap := ctx.Snap
	units := make(map[model.Tag]model.UnitView, len(snap.Units))
	for _, u := range snap.Units {
		units[u.Tag] = u
	}
	var visible []model.EnemyView
	for _, e := range snap.Enemies {
		if !e.Remembered {
			visible = append(visible, e)
		}
	}

	for _, name := range prongs {
		goal, ok := c.tasks.TaskTarget(name)
		if !ok {
			continue
		}
		for _, tag := range c.tasks.UnitsIn(name) {
			u, ok := units[tag]
			if !ok {
				continue
			}
			if e, ok := c.target.Select(ctx, u, visible, u.Range); ok {
				ctx.Batch.Add(model.Command{Tag: tag, Kind: model.OrderAttack, TargetTag: e.Tag, Target: e.Pos})
				continue
			}
			if !u.Flying && u.Range > c.melee {
				if p, steer := c.field.Steer(u, goal, c.field.ForUnit(ctx, u)); steer {
					ctx.Batch.Add(model.Command{Tag: tag, Kind: model.OrderMove, Target: p})
					continue
				}
			}
			ctx.Batch.Add(model.Command{Tag: tag, Kind: model.OrderAttackMove, Target: goal})
		}
	}
}

// Reset ends the attack, frees every prong unit and the harass claim.
func (c *Coordinator) Reset() {
	for _, name := range prongs {
		c.tasks.ClearTask(name)
	}
	c.releaseClaims()
	c.active = false
}

// trackBases seeds the base list from the enemy start locations and adds
// townhalls as they are discovered. Destroyed townhalls are dropped, as are
// start locations our units reach without finding a townhall.
func (c *Coordinator) trackBases(snap *model.Snapshot) {
	if !c.seeded {
		for _, p := range snap.Map.EnemyStarts {
			c.bases = append(c.bases, knownBase{pos: p})
		}
		c.seeded = len(snap.Map.EnemyStarts) > 0
	}
	if len(snap.DestroyedTags) > 0 {
		c.bases = slices.DeleteFunc(c.bases, func(b knownBase) bool {
			return b.tag != 0 && slices.Contains(snap.DestroyedTags, b.tag)
		})
	}
	var seen []model.Point
	for _, e := range snap.EnemyStructures() {
		if !c.townhalls.Has(e.Type) {
			continue
		}
		seen = append(seen, e.Pos)
		idx := slices.IndexFunc(c.bases, func(b knownBase) bool {
			return b.tag == e.Tag || (b.tag == 0 && b.pos.Dist(e.Pos) < sameBase)
		})
		if idx >= 0 {
			c.bases[idx] = knownBase{tag: e.Tag, pos: e.Pos}
			continue
		}
		c.bases = append(c.bases, knownBase{tag: e.Tag, pos: e.Pos})
		slog.Debug("enemy base discovered", "tag", e.Tag, "x", e.Pos.X, "y", e.Pos.Y)
	}
	c.bases = slices.DeleteFunc(c.bases, func(b knownBase) bool {
		if b.tag != 0 || slices.ContainsFunc(seen, func(p model.Point) bool { return p.Dist(b.pos) < sameBase }) {
			return false
		}
		scouted := slices.ContainsFunc(snap.Units, func(u model.UnitView) bool {
			return !u.Structure && u.Pos.Dist(b.pos) < sameBase
		})
		if scouted {
			slog.Debug("enemy start location empty", "x", b.pos.X, "y", b.pos.Y)
		}
		return scouted
	})
}

// mineralLine is the point MineralLineOffset behind base, away from the map
// center.
func (c *Coordinator) mineralLine(base, center model.Point) model.Point {
	away := base.Sub(center).Norm()
	if away.IsZero() {
		return base
	}
	return base.Add(away.Scale(c.cfg.MineralLineOffset))
}

// available reports whether a unit may be drafted: free, or only held by
// the building destroyer.
func (c *Coordinator) available(tag model.Tag) bool {
	task, ok := c.tasks.TaskOf(tag)
	return !ok || strings.HasPrefix(task, destroyer.TaskPrefix)
}

func (c *Coordinator) finished() bool {
	for _, name := range prongs {
		if len(c.tasks.UnitsIn(name)) > 0 {
			return false
		}
	}
	return true
}

func (c *Coordinator) releaseClaims() {
	for _, t := range c.cfg.HarassTypes {
		c.claims.Release(t, Owner)
	}
}
