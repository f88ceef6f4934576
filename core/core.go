package core

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/nstehr/vimy/vimy-tactics/assignment"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/destroyer"
	"github.com/nstehr/vimy/vimy-tactics/formation"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/potential"
	"github.com/nstehr/vimy/vimy-tactics/production"
	"github.com/nstehr/vimy/vimy-tactics/prong"
	"github.com/nstehr/vimy/vimy-tactics/rally"
	"github.com/nstehr/vimy/vimy-tactics/rules"
	"github.com/nstehr/vimy/vimy-tactics/targeting"
	"github.com/nstehr/vimy/vimy-tactics/tech"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// DefendTask holds the units answering an attack on our bases.
const DefendTask = "defend"

// defendRadius is how close to one of our townhalls an enemy has to be to
// trigger a defensive formation.
const defendRadius = 25

// Core is the per-match tactical decision core. Step is its only entry
// point from the engine; everything else is for upstream request producers.
// It is not safe for concurrent use.
type Core struct {
	cfg       config.Config
	terrain   *model.TerrainGrid
	townhalls model.TypeSet

	tasks      *assignment.Manager
	claims     *assignment.Claims
	targeting  *targeting.Targeting
	field      *potential.Controller
	rally      *rally.Calculator
	formation  *formation.Manager
	destroyer  *destroyer.Destroyer
	prong      *prong.Coordinator
	tech       *tech.Coordinator
	production *production.Controller
	requests   *rules.Engine

	faults   map[string]int
	lastDiag int
}

// New wires every component from cfg.
func New(cfg config.Config) (*Core, error) {
	townhalls := model.NewTypeSet(cfg.Destroyer.Townhall...)
	tasks := assignment.NewManager()
	claims := assignment.NewClaims()
	tgt := targeting.New(cfg.Targeting)
	field := potential.New(cfg.Repulsion)
	var supplyStructure []string
	if cfg.Production.Supply.Structure {
		supplyStructure = append(supplyStructure, cfg.Production.Supply.Unit)
	}
	tc := tech.New(cfg.Tech, supplyStructure...)

	authority, err := rules.NewAuthority(cfg.Production.Authority, townhalls)
	if err != nil {
		return nil, fmt.Errorf("authority modes: %w", err)
	}
	requests, err := rules.NewEngine(rules.FromConfig(cfg.Requests), townhalls)
	if err != nil {
		return nil, fmt.Errorf("request rules: %w", err)
	}

	return &Core{
		cfg:        cfg,
		townhalls:  townhalls,
		tasks:      tasks,
		claims:     claims,
		targeting:  tgt,
		field:      field,
		rally:      rally.New(cfg.Rally),
		formation:  formation.New(cfg.Formation),
		destroyer:  destroyer.New(cfg.Destroyer, tasks),
		prong:      prong.New(cfg, tasks, claims, tgt, field),
		tech:       tc,
		production: production.New(cfg.Production, authority, tc),
		requests:   requests,
		faults:     make(map[string]int),
		lastDiag:   -tick.TenSeconds,
	}, nil
}

// SetTerrain stores the coarse terrain grid received during the handshake.
func (c *Core) SetTerrain(grid *model.TerrainGrid) {
	c.terrain = grid
	if grid != nil {
		slog.Info("terrain grid set", "cols", grid.Cols, "rows", grid.Rows, "cellW", grid.CellW, "cellH", grid.CellH)
	}
}

// Step runs one tick over snap and returns the tick's command batch.
// Components run in dependency order; a fault in one is logged and the rest
// still run.
func (c *Core) Step(snap *model.Snapshot) tick.Batch {
	if snap == nil {
		snap = &model.Snapshot{}
	}
	ctx := tick.New(snap, c.terrain)

	c.run("assignment", func() error {
		c.tasks.Cleanup(snap.AliveTags())
		return nil
	})
	c.run("requests", func() error {
		c.requests.Evaluate(snap, c)
		return nil
	})
	c.run("rally", func() error {
		if ctx.Every(tick.FiveSeconds) {
			c.computeRally(snap)
		}
		return nil
	})
	c.run("formation", func() error {
		if ctx.Every(tick.OneSecond) {
			c.defend(ctx)
		}
		return nil
	})
	c.run("destroyer", func() error { return c.destroyer.OnTick(ctx) })
	c.run("multiprong", func() error { return c.prong.OnTick(ctx) })
	c.run("tech", func() error {
		c.tech.Update(ctx)
		return nil
	})
	c.run("production", func() error { return c.production.Execute(ctx) })
	c.run("gather", func() error {
		if ctx.Every(tick.OneSecond) {
			c.gather(ctx)
		}
		return nil
	})

	c.logDiagnostics(ctx)
	return *ctx.Batch
}

// run isolates one component. Errors and panics are logged; neither
// escapes the tick.
func (c *Core) run(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.faults[name]++
			slog.Error("component panic", "component", name, "panic", r, "faults", c.faults[name],
				"stack", string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		c.faults[name]++
		slog.Warn("component error", "component", name, "error", err, "faults", c.faults[name])
	}
}

// Faults is the number of errors and panics recovered per component.
func (c *Core) Faults() map[string]int { return c.faults }

// RequestStructure forwards a structure request to the tech coordinator.
func (c *Core) RequestStructure(structureType string, loc *model.Point, priority int, requester string) bool {
	return c.tech.RequestStructure(structureType, loc, priority, requester)
}

// RequestProduction queues units with the production controller.
func (c *Core) RequestProduction(unitType string, quantity int, requester string, priority int) error {
	_, err := c.production.Submit(unitType, quantity, requester, priority)
	return err
}

// SubmitProduction is RequestProduction returning the request id, for
// callers that may withdraw the request with CancelProduction.
func (c *Core) SubmitProduction(unitType string, quantity int, requester string, priority int) (uuid.UUID, error) {
	return c.production.Submit(unitType, quantity, requester, priority)
}

func (c *Core) CancelProduction(id uuid.UUID) bool { return c.production.Cancel(id) }

// Queued is the quantity of unitType waiting for production.
func (c *Core) Queued(unitType string) int { return c.production.Queued(unitType) }

// Assign puts a unit on a named task. A target may be set with SetTaskTarget.
func (c *Core) Assign(tag model.Tag, task string) { c.tasks.Assign(tag, task) }

func (c *Core) SetTaskTarget(task string, pos model.Point) bool {
	return c.tasks.SetTaskTarget(task, pos)
}

func (c *Core) TaskOf(tag model.Tag) (string, bool) { return c.tasks.TaskOf(tag) }

// Claim takes a unit type's pool for owner; see assignment.Claims.
func (c *Core) Claim(unitType, owner string) bool { return c.claims.Claim(unitType, owner) }

func (c *Core) Release(unitType, owner string) { c.claims.Release(unitType, owner) }

// Mode is the production authority mode chosen on the last tick.
func (c *Core) Mode() string { return c.production.Mode() }

// RallyPoint is the current rally point, if one has been computed.
func (c *Core) RallyPoint() (model.Point, bool) { return c.rally.Point() }

func (c *Core) computeRally(snap *model.Snapshot) {
	env := rules.NewEnv(snap, c.townhalls)
	bases := env.Bases()
	if len(bases) == 0 && snap.Map.StartLocation != (model.Point{}) {
		bases = []model.Point{snap.Map.StartLocation}
	}
	c.rally.Compute(bases, snap.Map.Center, len(bases))
}

// defend answers enemies near our bases with a concave of the free army,
// unless they are holding a choke in force, in which case the army stays
// at the rally point.
func (c *Core) defend(ctx *tick.Context) {
	snap := ctx.Snap
	env := rules.NewEnv(snap, c.townhalls)
	bases := env.Bases()

	var threats []model.EnemyView
	for _, e := range snap.EnemyUnits() {
		for _, b := range bases {
			if e.Pos.Dist(b) <= defendRadius {
				threats = append(threats, e)
				break
			}
		}
	}
	if len(threats) == 0 {
		if len(c.tasks.UnitsIn(DefendTask)) > 0 {
			slog.Info("base threat cleared")
			c.tasks.ClearTask(DefendTask)
		}
		return
	}

	var army []model.UnitView
	for _, u := range snap.Army() {
		if u.Range <= 0 {
			continue
		}
		task, ok := c.tasks.TaskOf(u.Tag)
		if ok && task != DefendTask && !strings.HasPrefix(task, destroyer.TaskPrefix) {
			continue
		}
		army = append(army, u)
	}
	if len(army) == 0 {
		return
	}
	if c.formation.ShouldAvoidChoke(army, threats) {
		slog.Debug("holding back from a defended choke", "ours", len(army), "enemies", len(threats))
		return
	}

	anchor := c.targeting.Prioritize(ctx, threats)[0].Pos
	home := snap.Map.StartLocation
	if len(bases) > 0 {
		home = bases[0]
	}
	for _, p := range c.formation.FormConcave(army, anchor, home) {
		c.tasks.Assign(p.Unit.Tag, DefendTask)
		ctx.Batch.Add(model.Command{Tag: p.Unit.Tag, Kind: model.OrderMove, Target: p.Target})
	}
	c.tasks.SetTaskTarget(DefendTask, anchor)
}

// gather sends idle army that no task owns to the rally point.
func (c *Core) gather(ctx *tick.Context) {
	p, ok := c.rally.Point()
	if !ok {
		return
	}
	free := c.tasks.Unassigned(ctx.Snap.Army())
	armed := free[:0]
	for _, u := range free {
		if u.Range > 0 {
			armed = append(armed, u)
		}
	}
	c.rally.Gather(ctx.Batch, armed, p, func(u model.UnitView) bool { return u.Idle })
}

func (c *Core) logDiagnostics(ctx *tick.Context) {
	it := ctx.Iteration()
	if it-c.lastDiag < tick.TenSeconds {
		return
	}
	c.lastDiag = it
	gathered := false
	if p, ok := c.rally.Point(); ok {
		gathered = c.rally.IsGathered(c.tasks.Unassigned(ctx.Snap.Army()), p)
	}
	slog.Info("tactical diagnostics",
		"iteration", it,
		"gameTime", ctx.Snap.GameTime,
		"tasks", len(c.tasks.Tasks()),
		"knownStructures", len(c.destroyer.Known()),
		"prongActive", c.prong.Active(),
		"rallyGathered", gathered,
		"techPending", len(c.tech.Pending()),
		"productionPending", len(c.production.Pending()),
		"authority", c.production.Mode(),
		"commands", ctx.Batch.Len(),
	)
}
