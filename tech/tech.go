package tech

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// Request is a pending structure request. There is at most one per
// structure type.
type Request struct {
	ID        uuid.UUID
	Type      string
	Location  *model.Point // nil lets the worker choose
	Priority  int
	Requester string
	Tick      int // iteration the request was accepted
}

// Coordinator arbitrates structure requests from every caller and starts at
// most one structure per tick.
type Coordinator struct {
	costs   map[string]model.Cost
	multi   model.TypeSet
	pending map[string]Request // base type → request
	now     int
	started map[string]int
}

// New builds a coordinator. multi adds types that, like cfg.MultiInstance,
// survive the completion purge; the supply structure is one.
func New(cfg config.Tech, multi ...string) *Coordinator {
	costs := make(map[string]model.Cost, len(cfg.Structures))
	for t, c := range cfg.Structures {
		costs[model.BaseType(t)] = c
	}
	return &Coordinator{
		costs:   costs,
		multi:   model.NewTypeSet(append(slices.Clone(cfg.MultiInstance), multi...)...),
		pending: make(map[string]Request),
		started: make(map[string]int),
	}
}

// RequestStructure submits a request. It is rejected when a pending request
// for the same type has an equal or higher priority; otherwise it replaces
// that request, whoever made it.
func (c *Coordinator) RequestStructure(structureType string, loc *model.Point, priority int, requester string) bool {
	t := model.BaseType(structureType)
	if t == "" {
		return false
	}
	if cur, ok := c.pending[t]; ok && cur.Priority >= priority {
		return false
	}
	var at *model.Point
	if loc != nil {
		p := *loc
		at = &p
	}
	r := Request{
		ID:        uuid.New(),
		Type:      t,
		Location:  at,
		Priority:  priority,
		Requester: requester,
		Tick:      c.now,
	}
	c.pending[t] = r
	slog.Debug("structure requested", "id", r.ID, "type", t, "priority", priority, "requester", requester)
	return true
}

// Lookup returns the pending request for a structure type.
func (c *Coordinator) Lookup(structureType string) (Request, bool) {
	r, ok := c.pending[model.BaseType(structureType)]
	return r, ok
}

// Pending returns the pending requests in processing order.
func (c *Coordinator) Pending() []Request {
	out := make([]Request, 0, len(c.pending))
	for _, r := range c.pending {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Request) int {
		if n := cmp.Compare(b.Priority, a.Priority); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Tick, b.Tick); n != 0 {
			return n
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}

// Clear drops the pending request for a type. Multi-instance types are only
// ever removed this way or by being started.
func (c *Coordinator) Clear(structureType string) {
	delete(c.pending, model.BaseType(structureType))
}

// Started is how many of each type this coordinator has ordered.
func (c *Coordinator) Started() map[string]int { return c.started }

// Update purges requests the engine has already satisfied, then starts the
// highest-priority request that is affordable and has a worker. It reports
// the started request, if any.
func (c *Coordinator) Update(ctx *tick.Context) (Request, bool) {
	c.now = ctx.Iteration()
	c.purge(ctx.Snap)

	workers := ctx.Snap.Workers()
	if len(workers) == 0 {
		return Request{}, false
	}
	for _, r := range c.Pending() {
		cost := c.costs[r.Type]
		if !ctx.Budget.CanAfford(cost) {
			continue
		}
		site := ctx.Snap.Map.StartLocation
		if r.Location != nil {
			site = *r.Location
		}
		w := nearest(workers, site)
		ctx.Batch.Add(model.Command{Tag: w.Tag, Kind: model.OrderBuild, Target: site, Item: r.Type})
		ctx.Budget.Spend(cost)
		delete(c.pending, r.Type)
		c.started[r.Type]++
		slog.Info("structure started", "id", r.ID, "type", r.Type, "worker", w.Tag,
			"priority", r.Priority, "requester", r.Requester, "waited", c.now-r.Tick)
		return r, true
	}
	return Request{}, false
}

// purge drops requests whose structure is in progress, or complete for
// single-instance types.
func (c *Coordinator) purge(snap *model.Snapshot) {
	if len(c.pending) == 0 {
		return
	}
	inProgress := make(map[string]bool)
	complete := make(map[string]bool)
	for _, p := range snap.PendingStructures {
		inProgress[model.BaseType(p)] = true
	}
	for _, s := range snap.Structures() {
		t := model.BaseType(s.Type)
		if s.UnderConstruction {
			inProgress[t] = true
		} else {
			complete[t] = true
		}
	}
	for t, r := range c.pending {
		switch {
		case inProgress[t]:
		case complete[t] && !c.multi.Has(t):
		default:
			continue
		}
		delete(c.pending, t)
		slog.Debug("structure request satisfied", "id", r.ID, "type", t, "requester", r.Requester)
	}
}

func nearest(units []model.UnitView, to model.Point) model.UnitView {
	best := units[0]
	bestD := best.Pos.DistSq(to)
	for _, u := range units[1:] {
		d := u.Pos.DistSq(to)
		if d < bestD || (d == bestD && u.Tag < best.Tag) {
			best, bestD = u, d
		}
	}
	return best
}
