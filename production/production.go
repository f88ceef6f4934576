package production

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/rules"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

var (
	// ErrStarved means draining stopped because a request could not be paid
	// for or had no idle producers. The request was put back whole.
	ErrStarved = errors.New("production starved")

	ErrUnknownUnit     = errors.New("unknown unit type")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// SupplyRequester is the requester id used by the supply override.
const SupplyRequester = "supply"

// StructureRequester takes structure requests; the tech coordinator
// implements it.
type StructureRequester interface {
	RequestStructure(structureType string, loc *model.Point, priority int, requester string) bool
}

// Request is a queued production request.
type Request struct {
	ID        uuid.UUID
	Unit      string
	Quantity  int
	Requester string
	Priority  int
	seq       uint64
}

// Controller drains the production queue each tick under the current
// authority mode, and keeps supply from blocking production.
type Controller struct {
	cfg       config.Production
	units     map[string]config.UnitSpec
	authority *rules.Authority
	tech      StructureRequester

	queue []Request
	seq   uint64
	mode  rules.Mode
	stats map[string]int
}

func New(cfg config.Production, authority *rules.Authority, tech StructureRequester) *Controller {
	units := make(map[string]config.UnitSpec, len(cfg.Units))
	for t, s := range cfg.Units {
		units[model.BaseType(t)] = s
	}
	return &Controller{
		cfg:       cfg,
		units:     units,
		authority: authority,
		tech:      tech,
		mode:      rules.Mode{Name: rules.Balanced},
		stats:     make(map[string]int),
	}
}

// Submit queues quantity units of unitType. A requester holds at most one
// request per unit type: a repeat submission replaces the quantity and
// priority of the queued one and keeps its id and place in line.
func (c *Controller) Submit(unitType string, quantity int, requester string, priority int) (uuid.UUID, error) {
	t := model.BaseType(unitType)
	if _, ok := c.units[t]; !ok {
		return uuid.Nil, fmt.Errorf("submit %q: %w", unitType, ErrUnknownUnit)
	}
	if quantity <= 0 {
		return uuid.Nil, fmt.Errorf("submit %d %s: %w", quantity, t, ErrInvalidQuantity)
	}
	for i := range c.queue {
		q := &c.queue[i]
		if q.Unit == t && q.Requester == requester {
			q.Quantity, q.Priority = quantity, priority
			return q.ID, nil
		}
	}
	c.seq++
	r := Request{ID: uuid.New(), Unit: t, Quantity: quantity, Requester: requester, Priority: priority, seq: c.seq}
	c.queue = append(c.queue, r)
	slog.Debug("production request queued", "id", r.ID, "unit", t, "quantity", quantity,
		"requester", requester, "priority", priority)
	return r.ID, nil
}

// Queued is the total quantity of unitType waiting in the queue.
func (c *Controller) Queued(unitType string) int {
	t := model.BaseType(unitType)
	n := 0
	for _, r := range c.queue {
		if r.Unit == t {
			n += r.Quantity
		}
	}
	return n
}

// Cancel drops the queued request with the given id.
func (c *Controller) Cancel(id uuid.UUID) bool {
	for i, r := range c.queue {
		if r.ID == id {
			c.queue = slices.Delete(c.queue, i, i+1)
			return true
		}
	}
	return false
}

// Pending returns the queue in the order it would be drained now.
func (c *Controller) Pending() []Request {
	out := slices.Clone(c.queue)
	c.sort(out)
	return out
}

// Mode is the authority mode chosen on the last Execute.
func (c *Controller) Mode() string { return c.mode.Name }

// Stats is the number of units produced per type.
func (c *Controller) Stats() map[string]int { return c.stats }

// Execute selects the authority mode, drains the queue and then applies the
// supply override. Starvation is normal and is not returned as an error.
func (c *Controller) Execute(ctx *tick.Context) error {
	c.selectMode(ctx.Snap)

	if _, err := c.Drain(ctx); err != nil && !errors.Is(err, ErrStarved) {
		return err
	}
	c.ensureSupply(ctx)
	return nil
}

func (c *Controller) selectMode(snap *model.Snapshot) {
	if c.authority == nil {
		return
	}
	m := c.authority.Select(snap)
	if m.Name != c.mode.Name {
		slog.Info("authority mode changed", "from", c.mode.Name, "to", m.Name)
	}
	c.mode = m
}

// Drain fulfils queued requests in effective priority order until the
// per-tick unit cap is reached, the queue empties or a request starves.
// It returns the number of units ordered.
func (c *Controller) Drain(ctx *tick.Context) (int, error) {
	c.sort(c.queue)
	spawned := 0
	for len(c.queue) > 0 {
		r := c.queue[0]
		// A request larger than the cap goes alone so it cannot block the queue.
		if spawned > 0 && spawned+r.Quantity > c.cfg.MaxPerTick {
			break
		}
		spec := c.units[r.Unit]
		if !c.produce(ctx, r.Unit, spec, r.Quantity) {
			slog.Debug("production starved", "id", r.ID, "unit", r.Unit, "quantity", r.Quantity,
				"requester", r.Requester, "queued", len(c.queue))
			return spawned, fmt.Errorf("%d %s for %s: %w", r.Quantity, r.Unit, r.Requester, ErrStarved)
		}
		c.queue = c.queue[1:]
		spawned += r.Quantity
	}
	return spawned, nil
}

// produce pays for quantity units and issues their train orders. It does
// nothing unless the whole quantity can be made.
func (c *Controller) produce(ctx *tick.Context, unit string, spec config.UnitSpec, quantity int) bool {
	cost := spec.Cost.Times(quantity)
	if !ctx.Budget.CanAfford(cost) || ctx.Budget.IdleProducers(spec.Producer) < quantity {
		return false
	}
	producers, ok := ctx.Budget.TakeProducers(spec.Producer, quantity)
	if !ok {
		return false
	}
	ctx.Budget.Spend(cost)
	for _, tag := range producers {
		ctx.Batch.Add(model.Command{Tag: tag, Kind: model.OrderTrain, Item: unit})
	}
	c.stats[unit] += quantity
	return true
}

// ensureSupply orders supply whenever headroom is short, regardless of the
// authority mode. Headroom is short below the buffer, below the larger early
// buffer in the first minutes, or below the overflow buffer when gas is
// piling up. Nothing happens once the supply ceiling is reached.
func (c *Controller) ensureSupply(ctx *tick.Context) bool {
	p := c.cfg.Supply
	if p.Unit == "" {
		return false
	}
	res := ctx.Snap.Resources
	if res.SupplyMax > 0 && res.SupplyCap+res.SupplyPending >= res.SupplyMax {
		return false
	}
	left := res.SupplyLeft()
	short := left < p.Buffer ||
		(ctx.Snap.GameTime < p.EarlySeconds && left < p.EarlyBuffer) ||
		(p.GasOverflow > 0 && res.Vespene > p.GasOverflow && left < p.OverflowBuffer)
	if !short {
		return false
	}

	if p.Structure {
		return c.tech.RequestStructure(p.Unit, nil, p.Priority, SupplyRequester)
	}
	spec, ok := c.units[model.BaseType(p.Unit)]
	if !ok {
		return false
	}
	if c.produce(ctx, model.BaseType(p.Unit), spec, 1) {
		slog.Debug("supply override", "unit", p.Unit, "supplyLeft", left, "gameTime", ctx.Snap.GameTime)
		return true
	}
	return false
}

// sort orders by effective priority (priority plus authority bias), then
// submission order.
func (c *Controller) sort(q []Request) {
	slices.SortStableFunc(q, func(a, b Request) int {
		pa := a.Priority + c.mode.Bias(a.Requester)
		pb := b.Priority + c.mode.Bias(b.Requester)
		if n := cmp.Compare(pb, pa); n != 0 {
			return n
		}
		return cmp.Compare(a.seq, b.seq)
	})
}
