package tick

import (
	"slices"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Decimation intervals, in iterations, at the engine's ~22.4 iterations per
// game second.
const (
	EveryTick   = 1
	OneSecond   = 22
	TwoSeconds  = 44
	FiveSeconds = 110
	TenSeconds  = 220
)

// Context is everything a component sees during one tick. A fresh Context is
// built for every snapshot, so nothing on it outlives the tick.
type Context struct {
	Snap    *model.Snapshot
	Terrain *model.TerrainGrid // nil when the engine sent none
	Budget  *Budget
	Batch   *Batch

	memo Memo
}

// New builds the context for snap. terrain may be nil.
func New(snap *model.Snapshot, terrain *model.TerrainGrid) *Context {
	return &Context{
		Snap:    snap,
		Terrain: terrain,
		Budget:  NewBudget(snap),
		Batch:   &Batch{Iteration: snap.Iteration},
	}
}

// Iteration is the engine's tick counter for this snapshot.
func (c *Context) Iteration() int { return c.Snap.Iteration }

// Every reports whether a component running every n iterations is due.
func (c *Context) Every(n int) bool {
	return n <= 1 || c.Snap.Iteration%n == 0
}

// Memo is the frame-scoped targeting cache.
func (c *Context) Memo() *Memo { return &c.memo }

// Batch collects the tick's commands. It is handed to the engine whole.
type Batch struct {
	Iteration int             `json:"iteration"`
	Commands  []model.Command `json:"commands"`
}

func (b *Batch) Add(cmd model.Command) {
	b.Commands = append(b.Commands, cmd)
}

func (b *Batch) Len() int { return len(b.Commands) }

// Memo holds a single sorted result keyed by the identity set of its input.
// Storing under a new key replaces the previous entry.
type Memo struct {
	key   string
	order []model.EnemyView
	valid bool
}

func (m *Memo) Lookup(key string) ([]model.EnemyView, bool) {
	if !m.valid || m.key != key {
		return nil, false
	}
	return m.order, true
}

func (m *Memo) Store(key string, order []model.EnemyView) {
	m.key = key
	m.order = order
	m.valid = true
}

// Budget is the tick's spendable resources. Both arbiters draw from the same
// Budget so a structure started this tick is not also paid for by production.
type Budget struct {
	Minerals int
	Vespene  int
	Supply   float64

	producers map[string][]model.Tag // base type → idle, finished producers
}

// NewBudget seeds a budget from the snapshot's counters and idle producers.
func NewBudget(snap *model.Snapshot) *Budget {
	b := &Budget{
		Minerals:  snap.Resources.Minerals,
		Vespene:   snap.Resources.Vespene,
		Supply:    snap.Resources.SupplyCap - snap.Resources.SupplyUsed,
		producers: make(map[string][]model.Tag),
	}
	for _, u := range snap.Units {
		if !u.Idle || u.UnderConstruction {
			continue
		}
		t := model.BaseType(u.Type)
		b.producers[t] = append(b.producers[t], u.Tag)
	}
	for t := range b.producers {
		slices.Sort(b.producers[t])
	}
	return b
}

// CanAfford reports whether c can be paid. Supply only matters for positive
// supply costs.
func (b *Budget) CanAfford(c model.Cost) bool {
	return b.Minerals >= c.Minerals && b.Vespene >= c.Vespene && (c.Supply <= 0 || b.Supply >= c.Supply)
}

// Spend deducts c. Callers check CanAfford first.
func (b *Budget) Spend(c model.Cost) {
	b.Minerals -= c.Minerals
	b.Vespene -= c.Vespene
	b.Supply -= c.Supply
}

// IdleProducers is the number of idle producers of the given type left.
func (b *Budget) IdleProducers(producerType string) int {
	return len(b.producers[model.BaseType(producerType)])
}

// TakeProducers claims n idle producers. It takes nothing unless all n are
// available.
func (b *Budget) TakeProducers(producerType string, n int) ([]model.Tag, bool) {
	t := model.BaseType(producerType)
	pool := b.producers[t]
	if n <= 0 || len(pool) < n {
		return nil, false
	}
	taken := slices.Clone(pool[:n])
	b.producers[t] = pool[n:]
	return taken, true
}
