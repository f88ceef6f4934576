package destroyer

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/nstehr/vimy/vimy-tactics/assignment"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// Base priorities per structure class.
const (
	PriorityTownhall      = 100
	PriorityProduction    = 80
	PriorityTech          = 70
	PriorityStaticDefense = 60
	PriorityDefault       = 40
)

// TaskPrefix names the assignment tasks owned by the destroyer.
const TaskPrefix = "destroy:"

// Target is a known enemy structure with its computed sort key.
type Target struct {
	Structure model.EnemyView
	Priority  int
	Key       float64
}

// Destroyer spreads the combat army across every known enemy structure.
// Structures are remembered after they leave vision and are forgotten only
// when the engine reports them destroyed.
type Destroyer struct {
	cfg     config.Destroyer
	tasks   *assignment.Manager
	classes map[string]int
	known   map[model.Tag]model.EnemyView
	active  bool
}

func New(cfg config.Destroyer, tasks *assignment.Manager) *Destroyer {
	d := &Destroyer{
		cfg:     cfg,
		tasks:   tasks,
		classes: make(map[string]int),
		known:   make(map[model.Tag]model.EnemyView),
	}
	for _, c := range []struct {
		types []string
		prio  int
	}{
		{cfg.StaticDefense, PriorityStaticDefense},
		{cfg.Tech, PriorityTech},
		{cfg.Production, PriorityProduction},
		{cfg.Townhall, PriorityTownhall},
	} {
		for _, t := range c.types {
			d.classes[model.BaseType(t)] = c.prio
		}
	}
	return d
}

// OnTick forgets destroyed structures every tick, rescans known structures
// once a second and redistributes the army every two seconds.
func (d *Destroyer) OnTick(ctx *tick.Context) error {
	d.forgetDestroyed(ctx.Snap.DestroyedTags)
	if ctx.Every(tick.OneSecond) {
		d.UpdateKnownBuildings(ctx.Snap)
	}
	if ctx.Every(tick.TwoSeconds) {
		return d.DistributeAttackForces(ctx)
	}
	return nil
}

// UpdateKnownBuildings records every enemy structure in the snapshot,
// visible or remembered, refreshing the last known state of ones already
// tracked. Structures that are no longer reported are kept.
func (d *Destroyer) UpdateKnownBuildings(snap *model.Snapshot) {
	added := 0
	for _, e := range snap.EnemyStructures() {
		if _, ok := d.known[e.Tag]; !ok {
			added++
		}
		d.known[e.Tag] = e
	}
	d.forgetDestroyed(snap.DestroyedTags)
	if added > 0 {
		slog.Debug("enemy structures discovered", "added", added, "known", len(d.known))
	}
}

func (d *Destroyer) forgetDestroyed(tags []model.Tag) {
	for _, tag := range tags {
		if _, ok := d.known[tag]; !ok {
			continue
		}
		delete(d.known, tag)
		d.tasks.ClearTask(taskName(tag))
		slog.Debug("enemy structure destroyed", "tag", tag)
	}
}

// Known returns the tracked structures in tag order.
func (d *Destroyer) Known() []model.EnemyView {
	out := make([]model.EnemyView, 0, len(d.known))
	for _, e := range d.known {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.EnemyView) int { return cmp.Compare(a.Tag, b.Tag) })
	return out
}

// Priority is the class priority of a structure type. Unknown types fall
// into the default bucket.
func (d *Destroyer) Priority(structureType string) int {
	if p, ok := d.classes[model.BaseType(structureType)]; ok {
		return p
	}
	return PriorityDefault
}

// Targets returns the known structures sorted by descending key:
// priority + (1-hp)*20 - min(distance/10, 10). Ties go to the lower tag.
func (d *Destroyer) Targets(ourBase model.Point) []Target {
	out := make([]Target, 0, len(d.known))
	for _, e := range d.Known() {
		p := d.Priority(e.Type)
		key := float64(p) + (1-e.HealthRatio())*20 - math.Min(e.Pos.Dist(ourBase)/10, 10)
		out = append(out, Target{Structure: e, Priority: p, Key: key})
	}
	slices.SortStableFunc(out, func(a, b Target) int { return cmp.Compare(b.Key, a.Key) })
	return out
}

// DistributeAttackForces reassigns the available army across all targets.
// Below the army gate any destroy tasks are released.
func (d *Destroyer) DistributeAttackForces(ctx *tick.Context) error {
	snap := ctx.Snap
	army := d.available(snap.Army())
	if armySupply(army) < d.cfg.MinArmySupply || len(d.known) == 0 {
		if d.active {
			slog.Info("building destroyer standing down", "army", len(army), "known", len(d.known))
		}
		d.release()
		return nil
	}

	targets := d.Targets(snap.Map.StartLocation)
	plan := Distribute(army, targets, d.cfg.MinUnitsPerTarget)

	wasActive := d.active
	d.release()
	for i, group := range plan {
		if len(group) == 0 {
			continue
		}
		tgt := targets[i].Structure
		name := taskName(tgt.Tag)
		for _, u := range group {
			d.tasks.Assign(u.Tag, name)
			ctx.Batch.Add(model.Command{Tag: u.Tag, Kind: model.OrderAttackMove, Target: tgt.Pos})
		}
		if !d.tasks.SetTaskTarget(name, tgt.Pos) {
			return fmt.Errorf("destroy task %s vanished during distribution", name)
		}
	}
	if !wasActive {
		slog.Info("building destroyer engaged", "army", len(army), "targets", len(targets))
	}
	d.active = true
	return nil
}

// Assigned reports how many units are currently attacking each known
// structure. Units drafted away since the last distribution are not counted.
func (d *Destroyer) Assigned() map[model.Tag]int {
	out := make(map[model.Tag]int)
	for tag := range d.known {
		if n := len(d.tasks.UnitsIn(taskName(tag))); n > 0 {
			out[tag] = n
		}
	}
	return out
}

// Distribute splits units across targets, which must already be sorted.
// Each target in order takes max(minPer, len(units)/len(targets)) of the
// nearest remaining units until the pool runs out; anything left over goes
// to the first target. The result is indexed like targets.
func Distribute(units []model.UnitView, targets []Target, minPer int) [][]model.UnitView {
	if len(targets) == 0 {
		return nil
	}
	plan := make([][]model.UnitView, len(targets))
	per := max(minPer, len(units)/len(targets), 1)

	pool := slices.Clone(units)
	for i, t := range targets {
		if len(pool) == 0 {
			break
		}
		byDistance(pool, t.Structure.Pos)
		n := min(per, len(pool))
		plan[i] = append(plan[i], pool[:n]...)
		pool = pool[n:]
	}
	plan[0] = append(plan[0], pool...)
	return plan
}

func byDistance(units []model.UnitView, to model.Point) {
	slices.SortStableFunc(units, func(a, b model.UnitView) int {
		if c := cmp.Compare(a.Pos.DistSq(to), b.Pos.DistSq(to)); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
}

// available is the armed army that is either free or already ours.
func (d *Destroyer) available(army []model.UnitView) []model.UnitView {
	var out []model.UnitView
	for _, u := range army {
		if u.Range <= 0 {
			continue
		}
		if task, ok := d.tasks.TaskOf(u.Tag); ok && !strings.HasPrefix(task, TaskPrefix) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (d *Destroyer) release() {
	for _, name := range d.tasks.Tasks() {
		if strings.HasPrefix(name, TaskPrefix) {
			d.tasks.ClearTask(name)
		}
	}
	d.active = false
}

func armySupply(units []model.UnitView) float64 {
	s := 0.0
	for _, u := range units {
		s += u.Supply
	}
	return s
}

func taskName(tag model.Tag) string {
	return TaskPrefix + strconv.FormatUint(uint64(tag), 10)
}
