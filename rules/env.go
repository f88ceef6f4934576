package rules

import "github.com/nstehr/vimy/vimy-tactics/model"

// RuleEnv wraps the snapshot and exposes helper methods callable from expr
// expressions. It is rebuilt every tick.
type RuleEnv struct {
	Snap      *model.Snapshot
	townhalls model.TypeSet
	queued    func(string) int
}

// NewEnv builds the expression environment for snap. townhalls is the set of
// base structure types used by BaseCount and EnemiesNearBase.
func NewEnv(snap *model.Snapshot, townhalls model.TypeSet) RuleEnv {
	if snap == nil {
		snap = &model.Snapshot{}
	}
	return RuleEnv{Snap: snap, townhalls: townhalls}
}

func (e RuleEnv) Minerals() int       { return e.Snap.Resources.Minerals }
func (e RuleEnv) Vespene() int        { return e.Snap.Resources.Vespene }
func (e RuleEnv) SupplyLeft() float64 { return e.Snap.Resources.SupplyLeft() }
func (e RuleEnv) SupplyUsed() float64 { return e.Snap.Resources.SupplyUsed }
func (e RuleEnv) GameTime() float64   { return e.Snap.GameTime }

// UnitCount counts our non-structure units of type t, workers included.
func (e RuleEnv) UnitCount(t string) int {
	base := model.BaseType(t)
	n := 0
	for _, u := range e.Snap.Units {
		if !u.Structure && model.BaseType(u.Type) == base {
			n++
		}
	}
	return n
}

// StructureCount counts our structures of type t, including ones under
// construction and ones a worker is on the way to place.
func (e RuleEnv) StructureCount(t string) int {
	base := model.BaseType(t)
	n := 0
	for _, u := range e.Snap.Units {
		if u.Structure && model.BaseType(u.Type) == base {
			n++
		}
	}
	for _, p := range e.Snap.PendingStructures {
		if model.BaseType(p) == base {
			n++
		}
	}
	return n
}

// Queued is the number of units of type t already requested but not yet
// ordered. It is 0 outside Engine.Evaluate.
func (e RuleEnv) Queued(t string) int {
	if e.queued == nil {
		return 0
	}
	return e.queued(model.BaseType(t))
}

func (e RuleEnv) WorkerCount() int { return len(e.Snap.Workers()) }

func (e RuleEnv) Larva() int { return e.UnitCount("larva") }

// BaseCount is the number of our townhalls, finished or not.
func (e RuleEnv) BaseCount() int {
	return len(e.Bases())
}

// Bases are the positions of our townhalls.
func (e RuleEnv) Bases() []model.Point {
	var out []model.Point
	for _, u := range e.Snap.Units {
		if u.Structure && e.townhalls.Has(u.Type) {
			out = append(out, u.Pos)
		}
	}
	return out
}

// ArmySupply is the supply of our non-worker units.
func (e RuleEnv) ArmySupply() float64 {
	s := 0.0
	for _, u := range e.Snap.Army() {
		s += u.Supply
	}
	return s
}

// EnemiesNearBase counts visible enemy units within radius of any of our
// townhalls, or of the start location when we have none.
func (e RuleEnv) EnemiesNearBase(radius float64) int {
	bases := e.Bases()
	if len(bases) == 0 {
		bases = []model.Point{e.Snap.Map.StartLocation}
	}
	r2 := radius * radius
	n := 0
	for _, en := range e.Snap.EnemyUnits() {
		for _, b := range bases {
			if en.Pos.DistSq(b) <= r2 {
				n++
				break
			}
		}
	}
	return n
}

func (e RuleEnv) EnemiesVisible() bool { return len(e.Snap.EnemyUnits()) > 0 }
