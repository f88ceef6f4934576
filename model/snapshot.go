package model

import "strings"

// Tag is the engine's stable identifier for a unit or structure.
type Tag uint64

// UnitView is a read-only view of one of our units or structures for a single
// tick. A zero HealthMax or ShieldMax means the engine reported nothing for
// that pool; the ratio accessors then treat it as full.
type UnitView struct {
	Tag               Tag     `json:"tag"`
	Type              string  `json:"type"`
	Pos               Point   `json:"pos"`
	Health            float64 `json:"health"`
	HealthMax         float64 `json:"healthMax"`
	Shield            float64 `json:"shield"`
	ShieldMax         float64 `json:"shieldMax"`
	Flying            bool    `json:"flying"`
	Cloaked           bool    `json:"cloaked"`
	Structure         bool    `json:"structure"`
	UnderConstruction bool    `json:"underConstruction"`
	Worker            bool    `json:"worker"`
	Idle              bool    `json:"idle"`
	Supply            float64 `json:"supply"` // supply cost, 0 for structures
	Range             float64 `json:"range"`  // longest weapon range, 0 if unarmed
}

func (u UnitView) TypeName() string { return u.Type }

// HealthRatio is health/max in [0,1]; missing data reads as full health.
func (u UnitView) HealthRatio() float64 { return ratio(u.Health, u.HealthMax) }

// ShieldRatio is shield/max in [0,1]; units without shields read as full.
func (u UnitView) ShieldRatio() float64 { return ratio(u.Shield, u.ShieldMax) }

func ratio(v, max float64) float64 {
	if max <= 0 {
		return 1
	}
	r := v / max
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// EnemyView is an enemy unit or structure. Remembered entries are no longer
// visible; Pos and health are as last seen on tick LastSeen.
type EnemyView struct {
	UnitView
	Owner      string `json:"owner"`
	Remembered bool   `json:"remembered"`
	LastSeen   int    `json:"lastSeen"`
}

// Resources are the player's counters for the current tick.
type Resources struct {
	Minerals int `json:"minerals"`
	Vespene  int `json:"vespene"`

	SupplyUsed    float64 `json:"supplyUsed"`
	SupplyCap     float64 `json:"supplyCap"`
	SupplyMax     float64 `json:"supplyMax"`     // hard ceiling, e.g. 200
	SupplyPending float64 `json:"supplyPending"` // cap provided by supply still in production
}

// SupplyLeft is the free supply including cap that is already on the way.
func (r Resources) SupplyLeft() float64 {
	return r.SupplyCap + r.SupplyPending - r.SupplyUsed
}

// MapInfo is static map geometry. It is sent every tick so the core never
// has to cache it across matches.
type MapInfo struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Center        Point   `json:"center"`
	StartLocation Point   `json:"startLocation"`
	EnemyStarts   []Point `json:"enemyStarts"`
	Expansions    []Point `json:"expansions"`
}

// Snapshot is the immutable world state for one tick. Components read it and
// never modify it.
type Snapshot struct {
	Iteration int     `json:"iteration"`
	GameTime  float64 `json:"gameTime"` // seconds

	Units   []UnitView  `json:"units"` // ours, structures included
	Enemies []EnemyView `json:"enemies"`

	// DestroyedTags are engine death events since the previous tick, for
	// both sides.
	DestroyedTags []Tag `json:"destroyedTags"`

	// PendingStructures are structure types a worker has been ordered to
	// build but that have not been placed yet.
	PendingStructures []string `json:"pendingStructures"`

	Resources Resources `json:"resources"`
	Map       MapInfo   `json:"map"`
}

// Structures returns our structures, complete or not.
func (s *Snapshot) Structures() []UnitView {
	return s.filter(func(u UnitView) bool { return u.Structure })
}

// Army returns our mobile non-worker units.
func (s *Snapshot) Army() []UnitView {
	return s.filter(func(u UnitView) bool { return !u.Structure && !u.Worker })
}

// Workers returns our worker units.
func (s *Snapshot) Workers() []UnitView {
	return s.filter(func(u UnitView) bool { return u.Worker && !u.Structure })
}

func (s *Snapshot) filter(keep func(UnitView) bool) []UnitView {
	var out []UnitView
	for _, u := range s.Units {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// EnemyStructures returns visible and remembered enemy structures.
func (s *Snapshot) EnemyStructures() []EnemyView {
	var out []EnemyView
	for _, e := range s.Enemies {
		if e.Structure {
			out = append(out, e)
		}
	}
	return out
}

// EnemyUnits returns visible, mobile enemy units.
func (s *Snapshot) EnemyUnits() []EnemyView {
	var out []EnemyView
	for _, e := range s.Enemies {
		if !e.Structure && !e.Remembered {
			out = append(out, e)
		}
	}
	return out
}

// AliveTags is the set of our unit tags present this tick.
func (s *Snapshot) AliveTags() map[Tag]bool {
	alive := make(map[Tag]bool, len(s.Units))
	for _, u := range s.Units {
		alive[u.Tag] = true
	}
	return alive
}

// BaseType strips faction/variant suffixes ("hatchery.burrowed" → "hatchery")
// and lowercases, so type tables can be keyed on the base name.
func BaseType(t string) string {
	base := strings.ToLower(t)
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return base
}

// TypeSet is a case-insensitive set of type names.
type TypeSet map[string]bool

// NewTypeSet builds a TypeSet from names.
func NewTypeSet(names ...string) TypeSet {
	s := make(TypeSet, len(names))
	for _, n := range names {
		s[BaseType(n)] = true
	}
	return s
}

// Has reports whether t, or its base type, is in the set.
func (s TypeSet) Has(t string) bool {
	return s[BaseType(t)]
}
