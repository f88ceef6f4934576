package targeting

import (
	"slices"
	"strconv"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

// Score terms. Low-priority types are pinned far below anything a real
// target can reach so they always sort last.
const (
	baseScore        = 1.0
	highValueBonus   = 5.0
	missingHPWeight  = 2.0
	missingSPWeight  = 1.0
	flyingBonus      = 0.2
	cloakedBonus     = 0.5
	lowPriorityScore = -100.0
)

// Targeting ranks enemies by how much killing them is worth.
type Targeting struct {
	highValue   model.TypeSet
	lowPriority model.TypeSet
}

func New(cfg config.Targeting) *Targeting {
	return &Targeting{
		highValue:   model.NewTypeSet(cfg.HighValue...),
		lowPriority: model.NewTypeSet(cfg.LowPriority...),
	}
}

// Score rates a single enemy. Missing health or shield data reads as full.
func (t *Targeting) Score(e model.EnemyView) float64 {
	if t.lowPriority.Has(e.Type) {
		return lowPriorityScore
	}
	s := baseScore
	if t.highValue.Has(e.Type) {
		s += highValueBonus
	}
	s += missingHPWeight * (1 - e.HealthRatio())
	s += missingSPWeight * (1 - e.ShieldRatio())
	if e.Flying {
		s += flyingBonus
	}
	if e.Cloaked {
		s += cloakedBonus
	}
	return s
}

// Prioritize returns enemies ordered by descending score, ties broken by tag.
// Within a tick the result is memoized on the set of input tags, so the
// returned slice is shared and must not be modified. ctx may be nil.
func (t *Targeting) Prioritize(ctx *tick.Context, enemies []model.EnemyView) []model.EnemyView {
	if len(enemies) == 0 {
		return nil
	}
	key := identityKey(enemies)
	if ctx != nil {
		if order, ok := ctx.Memo().Lookup(key); ok {
			return order
		}
	}

	type scored struct {
		e     model.EnemyView
		score float64
	}
	ranked := make([]scored, len(enemies))
	for i, e := range enemies {
		ranked[i] = scored{e, t.Score(e)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.e.Tag < b.e.Tag:
			return -1
		case a.e.Tag > b.e.Tag:
			return 1
		}
		return 0
	})

	order := make([]model.EnemyView, len(ranked))
	for i, r := range ranked {
		order[i] = r.e
	}
	if ctx != nil {
		ctx.Memo().Store(key, order)
	}
	return order
}

// Select picks the best target within maxRange of unit.
func (t *Targeting) Select(ctx *tick.Context, unit model.UnitView, enemies []model.EnemyView, maxRange float64) (model.EnemyView, bool) {
	var inRange []model.EnemyView
	rangeSq := maxRange * maxRange
	for _, e := range enemies {
		if unit.Pos.DistSq(e.Pos) <= rangeSq {
			inRange = append(inRange, e)
		}
	}
	order := t.Prioritize(ctx, inRange)
	if len(order) == 0 {
		return model.EnemyView{}, false
	}
	return order[0], true
}

// identityKey is the sorted tag set of enemies.
func identityKey(enemies []model.EnemyView) string {
	tags := make([]model.Tag, len(enemies))
	for i, e := range enemies {
		tags[i] = e.Tag
	}
	slices.Sort(tags)
	buf := make([]byte, 0, len(tags)*8)
	for i, tag := range tags {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(tag), 10)
	}
	return string(buf)
}
