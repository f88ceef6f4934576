package rules

import (
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Sink receives the requests a rule submits. The core implements it by
// forwarding to the tech coordinator and the production controller.
type Sink interface {
	RequestStructure(structureType string, loc *model.Point, priority int, requester string) bool
	RequestProduction(unitType string, quantity int, requester string, priority int) error
	// Queued is the number of units of a type waiting in the production queue.
	Queued(unitType string) int
}

// ActionFunc submits requests when a rule's condition is true.
type ActionFunc func(env RuleEnv, sink Sink) error

// Rule is a condition → request pair. The engine evaluates rules by priority
// and uses Category + Exclusive to keep two rules of the same category from
// both submitting on one tick.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first, and the request priority
	Category     string      // grouping for exclusive semantics; also the requester id
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	ConditionSrc string      // expr source
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}

// Requester is the id attached to a rule's requests.
func (r *Rule) Requester() string {
	if r.Category != "" {
		return r.Category
	}
	return r.Name
}
