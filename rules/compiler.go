package rules

import "github.com/nstehr/vimy/vimy-tactics/config"

// FromConfig builds the request rules described in the config. Conditions
// are compiled later by NewEngine.
func FromConfig(reqs []config.RequestRule) []*Rule {
	rules := make([]*Rule, 0, len(reqs))
	for _, rr := range reqs {
		r := &Rule{
			Name:         rr.Name,
			Priority:     rr.Priority,
			Category:     rr.Category,
			Exclusive:    rr.Exclusive,
			ConditionSrc: rr.When,
		}
		if rr.Structure != "" {
			r.Action = ActionRequestStructure(rr.Structure, r)
		} else {
			r.Action = ActionRequestUnit(rr.Unit, max(rr.Quantity, 1), r)
		}
		rules = append(rules, r)
	}
	return rules
}
