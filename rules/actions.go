package rules

import (
	"fmt"
	"log/slog"
)

// ActionRequestStructure asks for one structure of the given type at no
// particular location.
func ActionRequestStructure(structureType string, r *Rule) ActionFunc {
	return func(env RuleEnv, sink Sink) error {
		if !sink.RequestStructure(structureType, nil, r.Priority, r.Requester()) {
			slog.Debug("structure request not accepted", "rule", r.Name, "structure", structureType)
		}
		return nil
	}
}

// ActionRequestUnit queues quantity units of the given type.
func ActionRequestUnit(unitType string, quantity int, r *Rule) ActionFunc {
	return func(env RuleEnv, sink Sink) error {
		if err := sink.RequestProduction(unitType, quantity, r.Requester(), r.Priority); err != nil {
			return fmt.Errorf("request %d %s: %w", quantity, unitType, err)
		}
		return nil
	}
}
