package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// diagInterval is the minimum number of iterations between idle diagnostics.
const diagInterval = 220

// Engine runs compiled request rules against the snapshot each tick.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category.
type Engine struct {
	rules     []*Rule
	townhalls model.TypeSet
	lastDiag  int
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule, townhalls model.TypeSet) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled, townhalls: townhalls, lastDiag: -diagInterval}, nil
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []*Rule { return e.rules }

// Evaluate runs every rule against snap and returns how many fired. A rule
// whose condition or action fails is logged and skipped.
func (e *Engine) Evaluate(snap *model.Snapshot, sink Sink) int {
	env := NewEnv(snap, e.townhalls)
	env.queued = sink.Queued
	fired := make(map[string]bool) // category → exclusive rule already fired

	n := 0
	for _, r := range e.rules {
		if r.Category != "" && fired[r.Category] {
			continue
		}
		match, err := Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if !match {
			continue
		}

		n++
		slog.Debug("rule fired", "rule", r.Name, "priority", r.Priority, "category", r.Category)
		if err := r.Action(env, sink); err != nil {
			slog.Warn("rule action error", "rule", r.Name, "error", err)
		}
		if r.Exclusive && r.Category != "" {
			fired[r.Category] = true
		}
	}

	if n == 0 {
		e.logIdleDiagnostics(env)
	}
	return n
}

// logIdleDiagnostics helps debug "why isn't anything being requested?".
// Throttled to avoid log spam.
func (e *Engine) logIdleDiagnostics(env RuleEnv) {
	if env.Snap.Iteration-e.lastDiag < diagInterval {
		return
	}
	e.lastDiag = env.Snap.Iteration
	slog.Debug("no request rules fired",
		"iteration", env.Snap.Iteration,
		"minerals", env.Minerals(),
		"vespene", env.Vespene(),
		"supplyLeft", env.SupplyLeft(),
		"workers", env.WorkerCount(),
		"bases", env.BaseCount(),
	)
}

// Compile compiles a boolean condition against RuleEnv.
func Compile(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(RuleEnv{}), expr.AsBool())
}

// Run evaluates a compiled condition.
func Run(prog *vm.Program, env RuleEnv) (bool, error) {
	out, err := vm.Run(prog, env)
	if err != nil {
		return false, err
	}
	match, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out)
	}
	return match, nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		if r.Action == nil {
			return nil, fmt.Errorf("rule %q has no action", r.Name)
		}
		prog, err := Compile(r.ConditionSrc)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
