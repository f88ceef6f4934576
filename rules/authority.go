package rules

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Balanced is the authority mode when no configured mode applies.
const Balanced = "balanced"

type authorityMode struct {
	config.AuthorityMode
	program *vm.Program
	favor   map[string]bool
}

// Authority picks the production authority mode from configured conditions.
// Modes are tried in config order and the first whose condition holds wins.
type Authority struct {
	modes     []authorityMode
	townhalls model.TypeSet
}

func NewAuthority(modes []config.AuthorityMode, townhalls model.TypeSet) (*Authority, error) {
	a := &Authority{townhalls: townhalls}
	for _, m := range modes {
		prog, err := Compile(m.When)
		if err != nil {
			return nil, fmt.Errorf("compile authority mode %q: %w", m.Name, err)
		}
		favor := make(map[string]bool, len(m.Favor))
		for _, f := range m.Favor {
			favor[f] = true
		}
		a.modes = append(a.modes, authorityMode{AuthorityMode: m, program: prog, favor: favor})
	}
	return a, nil
}

// Mode is a selected authority mode. Bias applies to requests from favoured
// requesters.
type Mode struct {
	Name  string
	favor map[string]bool
	bias  int
}

// Bias is the priority adjustment for a requester under this mode.
func (m Mode) Bias(requester string) int {
	if m.favor[requester] {
		return m.bias
	}
	return 0
}

// Select evaluates the modes against snap. A mode whose condition fails to
// run is skipped.
func (a *Authority) Select(snap *model.Snapshot) Mode {
	env := NewEnv(snap, a.townhalls)
	for _, m := range a.modes {
		ok, err := Run(m.program, env)
		if err != nil {
			slog.Warn("authority condition error", "mode", m.Name, "error", err)
			continue
		}
		if ok {
			return Mode{Name: m.Name, favor: m.favor, bias: m.Bias}
		}
	}
	return Mode{Name: Balanced}
}
