package assignment

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Task is a named group of units with an optional target. A task exists only
// while it has members.
type Task struct {
	Name      string
	members   map[model.Tag]struct{}
	target    model.Point
	hasTarget bool
}

// Manager owns the unit↔task mapping. Both directions are updated by the
// same mutators, so a tag is in at most one task's member set and taskOf
// always agrees with it.
type Manager struct {
	taskOf map[model.Tag]string
	tasks  map[string]*Task
}

func NewManager() *Manager {
	return &Manager{
		taskOf: make(map[model.Tag]string),
		tasks:  make(map[string]*Task),
	}
}

// Assign moves tag into task, leaving any task it was in before.
func (m *Manager) Assign(tag model.Tag, task string) {
	if cur, ok := m.taskOf[tag]; ok {
		if cur == task {
			return
		}
		m.Unassign(tag)
	}
	t, ok := m.tasks[task]
	if !ok {
		t = &Task{Name: task, members: make(map[model.Tag]struct{})}
		m.tasks[task] = t
	}
	t.members[tag] = struct{}{}
	m.taskOf[tag] = task
}

// Unassign removes tag from its task, deleting the task if it empties.
func (m *Manager) Unassign(tag model.Tag) {
	name, ok := m.taskOf[tag]
	if !ok {
		return
	}
	delete(m.taskOf, tag)
	t := m.tasks[name]
	delete(t.members, tag)
	if len(t.members) == 0 {
		delete(m.tasks, name)
	}
}

// TaskOf returns the task tag belongs to.
func (m *Manager) TaskOf(tag model.Tag) (string, bool) {
	name, ok := m.taskOf[tag]
	return name, ok
}

// UnitsIn returns the members of task in tag order.
func (m *Manager) UnitsIn(task string) []model.Tag {
	t, ok := m.tasks[task]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(t.members))
}

// SetTaskTarget sets the target of an existing task. It reports false if
// the task has no members.
func (m *Manager) SetTaskTarget(task string, pos model.Point) bool {
	t, ok := m.tasks[task]
	if !ok {
		return false
	}
	t.target = pos
	t.hasTarget = true
	return true
}

func (m *Manager) TaskTarget(task string) (model.Point, bool) {
	t, ok := m.tasks[task]
	if !ok || !t.hasTarget {
		return model.Point{}, false
	}
	return t.target, true
}

// ClearTask releases every member of task and removes it.
func (m *Manager) ClearTask(task string) {
	t, ok := m.tasks[task]
	if !ok {
		return
	}
	for tag := range t.members {
		delete(m.taskOf, tag)
	}
	delete(m.tasks, task)
}

// Tasks returns the names of all live tasks, sorted.
func (m *Manager) Tasks() []string {
	return slices.Sorted(maps.Keys(m.tasks))
}

// Cleanup drops tags that are no longer alive. It returns how many were
// removed.
func (m *Manager) Cleanup(alive map[model.Tag]bool) int {
	removed := 0
	for tag := range m.taskOf {
		if !alive[tag] {
			m.Unassign(tag)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("assignments pruned", "removed", removed, "tasks", len(m.tasks))
	}
	return removed
}

// Unassigned filters units down to those in no task.
func (m *Manager) Unassigned(units []model.UnitView) []model.UnitView {
	var out []model.UnitView
	for _, u := range units {
		if _, ok := m.taskOf[u.Tag]; !ok {
			out = append(out, u)
		}
	}
	return out
}
