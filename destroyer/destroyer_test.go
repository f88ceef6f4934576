package destroyer

import (
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/assignment"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/tick"
)

func structure(tag model.Tag, typ string, hp float64, x, y float64) model.EnemyView {
	return model.EnemyView{UnitView: model.UnitView{
		Tag: tag, Type: typ, Pos: model.Pt(x, y),
		Health: hp, HealthMax: 1, Structure: true,
	}}
}

func army(n int) []model.UnitView {
	out := make([]model.UnitView, n)
	for i := range n {
		out[i] = model.UnitView{
			Tag:    model.Tag(1000 + i),
			Type:   "roach",
			Pos:    model.Pt(float64(i%5), float64(i/5)),
			Supply: 1,
			Range:  4,
			Idle:   true,
		}
	}
	return out
}

func scenario() *model.Snapshot {
	return &model.Snapshot{
		Iteration: 44,
		Units:     army(30),
		Enemies: []model.EnemyView{
			structure(1, "commandcenter", 1.0, 100, 0),
			structure(2, "barracks", 0.5, 100, 20),
			structure(3, "barracks", 0.5, 100, 40),
			structure(4, "barracks", 0.5, 100, 60),
		},
	}
}

func TestPriority(t *testing.T) {
	d := New(config.Default().Destroyer, assignment.NewManager())
	tests := []struct {
		typ  string
		want int
	}{
		{"Hatchery", PriorityTownhall},
		{"gateway", PriorityProduction},
		{"spire", PriorityTech},
		{"photoncannon", PriorityStaticDefense},
		{"supplydepot", PriorityDefault},
		{"", PriorityDefault},
	}
	for _, tc := range tests {
		t.Run(tc.typ, func(t *testing.T) {
			if got := d.Priority(tc.typ); got != tc.want {
				t.Errorf("Priority(%q) = %d, want %d", tc.typ, got, tc.want)
			}
		})
	}
}

func TestScenarioThirtyUnitsFourStructures(t *testing.T) {
	tasks := assignment.NewManager()
	d := New(config.Default().Destroyer, tasks)
	snap := scenario()
	ctx := tick.New(snap, nil)

	if err := d.OnTick(ctx); err != nil {
		t.Fatalf("OnTick: %v", err)
	}

	targets := d.Targets(snap.Map.StartLocation)
	if len(targets) != 4 || targets[0].Structure.Tag != 1 {
		t.Fatalf("townhall should sort first, got %+v", targets)
	}

	want := map[model.Tag]int{1: 9, 2: 7, 3: 7, 4: 7}
	total := 0
	for tag, n := range want {
		if got := len(tasks.UnitsIn(taskName(tag))); got != n {
			t.Errorf("target %d got %d units, want %d", tag, got, n)
		}
		total += n
	}
	if total != 30 {
		t.Fatalf("bad expectation total %d", total)
	}
	if ctx.Batch.Len() != 30 {
		t.Errorf("issued %d commands, want 30", ctx.Batch.Len())
	}
	for _, cmd := range ctx.Batch.Commands {
		if cmd.Kind != model.OrderAttackMove {
			t.Errorf("unexpected order kind %s", cmd.Kind)
		}
	}
}

func TestDistributeCoversEveryTarget(t *testing.T) {
	tests := []struct {
		units, targets int
	}{
		{3, 1}, {9, 3}, {10, 3}, {30, 4}, {31, 10}, {100, 7},
	}
	for _, tc := range tests {
		targets := make([]Target, tc.targets)
		for i := range targets {
			targets[i] = Target{Structure: structure(model.Tag(i+1), "barracks", 1, float64(10*i), 50)}
		}
		plan := Distribute(army(tc.units), targets, 3)

		sum := 0
		seen := map[model.Tag]bool{}
		for i, group := range plan {
			if len(group) < 3 {
				t.Errorf("N=%d M=%d: target %d got %d units", tc.units, tc.targets, i, len(group))
			}
			for _, u := range group {
				if seen[u.Tag] {
					t.Errorf("unit %d assigned twice", u.Tag)
				}
				seen[u.Tag] = true
			}
			sum += len(group)
		}
		if sum != tc.units {
			t.Errorf("N=%d M=%d: assigned %d units", tc.units, tc.targets, sum)
		}
	}
}

func TestDistributeShortArmy(t *testing.T) {
	targets := []Target{
		{Structure: structure(1, "nexus", 1, 0, 0)},
		{Structure: structure(2, "gateway", 1, 0, 0)},
		{Structure: structure(3, "gateway", 1, 0, 0)},
	}
	plan := Distribute(army(4), targets, 3)
	if len(plan[0]) != 3 || len(plan[1]) != 1 || len(plan[2]) != 0 {
		t.Errorf("got sizes %d/%d/%d, want 3/1/0", len(plan[0]), len(plan[1]), len(plan[2]))
	}
	if Distribute(army(4), nil, 3) != nil {
		t.Error("no targets should give no plan")
	}
}

func TestKnownBuildingsPersistUntilDestroyed(t *testing.T) {
	tasks := assignment.NewManager()
	d := New(config.Default().Destroyer, tasks)
	d.UpdateKnownBuildings(scenario())

	// Out of vision: nothing reported, nothing forgotten.
	d.UpdateKnownBuildings(&model.Snapshot{})
	if len(d.Known()) != 4 {
		t.Fatalf("known = %d, want 4", len(d.Known()))
	}

	tasks.Assign(1000, taskName(2))
	ctx := tick.New(&model.Snapshot{Iteration: 1, DestroyedTags: []model.Tag{2, 99}}, nil)
	if err := d.OnTick(ctx); err != nil {
		t.Fatal(err)
	}
	if len(d.Known()) != 3 {
		t.Errorf("known = %d, want 3 after destruction", len(d.Known()))
	}
	if _, ok := tasks.TaskOf(1000); ok {
		t.Error("units on a destroyed target should be released")
	}
}

func TestArmyGate(t *testing.T) {
	tasks := assignment.NewManager()
	d := New(config.Default().Destroyer, tasks)
	snap := scenario()
	snap.Units = army(10)
	ctx := tick.New(snap, nil)
	if err := d.OnTick(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Batch.Len() != 0 || len(tasks.Tasks()) != 0 {
		t.Errorf("below the army gate nothing should be assigned, got %d commands", ctx.Batch.Len())
	}
}

func TestLeavesOtherTasksAlone(t *testing.T) {
	tasks := assignment.NewManager()
	tasks.Assign(1000, "prong:main")
	d := New(config.Default().Destroyer, tasks)
	snap := scenario()
	snap.Units = army(40)
	if err := d.OnTick(tick.New(snap, nil)); err != nil {
		t.Fatal(err)
	}
	if task, _ := tasks.TaskOf(1000); task != "prong:main" {
		t.Errorf("unit on another task was taken: %q", task)
	}
}

func TestAssignedFollowsDrafts(t *testing.T) {
	tasks := assignment.NewManager()
	d := New(config.Default().Destroyer, tasks)
	snap := scenario()
	snap.Units = army(30)
	d.UpdateKnownBuildings(snap)
	if err := d.DistributeAttackForces(tick.New(snap, nil)); err != nil {
		t.Fatal(err)
	}
	total := func() int {
		n := 0
		for _, v := range d.Assigned() {
			n += v
		}
		return n
	}
	if got := total(); got != 30 {
		t.Fatalf("assigned = %d, want 30", got)
	}

	for _, u := range snap.Units[:5] {
		tasks.Assign(u.Tag, "defend")
	}
	if got := total(); got != 25 {
		t.Errorf("assigned after drafting five away = %d, want 25", got)
	}
}
