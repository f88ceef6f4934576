package rules

import (
	"errors"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/model"
)

type structureCall struct {
	typ       string
	priority  int
	requester string
}

type unitCall struct {
	typ       string
	quantity  int
	requester string
	priority  int
}

type fakeSink struct {
	structures []structureCall
	units      []unitCall
	unitErr    error
}

func (f *fakeSink) RequestStructure(typ string, _ *model.Point, priority int, requester string) bool {
	f.structures = append(f.structures, structureCall{typ, priority, requester})
	return true
}

func (f *fakeSink) RequestProduction(typ string, quantity int, requester string, priority int) error {
	if f.unitErr != nil {
		return f.unitErr
	}
	f.units = append(f.units, unitCall{typ, quantity, requester, priority})
	return nil
}

func (f *fakeSink) Queued(typ string) int {
	n := 0
	for _, u := range f.units {
		if u.typ == typ {
			n += u.quantity
		}
	}
	return n
}

var townhalls = model.NewTypeSet("hatchery", "lair", "hive")

func TestSampleRulesCompile(t *testing.T) {
	cfg, err := config.Load("../configs/zerg.yaml")
	if err != nil {
		t.Fatalf("load sample config: %v", err)
	}
	engine, err := NewEngine(FromConfig(cfg.Requests), townhalls)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	rules := engine.Rules()
	if len(rules) != len(cfg.Requests) {
		t.Errorf("expected %d rules, got %d", len(cfg.Requests), len(rules))
	}
	for i := 1; i < len(rules); i++ {
		if rules[i].Priority > rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				rules[i].Name, rules[i].Priority, rules[i-1].Name, rules[i-1].Priority)
		}
	}
}

func TestNewEngineRejectsBadCondition(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown helper", `NoSuchHelper() > 1`},
		{"not boolean", `Minerals() + 1`},
		{"syntax", `Minerals( >`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := FromConfig([]config.RequestRule{{Name: "bad", When: tc.src, Unit: "drone", Priority: 1}})
			if _, err := NewEngine(r, townhalls); err == nil {
				t.Errorf("condition %q should not compile", tc.src)
			}
		})
	}
}

func snapshotWith(minerals int, units ...model.UnitView) *model.Snapshot {
	return &model.Snapshot{
		Units:     units,
		Resources: model.Resources{Minerals: minerals, SupplyCap: 14, SupplyUsed: 12},
	}
}

func TestEvaluateSubmitsRequests(t *testing.T) {
	reqs := []config.RequestRule{
		{Name: "pool", When: `StructureCount("spawningpool") == 0`, Structure: "spawningpool", Priority: 60, Category: "opening"},
		{Name: "drones", When: `Larva() > 0`, Unit: "drone", Quantity: 2, Priority: 20},
		{Name: "rich", When: `Minerals() > 1000`, Unit: "zergling", Priority: 10},
	}
	engine, err := NewEngine(FromConfig(reqs), townhalls)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	snap := snapshotWith(200, model.UnitView{Tag: 1, Type: "larva"})

	if n := engine.Evaluate(snap, sink); n != 2 {
		t.Errorf("fired %d rules, want 2", n)
	}
	if len(sink.structures) != 1 || sink.structures[0] != (structureCall{"spawningpool", 60, "opening"}) {
		t.Errorf("structure calls = %+v", sink.structures)
	}
	if len(sink.units) != 1 || sink.units[0] != (unitCall{"drone", 2, "drones", 20}) {
		t.Errorf("unit calls = %+v", sink.units)
	}
}

func TestExclusiveBlocksCategory(t *testing.T) {
	reqs := []config.RequestRule{
		{Name: "high", When: `true`, Structure: "spawningpool", Priority: 90, Category: "tech", Exclusive: true},
		{Name: "low", When: `true`, Structure: "roachwarren", Priority: 50, Category: "tech"},
		{Name: "other", When: `true`, Structure: "extractor", Priority: 40, Category: "gas"},
	}
	engine, err := NewEngine(FromConfig(reqs), townhalls)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	engine.Evaluate(snapshotWith(0), sink)

	got := map[string]bool{}
	for _, c := range sink.structures {
		got[c.typ] = true
	}
	if !got["spawningpool"] || got["roachwarren"] || !got["extractor"] {
		t.Errorf("exclusive rule should block only its own category, got %v", got)
	}
}

func TestActionErrorDoesNotStopEvaluation(t *testing.T) {
	reqs := []config.RequestRule{
		{Name: "a", When: `true`, Unit: "ghost", Priority: 20},
		{Name: "b", When: `true`, Structure: "extractor", Priority: 10},
	}
	engine, err := NewEngine(FromConfig(reqs), townhalls)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{unitErr: errors.New("unknown unit")}
	if n := engine.Evaluate(snapshotWith(0), sink); n != 2 {
		t.Errorf("fired %d, want 2", n)
	}
	if len(sink.structures) != 1 {
		t.Error("later rule should still run after an action error")
	}
}

func TestQueuedVisibleToConditions(t *testing.T) {
	engine, err := NewEngine(FromConfig([]config.RequestRule{{
		Name: "queens", When: `Queued("queen") == 0`, Unit: "queen", Priority: 30,
	}}), townhalls)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	snap := snapshotWith(200)
	for range 5 {
		engine.Evaluate(snap, sink)
	}
	if len(sink.units) != 1 {
		t.Errorf("queued queen should stop the rule, got %d requests", len(sink.units))
	}
	if NewEnv(snap, townhalls).Queued("queen") != 0 {
		t.Error("Queued outside Evaluate should read 0")
	}
}
