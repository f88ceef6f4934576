package agent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/core"
	"github.com/nstehr/vimy/vimy-tactics/ipc"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/trace"
)

func newAgent(t *testing.T, traceDir string) *Agent {
	t.Helper()
	c, err := core.New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return New(nil, c, traceDir)
}

func envelope(t *testing.T, typ string, v any) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(typ, v)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestHandleHello(t *testing.T) {
	a := newAgent(t, "")
	resp, err := a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{
		Player:  "p1",
		Race:    "zerg",
		Map:     model.MapInfo{Width: 128, Height: 128, Center: model.Pt(64, 64)},
		Terrain: &ipc.TerrainData{Cols: 1, Rows: 1, CellW: 128, CellH: 128, Grid: []int{0}},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if resp == nil || resp.Type != ipc.TypeAck {
		t.Fatalf("resp = %+v", resp)
	}
	if a.Player != "p1" || a.Race != "zerg" || a.mapInfo.Width != 128 {
		t.Errorf("agent = %+v", a)
	}

	if _, err := a.HandleHello(ipc.Envelope{Type: ipc.TypeHello, Data: []byte("{")}); err == nil {
		t.Error("malformed hello should fail")
	}
}

func TestHandleGameStateRepliesWithOrders(t *testing.T) {
	a := newAgent(t, "")
	a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{
		Player: "p1",
		Map:    model.MapInfo{Width: 200, Height: 200, Center: model.Pt(100, 0)},
	}))

	snap := model.Snapshot{
		Iteration: 110,
		Units: []model.UnitView{
			{Tag: 1, Type: "hatchery", Structure: true, Pos: model.Pt(0, 0)},
			{Tag: 2, Type: "roach", Pos: model.Pt(0, 60), Supply: 2, Range: 4, Idle: true},
			{Tag: 3, Type: "roach", Pos: model.Pt(0, 61), Supply: 2, Range: 4, Idle: true},
		},
	}
	resp, err := a.HandleGameState(envelope(t, ipc.TypeGameState, snap))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != ipc.TypeCommands {
		t.Fatalf("type = %s", resp.Type)
	}
	var msg ipc.CommandsMessage
	if err := json.Unmarshal(resp.Data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Iteration != 110 {
		t.Errorf("iteration = %d", msg.Iteration)
	}
	// Both idle roaches gather at the rally point as one grouped move.
	if len(msg.Orders) != 1 || len(msg.Orders[0].UnitTags) != 2 || msg.Orders[0].Kind != model.OrderMove {
		t.Errorf("orders = %+v", msg.Orders)
	}

	if _, err := a.HandleGameState(ipc.Envelope{Type: ipc.TypeGameState, Data: []byte(`"x"`)}); err == nil {
		t.Error("malformed snapshot should fail")
	}
}

func TestTraceRecordsTicks(t *testing.T) {
	dir := t.TempDir()
	a := newAgent(t, dir)
	a.HandleHello(envelope(t, ipc.TypeHello, ipc.HelloMessage{Player: "p2"}))
	for i := 1; i <= 3; i++ {
		if _, err := a.HandleGameState(envelope(t, ipc.TypeGameState, model.Snapshot{Iteration: i})); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "p2-*.jsonl.zst"))
	if len(matches) != 1 {
		t.Fatalf("trace files = %v", matches)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := trace.Read(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[2].Iteration != 3 || entries[0].Mode != "balanced" {
		t.Errorf("entries = %+v", entries)
	}
}
