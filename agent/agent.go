package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-tactics/core"
	"github.com/nstehr/vimy/vimy-tactics/ipc"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/trace"
)

// statusEvery is how often, in ticks, a game state summary is logged.
const statusEvery = 22 * 30

// Agent binds one player's connection to its tactical core.
type Agent struct {
	Conn   *ipc.Connection
	Core   *core.Core
	Player string
	Race   string

	traceDir string
	trace    *trace.Writer
	mapInfo  model.MapInfo
	ticks    int
}

// New creates an agent. When traceDir is non-empty a decision trace is
// opened there once the player is known.
func New(conn *ipc.Connection, c *core.Core, traceDir string) *Agent {
	return &Agent{Conn: conn, Core: c, traceDir: traceDir}
}

// HandleHello completes the handshake: it names the player, hands the
// terrain grid to the core and acknowledges.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	a.Player = hello.Player
	a.Race = hello.Race
	a.mapInfo = hello.Map
	if a.Conn != nil {
		a.Conn.SetPlayer(hello.Player)
	}
	slog.Info("player identified", "player", a.Player, "race", a.Race,
		"map", fmt.Sprintf("%dx%d", hello.Map.Width, hello.Map.Height))

	if grid := hello.Terrain.ToGrid(); grid != nil {
		a.Core.SetTerrain(grid)
	} else if hello.Terrain != nil {
		slog.Warn("terrain grid ignored", "cols", hello.Terrain.Cols, "rows", hello.Terrain.Rows,
			"cells", len(hello.Terrain.Grid))
	}

	if a.traceDir != "" && a.trace == nil {
		w, err := trace.Create(a.traceDir, a.Player)
		if err != nil {
			slog.Error("trace disabled", "dir", a.traceDir, "error", err)
		} else {
			a.trace = w
		}
	}

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok"})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleGameState runs one tick and replies with its orders.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	// Map geometry is sent once at the handshake; per-tick snapshots may omit it.
	if snap.Map.Width == 0 && snap.Map.Height == 0 {
		snap.Map = a.mapInfo
	}

	batch := a.Core.Step(&snap)
	a.ticks++

	if a.ticks%statusEvery == 1 {
		slog.Info("game state",
			"player", a.Player,
			"iteration", snap.Iteration,
			"gameTime", snap.GameTime,
			"minerals", snap.Resources.Minerals,
			"vespene", snap.Resources.Vespene,
			"supply", fmt.Sprintf("%g/%g", snap.Resources.SupplyUsed, snap.Resources.SupplyCap),
			"units", len(snap.Units),
			"enemies", len(snap.Enemies),
			"commands", batch.Len(),
		)
	}

	if a.trace != nil {
		err := a.trace.Record(trace.Entry{
			Iteration: snap.Iteration,
			GameTime:  snap.GameTime,
			Mode:      a.Core.Mode(),
			Faults:    a.Core.Faults(),
			Commands:  batch.Commands,
		})
		if err != nil {
			slog.Warn("trace write failed", "error", err)
		}
	}

	resp, err := ipc.NewEnvelope(ipc.TypeCommands, ipc.NewCommands(batch.Iteration, batch.Commands))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close flushes the trace, if any.
func (a *Agent) Close() error {
	if a.trace == nil {
		return nil
	}
	err := a.trace.Close()
	a.trace = nil
	return err
}
