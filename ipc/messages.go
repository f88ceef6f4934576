package ipc

import "github.com/nstehr/vimy/vimy-tactics/model"

// These constants must stay in sync with the engine bridge's message types.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeCommands  = "commands"
)

type HelloMessage struct {
	Player  string        `json:"player"`
	Race    string        `json:"race"`
	Map     model.MapInfo `json:"map"`
	Terrain *TerrainData  `json:"terrain,omitempty"`
}

// TerrainData carries the coarse terrain grid from the engine.
// Optional; without it terrain repulsion and choke detection are skipped.
type TerrainData struct {
	Cols  int   `json:"cols"`
	Rows  int   `json:"rows"`
	CellW int   `json:"cellW"`
	CellH int   `json:"cellH"`
	Grid  []int `json:"grid"`
}

// ToGrid converts the wire form to a model.TerrainGrid. It returns nil when
// the dimensions do not match the cell count.
func (t *TerrainData) ToGrid() *model.TerrainGrid {
	if t == nil || t.Cols <= 0 || t.Rows <= 0 || len(t.Grid) != t.Cols*t.Rows {
		return nil
	}
	grid := make([]model.TerrainType, len(t.Grid))
	for i, v := range t.Grid {
		grid[i] = model.TerrainType(v)
	}
	return &model.TerrainGrid{Cols: t.Cols, Rows: t.Rows, CellW: t.CellW, CellH: t.CellH, Grid: grid}
}

type AckMessage struct {
	Status string `json:"status"`
}
