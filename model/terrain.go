package model

import "math"

// TerrainType classifies a coarse grid zone.
type TerrainType byte

const (
	Land   TerrainType = 0 // passable ground
	Water  TerrainType = 1 // impassable for ground units
	Cliff  TerrainType = 2 // impassable (rock, ramp wall, doodad)
	Bridge TerrainType = 3 // land corridor over water (chokepoint)
)

// Passable reports whether ground units can stand in a zone of this type.
func (t TerrainType) Passable() bool { return t == Land || t == Bridge }

// TerrainGrid is a coarse grid over the map, independent of map size.
// Each zone covers CellW x CellH map cells and stores a single TerrainType.
type TerrainGrid struct {
	Cols  int           // grid columns (typically 32)
	Rows  int           // grid rows (typically 32)
	CellW int           // map cells per grid column
	CellH int           // map cells per grid row
	Grid  []TerrainType // row-major: Grid[row*Cols + col]
}

// At returns the terrain type at grid coordinates (col, row).
// Returns Land for out-of-bounds coordinates.
func (g *TerrainGrid) At(col, row int) TerrainType {
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return Land
	}
	return g.Grid[row*g.Cols+col]
}

// Zone converts a map position to grid coordinates. ok is false for a grid
// with zero-sized cells.
func (g *TerrainGrid) Zone(p Point) (col, row int, ok bool) {
	if g.CellW <= 0 || g.CellH <= 0 {
		return 0, 0, false
	}
	return int(math.Floor(p.X / float64(g.CellW))), int(math.Floor(p.Y / float64(g.CellH))), true
}

// AtPoint returns the terrain type under a map position. Returns Land for
// out-of-bounds positions or zero-sized cells.
func (g *TerrainGrid) AtPoint(p Point) TerrainType {
	col, row, ok := g.Zone(p)
	if !ok {
		return Land
	}
	return g.At(col, row)
}

// ZoneCenter returns the map position of the center of the zone at (col, row).
func (g *TerrainGrid) ZoneCenter(col, row int) Point {
	return Point{
		X: float64(col*g.CellW) + float64(g.CellW)/2,
		Y: float64(row*g.CellH) + float64(g.CellH)/2,
	}
}

// ImpassableNear returns the centers of impassable zones within radius of p.
// These are the terrain obstacles used for repulsion.
func (g *TerrainGrid) ImpassableNear(p Point, radius float64) []Point {
	if g == nil || g.CellW <= 0 || g.CellH <= 0 || radius <= 0 {
		return nil
	}
	c0, r0, _ := g.Zone(p.Sub(Point{radius, radius}))
	c1, r1, _ := g.Zone(p.Add(Point{radius, radius}))
	var out []Point
	for row := max(r0, 0); row <= min(r1, g.Rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, g.Cols-1); col++ {
			if g.At(col, row).Passable() {
				continue
			}
			if c := g.ZoneCenter(col, row); c.Dist(p) <= radius {
				out = append(out, c)
			}
		}
	}
	return out
}

// IsChoke reports whether the zone is a narrow passage: a bridge, or passable
// land walled off on both sides along one axis.
func (g *TerrainGrid) IsChoke(col, row int) bool {
	t := g.At(col, row)
	if t == Bridge {
		return true
	}
	if !t.Passable() {
		return false
	}
	blocked := func(c, r int) bool {
		if c < 0 || c >= g.Cols || r < 0 || r >= g.Rows {
			return false
		}
		return !g.At(c, r).Passable()
	}
	return (blocked(col-1, row) && blocked(col+1, row)) ||
		(blocked(col, row-1) && blocked(col, row+1))
}
