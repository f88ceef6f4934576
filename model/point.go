package model

import "math"

// Point is a position or displacement in map space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(o Point) Point     { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point     { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(o Point) float64  { return p.Sub(o).Len() }
func (p Point) IsZero() bool          { return p.X == 0 && p.Y == 0 }

// DistSq is the squared distance to o, for comparisons that skip the sqrt.
func (p Point) DistSq(o Point) float64 {
	d := p.Sub(o)
	return d.X*d.X + d.Y*d.Y
}

// Norm returns the unit vector in p's direction, or the zero vector when p
// has no length.
func (p Point) Norm() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Rotate turns p counter-clockwise by rad radians.
func (p Point) Rotate(rad float64) Point {
	sin, cos := math.Sincos(rad)
	return Point{p.X*cos - p.Y*sin, p.X*sin + p.Y*cos}
}

// Towards moves p by dist toward o. It never overshoots o.
func (p Point) Towards(o Point, dist float64) Point {
	d := p.Sub(o).Len()
	if d == 0 {
		return p
	}
	if dist > d {
		dist = d
	}
	return p.Add(o.Sub(p).Scale(dist / d))
}

// Centroid returns the mean of pts, or the zero point for an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(pts)))
}
