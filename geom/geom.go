package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// World coordinates are screen coordinates: x grows east, y grows south.

func Bounds(w, h float64) orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{w, h}}
}

func Empty(b orb.Bound) bool {
	return !(b.Max.X() > b.Min.X() && b.Max.Y() > b.Min.Y())
}

func Center(b orb.Bound) orb.Point {
	return b.Center()
}

// Bearing is the compass angle in degrees from one point to another,
// clockwise from north, in [0,360).
func Bearing(from, to orb.Point) float64 {
	dx := to.X() - from.X()
	dy := to.Y() - from.Y()
	if dx == 0 && dy == 0 {
		return 0
	}

	deg := math.Atan2(dx, -dy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

func Length(d orb.Point) float64 {
	return math.Hypot(d.X(), d.Y())
}

func Add(p, d orb.Point) orb.Point {
	return orb.Point{p.X() + d.X(), p.Y() + d.Y()}
}

// ClampMove shortens each axis of d so that p+d stays inside b. An axis that
// would leave the rectangle is cut to land exactly on its edge.
func ClampMove(p, d orb.Point, b orb.Bound) orb.Point {
	return orb.Point{
		clampAxis(p.X(), d.X(), b.Min.X(), b.Max.X()),
		clampAxis(p.Y(), d.Y(), b.Min.Y(), b.Max.Y()),
	}
}

func clampAxis(v, dv, lo, hi float64) float64 {
	if v+dv < lo {
		dv = lo - v
	}
	if hi < v+dv {
		dv = hi - v
	}
	return dv
}

func ClampPoint(p orb.Point, b orb.Bound) orb.Point {
	return orb.Point{clampF(p.X(), b.Min.X(), b.Max.X()), clampF(p.Y(), b.Min.Y(), b.Max.Y())}
}

func Inside(p orb.Point, b orb.Bound) bool {
	if math.IsNaN(p.X()) || math.IsNaN(p.Y()) {
		return false
	}
	return b.Contains(p)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
