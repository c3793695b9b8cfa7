package qtable

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// None marks an axis with nothing observed on it.
const None = -1

var ErrBadIndex = errors.New("qtable: bad index dimensions")

// Bin is one discretized observation: angular sector and range band.
type Bin struct {
	Sector int `json:"sector"`
	Band   int `json:"band"`
}

var NoBin = Bin{Sector: None, Band: None}

func (b Bin) Absent() bool {
	return b == NoBin
}

func (b Bin) String() string {
	if b.Absent() {
		return "(-,-)"
	}
	return fmt.Sprintf("(%d,%d)", b.Sector, b.Band)
}

// Observation is the continuous bearing/distance pair of a tracked mob.
// Visible is false when nothing of the category is in sight.
type Observation struct {
	Angle    float64
	Distance float64
	Visible  bool
}

type arc struct {
	lo, hi float64
}

func (a arc) contains(v float64) bool {
	return a.lo <= v && v < a.hi
}

// Index holds the sector and band boundary tables and maps observations
// onto bins.
type Index struct {
	slices int
	bands  int
	sight  float64

	sectorArcs []arc
	bandArcs   []arc
}

func NewIndex(slices, bands int, sight float64) (*Index, error) {
	if slices < 1 || bands < 1 || !(sight > 0) || math.IsInf(sight, 0) {
		return nil, errors.Wrapf(ErrBadIndex, "slices=%d bands=%d sight=%v", slices, bands, sight)
	}

	ix := &Index{slices: slices, bands: bands, sight: sight}

	// sector 0 is centered on 0 degrees, so every boundary shifts by half a width
	w := 360 / float64(slices)
	ix.sectorArcs = make([]arc, slices)
	for i := range ix.sectorArcs {
		ix.sectorArcs[i] = arc{lo: float64(i)*w - w/2, hi: float64(i+1)*w - w/2}
	}

	bw := sight / float64(bands)
	ix.bandArcs = make([]arc, bands)
	for i := range ix.bandArcs {
		ix.bandArcs[i] = arc{lo: float64(i) * bw, hi: float64(i+1) * bw}
	}

	return ix, nil
}

func (ix *Index) Slices() int    { return ix.slices }
func (ix *Index) Bands() int     { return ix.bands }
func (ix *Index) Sight() float64 { return ix.sight }

func (ix *Index) Equal(o *Index) bool {
	return o != nil && ix.slices == o.slices && ix.bands == o.bands && ix.sight == o.sight
}

// Sector returns the arc holding angle after wrapping it onto the full
// circle covered by the boundary table.
func (ix *Index) Sector(angle float64) int {
	lo := ix.sectorArcs[0].lo
	a := math.Mod(angle-lo, 360)
	if a < 0 {
		a += 360
	}
	a += lo

	for i, s := range ix.sectorArcs {
		if s.contains(a) {
			return i
		}
	}
	// float rounding can leave a hair above the last boundary
	return ix.slices - 1
}

// Band returns the range band of distance. The outer edge and anything past
// it fall into the top band.
func (ix *Index) Band(distance float64) int {
	if distance < 0 {
		return 0
	}
	for i, b := range ix.bandArcs {
		if b.contains(distance) {
			return i
		}
	}
	return ix.bands - 1
}

func (ix *Index) Bin(o Observation) Bin {
	if !o.Visible {
		return NoBin
	}
	return Bin{Sector: ix.Sector(o.Angle), Band: ix.Band(o.Distance)}
}

func (ix *Index) Valid(b Bin) bool {
	if b.Absent() {
		return true
	}
	return b.Sector >= 0 && b.Sector < ix.slices && b.Band >= 0 && b.Band < ix.bands
}

// Bins lists every value one axis of a key can take, NoBin first.
func (ix *Index) Bins() []Bin {
	out := make([]Bin, 0, ix.size())
	out = append(out, NoBin)
	for s := 0; s < ix.slices; s++ {
		for b := 0; b < ix.bands; b++ {
			out = append(out, Bin{Sector: s, Band: b})
		}
	}
	return out
}

func (ix *Index) size() int {
	return ix.slices*ix.bands + 1
}

func (ix *Index) ordinal(b Bin) int {
	if b.Absent() {
		return 0
	}
	return 1 + b.Sector*ix.bands + b.Band
}
