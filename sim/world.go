package sim

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/vl4deee11/predprey/geom"
	"github.com/vl4deee11/predprey/mob"
)

var ErrNoBounds = errors.New("sim: world has no size")

// World owns the mobs of every category in insertion order.
type World struct {
	Bounds orb.Bound
	mobs   map[mob.Category][]*mob.Mob
}

func NewWorld(w, h float64) (*World, error) {
	b := geom.Bounds(w, h)
	if geom.Empty(b) {
		return nil, errors.Wrapf(ErrNoBounds, "%vx%v", w, h)
	}
	return &World{
		Bounds: b,
		mobs:   make(map[mob.Category][]*mob.Mob),
	}, nil
}

// Spawn creates a mob in the middle of the world and adds it.
func (w *World) Spawn(t mob.Traits, rng *rand.Rand) (*mob.Mob, error) {
	m, err := mob.New(t, geom.Center(w.Bounds), w.Bounds, rng)
	if err != nil {
		return nil, err
	}
	w.Add(m)
	return m, nil
}

func (w *World) Add(m *mob.Mob) {
	c := m.Traits.Category
	w.mobs[c] = append(w.mobs[c], m)
}

// Members lists the mobs of c, dead ones included.
func (w *World) Members(c mob.Category) []*mob.Mob {
	return w.mobs[c]
}

// Each visits every mob in tick order: category order, then list order.
func (w *World) Each(fn func(*mob.Mob)) {
	for _, c := range mob.Categories {
		for _, m := range w.mobs[c] {
			fn(m)
		}
	}
}

func (w *World) Count(c mob.Category) (alive, total int) {
	for _, m := range w.mobs[c] {
		if m.Alive {
			alive++
		}
	}
	return alive, len(w.mobs[c])
}

func (w *World) RandomPoint(rng *rand.Rand) orb.Point {
	return orb.Point{
		w.Bounds.Min.X() + rng.Float64()*(w.Bounds.Max.X()-w.Bounds.Min.X()),
		w.Bounds.Min.Y() + rng.Float64()*(w.Bounds.Max.Y()-w.Bounds.Min.Y()),
	}
}
