package mob

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/vl4deee11/predprey/geom"
	"github.com/vl4deee11/predprey/qtable"
)

const maxTrail = 32

var (
	ErrNoBounds       = errors.New("mob: no world bounds")
	ErrOutOfBounds    = errors.New("mob: position outside world bounds")
	ErrTableMismatch  = errors.New("mob: table does not fit traits")
	ErrTableForbidden = errors.New("mob: category does not learn")
)

// Population is the read-only category membership view of the world. Dead
// mobs are listed too; mobs filter on Alive themselves.
type Population interface {
	Members(c Category) []*Mob
}

// Outcome is what one tick did to a mob: the fixed movement cost, the
// eat/eaten reward and the ids of the mobs it ate.
type Outcome struct {
	Movement float64
	Terminal float64
	Eaten    []uuid.UUID
}

func (o Outcome) Total() float64 {
	return o.Movement + o.Terminal
}

type Mob struct {
	ID     uuid.UUID
	Traits Traits

	Pos    orb.Point
	Alive  bool
	Health float64
	Trail  []orb.Point

	Table *qtable.Table

	bounds orb.Bound
	index  *qtable.Index

	// weak references, resolved against the population every tick
	targetID uuid.UUID
	fleeID   uuid.UUID
}

// New creates a mob at pos. Learning categories get a fresh random table.
func New(t Traits, pos orb.Point, bounds orb.Bound, rng *rand.Rand) (*Mob, error) {
	if geom.Empty(bounds) {
		return nil, errors.Wrapf(ErrNoBounds, "%s", t.Category)
	}
	if !geom.Inside(pos, bounds) {
		return nil, errors.Wrapf(ErrOutOfBounds, "%s at %v", t.Category, pos)
	}

	m := &Mob{
		ID:     uuid.NewV1(),
		Traits: t,
		Pos:    pos,
		Alive:  true,
		Health: t.Health,
		bounds: bounds,
	}

	if !t.Learns() {
		return m, nil
	}

	ix, err := qtable.NewIndex(t.Slices, t.Bands, t.Sight)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t.Category)
	}
	m.index = ix

	m.Table, err = qtable.New(ix, NumActions, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t.Category)
	}
	return m, nil
}

// UseTable swaps in a previously trained table.
func (m *Mob) UseTable(t *qtable.Table) error {
	if m.index == nil {
		return errors.Wrapf(ErrTableForbidden, "%s", m.Traits.Category)
	}
	if !m.index.Equal(t.Index()) || t.Actions() != NumActions {
		return errors.Wrapf(ErrTableMismatch, "%s: %d slices, %d bands, sight %v, %d actions",
			m.Traits.Category, t.Index().Slices(), t.Index().Bands(), t.Index().Sight(), t.Actions())
	}
	m.Table = t
	return nil
}

// Reset starts a new episode at pos. The table is kept.
func (m *Mob) Reset(pos orb.Point) {
	m.Pos = geom.ClampPoint(pos, m.bounds)
	m.Health = m.Traits.Health
	m.Alive = true
	m.targetID = uuid.Nil
	m.fleeID = uuid.Nil
	m.Trail = m.Trail[:0]
}

func (m *Mob) Bounds() orb.Bound {
	return m.bounds
}

func (m *Mob) Target() uuid.UUID { return m.targetID }
func (m *Mob) Flee() uuid.UUID   { return m.fleeID }

// Observe finds the target and threat to track and bins them.
func (m *Mob) Observe(p Population) qtable.Key {
	return qtable.Key{
		Target: m.track(p, m.Traits.Target, &m.targetID),
		Flee:   m.track(p, m.Traits.Flee, &m.fleeID),
	}
}

func (m *Mob) track(p Population, c Category, ref *uuid.UUID) qtable.Bin {
	if c == Nobody || m.index == nil {
		*ref = uuid.Nil
		return qtable.NoBin
	}

	members := p.Members(c)
	sight := m.Traits.Sight

	cur, curDist := m.find(members, *ref)
	if cur != nil && curDist > sight {
		cur = nil
	}

	var best *Mob
	bestDist := math.Inf(1)
	for _, o := range members {
		if o == m || !o.Alive {
			continue
		}
		if d := geom.Distance(m.Pos, o.Pos); d < bestDist {
			best, bestDist = o, d
		}
	}

	switch {
	case cur == nil:
		cur, curDist = best, bestDist
	case best != nil && best != cur && curDist-bestDist >= m.Traits.Margin():
		cur, curDist = best, bestDist
	}

	if cur == nil || curDist > sight {
		*ref = uuid.Nil
		return qtable.NoBin
	}

	*ref = cur.ID
	return m.index.Bin(qtable.Observation{
		Angle:    geom.Bearing(m.Pos, cur.Pos),
		Distance: curDist,
		Visible:  true,
	})
}

func (m *Mob) find(members []*Mob, id uuid.UUID) (*Mob, float64) {
	if uuid.Equal(id, uuid.Nil) {
		return nil, 0
	}
	for _, o := range members {
		if o != m && o.Alive && uuid.Equal(o.ID, id) {
			return o, geom.Distance(m.Pos, o.Pos)
		}
	}
	return nil, 0
}

// Act picks an action epsilon-greedily and resolves it to a displacement
// that keeps the mob inside the world.
func (m *Mob) Act(epsilon float64, key qtable.Key, rng *rand.Rand) (orb.Point, Action, error) {
	a, err := m.chooseAction(epsilon, key, rng)
	if err != nil {
		return orb.Point{}, Hold, err
	}
	return m.Displacement(a, rng), a, nil
}

func (m *Mob) chooseAction(epsilon float64, key qtable.Key, rng *rand.Rand) (Action, error) {
	if m.Table == nil || rng.Float64() < epsilon {
		return Action(rng.Intn(NumActions)), nil
	}
	best, err := m.Table.BestAction(key)
	if err != nil {
		return Hold, err
	}
	return Action(best), nil
}

func (m *Mob) Displacement(a Action, rng *rand.Rand) orb.Point {
	dx, dy := a.Direction()
	if a == Random {
		d := compass[rng.Intn(len(compass))]
		dx, dy = d[0], d[1]
	}

	speed := m.Traits.Wander
	if a.Runs() {
		speed = m.Traits.Run
	}

	scale := 0.0
	if ds := math.Hypot(dx, dy); ds != 0 {
		scale = speed / ds
	}

	d := orb.Point{geom.Round1(dx * scale), geom.Round1(dy * scale)}
	return geom.ClampMove(m.Pos, d, m.bounds)
}

// Resolve moves the mob by d and settles contacts: every target touched is
// eaten, every threat touched costs the mob its own starting health.
func (m *Mob) Resolve(p Population, d orb.Point) Outcome {
	m.Pos = geom.Add(m.Pos, d)
	m.remember()

	out := Outcome{Movement: -1 - geom.Length(d)}

	if m.Traits.Target != Nobody {
		for _, o := range p.Members(m.Traits.Target) {
			if o == m || !o.Alive || !m.touches(o) {
				continue
			}
			m.Health += o.Health
			o.kill()
			out.Terminal += o.Traits.Health
			out.Eaten = append(out.Eaten, o.ID)
		}
	}

	if m.Traits.Flee != Nobody {
		for _, o := range p.Members(m.Traits.Flee) {
			if o == m || !o.Alive || !m.touches(o) {
				continue
			}
			out.Terminal -= m.Traits.Health
		}
	}

	return out
}

// Learn applies the Q-learning update for the action just taken. A tick
// that ended in an eat or eaten event writes the terminal reward as is.
func (m *Mob) Learn(p Population, key qtable.Key, a Action, out Outcome) error {
	if m.Table == nil {
		return nil
	}

	next := m.Observe(p)
	maxFuture, err := m.Table.Max(next)
	if err != nil {
		return err
	}

	value := out.Terminal
	if out.Terminal == 0 {
		old, err := m.Table.Value(key, int(a))
		if err != nil {
			return err
		}
		lr, disc := m.Traits.LearningRate, m.Traits.Discount
		value = (1-lr)*old + lr*(out.Movement+out.Terminal+disc*maxFuture)
	}
	return m.Table.Update(key, int(a), value)
}

// Grow is the whole tick of a mob without a table.
func (m *Mob) Grow() {
	m.Health += m.Traits.Growth
}

// Step runs one full tick for the mob. Dead mobs do nothing.
func (m *Mob) Step(p Population, epsilon float64, rng *rand.Rand, learn bool) (Outcome, error) {
	if !m.Alive {
		return Outcome{}, nil
	}
	if m.Table == nil {
		m.Grow()
		return Outcome{}, nil
	}

	key := m.Observe(p)
	d, a, err := m.Act(epsilon, key, rng)
	if err != nil {
		return Outcome{}, err
	}
	out := m.Resolve(p, d)
	if !learn {
		return out, nil
	}
	if err := m.Learn(p, key, a, out); err != nil {
		return out, errors.Wrapf(err, "%s %s learn", m.Traits.Category, m.ID)
	}
	return out, nil
}

func (m *Mob) touches(o *Mob) bool {
	return geom.Distance(m.Pos, o.Pos) <= m.Traits.Radius+o.Traits.Radius
}

func (m *Mob) kill() {
	m.Health = 0
	m.Alive = false
}

func (m *Mob) remember() {
	if len(m.Trail) >= maxTrail {
		copy(m.Trail, m.Trail[1:])
		m.Trail = m.Trail[:len(m.Trail)-1]
	}
	m.Trail = append(m.Trail, m.Pos)
}
