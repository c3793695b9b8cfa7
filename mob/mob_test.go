package mob

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vl4deee11/predprey/geom"
	"github.com/vl4deee11/predprey/qtable"
)

type crowd map[Category][]*Mob

func (c crowd) Members(cat Category) []*Mob {
	return c[cat]
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(7))
}

func spawn(t *testing.T, tr Traits, x, y float64) *Mob {
	t.Helper()
	m, err := New(tr, orb.Point{x, y}, geom.Bounds(400, 400), newRand())
	require.NoError(t, err)
	return m
}

func TestNewConstructionErrors(t *testing.T) {
	_, err := New(PreyTraits(), orb.Point{10, 10}, orb.Bound{}, newRand())
	assert.Equal(t, ErrNoBounds, errors.Cause(err))

	_, err = New(PreyTraits(), orb.Point{-1, 10}, geom.Bounds(100, 100), newRand())
	assert.Equal(t, ErrOutOfBounds, errors.Cause(err))

	_, err = New(PreyTraits(), orb.Point{10, 101}, geom.Bounds(100, 100), newRand())
	assert.Equal(t, ErrOutOfBounds, errors.Cause(err))

	bad := PreyTraits()
	bad.Slices = 0
	_, err = New(bad, orb.Point{10, 10}, geom.Bounds(100, 100), newRand())
	assert.Equal(t, qtable.ErrBadIndex, errors.Cause(err))
}

func TestNewTables(t *testing.T) {
	food := spawn(t, FoodTraits(), 10, 10)
	assert.Nil(t, food.Table)

	pred := spawn(t, PredatorTraits(), 10, 10)
	require.NotNil(t, pred.Table)
	assert.Equal(t, NumActions, pred.Table.Actions())
	assert.Equal(t, (16*8+1)*(16*8+1), pred.Table.States())
	assert.NotEqual(t, uuid.Nil, pred.ID)
}

func TestUseTable(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 10, 10)
	other := spawn(t, PredatorTraits(), 20, 20)
	prey := spawn(t, PreyTraits(), 30, 30)
	food := spawn(t, FoodTraits(), 40, 40)

	require.NoError(t, pred.UseTable(other.Table))
	assert.Same(t, other.Table, pred.Table)

	err := pred.UseTable(prey.Table)
	assert.Equal(t, ErrTableMismatch, errors.Cause(err))

	err = food.UseTable(prey.Table)
	assert.Equal(t, ErrTableForbidden, errors.Cause(err))
}

func TestObserveBinsTarget(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 100, 100)
	prey := spawn(t, PreyTraits(), 100, 70)
	pop := crowd{Prey: {prey}, Predator: {pred}}

	key := pred.Observe(pop)

	// due north, 30 away: sector 0, band 2 of 8 over 100
	assert.Equal(t, qtable.Bin{Sector: 0, Band: 2}, key.Target)
	assert.Equal(t, qtable.NoBin, key.Flee)
	assert.Equal(t, prey.ID, pred.Target())
}

func TestObserveOutOfSight(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 100, 100)
	prey := spawn(t, PreyTraits(), 100, 250)
	pop := crowd{Prey: {prey}}

	key := pred.Observe(pop)

	assert.Equal(t, qtable.NoBin, key.Target)
	assert.Equal(t, uuid.Nil, pred.Target())
}

func TestObserveSkipsDead(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 100, 100)
	near := spawn(t, PreyTraits(), 100, 90)
	far := spawn(t, PreyTraits(), 100, 160)
	pop := crowd{Prey: {near, far}}

	pred.Observe(pop)
	require.Equal(t, near.ID, pred.Target())

	near.kill()
	key := pred.Observe(pop)
	assert.Equal(t, far.ID, pred.Target())
	assert.Equal(t, 8, key.Target.Sector) // due south of 16 sectors
}

func TestObserveHysteresis(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 100, 100)
	margin := pred.Traits.Margin()
	require.Equal(t, 14.0, margin)

	tracked := spawn(t, PreyTraits(), 100, 150)
	candidate := spawn(t, PreyTraits(), 100+50-margin+0.01, 100)
	pop := crowd{Prey: {tracked}}

	pred.Observe(pop)
	require.Equal(t, tracked.ID, pred.Target())

	pop[Prey] = append(pop[Prey], candidate)
	pred.Observe(pop)
	assert.Equal(t, tracked.ID, pred.Target(), "switched inside the hysteresis margin")

	candidate.Pos = orb.Point{100 + 50 - margin - 0.01, 100}
	key := pred.Observe(pop)
	assert.Equal(t, candidate.ID, pred.Target(), "did not switch past the hysteresis margin")
	assert.Equal(t, 4, key.Target.Sector) // due east of 16 sectors
}

func TestObserveWithoutDeclaredAxes(t *testing.T) {
	food := spawn(t, FoodTraits(), 100, 100)
	prey := spawn(t, PreyTraits(), 100, 101)

	key := food.Observe(crowd{Prey: {prey}})
	assert.Equal(t, qtable.Key{Target: qtable.NoBin, Flee: qtable.NoBin}, key)
}

func TestDisplacement(t *testing.T) {
	prey := spawn(t, PreyTraits(), 100, 100)
	rng := newRand()

	assert.Equal(t, orb.Point{0, 0}, prey.Displacement(Hold, rng))
	assert.Equal(t, orb.Point{0, -2}, prey.Displacement(WanderN, rng))
	assert.Equal(t, orb.Point{6, 0}, prey.Displacement(RunE, rng))
	assert.Equal(t, orb.Point{-4.2, 4.2}, prey.Displacement(RunSW, rng))
	assert.Equal(t, orb.Point{1.4, 1.4}, prey.Displacement(WanderSE, rng))

	for i := 0; i < 20; i++ {
		d := prey.Displacement(Random, rng)
		assert.InDelta(t, 2, geom.Length(d), 0.1)
	}
}

func TestBoundaryClamp(t *testing.T) {
	prey := spawn(t, PreyTraits(), 0, 50)

	d := prey.Displacement(RunW, newRand())
	out := prey.Resolve(crowd{}, d)

	assert.Equal(t, 0.0, prey.Pos.X())
	assert.Equal(t, 50.0, prey.Pos.Y())
	assert.Equal(t, -1.0, out.Movement)
}

func TestResolveMovementCost(t *testing.T) {
	prey := spawn(t, PreyTraits(), 100, 100)

	out := prey.Resolve(crowd{}, orb.Point{6, 0})

	assert.Equal(t, -7.0, out.Movement)
	assert.Equal(t, 0.0, out.Terminal)
	assert.Equal(t, orb.Point{106, 100}, prey.Pos)
	assert.Equal(t, []orb.Point{{106, 100}}, prey.Trail)
}

func TestResolveCaught(t *testing.T) {
	prey := spawn(t, PreyTraits(), 100, 100)
	pred := spawn(t, PredatorTraits(), 110, 100)

	out := prey.Resolve(crowd{Predator: {pred}}, orb.Point{2, 0})

	assert.Equal(t, -25.0, out.Terminal)
	assert.True(t, prey.Alive, "prey is only eaten on the predator's move")
}

func TestPredatorEatsPrey(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 200, 200)
	prey := spawn(t, PreyTraits(), 200, 200)
	pop := crowd{Prey: {prey}, Predator: {pred}}
	rng := newRand()

	require.Less(t, geom.Distance(pred.Pos, prey.Pos), pred.Traits.Radius+prey.Traits.Radius)

	key := pred.Observe(pop)
	d, a, err := pred.Act(0, key, rng)
	require.NoError(t, err)
	out := pred.Resolve(pop, d)
	require.NoError(t, pred.Learn(pop, key, a, out))

	assert.False(t, prey.Alive)
	assert.Equal(t, 0.0, prey.Health)
	assert.Equal(t, 75.0, pred.Health)
	assert.Equal(t, 25.0, out.Terminal)
	assert.Equal(t, []uuid.UUID{prey.ID}, out.Eaten)

	v, err := pred.Table.Value(key, int(a))
	require.NoError(t, err)
	assert.Equal(t, 25.0, v)
}

func TestTerminalOverrideIgnoresPriorValue(t *testing.T) {
	for _, prior := range []float64{-1000, 0, 3.5} {
		pred := spawn(t, PredatorTraits(), 200, 200)
		key := qtable.Key{Target: qtable.Bin{Sector: 1, Band: 1}, Flee: qtable.NoBin}
		require.NoError(t, pred.Table.Update(key, int(RunN), prior))

		require.NoError(t, pred.Learn(crowd{}, key, RunN, Outcome{Movement: -11, Terminal: -50}))

		v, err := pred.Table.Value(key, int(RunN))
		require.NoError(t, err)
		assert.Equal(t, -50.0, v)
	}
}

func TestLearnTemporalDifference(t *testing.T) {
	prey := spawn(t, PreyTraits(), 200, 200)
	key := qtable.Key{Target: qtable.Bin{Sector: 3, Band: 2}, Flee: qtable.NoBin}
	next := qtable.Key{Target: qtable.NoBin, Flee: qtable.NoBin}

	require.NoError(t, prey.Table.Update(key, int(WanderE), -2))
	maxFuture, err := prey.Table.Max(next)
	require.NoError(t, err)

	out := Outcome{Movement: -3}
	require.NoError(t, prey.Learn(crowd{}, key, WanderE, out))

	lr, disc := prey.Traits.LearningRate, prey.Traits.Discount
	want := (1-lr)*-2 + lr*(-3+disc*maxFuture)
	v, err := prey.Table.Value(key, int(WanderE))
	require.NoError(t, err)
	assert.InDelta(t, want, v, 1e-12)
}

func TestActGreedy(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 200, 200)
	key := qtable.Key{Target: qtable.NoBin, Flee: qtable.NoBin}
	require.NoError(t, pred.Table.Update(key, int(RunSE), 100))

	d, a, err := pred.Act(0, key, newRand())
	require.NoError(t, err)
	assert.Equal(t, RunSE, a)
	assert.Equal(t, orb.Point{7.1, 7.1}, d)
}

func TestActExplores(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 200, 200)
	key := qtable.Key{Target: qtable.NoBin, Flee: qtable.NoBin}
	require.NoError(t, pred.Table.Update(key, int(Hold), 100))

	rng := newRand()
	seen := map[Action]bool{}
	for i := 0; i < 500; i++ {
		_, a, err := pred.Act(1, key, rng)
		require.NoError(t, err)
		seen[a] = true
	}
	assert.Len(t, seen, NumActions)
}

func TestActUnknownState(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 200, 200)
	key := qtable.Key{Target: qtable.Bin{Sector: 99, Band: 0}, Flee: qtable.NoBin}

	_, _, err := pred.Act(0, key, newRand())
	assert.Equal(t, qtable.ErrUnknownState, errors.Cause(err))
}

func TestFoodStepGrows(t *testing.T) {
	food := spawn(t, FoodTraits(), 50, 50)

	out, err := food.Step(crowd{}, 0.5, newRand(), true)

	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
	assert.InDelta(t, 10.1, food.Health, 1e-12)
	assert.Equal(t, orb.Point{50, 50}, food.Pos)
}

func TestDeadMobStepIsNoop(t *testing.T) {
	prey := spawn(t, PreyTraits(), 50, 50)
	prey.kill()
	before := prey.Table.Clone()

	out, err := prey.Step(crowd{}, 1, newRand(), true)

	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
	assert.Equal(t, orb.Point{50, 50}, prey.Pos)
	assert.True(t, qtable.Equal(before, prey.Table))
}

func TestResetKeepsTable(t *testing.T) {
	pred := spawn(t, PredatorTraits(), 200, 200)
	prey := spawn(t, PreyTraits(), 200, 200)
	pop := crowd{Prey: {prey}, Predator: {pred}}

	_, err := pred.Step(pop, 0, newRand(), true)
	require.NoError(t, err)
	require.False(t, prey.Alive)

	table := pred.Table
	trained := table.Clone()

	prey.Reset(orb.Point{10, 10})
	pred.Reset(orb.Point{500, 500})

	assert.True(t, prey.Alive)
	assert.Equal(t, 25.0, prey.Health)
	assert.Equal(t, 50.0, pred.Health)
	assert.Equal(t, orb.Point{400, 400}, pred.Pos)
	assert.Equal(t, uuid.Nil, pred.Target())
	assert.Empty(t, pred.Trail)
	assert.Same(t, table, pred.Table)
	assert.True(t, qtable.Equal(trained, pred.Table))
}

func TestTrailIsBounded(t *testing.T) {
	prey := spawn(t, PreyTraits(), 100, 100)
	for i := 0; i < maxTrail+10; i++ {
		prey.Resolve(crowd{}, orb.Point{1, 0})
	}
	assert.Len(t, prey.Trail, maxTrail)
	assert.Equal(t, prey.Pos, prey.Trail[len(prey.Trail)-1])
}
