package qtable

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Untrained values are drawn uniformly from [InitLow, InitHigh).
const (
	InitLow  = -5.0
	InitHigh = 0.0
)

var (
	ErrUnknownState  = errors.New("qtable: state outside the bin universe")
	ErrUnknownAction = errors.New("qtable: action outside the action space")
)

// Key indexes the table: the bin of the tracked target and of the tracked
// threat.
type Key struct {
	Target Bin `json:"target"`
	Flee   Bin `json:"flee"`
}

func (k Key) String() string {
	return k.Target.String() + "/" + k.Flee.String()
}

// Table is a dense Q-table over every (target, flee) bin pair. It is owned by
// a single mob and is not safe for concurrent use.
type Table struct {
	ix      *Index
	actions int
	values  []float64
}

// New builds a table over every key of ix with random untrained values.
func New(ix *Index, actions int, rng *rand.Rand) (*Table, error) {
	if ix == nil || actions < 1 {
		return nil, errors.Wrapf(ErrBadIndex, "actions=%d", actions)
	}
	t := newEmpty(ix, actions)
	for i := range t.values {
		t.values[i] = InitLow + rng.Float64()*(InitHigh-InitLow)
	}
	return t, nil
}

func newEmpty(ix *Index, actions int) *Table {
	n := ix.size()
	return &Table{
		ix:      ix,
		actions: actions,
		values:  make([]float64, n*n*actions),
	}
}

func (t *Table) Index() *Index { return t.ix }
func (t *Table) Actions() int  { return t.actions }

// States is the number of keys the table covers.
func (t *Table) States() int {
	n := t.ix.size()
	return n * n
}

func (t *Table) offset(k Key) (int, error) {
	if !t.ix.Valid(k.Target) || !t.ix.Valid(k.Flee) {
		return 0, errors.Wrapf(ErrUnknownState, "key %s", k)
	}
	row := t.ix.ordinal(k.Target)*t.ix.size() + t.ix.ordinal(k.Flee)
	return row * t.actions, nil
}

func (t *Table) row(k Key) ([]float64, error) {
	off, err := t.offset(k)
	if err != nil {
		return nil, err
	}
	return t.values[off : off+t.actions], nil
}

// Lookup returns a copy of the action values stored under k.
func (t *Table) Lookup(k Key) ([]float64, error) {
	r, err := t.row(k)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(r))
	copy(out, r)
	return out, nil
}

func (t *Table) Value(k Key, action int) (float64, error) {
	r, err := t.row(k)
	if err != nil {
		return 0, err
	}
	if action < 0 || action >= t.actions {
		return 0, errors.Wrapf(ErrUnknownAction, "action %d", action)
	}
	return r[action], nil
}

// BestAction is the arg-max over the values of k. Ties go to the lowest
// action index.
func (t *Table) BestAction(k Key) (int, error) {
	r, err := t.row(k)
	if err != nil {
		return 0, err
	}
	return argmax(r), nil
}

func (t *Table) Max(k Key) (float64, error) {
	r, err := t.row(k)
	if err != nil {
		return 0, err
	}
	return r[argmax(r)], nil
}

func argmax(r []float64) int {
	best := 0
	for a := 1; a < len(r); a++ {
		if r[a] > r[best] {
			best = a
		}
	}
	return best
}

func (t *Table) Update(k Key, action int, value float64) error {
	off, err := t.offset(k)
	if err != nil {
		return err
	}
	if action < 0 || action >= t.actions {
		return errors.Wrapf(ErrUnknownAction, "action %d", action)
	}
	t.values[off+action] = value
	return nil
}

func (t *Table) Clone() *Table {
	c := newEmpty(t.ix, t.actions)
	copy(c.values, t.values)
	return c
}

func Equal(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.ix.Equal(b.ix) || a.actions != b.actions || len(a.values) != len(b.values) {
		return false
	}
	for i := range a.values {
		if a.values[i] != b.values[i] {
			return false
		}
	}
	return true
}
