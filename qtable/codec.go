package qtable

import (
	"math"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/pkg/errors"
)

const codecVersion = 1

var ErrCorrupt = errors.New("qtable: corrupt table data")

type envelope struct {
	Version int       `codec:"v"`
	Slices  int       `codec:"slices"`
	Bands   int       `codec:"bands"`
	Sight   float64   `codec:"sight"`
	Actions int       `codec:"actions"`
	Values  []float64 `codec:"values"`
}

var mh = &codec.MsgpackHandle{}

func Marshal(t *Table) ([]byte, error) {
	env := envelope{
		Version: codecVersion,
		Slices:  t.ix.slices,
		Bands:   t.ix.bands,
		Sight:   t.ix.sight,
		Actions: t.actions,
		Values:  t.values,
	}

	var out []byte
	if err := codec.NewEncoderBytes(&out, mh).Encode(&env); err != nil {
		return nil, errors.Wrap(err, "qtable: encode")
	}
	return out, nil
}

func Unmarshal(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty input")
	}

	var env envelope
	if err := codec.NewDecoderBytes(data, mh).Decode(&env); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "decode: %v", err)
	}
	if env.Version != codecVersion {
		return nil, errors.Wrapf(ErrCorrupt, "version %d", env.Version)
	}

	// dimensions are checked against the payload before anything is sized from them
	if !fits(env) {
		return nil, errors.Wrapf(ErrCorrupt, "%d values for %d slices, %d bands, %d actions",
			len(env.Values), env.Slices, env.Bands, env.Actions)
	}
	ix, err := NewIndex(env.Slices, env.Bands, env.Sight)
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%v", err)
	}

	t := newEmpty(ix, env.Actions)
	copy(t.values, env.Values)
	return t, nil
}

// fits reports whether len(Values) is exactly (slices*bands+1)^2*actions,
// deriving the dimensions from the length so none of the products overflow.
func fits(env envelope) bool {
	if env.Slices < 1 || env.Bands < 1 || env.Actions < 1 {
		return false
	}
	n := len(env.Values)
	if n == 0 || n%env.Actions != 0 {
		return false
	}
	states := n / env.Actions
	side := int(math.Sqrt(float64(states)))
	for side*side > states {
		side--
	}
	for (side+1)*(side+1) <= states {
		side++
	}
	if side*side != states {
		return false
	}
	bins := side - 1
	return bins%env.Slices == 0 && bins/env.Slices == env.Bands
}
