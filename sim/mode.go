package sim

import (
	"github.com/pkg/errors"

	"github.com/vl4deee11/predprey/config"
	"github.com/vl4deee11/predprey/mob"
)

var ErrUnknownMode = errors.New("sim: unknown mode")

// Mode says who is in the world, who gets to act, what ends an episode and
// whose tables are worth keeping.
type Mode struct {
	Name   string
	Counts config.Counts

	Active   []mob.Category
	Critical []mob.Category
	Save     []mob.Category

	// Centered is placed in the middle of the world every episode.
	Centered mob.Category
	// Train sizes the world as a square 1.5 times its sight.
	Train bool
}

func TrainPrey() Mode {
	return Mode{
		Name:     "prey",
		Counts:   config.Counts{Food: 1, Prey: 1},
		Active:   []mob.Category{mob.Prey},
		Critical: mob.Categories,
		Save:     []mob.Category{mob.Prey},
		Centered: mob.Prey,
		Train:    true,
	}
}

func TrainPredator() Mode {
	return Mode{
		Name:     "pred",
		Counts:   config.Counts{Prey: 1, Predator: 1},
		Active:   []mob.Category{mob.Predator},
		Critical: mob.Categories,
		Save:     []mob.Category{mob.Predator},
		Centered: mob.Predator,
		Train:    true,
	}
}

func TrainEvade() Mode {
	return Mode{
		Name:     "evade",
		Counts:   config.Counts{Prey: 1, Predator: 1},
		Active:   []mob.Category{mob.Prey, mob.Predator},
		Critical: mob.Categories,
		Save:     []mob.Category{mob.Prey},
		Centered: mob.Prey,
		Train:    true,
	}
}

func Execute(counts config.Counts) Mode {
	return Mode{
		Name:     "run",
		Counts:   counts,
		Active:   mob.Categories,
		Save:     []mob.Category{mob.Prey, mob.Predator},
		Centered: mob.Nobody,
	}
}

func ModeByName(name string, counts config.Counts) (Mode, error) {
	switch name {
	case "prey":
		return TrainPrey(), nil
	case "pred":
		return TrainPredator(), nil
	case "evade":
		return TrainEvade(), nil
	case "run":
		return Execute(counts), nil
	}
	return Mode{}, errors.Wrapf(ErrUnknownMode, "%q", name)
}

func (m Mode) IsActive(c mob.Category) bool   { return has(m.Active, c) }
func (m Mode) IsCritical(c mob.Category) bool { return has(m.Critical, c) }
func (m Mode) Saves(c mob.Category) bool      { return has(m.Save, c) }

// WorldSize is just larger than the trained mob can see, or the configured
// size for execution runs.
func (m Mode) WorldSize(cfg config.Config) (float64, float64) {
	if !m.Train {
		return cfg.Width, cfg.Height
	}
	sight := cfg.Traits(mob.Prey).Sight
	if m.Counts.Predator > 0 {
		sight = cfg.Traits(mob.Predator).Sight
	}
	side := float64(int(sight * 1.5))
	return side, side
}

func has(list []mob.Category, c mob.Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
