package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/vl4deee11/predprey/config"
	"github.com/vl4deee11/predprey/geom"
	"github.com/vl4deee11/predprey/mob"
	"github.com/vl4deee11/predprey/qtable"
)

const maxEvents = 200

type Options struct {
	// Tables seeds every learning mob of a category with a copy of a
	// trained table.
	Tables   map[mob.Category]*qtable.Table
	Renderer Renderer
	Rand     *rand.Rand
}

// Sim drives the episodes of one run. It is single threaded: within a tick
// every mob sees the world as already changed by the mobs before it.
type Sim struct {
	World    *World
	Mode     Mode
	Epsilon  float64
	Renderer Renderer

	cfg     config.Config
	rand    *rand.Rand
	rewards map[*mob.Mob][]float64
	episode int
	frame   int
	events  []Event
}

// Summary is the bookkeeping of one finished episode.
type Summary struct {
	Episode  int
	Episodes int
	Frames   int
	Epsilon  float64
	Finished time.Time
	Mobs     []MobSummary
}

type MobSummary struct {
	ID       uuid.UUID
	Category mob.Category
	Reward   float64
	Alive    bool
	Health   float64
}

func New(cfg config.Config, mode Mode, opts Options) (*Sim, error) {
	w, h := mode.WorldSize(cfg)
	world, err := NewWorld(w, h)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	s := &Sim{
		World:    world,
		Mode:     mode,
		Epsilon:  cfg.Epsilon,
		Renderer: opts.Renderer,
		cfg:      cfg,
		rand:     rng,
		rewards:  make(map[*mob.Mob][]float64),
	}
	if s.Renderer == nil {
		s.Renderer = NopRenderer{}
	}

	for _, c := range mob.Categories {
		for i := 0; i < mode.Counts.Of(c); i++ {
			m, err := world.Spawn(cfg.Traits(c), rng)
			if err != nil {
				return nil, errors.Wrapf(err, "sim: spawn %s #%d", c, i)
			}
			if m.Table == nil {
				continue
			}
			if tbl := opts.Tables[c]; tbl != nil {
				if err := m.UseTable(tbl.Clone()); err != nil {
					return nil, err
				}
			}
			s.rewards[m] = make([]float64, 0, cfg.Episodes)
		}
	}
	return s, nil
}

// Tick steps every alive mob of the active categories once and reports
// whether a critical category lost a member.
func (s *Sim) Tick() (bool, error) {
	s.frame++

	for _, c := range mob.Categories {
		if !s.Mode.IsActive(c) {
			continue
		}
		for _, m := range s.World.Members(c) {
			if !m.Alive {
				continue
			}
			out, err := m.Step(s.World, s.Epsilon, s.rand, s.cfg.Learn)
			if err != nil {
				return true, err
			}
			if m.Table != nil {
				s.tally(m, out.Total())
			}
			for _, id := range out.Eaten {
				s.addEvent("eat", m.ID, id)
			}
		}
	}

	for _, c := range s.Mode.Critical {
		if alive, total := s.World.Count(c); alive < total {
			return true, nil
		}
	}
	return false, nil
}

// Episode resets the world, plays it out and decays epsilon.
func (s *Sim) Episode(ctx context.Context) (Summary, error) {
	s.reset()

	show := s.cfg.Show > 0 && s.episode%s.cfg.Show == 0
	var pace *time.Ticker
	if _, nop := s.Renderer.(NopRenderer); show && !nop && s.cfg.FPS > 0 {
		pace = time.NewTicker(time.Second / time.Duration(s.cfg.FPS))
		defer pace.Stop()
	}

	frames := 0
	for k := 0; k < s.cfg.Frames; k++ {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		done, err := s.Tick()
		if err != nil {
			return Summary{}, errors.Wrapf(err, "sim: episode %d frame %d", s.episode, s.frame)
		}
		frames++

		if show {
			s.Renderer.Render(s.Frame())
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return Summary{}, ctx.Err()
			case <-pace.C:
			}
		}
		if done {
			break
		}
	}

	sum := s.summary(frames)
	s.episode++
	s.Epsilon *= s.cfg.Decay
	return sum, nil
}

// Run plays the remaining episodes, handing each summary to fn.
func (s *Sim) Run(ctx context.Context, fn func(Summary)) error {
	for s.episode < s.cfg.Episodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum, err := s.Episode(ctx)
		if err != nil {
			return err
		}
		if fn != nil {
			fn(sum)
		}
	}
	return nil
}

// Rewards is the per-episode reward history of a learning mob.
func (s *Sim) Rewards(m *mob.Mob) []float64 {
	return s.rewards[m]
}

func (s *Sim) reset() {
	center := geom.Center(s.World.Bounds)
	s.World.Each(func(m *mob.Mob) {
		p := s.World.RandomPoint(s.rand)
		if m.Traits.Category == s.Mode.Centered {
			p = center
		}
		m.Reset(p)
	})
	for m, r := range s.rewards {
		s.rewards[m] = append(r, 0)
	}
	s.frame = 0
	s.events = s.events[:0]
}

func (s *Sim) tally(m *mob.Mob, reward float64) {
	r := s.rewards[m]
	if len(r) == 0 {
		r = append(r, 0)
	}
	r[len(r)-1] += reward
	s.rewards[m] = r
}

func (s *Sim) addEvent(kind string, actor, target uuid.UUID) {
	if len(s.events) >= maxEvents {
		s.events = s.events[1:]
	}
	s.events = append(s.events, Event{
		Type:     kind,
		Episode:  s.episode,
		Frame:    s.frame,
		ActorID:  actor.String(),
		TargetID: target.String(),
	})
}

func (s *Sim) summary(frames int) Summary {
	sum := Summary{
		Episode:  s.episode,
		Episodes: s.cfg.Episodes,
		Frames:   frames,
		Epsilon:  s.Epsilon,
		Finished: time.Now(),
	}
	s.World.Each(func(m *mob.Mob) {
		if m.Table == nil {
			return
		}
		r := s.rewards[m]
		ms := MobSummary{ID: m.ID, Category: m.Traits.Category, Alive: m.Alive, Health: m.Health}
		if len(r) > 0 {
			ms.Reward = r[len(r)-1]
		}
		sum.Mobs = append(sum.Mobs, ms)
	})
	return sum
}
