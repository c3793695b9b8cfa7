package sim

import (
	"github.com/vl4deee11/predprey/mob"
)

// Frame is an immutable picture of the world after a tick, safe to hand to
// another goroutine.
type Frame struct {
	Type    string     `json:"type"`
	Episode int        `json:"episode"`
	Frame   int        `json:"frame"`
	Epsilon float64    `json:"epsilon"`
	Mobs    []MobState `json:"mobs"`
	Stats   []Stat     `json:"stats"`
	Events  []Event    `json:"events"`
}

type MobState struct {
	ID       string       `json:"id"`
	Category string       `json:"category"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	R        float64      `json:"r"`
	Sight    float64      `json:"sight"`
	Health   float64      `json:"health"`
	Alive    bool         `json:"alive"`
	Trail    [][2]float64 `json:"trail"`
}

// Stat is the alive/total count of one category, the text of the overlay.
type Stat struct {
	Category string `json:"category"`
	Alive    int    `json:"alive"`
	Total    int    `json:"total"`
}

type Event struct {
	Type     string `json:"type"`
	Episode  int    `json:"episode"`
	Frame    int    `json:"frame"`
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id,omitempty"`
}

// Renderer receives the frames of shown episodes.
type Renderer interface {
	Render(f Frame)
}

type NopRenderer struct{}

func (NopRenderer) Render(Frame) {}

// ChanRenderer drops frames when nobody keeps up with C.
type ChanRenderer struct {
	C chan Frame
}

func NewChanRenderer(size int) *ChanRenderer {
	return &ChanRenderer{C: make(chan Frame, size)}
}

func (r *ChanRenderer) Render(f Frame) {
	select {
	case r.C <- f:
	default:
	}
}

func (s *Sim) Frame() Frame {
	f := Frame{
		Type:    "state",
		Episode: s.episode,
		Frame:   s.frame,
		Epsilon: s.Epsilon,
		Events:  append([]Event(nil), s.events...),
	}

	s.World.Each(func(m *mob.Mob) {
		trail := make([][2]float64, len(m.Trail))
		for i, p := range m.Trail {
			trail[i] = [2]float64{p.X(), p.Y()}
		}
		f.Mobs = append(f.Mobs, MobState{
			ID:       m.ID.String(),
			Category: m.Traits.Category.String(),
			X:        m.Pos.X(),
			Y:        m.Pos.Y(),
			R:        m.Traits.Radius,
			Sight:    m.Traits.Sight,
			Health:   m.Health,
			Alive:    m.Alive,
			Trail:    trail,
		})
	})

	for _, c := range mob.Categories {
		alive, total := s.World.Count(c)
		f.Stats = append(f.Stats, Stat{Category: c.String(), Alive: alive, Total: total})
	}
	return f
}
