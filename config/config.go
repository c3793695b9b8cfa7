package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vl4deee11/predprey/mob"
)

// Config holds every tunable of a training or execution run.
type Config struct {
	// Width and Height are the world size of execution runs. Training
	// modes size the world from the sight of the trained category.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Episodes int     `yaml:"episodes"`
	Frames   int     `yaml:"frames"`  // per episode
	Show     int     `yaml:"show"`    // publish every Show-th episode
	FPS      int     `yaml:"fps"`     // pacing of published episodes, 0 for none
	Epsilon  float64 `yaml:"epsilon"` // random action threshold
	Decay    float64 `yaml:"decay"`   // epsilon *= Decay after each episode
	Learn    bool    `yaml:"learn"`
	Seed     int64   `yaml:"seed"` // 0 seeds from the clock

	Counts Counts `yaml:"counts"`
	Mobs   Mobs   `yaml:"mobs"`

	Store Store `yaml:"store"`
}

// Counts is the population of execution runs.
type Counts struct {
	Food     int `yaml:"food"`
	Prey     int `yaml:"prey"`
	Predator int `yaml:"predator"`
}

func (c Counts) Of(cat mob.Category) int {
	switch cat {
	case mob.Food:
		return c.Food
	case mob.Prey:
		return c.Prey
	case mob.Predator:
		return c.Predator
	}
	return 0
}

type Mobs struct {
	Food     mob.Traits `yaml:"food"`
	Prey     mob.Traits `yaml:"prey"`
	Predator mob.Traits `yaml:"predator"`
}

// Store configures table persistence.
type Store struct {
	AppName   string `yaml:"app_name"`
	PreyTable string `yaml:"prey_table"`
	PredTable string `yaml:"pred_table"`
	Save      bool   `yaml:"save"`
}

func Default() Config {
	return Config{
		Width:    400,
		Height:   400,
		Episodes: 100,
		Frames:   100,
		Show:     100,
		FPS:      30,
		Epsilon:  0.9,
		Decay:    0.9998,
		Learn:    true,
		Counts: Counts{
			Food: 100,
			Prey: 1,
		},
		Mobs: Mobs{
			Food:     mob.FoodTraits(),
			Prey:     mob.PreyTraits(),
			Predator: mob.PredatorTraits(),
		},
		Store: Store{
			AppName: "predprey",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "config: read %s", path)
	}
	if err := Parse(data, &c); err != nil {
		return c, errors.Wrapf(err, "config: %s", path)
	}
	return c, nil
}

func Parse(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "config: parse")
	}
	// the category of a traits block is fixed by where it sits
	c.Mobs.Food.Category = mob.Food
	c.Mobs.Prey.Category = mob.Prey
	c.Mobs.Predator.Category = mob.Predator
	return c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.Errorf("config: world size %vx%v", c.Width, c.Height)
	case c.Episodes < 0 || c.Frames < 0:
		return errors.Errorf("config: episodes=%d frames=%d", c.Episodes, c.Frames)
	case c.Epsilon < 0 || c.Epsilon > 1:
		return errors.Errorf("config: epsilon %v outside [0,1]", c.Epsilon)
	case c.Decay < 0 || c.Decay > 1:
		return errors.Errorf("config: decay %v outside [0,1]", c.Decay)
	}
	for _, cat := range mob.Categories {
		t := c.Traits(cat)
		if t.LearningRate < 0 || t.LearningRate > 1 || t.Discount < 0 || t.Discount > 1 {
			return errors.Errorf("config: %s learning_rate=%v discount=%v", cat, t.LearningRate, t.Discount)
		}
	}
	return nil
}

func (c Config) Traits(cat mob.Category) mob.Traits {
	switch cat {
	case mob.Prey:
		return c.Mobs.Prey
	case mob.Predator:
		return c.Mobs.Predator
	}
	return c.Mobs.Food
}
