package mob

// Traits is the capability record shared by every mob of a category.
type Traits struct {
	Category Category `yaml:"-" json:"category"`

	Radius float64 `yaml:"radius" json:"radius"`
	Sight  float64 `yaml:"sight" json:"sight"`
	Wander float64 `yaml:"wander" json:"wander"`
	Run    float64 `yaml:"run" json:"run"`

	// Health is the health a mob starts every episode with. It is also the
	// reward for eating the mob and the penalty for being caught.
	Health float64 `yaml:"health" json:"health"`
	// Growth is added to health on every tick of a mob without a table.
	Growth float64 `yaml:"growth" json:"growth"`

	Target Category `yaml:"target" json:"target"`
	Flee   Category `yaml:"flee" json:"flee"`

	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"` // 0: no learning, 1: no memory
	Discount     float64 `yaml:"discount" json:"discount"`           // 0: no time preference

	Slices int `yaml:"slices" json:"slices"`
	Bands  int `yaml:"bands" json:"bands"`
}

// Learns reports whether mobs with these traits carry a Q-table.
func (t Traits) Learns() bool {
	return t.Target != Nobody || t.Flee != Nobody
}

// Margin is the distance a new candidate must win by before a tracked
// target or threat is swapped for it.
func (t Traits) Margin() float64 {
	return t.Wander + t.Run
}

func FoodTraits() Traits {
	return Traits{
		Category: Food,
		Radius:   5,
		Health:   10,
		Growth:   0.1,
		Target:   Nobody,
		Flee:     Nobody,
	}
}

func PreyTraits() Traits {
	return Traits{
		Category:     Prey,
		Radius:       5,
		Sight:        50,
		Wander:       2,
		Run:          6,
		Health:       25,
		Target:       Food,
		Flee:         Predator,
		LearningRate: 0.08,
		Discount:     0.67,
		Slices:       8,
		Bands:        4,
	}
}

func PredatorTraits() Traits {
	return Traits{
		Category:     Predator,
		Radius:       10,
		Sight:        100,
		Wander:       4,
		Run:          10,
		Health:       50,
		Target:       Prey,
		Flee:         Nobody,
		LearningRate: 0.12, // faster learner
		Discount:     0.95, // with better time preference than prey
		Slices:       16,
		Bands:        8,
	}
}

func DefaultTraits(c Category) Traits {
	switch c {
	case Prey:
		return PreyTraits()
	case Predator:
		return PredatorTraits()
	}
	return FoodTraits()
}
