package mob

import (
	"strings"

	"github.com/pkg/errors"
)

type Category int

const (
	Food Category = iota
	Prey
	Predator
)

// Nobody is the category of an undeclared target or flee relation.
const Nobody Category = -1

// Categories is the fixed iteration order of a tick.
var Categories = []Category{Food, Prey, Predator}

var ErrUnknownCategory = errors.New("mob: unknown category")

func (c Category) String() string {
	switch c {
	case Food:
		return "Food"
	case Prey:
		return "Prey"
	case Predator:
		return "Predator"
	case Nobody:
		return "None"
	default:
		return "?"
	}
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "food":
		return Food, nil
	case "prey":
		return Prey, nil
	case "predator", "pred":
		return Predator, nil
	case "", "none", "nobody":
		return Nobody, nil
	}
	return Nobody, errors.Wrapf(ErrUnknownCategory, "%q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(c.String())), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
