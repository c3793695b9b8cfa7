package mob

import "fmt"

// Action is one entry of the fixed action space: hold, eight compass moves
// at wander speed, the same eight at run speed, and the random sentinel.
type Action int

const (
	Hold Action = iota
	WanderN
	WanderNE
	WanderE
	WanderSE
	WanderS
	WanderSW
	WanderW
	WanderNW
	RunN
	RunNE
	RunE
	RunSE
	RunS
	RunSW
	RunW
	RunNW
	Random
)

const NumActions = int(Random) + 1

// compass holds the (dx, dy) signs of N, NE, E, SE, S, SW, W, NW in screen
// coordinates.
var compass = [8][2]float64{
	{0, -1},
	{1, -1},
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{-1, -1},
}

var directionNames = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (a Action) Runs() bool {
	return a >= RunN && a <= RunNW
}

// Direction returns the compass signs of a. Hold and Random have none.
func (a Action) Direction() (dx, dy float64) {
	switch {
	case a >= WanderN && a <= WanderNW:
		d := compass[a-WanderN]
		return d[0], d[1]
	case a.Runs():
		d := compass[a-RunN]
		return d[0], d[1]
	}
	return 0, 0
}

func (a Action) String() string {
	switch {
	case a == Hold:
		return "hold"
	case a == Random:
		return "random"
	case a >= WanderN && a <= WanderNW:
		return "wander-" + directionNames[a-WanderN]
	case a.Runs():
		return "run-" + directionNames[a-RunN]
	}
	return fmt.Sprintf("action(%d)", int(a))
}
