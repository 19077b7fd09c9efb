package engine

import (
	"errors"
	"fmt"
)

// ErrBoardFull is returned when a spawn is requested with no empty cell.
var ErrBoardFull = errors.New("engine: no empty cell to spawn into")

// Source is the random source used for spawn position and value.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// SpawnWeight is the relative chance of spawning Value.
type SpawnWeight struct {
	Value  Cell `yaml:"value"`
	Weight int  `yaml:"weight"`
}

// SpawnWeights is an ordered weighted distribution over low tile values.
type SpawnWeights []SpawnWeight

// DefaultWeights spawns 2 and 4 30% of the time each, 8 the remaining 40%.
func DefaultWeights() SpawnWeights {
	return SpawnWeights{
		{Value: 2, Weight: 30},
		{Value: 4, Weight: 30},
		{Value: 8, Weight: 40},
	}
}

// Validate checks that every entry names a tile value below MaxValue with a
// positive weight.
func (w SpawnWeights) Validate() error {
	if len(w) == 0 {
		return errors.New("engine: spawn weights are empty")
	}
	for _, sw := range w {
		if sw.Value == Empty || !sw.Value.Valid() || sw.Value >= MaxValue {
			return fmt.Errorf("engine: spawn value %d is not a tile value", sw.Value)
		}
		if sw.Weight <= 0 {
			return fmt.Errorf("engine: spawn weight for %d must be positive", sw.Value)
		}
	}
	return nil
}

// total returns the sum of all weights.
func (w SpawnWeights) total() int {
	sum := 0
	for _, sw := range w {
		sum += sw.Weight
	}
	return sum
}

// draw picks a value according to the weights.
func (w SpawnWeights) draw(rng Source) Cell {
	total := w.total()
	if total <= 0 {
		return MinValue
	}

	r := rng.Intn(total)
	for _, sw := range w {
		if r < sw.Weight {
			return sw.Value
		}
		r -= sw.Weight
	}
	return w[len(w)-1].Value
}
