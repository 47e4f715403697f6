// Package ranking scores catches and builds the club leaderboard.
//
// Scores are computed from the persisted catches on every call; nothing is cached.
// Lengths and multipliers are decimal columns with two fractional digits, so the
// arithmetic is done on integer hundredths to keep the truncation exact.
package ranking

import (
	"math"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// hundredths converts a two-decimal value to an integer count of hundredths.
func hundredths(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Points returns the score of a catch: zero when the species is missing or the catch
// is shorter than the species minimum, otherwise length × multiplier truncated
// toward zero.
func Points(c *entities.Catch) int {
	if c == nil || c.Species == nil {
		return 0
	}
	return SpeciesPoints(c.Species, c.LengthCM)
}

// SpeciesPoints scores a length against the rules of species.
func SpeciesPoints(species *entities.Species, lengthCM float64) int {
	if species == nil {
		return 0
	}

	length := hundredths(lengthCM)
	if length <= 0 || length < hundredths(species.MinLengthCM) {
		return 0
	}

	multiplier := hundredths(species.PointsPerCM)
	if multiplier <= 0 {
		return 0
	}

	// length and multiplier are both scaled by 100
	return int(length * multiplier / 10000)
}
