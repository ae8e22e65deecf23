package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilityProvenCells(t *testing.T) {
	b := BuildBoard(turnFromRows([]string{
		"3#",
		"##",
	}))
	ded := Deduce(b)
	probs := EstimateProbabilities(b, ded)

	for p := range ded.Mines {
		assert.Equal(t, 1.0, probs[p].Probability)
	}
}

func TestProbabilityZeroAdjacentOverride(t *testing.T) {
	b := BuildBoard(turnFromRows([]string{
		"0#",
		"##",
	}))
	probs := EstimateProbabilities(b, Deductions{})

	// every neighbour of the 0 is exactly zero even without deductions
	for _, p := range []Position{{0, 1}, {1, 0}, {1, 1}} {
		require.Contains(t, probs, p)
		assert.Equal(t, 0.0, probs[p].Probability)
		assert.Equal(t, "zero-adjacent", probs[p].Provenance)
	}
}

func TestProbabilityConstraintPressure(t *testing.T) {
	// cells under a hungry 3 must look far riskier than cells far from
	// any number
	b := BuildBoard(turnFromRows([]string{
		"3#######",
		"########",
		"########",
		"########",
	}))
	probs := EstimateProbabilities(b, Deductions{})

	pressured := probs[Position{1, 1}].Probability
	isolated := probs[Position{3, 7}].Probability
	assert.Greater(t, pressured, isolated)
	assert.Less(t, isolated, basePrior)
}

func TestProbabilityMonotoneInMissing(t *testing.T) {
	// same hidden neighbourhood under a hungrier and hungrier number:
	// no member cell may get safer as the owed mine count rises
	probsFor := func(value string) map[Position]Estimate {
		b := BuildBoard(turnFromRows([]string{
			value + "#",
			"##",
		}))
		return EstimateProbabilities(b, Deduce(b))
	}

	prev := probsFor("1")
	for _, value := range []string{"2", "3"} {
		next := probsFor(value)
		for p, est := range prev {
			require.Contains(t, next, p)
			assert.GreaterOrEqual(t, next[p].Probability, est.Probability,
				"cell %s got safer under a %s", p, value)
		}
		prev = next
	}
}

func TestProbabilityClamped(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 9))
	for range 25 {
		size := BoardSize{Rows: 9, Cols: 9}
		in, _ := simulatedTurn(r, size, 12)
		b := BuildBoard(in)
		probs := EstimateProbabilities(b, Deduce(b))

		for p, est := range probs {
			if est.Probability == 0 || est.Probability == 1 {
				continue // proven or zero-adjacent
			}
			assert.GreaterOrEqual(t, est.Probability, minProbability, "%s", p)
			assert.LessOrEqual(t, est.Probability, maxProbability, "%s", p)
		}
	}
}

func TestGeometricFactor(t *testing.T) {
	size := BoardSize{Rows: 9, Cols: 9}

	corner := geometricFactor(size, Position{0, 0})
	edge := geometricFactor(size, Position{0, 4})
	center := geometricFactor(size, Position{4, 4})

	assert.Less(t, corner, edge)
	assert.Less(t, edge, center)
}
