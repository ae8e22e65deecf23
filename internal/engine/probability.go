package engine

import "fmt"

/* ----------------------------------------------------------------------
 * Probability estimator. Runs after the deduction passes and covers
 * every hidden cell they could not classify. The numbers are heuristic
 * risk estimates, not a joint distribution: combining overlapping
 * constraints by taking the maximum deliberately over-states risk
 * rather than under-stating it.
 */

const (
	basePrior = 0.15

	minProbability = 0.01
	maxProbability = 0.99

	// Manhattan distance beyond which a cell counts as isolated
	isolationDistance = 3
)

// neighbourFactor scales a cell's probability by the highest revealed
// number adjacent to it. A revealed 0 is handled separately: it forces
// the probability to exactly 0.
var neighbourFactor = [9]float64{0, 0.9, 1.0, 1.1, 1.25, 1.4, 1.55, 1.7, 1.85}

type Estimate struct {
	Probability float64
	Provenance  string
}

// EstimateProbabilities assigns a mine likelihood to every hidden cell
// the solver left unclassified, and hard 0/1 entries to the cells it
// proved. Probabilities are clamped to [0.01, 0.99] except for proven
// cells and neighbours of a revealed 0.
func EstimateProbabilities(b *Board, ded Deductions) map[Position]Estimate {
	out := make(map[Position]Estimate)
	if b.Degenerate() {
		return out
	}

	for p, why := range ded.Safe {
		out[p] = Estimate{Probability: 0, Provenance: why}
	}
	for p, why := range ded.Mines {
		out[p] = Estimate{Probability: 1, Provenance: why}
	}

	for _, p := range b.Hidden() {
		if _, done := out[p]; done {
			continue
		}
		out[p] = estimateCell(b, p)
	}
	return out
}

func estimateCell(b *Board, p Position) Estimate {
	prob := basePrior
	provenance := "prior"

	touched := 0
	for _, c := range b.Constraints {
		if !c.Feasible() || !c.Touches(p) {
			continue
		}
		touched++
		candidate := float64(c.Missing) / float64(len(c.Cells))
		if candidate > prob {
			prob = candidate
			provenance = fmt.Sprintf("constraint %s %d/%d", c.Origin, c.Missing, len(c.Cells))
		}
	}

	// adjacency: scale by the highest revealed number next to the
	// cell; a neighbouring 0 overrides everything
	best := -1
	for _, n := range p.Neighbors(b.Size) {
		if s := b.At(n); 0 <= s && s <= 8 && int(s) > best {
			best = int(s)
		}
	}
	if best == 0 {
		return Estimate{Probability: 0, Provenance: "zero-adjacent"}
	}
	if best > 0 {
		prob *= neighbourFactor[best]
	}

	if touched == 0 {
		dist := distanceToNearestNumber(b, p)
		prob = basePrior * 0.5
		provenance = "isolated"
		for d := isolationDistance; d < dist; d++ {
			prob *= 0.8
		}
	}

	prob *= geometricFactor(b.Size, p)

	return Estimate{Probability: clamp(prob), Provenance: provenance}
}

func distanceToNearestNumber(b *Board, p Position) int {
	nearest := b.Size.Rows + b.Size.Cols
	for _, c := range b.Constraints {
		if d := p.ManhattanTo(c.Origin); d < nearest {
			nearest = d
		}
	}
	return nearest
}

// geometricFactor encodes positional priors: mines land on edges and
// in corners slightly less often than in the open middle.
func geometricFactor(size BoardSize, p Position) float64 {
	lastRow, lastCol := size.Rows-1, size.Cols-1
	onRowEdge := p.Row == 0 || p.Row == lastRow
	onColEdge := p.Col == 0 || p.Col == lastCol
	switch {
	case onRowEdge && onColEdge:
		return 0.9
	case onRowEdge || onColEdge:
		return 0.95
	}
	third, thirdC := size.Rows/3, size.Cols/3
	if p.Row >= third && p.Row <= lastRow-third &&
		p.Col >= thirdC && p.Col <= lastCol-thirdC {
		return 1.05
	}
	return 1.0
}

func clamp(p float64) float64 {
	if p < minProbability {
		return minProbability
	}
	if p > maxProbability {
		return maxProbability
	}
	return p
}
