package engine

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

type DecisionTag string

const (
	TagCertainSafe     DecisionTag = "certain-safe"
	TagLowProbability  DecisionTag = "low-probability"
	TagStagedHeuristic DecisionTag = "staged-heuristic"
	TagMemoryInformed  DecisionTag = "memory-informed"
	TagRandom          DecisionTag = "random"
)

// Decision is the engine's answer for one turn: any newly proven flags
// to place, then at most one cell to reveal. Cell is nil when no
// hidden cell remains. Rationale is advisory text for observability
// and carries no logic.
type Decision struct {
	Cell      *Position   `json:"cell,omitempty"`
	Tag       DecisionTag `json:"tag"`
	Rationale string      `json:"rationale"`
	Flags     []Position  `json:"flags"`
	FlagMoves []Move      `json:"flag_moves,omitempty"`
}

type gameStage int

const (
	stageOpening gameStage = iota
	stageMidgame
	stageEndgame
)

func (s gameStage) String() string {
	switch s {
	case stageOpening:
		return "opening"
	case stageMidgame:
		return "midgame"
	default:
		return "endgame"
	}
}

const (
	openingRevealedFraction = 0.15
	midgameRevealedFraction = 0.50

	lowProbabilityThreshold = 0.05
	openingProbabilityCeil  = 0.25
	highNumberThreshold     = 4

	// weight of historical memory risk against board probability when
	// ranking otherwise comparable candidates
	riskWeight = 0.35
)

/*
A selection carries everything one turn's choice can draw on. The
strategies below each inspect it and either claim the turn by
returning a decision or pass by returning nil; they are tried strictly
in order.
*/
type selection struct {
	board      *Board
	deductions Deductions
	probs      map[Position]Estimate
	risks      map[Position]float64
	history    []Move
	lastMove   *Position
	recommend  *Position // memory's second-move recommendation, if any
	stage      gameStage
	rnd        *rand.Rand
}

type strategy func(*selection) *Decision

var strategies = []strategy{
	certainSafeStrategy,
	secondMoveStrategy,
	lowProbabilityStrategy,
	stagedStrategy,
	lowestRiskFallback,
	randomFallback,
}

func (sel *selection) choose() Decision {
	for _, strat := range strategies {
		if d := strat(sel); d != nil {
			return *d
		}
	}
	// no hidden cells are left at all
	return Decision{Tag: TagRandom, Rationale: "no hidden cells remain"}
}

// candidates returns the hidden cells that may legally be revealed:
// not proven mines, and not remembered as historical mines while any
// alternative exists.
func (sel *selection) candidates() []Position {
	var out, remembered []Position
	for _, p := range sel.board.Hidden() {
		if _, mined := sel.deductions.Mines[p]; mined {
			continue
		}
		if sel.risks != nil && sel.risks[p] >= 1 {
			remembered = append(remembered, p)
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return remembered
	}
	return out
}

// score is the blended ranking value: board probability shifted by any
// historical risk the memory subsystem reports for the cell.
func (sel *selection) score(p Position) float64 {
	s := sel.probs[p].Probability
	if sel.risks != nil {
		s += riskWeight * sel.risks[p]
	}
	return s
}

func (sel *selection) frontier(p Position) bool {
	for _, n := range p.Neighbors(sel.board.Size) {
		if s := sel.board.At(n); 0 <= s && s <= 8 {
			return true
		}
	}
	return false
}

// nearestToLast orders ties so exploration stays spatially coherent.
func (sel *selection) nearestToLast(cells []Position) Position {
	sortCells(cells)
	if sel.lastMove == nil {
		return cells[0]
	}
	best := cells[0]
	bestDist := best.ManhattanTo(*sel.lastMove)
	for _, p := range cells[1:] {
		if d := p.ManhattanTo(*sel.lastMove); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Layer 1: proven-safe cells, preferring those adjacent to a revealed
// 0 since opening them is guaranteed to propagate.
func certainSafeStrategy(sel *selection) *Decision {
	var all, zeroAdjacent []Position
	for p, why := range sel.deductions.Safe {
		if sel.board.At(p) != Hidden {
			continue
		}
		all = append(all, p)
		if strings.HasPrefix(why, "zero-adjacent") {
			zeroAdjacent = append(zeroAdjacent, p)
		}
	}
	if len(all) == 0 {
		return nil
	}
	pool := all
	if len(zeroAdjacent) > 0 {
		pool = zeroAdjacent
	}
	p := sel.nearestToLast(pool)
	return sel.decide(p, TagCertainSafe, "proven safe: "+sel.deductions.Safe[p])
}

// Layer 1b: a decisively better-performing historical second move
// takes precedence over guessing.
func secondMoveStrategy(sel *selection) *Decision {
	if sel.recommend == nil {
		return nil
	}
	p := *sel.recommend
	if sel.board.At(p) != Hidden {
		return nil
	}
	if _, mined := sel.deductions.Mines[p]; mined {
		return nil
	}
	if sel.risks != nil && sel.risks[p] >= 1 {
		return nil
	}
	return sel.decide(p, TagMemoryInformed, "historical second move with decisive win rate")
}

// Layer 2: a cell that is very nearly safe is worth taking before any
// staged heuristics.
func lowProbabilityStrategy(sel *selection) *Decision {
	var pool []Position
	for _, p := range sel.candidates() {
		if sel.probs[p].Probability < lowProbabilityThreshold {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sortCells(pool)
	best := pool[0]
	for _, p := range pool[1:] {
		if sel.score(p) < sel.score(best) {
			best = p
		}
	}
	// gather exact ties and break by nearness to the last move
	var ties []Position
	for _, p := range pool {
		if sel.score(p) == sel.score(best) {
			ties = append(ties, p)
		}
	}
	p := sel.nearestToLast(ties)
	return sel.decide(p, TagLowProbability, fmt.Sprintf(
		"probability %.3f (%s)", sel.probs[p].Probability, sel.probs[p].Provenance))
}

// Layer 3: stage-aware choice. Opening diversifies away from prior
// moves, midgame works the frontier, endgame takes the global minimum.
func stagedStrategy(sel *selection) *Decision {
	cands := sel.candidates()
	if len(cands) == 0 {
		return nil
	}
	sortCells(cands)

	switch sel.stage {
	case stageOpening:
		var pool []Position
		for _, p := range cands {
			if sel.probs[p].Probability <= openingProbabilityCeil {
				pool = append(pool, p)
			}
		}
		if len(pool) == 0 {
			return nil
		}
		best, bestDist := pool[0], -1
		for _, p := range pool {
			d := sel.distanceFromHistory(p)
			if d > bestDist {
				best, bestDist = p, d
			}
		}
		return sel.decide(best, TagStagedHeuristic, fmt.Sprintf(
			"opening diversification, distance %d from prior moves", bestDist))

	case stageMidgame:
		var frontier, rest []Position
		for _, p := range cands {
			if sel.frontier(p) {
				frontier = append(frontier, p)
			} else {
				rest = append(rest, p)
			}
		}
		pool := frontier
		where := "frontier"
		if len(pool) == 0 {
			pool, where = rest, "non-frontier"
		}
		best := lowestScore(sel, pool)
		return sel.decide(best, TagStagedHeuristic, fmt.Sprintf(
			"midgame %s minimum, probability %.3f", where, sel.probs[best].Probability))

	default:
		best := lowestScore(sel, cands)
		return sel.decide(best, TagStagedHeuristic, fmt.Sprintf(
			"endgame global minimum, probability %.3f", sel.probs[best].Probability))
	}
}

// Layer 4: global minimum, avoiding the neighbourhood of high numbers
// when possible.
func lowestRiskFallback(sel *selection) *Decision {
	cands := sel.candidates()
	if len(cands) == 0 {
		return nil
	}
	sortCells(cands)
	var calm []Position
	for _, p := range cands {
		if !sel.nearHighNumber(p) {
			calm = append(calm, p)
		}
	}
	pool := cands
	if len(calm) > 0 {
		pool = calm
	}
	best := lowestScore(sel, pool)
	return sel.decide(best, TagStagedHeuristic, fmt.Sprintf(
		"fallback global minimum, probability %.3f", sel.probs[best].Probability))
}

func randomFallback(sel *selection) *Decision {
	cands := sel.candidates()
	if len(cands) == 0 {
		return nil
	}
	sortCells(cands)
	p := cands[sel.rnd.IntN(len(cands))]
	return sel.decide(p, TagRandom, "uniform random fallback")
}

func (sel *selection) decide(p Position, tag DecisionTag, rationale string) *Decision {
	return &Decision{
		Cell:      &p,
		Tag:       tag,
		Rationale: fmt.Sprintf("[%s] %s", sel.stage, rationale),
	}
}

func (sel *selection) distanceFromHistory(p Position) int {
	if len(sel.history) == 0 {
		return 0
	}
	nearest := -1
	for _, m := range sel.history {
		d := p.ManhattanTo(m.Position())
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}
	return nearest
}

func (sel *selection) nearHighNumber(p Position) bool {
	for _, n := range p.Neighbors(sel.board.Size) {
		if s := sel.board.At(n); highNumberThreshold <= s && s <= 8 {
			return true
		}
	}
	return false
}

func lowestScore(sel *selection, pool []Position) Position {
	best := pool[0]
	for _, p := range pool[1:] {
		if sel.score(p) < sel.score(best) {
			best = p
		}
	}
	return best
}

func sortCells(cells []Position) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
}

func stageOf(b *Board) gameStage {
	if b.Size.Cells() == 0 {
		return stageOpening
	}
	frac := float64(b.RevealedCount()) / float64(b.Size.Cells())
	switch {
	case frac < openingRevealedFraction:
		return stageOpening
	case frac < midgameRevealedFraction:
		return stageMidgame
	default:
		return stageEndgame
	}
}
