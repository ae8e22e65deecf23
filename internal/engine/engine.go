// Package engine decides the next move of an automated Minesweeper
// player: it models the revealed board as mine-count constraints,
// extracts every provable certainty, estimates risk for the rest and
// picks one cell per turn through a layered policy.
package engine

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Risk is historical per-cell risk reported by an Adviser.
type Risk struct {
	Factor     float64
	Reasoning  string
	Confidence string
}

const (
	ConfidenceExtreme = "extreme"
	ConfidenceHigh    = "high"
	ConfidenceLow     = "low"
)

// Adviser supplies cross-game historical bias, typically the memory
// subsystem. The engine treats it as advice: certainties always win.
type Adviser interface {
	EvaluateCell(pos Position, size BoardSize, history []Move) Risk
	RecommendSecondMove(first Position, size BoardSize) *Position
}

type Engine struct {
	log     *logrus.Logger
	adviser Adviser // nil = pure logic-only mode
	rnd     *rand.Rand
}

func New(log *logrus.Logger, adviser Adviser, rnd *rand.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{log: log, adviser: adviser, rnd: rnd}
}

/*
Analyze runs one full turn: build the model, deduce certainties,
estimate probabilities, blend in historical risk and select a move.
It never fails; under totally corrupt input it degrades to a uniform
random cell, and with no hidden cells left it returns a decision with
a nil Cell.
*/
func (e *Engine) Analyze(in TurnInput) Decision {
	board := BuildBoard(in)

	if board.Degenerate() {
		return e.degenerateFallback(board, in)
	}

	deductions := Deduce(board)
	probs := EstimateProbabilities(board, deductions)

	sel := &selection{
		board:      board,
		deductions: deductions,
		probs:      probs,
		history:    in.History,
		lastMove:   lastRevealPosition(in.History),
		stage:      stageOf(board),
		rnd:        e.rnd,
	}

	if e.adviser != nil {
		sel.risks = make(map[Position]float64, len(board.Hidden()))
		for _, p := range board.Hidden() {
			sel.risks[p] = e.adviser.EvaluateCell(p, board.Size, in.History).Factor
		}
		if first := firstRevealPosition(in.History); first != nil && revealCount(in.History) == 1 {
			sel.recommend = e.adviser.RecommendSecondMove(*first, board.Size)
		}
	}

	decision := sel.choose()
	e.attachFlags(&decision, in, deductions)

	e.log.WithFields(logrus.Fields{
		"cell":      decision.Cell,
		"tag":       decision.Tag,
		"newFlags":  len(decision.FlagMoves),
		"rationale": decision.Rationale,
	}).Debug("turn analyzed")

	return decision
}

// attachFlags emits newly proven mines as flag actions ahead of the
// reveal and extends the caller's flag list with them.
func (e *Engine) attachFlags(d *Decision, in TurnInput, ded Deductions) {
	d.Flags = append(d.Flags, in.Flagged...)

	already := make(map[Position]bool, len(in.Flagged))
	for _, f := range in.Flagged {
		already[f] = true
	}

	mines := positions(ded.Mines)
	sortCells(mines)
	for _, p := range mines {
		if already[p] {
			continue
		}
		d.Flags = append(d.Flags, p)
		d.FlagMoves = append(d.FlagMoves, Move{Kind: MoveFlag, Row: p.Row, Col: p.Col})
	}
}

func (e *Engine) degenerateFallback(board *Board, in TurnInput) Decision {
	d := Decision{
		Tag:       TagRandom,
		Rationale: "malformed board input, uniform random fallback",
		Flags:     in.Flagged,
	}
	if !board.Size.Valid() {
		e.log.Warn("unusable board size, no move possible")
		return d
	}
	p := Position{
		Row: e.rnd.IntN(board.Size.Rows),
		Col: e.rnd.IntN(board.Size.Cols),
	}
	d.Cell = &p
	return d
}

func lastRevealPosition(history []Move) *Position {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Kind == MoveReveal {
			p := history[i].Position()
			return &p
		}
	}
	return nil
}

func firstRevealPosition(history []Move) *Position {
	for _, m := range history {
		if m.Kind == MoveReveal {
			p := m.Position()
			return &p
		}
	}
	return nil
}

func revealCount(history []Move) int {
	n := 0
	for _, m := range history {
		if m.Kind == MoveReveal {
			n++
		}
	}
	return n
}

func positions(m map[Position]string) []Position {
	ps := make([]Position, 0, len(m))
	for p := range m {
		ps = append(ps, p)
	}
	return ps
}
