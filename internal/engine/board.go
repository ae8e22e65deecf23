package engine

import (
	"strconv"
	"strings"
)

type CellState int8

const (
	Hidden  CellState = -2
	Flagged CellState = -1
	// 0-8 for revealed cells with the given number of mined neighbours
	ExplodedMine CellState = 65
)

func (s CellState) String() string {
	switch {
	case s == Hidden:
		return " "
	case s == Flagged:
		return "*"
	case s == ExplodedMine:
		return "M"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

// Revealed reports whether the cell has been opened, including a cell
// that was opened onto a mine.
func (s CellState) Revealed() bool {
	return (0 <= s && s <= 8) || s == ExplodedMine
}

type BoardSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s BoardSize) Valid() bool {
	return s.Rows > 0 && s.Cols > 0
}

func (s BoardSize) Contains(p Position) bool {
	return 0 <= p.Row && p.Row < s.Rows && 0 <= p.Col && p.Col < s.Cols
}

func (s BoardSize) Cells() int {
	return s.Rows * s.Cols
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return strconv.Itoa(p.Row) + ":" + strconv.Itoa(p.Col)
}

func (p Position) ManhattanTo(q Position) int {
	return absDiff(p.Row, q.Row) + absDiff(p.Col, q.Col)
}

// Adjacent reports whether q is one of p's up-to-8 neighbours.
func (p Position) Adjacent(q Position) bool {
	return p != q && absDiff(p.Row, q.Row) <= 1 && absDiff(p.Col, q.Col) <= 1
}

func (p Position) Neighbors(size BoardSize) []Position {
	ns := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Position{p.Row + dr, p.Col + dc}
			if size.Contains(n) {
				ns = append(ns, n)
			}
		}
	}
	return ns
}

type RevealedCell struct {
	Row int `json:"row"`
	Col int `json:"col"`
	// "0".."8" for an opened number, "" or "M" for an exposed mine
	Value string `json:"value"`
}

type MoveKind string

const (
	MoveReveal MoveKind = "reveal"
	MoveFlag   MoveKind = "flag"
)

type Move struct {
	Kind   MoveKind `json:"kind"`
	Row    int      `json:"row"`
	Col    int      `json:"col"`
	Result string   `json:"result,omitempty"`
}

func (m Move) Position() Position {
	return Position{m.Row, m.Col}
}

// TurnInput is the caller-supplied snapshot of one turn. The engine
// never mutates it and rebuilds its model from scratch every turn.
type TurnInput struct {
	Rows     int            `json:"rows"`
	Cols     int            `json:"cols"`
	Revealed []RevealedCell `json:"revealed"`
	Flagged  []Position     `json:"flagged"`
	History  []Move         `json:"history,omitempty"`
}

func (in TurnInput) Size() BoardSize {
	return BoardSize{Rows: in.Rows, Cols: in.Cols}
}

/*
A Constraint is the mine-count relationship declared by one revealed
numbered cell: its still-hidden unflagged neighbours must contain
exactly Missing mines, where Missing is the declared value minus the
neighbours already flagged.
*/
type Constraint struct {
	Origin       Position
	Value        int
	Cells        []Position // hidden, unflagged neighbours
	FlaggedCount int
	Missing      int
}

// Feasible reports whether the declared counts can still be satisfied.
// An infeasible constraint marks an internally inconsistent board; it
// is kept in the model so validation can see it, but no deduction may
// rely on it.
func (c *Constraint) Feasible() bool {
	return c.Missing >= 0 && c.Missing <= len(c.Cells)
}

func (c *Constraint) Touches(p Position) bool {
	for _, q := range c.Cells {
		if q == p {
			return true
		}
	}
	return false
}

type Board struct {
	Size        BoardSize
	Constraints []*Constraint

	grid       []CellState // row-major, len Rows*Cols
	hidden     []Position  // hidden and unflagged, row-major order
	degenerate bool
}

// Degenerate reports whether the board was built from unusable input
// and holds no information. Callers should fall back to a uniform
// random choice; Size is still set when at least the dimensions were
// usable.
func (b *Board) Degenerate() bool {
	return b.degenerate
}

func (b *Board) At(p Position) CellState {
	if b.grid == nil || !b.Size.Contains(p) {
		return Hidden
	}
	return b.grid[p.Row*b.Size.Cols+p.Col]
}

// Hidden returns the cells that are neither revealed nor flagged, in
// row-major order.
func (b *Board) Hidden() []Position {
	return b.hidden
}

func (b *Board) RevealedCount() int {
	n := 0
	for _, s := range b.grid {
		if s.Revealed() {
			n++
		}
	}
	return n
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := range b.Size.Rows {
		for c := range b.Size.Cols {
			sb.WriteString(b.At(Position{r, c}).String() + " ")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func parseCellValue(s string) (CellState, bool) {
	switch s {
	case "", "M", "m":
		return ExplodedMine, true
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 8 {
			return Hidden, false
		}
		return CellState(n), true
	}
}

/*
BuildBoard converts a turn snapshot into the internal model: a status
grid plus one Constraint per revealed numbered cell (including zeros).
Revealed, flagged and out-of-bounds cells never appear in a
constraint's neighbour set.

Malformed input (non-positive size, out-of-bounds or unparsable cells)
yields an inert model with no constraints and no hidden cells rather
than an error; see [Board.Degenerate].
*/
func BuildBoard(in TurnInput) *Board {
	size := in.Size()
	if !size.Valid() {
		return &Board{degenerate: true}
	}

	grid := make([]CellState, size.Cells())
	for i := range grid {
		grid[i] = Hidden
	}

	b := &Board{Size: size, grid: grid}

	for _, f := range in.Flagged {
		if !size.Contains(f) {
			return &Board{Size: size, degenerate: true}
		}
		grid[f.Row*size.Cols+f.Col] = Flagged
	}

	for _, rc := range in.Revealed {
		p := Position{rc.Row, rc.Col}
		if !size.Contains(p) {
			return &Board{Size: size, degenerate: true}
		}
		v, ok := parseCellValue(rc.Value)
		if !ok {
			return &Board{Size: size, degenerate: true}
		}
		// revealed state wins over a (contradictory) flag
		grid[p.Row*size.Cols+p.Col] = v
	}

	for r := range size.Rows {
		for c := range size.Cols {
			p := Position{r, c}
			switch s := b.At(p); {
			case s == Hidden:
				b.hidden = append(b.hidden, p)
			case 0 <= s && s <= 8:
				b.Constraints = append(b.Constraints, buildConstraint(b, p, int(s)))
			}
		}
	}

	return b
}

func buildConstraint(b *Board, origin Position, value int) *Constraint {
	c := &Constraint{Origin: origin, Value: value}
	for _, n := range origin.Neighbors(b.Size) {
		switch b.At(n) {
		case Hidden:
			c.Cells = append(c.Cells, n)
		case Flagged:
			c.FlaggedCount++
		}
	}
	c.Missing = value - c.FlaggedCount
	return c
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
