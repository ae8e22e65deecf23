package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// turnFromRows builds a TurnInput from a character grid: '#' hidden,
// '*' flagged, '0'-'8' revealed numbers, 'M' an exposed mine.
func turnFromRows(rows []string) TurnInput {
	in := TurnInput{Rows: len(rows), Cols: len(rows[0])}
	for r, row := range rows {
		for c, ch := range row {
			switch {
			case ch == '#':
			case ch == '*':
				in.Flagged = append(in.Flagged, Position{r, c})
			default:
				in.Revealed = append(in.Revealed, RevealedCell{
					Row: r, Col: c, Value: string(ch),
				})
			}
		}
	}
	return in
}

func TestBuildBoardConstraints(t *testing.T) {
	b := BuildBoard(turnFromRows([]string{
		"###",
		"#1#",
		"##*",
	}))

	require.False(t, b.Degenerate())
	require.Len(t, b.Constraints, 1)

	c := b.Constraints[0]
	assert.Equal(t, Position{1, 1}, c.Origin)
	assert.Equal(t, 1, c.Value)
	assert.Equal(t, 1, c.FlaggedCount)
	assert.Equal(t, 0, c.Missing)
	assert.Len(t, c.Cells, 7)
	assert.False(t, c.Touches(Position{2, 2}), "flagged cell must not join the neighbour set")

	assert.Len(t, b.Hidden(), 7)
	assert.Equal(t, 1, b.RevealedCount())
}

func TestBuildBoardDegenerate(t *testing.T) {
	tests := []struct {
		name string
		in   TurnInput
	}{
		{name: "zero size", in: TurnInput{Rows: 0, Cols: 9}},
		{name: "negative size", in: TurnInput{Rows: -1, Cols: -1}},
		{
			name: "revealed out of bounds",
			in: TurnInput{
				Rows: 3, Cols: 3,
				Revealed: []RevealedCell{{Row: 5, Col: 5, Value: "1"}},
			},
		},
		{
			name: "flag out of bounds",
			in: TurnInput{
				Rows: 3, Cols: 3,
				Flagged: []Position{{-1, 0}},
			},
		},
		{
			name: "unparsable value",
			in: TurnInput{
				Rows: 3, Cols: 3,
				Revealed: []RevealedCell{{Row: 0, Col: 0, Value: "9"}},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := BuildBoard(test.in)
			assert.True(t, b.Degenerate())
			assert.Empty(t, b.Constraints)
			assert.Empty(t, b.Hidden())
			// must not panic on an inert model
			_ = b.At(Position{0, 0})
			_ = b.String()
		})
	}
}

func TestBuildBoardExposedMine(t *testing.T) {
	for _, value := range []string{"", "M", "m"} {
		in := TurnInput{
			Rows: 2, Cols: 2,
			Revealed: []RevealedCell{{Row: 0, Col: 0, Value: value}},
		}
		b := BuildBoard(in)
		require.False(t, b.Degenerate())
		assert.Equal(t, ExplodedMine, b.At(Position{0, 0}))
		assert.Empty(t, b.Constraints, "an exploded mine declares no constraint")
	}
}

func TestBuildBoardIdempotent(t *testing.T) {
	in := turnFromRows([]string{
		"01#",
		"02#",
		"01*",
	})

	a := BuildBoard(in)
	b := BuildBoard(in)

	assert.Equal(t, a.String(), b.String())
	require.Len(t, b.Constraints, len(a.Constraints))
	for i, c := range a.Constraints {
		assert.Equal(t, c.Missing, b.Constraints[i].Missing)
		assert.ElementsMatch(t, c.Cells, b.Constraints[i].Cells)
	}
	assert.Equal(t, a.Hidden(), b.Hidden())
}

func TestNeighbors(t *testing.T) {
	size := BoardSize{Rows: 5, Cols: 5}

	assert.Len(t, Position{0, 0}.Neighbors(size), 3)
	assert.Len(t, Position{0, 2}.Neighbors(size), 5)
	assert.Len(t, Position{2, 2}.Neighbors(size), 8)

	assert.True(t, Position{1, 1}.Adjacent(Position{2, 2}))
	assert.False(t, Position{1, 1}.Adjacent(Position{1, 1}))
	assert.False(t, Position{1, 1}.Adjacent(Position{3, 1}))
}

func TestCellStateRevealed(t *testing.T) {
	assert.False(t, Hidden.Revealed())
	assert.False(t, Flagged.Revealed())
	assert.True(t, ExplodedMine.Revealed())
	for v := CellState(0); v <= 8; v++ {
		assert.True(t, v.Revealed())
	}
}
