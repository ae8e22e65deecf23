package engine

import (
	"io"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(adviser Adviser) *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, adviser, rand.New(rand.NewPCG(1, 2)))
}

func TestAnalyzeCertainSafe(t *testing.T) {
	in := turnFromRows([]string{
		"01#",
		"02#",
		"01#",
	})
	d := testEngine(nil).Analyze(in)

	require.NotNil(t, d.Cell)
	assert.Equal(t, Position{1, 2}, *d.Cell)
	assert.Equal(t, TagCertainSafe, d.Tag)

	// both proven mines surface as flag actions
	require.Len(t, d.FlagMoves, 2)
	assert.Contains(t, d.Flags, Position{0, 2})
	assert.Contains(t, d.Flags, Position{2, 2})
}

func TestAnalyzePrefersZeroAdjacentSafe(t *testing.T) {
	in := turnFromRows([]string{
		"0####",
		"#####",
		"#####",
	})
	d := testEngine(nil).Analyze(in)

	require.NotNil(t, d.Cell)
	assert.Equal(t, TagCertainSafe, d.Tag)
	assert.True(t, Position{0, 0}.Adjacent(*d.Cell),
		"zero-adjacent cells take precedence, got %s", d.Cell)
}

func TestAnalyzeZeroOpenStandardBoard(t *testing.T) {
	in := TurnInput{Rows: 9, Cols: 9}
	in.Revealed = append(in.Revealed, RevealedCell{Row: 4, Col: 4, Value: "0"})
	in.History = []Move{{Kind: MoveReveal, Row: 4, Col: 4}}

	d := testEngine(nil).Analyze(in)

	require.NotNil(t, d.Cell)
	assert.Equal(t, TagCertainSafe, d.Tag)
	assert.True(t, Position{4, 4}.Adjacent(*d.Cell))
}

func TestAnalyzeKeepsExistingFlags(t *testing.T) {
	in := turnFromRows([]string{
		"1*",
		"##",
	})
	d := testEngine(nil).Analyze(in)

	require.NotNil(t, d.Cell)
	assert.Contains(t, d.Flags, Position{0, 1})
	assert.Empty(t, d.FlagMoves)
}

func TestAnalyzeDegenerateInput(t *testing.T) {
	t.Run("bad size yields no move", func(t *testing.T) {
		d := testEngine(nil).Analyze(TurnInput{Rows: 0, Cols: 0})
		assert.Nil(t, d.Cell)
		assert.Equal(t, TagRandom, d.Tag)
	})

	t.Run("bad cells fall back to random in bounds", func(t *testing.T) {
		in := TurnInput{
			Rows: 4, Cols: 4,
			Revealed: []RevealedCell{{Row: 9, Col: 9, Value: "1"}},
		}
		d := testEngine(nil).Analyze(in)
		require.NotNil(t, d.Cell)
		assert.Equal(t, TagRandom, d.Tag)
		assert.True(t, in.Size().Contains(*d.Cell))
	})
}

func TestAnalyzeNothingHiddenLeft(t *testing.T) {
	d := testEngine(nil).Analyze(turnFromRows([]string{
		"00",
		"00",
	}))
	assert.Nil(t, d.Cell)
}

func TestAnalyzeNeverPicksProvenMine(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 13))
	eng := testEngine(nil)
	for range 50 {
		in, mines := simulatedTurn(r, BoardSize{Rows: 8, Cols: 8}, 10)
		b := BuildBoard(in)
		ded := Deduce(b)
		if ded.Empty() {
			continue
		}
		d := eng.Analyze(in)
		if d.Cell == nil {
			continue
		}
		_, provenMine := ded.Mines[*d.Cell]
		assert.False(t, provenMine, "revealed a proven mine at %s", d.Cell)
		if len(ded.Safe) > 0 {
			assert.False(t, mines[*d.Cell],
				"had proven-safe options but revealed a mine at %s", d.Cell)
		}
	}
}

// stub adviser for the memory-facing strategies
type fixedAdviser struct {
	risky     map[Position]float64
	recommend *Position
}

func (a fixedAdviser) EvaluateCell(p Position, _ BoardSize, _ []Move) Risk {
	if f, ok := a.risky[p]; ok {
		return Risk{Factor: f, Reasoning: "recorded", Confidence: ConfidenceExtreme}
	}
	return Risk{Reasoning: "no history", Confidence: ConfidenceLow}
}

func (a fixedAdviser) RecommendSecondMove(_ Position, _ BoardSize) *Position {
	return a.recommend
}

func TestAnalyzeSecondMoveRecommendation(t *testing.T) {
	in := turnFromRows([]string{
		"#####",
		"#####",
		"##1##",
		"#####",
		"#####",
	})
	in.History = []Move{{Kind: MoveReveal, Row: 2, Col: 2, Result: "1"}}

	rec := Position{0, 0}
	d := testEngine(fixedAdviser{recommend: &rec}).Analyze(in)

	require.NotNil(t, d.Cell)
	assert.Equal(t, rec, *d.Cell)
	assert.Equal(t, TagMemoryInformed, d.Tag)
}

func TestAnalyzeAvoidsRememberedMine(t *testing.T) {
	in := turnFromRows([]string{
		"##",
	})
	risky := Position{0, 0}
	adviser := fixedAdviser{risky: map[Position]float64{risky: 1}}

	for range 10 {
		d := testEngine(adviser).Analyze(in)
		require.NotNil(t, d.Cell)
		assert.Equal(t, Position{0, 1}, *d.Cell,
			"a maximal-risk cell loses to any alternative")
	}
}

func TestStageOf(t *testing.T) {
	tests := []struct {
		name  string
		rows  []string
		stage gameStage
	}{
		{"fresh board", []string{"####", "####"}, stageOpening},
		{"quarter revealed", []string{"00##", "####"}, stageMidgame},
		{"mostly revealed", []string{"0000", "00##"}, stageEndgame},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := BuildBoard(turnFromRows(test.rows))
			assert.Equal(t, test.stage, stageOf(b))
		})
	}
}
