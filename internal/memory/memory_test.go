package memory

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minepilot/minepilot/internal/engine"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testMemory(t *testing.T) *Memory {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	return Load(context.Background(), testLogger(), store)
}

func TestNormalizeKey(t *testing.T) {
	size := engine.BoardSize{Rows: 10, Cols: 10}

	assert.Equal(t, "0.0:0.0", NormalizeKey(engine.Position{Row: 0, Col: 0}, size))
	assert.Equal(t, "0.5:0.5", NormalizeKey(engine.Position{Row: 5, Col: 5}, size))
	assert.Equal(t, "0.9:0.2", NormalizeKey(engine.Position{Row: 9, Col: 2}, size))
}

func TestDenormalize(t *testing.T) {
	size := engine.BoardSize{Rows: 10, Cols: 10}

	p, err := Denormalize("0.5:0.5", size)
	require.NoError(t, err)
	assert.Equal(t, engine.Position{Row: 5, Col: 5}, p)

	// clamped onto the board
	p, err = Denormalize("1.0:1.0", size)
	require.NoError(t, err)
	assert.Equal(t, engine.Position{Row: 9, Col: 9}, p)

	_, err = Denormalize("garbage", size)
	assert.Error(t, err)
}

func TestExactMineIsMaximalRisk(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 10, Cols: 10}
	pos := engine.Position{Row: 3, Col: 4}

	m.RecordMineFound(ctx, pos, size)

	risk := m.EvaluateCell(pos, size, nil)
	assert.Equal(t, 1.0, risk.Factor)
	assert.Equal(t, engine.ConfidenceExtreme, risk.Confidence)
}

func TestHeatMapCarriesAcrossSizes(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)

	// (5,5) on 10x10 and (4,4) on 8x8 normalise to the same key
	m.RecordMineFound(ctx, engine.Position{Row: 5, Col: 5}, engine.BoardSize{Rows: 10, Cols: 10})

	risk := m.EvaluateCell(engine.Position{Row: 4, Col: 4}, engine.BoardSize{Rows: 8, Cols: 8}, nil)
	assert.Equal(t, 1.0, risk.Factor)
	assert.Equal(t, engine.ConfidenceExtreme, risk.Confidence)
}

func TestUnknownCellIsLowConfidence(t *testing.T) {
	m := testMemory(t)
	risk := m.EvaluateCell(engine.Position{Row: 0, Col: 0}, engine.BoardSize{Rows: 9, Cols: 9}, nil)
	assert.Equal(t, 0.0, risk.Factor)
	assert.Equal(t, engine.ConfidenceLow, risk.Confidence)
}

func TestLosingOpeningRaisesRisk(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 10, Cols: 10}
	opening := engine.Position{Row: 2, Col: 2}
	history := []engine.Move{{Kind: engine.MoveReveal, Row: 2, Col: 2}}

	for range 3 {
		m.RecordLossSequence(ctx, history, size)
	}

	risk := m.EvaluateCell(opening, size, nil)
	assert.Greater(t, risk.Factor, 0.0)
	assert.Less(t, risk.Factor, 1.0)
	assert.Equal(t, engine.ConfidenceHigh, risk.Confidence)
}

func TestRecordSequenceAggregates(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 9, Cols: 9}
	history := []engine.Move{
		{Kind: engine.MoveReveal, Row: 1, Col: 1},
		{Kind: engine.MoveFlag, Row: 0, Col: 0}, // flags never join the sequence
		{Kind: engine.MoveReveal, Row: 5, Col: 5},
	}

	m.RecordWinSequence(ctx, history, size)
	m.RecordLossSequence(ctx, history, size)

	stats := m.Stats()
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 4, stats.TotalMoves)
}

func TestRecommendSecondMove(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 10, Cols: 10}
	first := engine.Position{Row: 0, Col: 0}

	winning := []engine.Move{
		{Kind: engine.MoveReveal, Row: 0, Col: 0},
		{Kind: engine.MoveReveal, Row: 5, Col: 5},
	}
	losing := []engine.Move{
		{Kind: engine.MoveReveal, Row: 0, Col: 0},
		{Kind: engine.MoveReveal, Row: 9, Col: 9},
	}

	for range 3 {
		m.RecordWinSequence(ctx, winning, size)
	}
	m.RecordLossSequence(ctx, losing, size)

	rec := m.RecommendSecondMove(first, size)
	require.NotNil(t, rec)
	assert.Equal(t, engine.Position{Row: 5, Col: 5}, *rec)
}

func TestRecommendSecondMoveNeedsSamples(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 10, Cols: 10}

	winning := []engine.Move{
		{Kind: engine.MoveReveal, Row: 0, Col: 0},
		{Kind: engine.MoveReveal, Row: 5, Col: 5},
	}
	m.RecordWinSequence(ctx, winning, size)

	assert.Nil(t, m.RecommendSecondMove(engine.Position{Row: 0, Col: 0}, size),
		"a single sample is not decisive")
}

func TestMemoryPersistsAcrossLoads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.json")
	size := engine.BoardSize{Rows: 10, Cols: 10}

	first := Load(ctx, testLogger(), NewFileStore(path))
	first.RecordMineFound(ctx, engine.Position{Row: 3, Col: 3}, size)

	second := Load(ctx, testLogger(), NewFileStore(path))
	risk := second.EvaluateCell(engine.Position{Row: 3, Col: 3}, size, nil)
	assert.Equal(t, 1.0, risk.Factor)
	assert.Equal(t, 1, second.Stats().MinesHit)
}

func TestMineLogBounded(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)
	size := engine.BoardSize{Rows: 50, Cols: 50}

	for row := range 25 {
		for col := range 10 {
			m.RecordMineFound(ctx, engine.Position{Row: row, Col: col}, size)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Len(t, m.data.MineLog, mineLogCap)
}

func TestStatsForSize(t *testing.T) {
	ctx := context.Background()
	m := testMemory(t)

	m.RecordMineFound(ctx, engine.Position{Row: 1, Col: 1}, engine.BoardSize{Rows: 9, Cols: 9})
	m.RecordMineFound(ctx, engine.Position{Row: 1, Col: 1}, engine.BoardSize{Rows: 16, Cols: 16})

	stats := m.StatsForSize(engine.BoardSize{Rows: 9, Cols: 9})
	assert.Equal(t, 1, stats.KnownMines)
}
