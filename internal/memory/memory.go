// Package memory keeps a persistent, cross-game record of where mines
// turned out to be and which openings won or lost, normalised so that
// knowledge transfers between board sizes. It biases the engine's
// guesses; it never overrides board logic.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/engine"
)

const (
	mineLogCap        = 200
	losingSequenceCap = 50

	// minimum samples before an outcome table entry is trusted
	minOutcomeSamples = 3

	// win-rate margin a recorded second move needs over the runner-up
	// to be recommended outright
	decisiveMargin = 0.2
)

type Outcome struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

func (o Outcome) Total() int {
	return o.Wins + o.Losses
}

func (o Outcome) WinRate() float64 {
	if o.Total() == 0 {
		return 0
	}
	return float64(o.Wins) / float64(o.Total())
}

func (o Outcome) LossRate() float64 {
	if o.Total() == 0 {
		return 0
	}
	return float64(o.Losses) / float64(o.Total())
}

// ExactMine is one recorded mine hit at exact coordinates on a
// concrete board size.
type ExactMine struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

type Aggregates struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	MinesHit    int `json:"mines_hit"`
	TotalMoves  int `json:"total_moves"`
}

// Data is the persisted document, read and written wholesale.
type Data struct {
	HeatMap         map[string]int      `json:"heat_map"`
	MineLog         []ExactMine         `json:"mine_log"`
	OpeningMoves    map[string]*Outcome `json:"opening_moves"`
	SecondMoves     map[string]*Outcome `json:"second_moves"`
	LosingSequences [][]string          `json:"losing_sequences"`
	Aggregates      Aggregates          `json:"aggregates"`
}

func NewData() *Data {
	return &Data{
		HeatMap:      make(map[string]int),
		OpeningMoves: make(map[string]*Outcome),
		SecondMoves:  make(map[string]*Outcome),
	}
}

// Memory wraps the persisted document with its store. Safe for
// concurrent use; every mutation is persisted before the lock is
// released.
type Memory struct {
	log   *logrus.Logger
	store Store

	mu   sync.Mutex
	data *Data
}

// Load reads the persisted document through store, starting empty when
// nothing is persisted yet or the store is unreadable. A failed load
// is logged, never fatal: the engine must work in logic-only mode.
func Load(ctx context.Context, log *logrus.Logger, store Store) *Memory {
	m := &Memory{log: log, store: store, data: NewData()}
	data, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug("no persisted memory, starting empty")
	case err != nil:
		log.WithError(err).Warn("unable to load memory, starting empty")
	default:
		m.data = normalized(data)
	}
	return m
}

// normalized backfills maps that may be nil after decoding an older
// or partial document.
func normalized(d *Data) *Data {
	if d.HeatMap == nil {
		d.HeatMap = make(map[string]int)
	}
	if d.OpeningMoves == nil {
		d.OpeningMoves = make(map[string]*Outcome)
	}
	if d.SecondMoves == nil {
		d.SecondMoves = make(map[string]*Outcome)
	}
	return d
}

// NormalizeKey encodes a position relative to the board size,
// discretised to one decimal, so observations generalise across
// differently sized boards.
func NormalizeKey(p engine.Position, size engine.BoardSize) string {
	return fmt.Sprintf("%.1f:%.1f",
		float64(p.Row)/float64(size.Rows),
		float64(p.Col)/float64(size.Cols))
}

// Denormalize maps a normalised key back onto a concrete board size.
func Denormalize(key string, size engine.BoardSize) (engine.Position, error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("malformed normalized key %q", key)
	}
	r, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return engine.Position{}, fmt.Errorf("malformed normalized key %q: %w", key, err)
	}
	c, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return engine.Position{}, fmt.Errorf("malformed normalized key %q: %w", key, err)
	}
	p := engine.Position{
		Row: int(r * float64(size.Rows)),
		Col: int(c * float64(size.Cols)),
	}
	if p.Row >= size.Rows {
		p.Row = size.Rows - 1
	}
	if p.Col >= size.Cols {
		p.Col = size.Cols - 1
	}
	return p, nil
}

// RecordMineFound logs a mine hit at pos, both exactly and on the
// normalised heat-map, and persists.
func (m *Memory) RecordMineFound(ctx context.Context, pos engine.Position, size engine.BoardSize) {
	if !size.Valid() || !size.Contains(pos) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.HeatMap[NormalizeKey(pos, size)]++
	m.data.MineLog = append(m.data.MineLog, ExactMine{
		Rows: size.Rows, Cols: size.Cols, Row: pos.Row, Col: pos.Col,
	})
	if n := len(m.data.MineLog); n > mineLogCap {
		m.data.MineLog = m.data.MineLog[n-mineLogCap:]
	}
	m.data.Aggregates.MinesHit++

	m.persist(ctx)
}

// RecordLossSequence records a finished, lost game: the normalised
// chain of reveal moves, the opening/second-move outcome tables and
// the aggregates, then persists.
func (m *Memory) RecordLossSequence(ctx context.Context, history []engine.Move, size engine.BoardSize) {
	m.recordSequence(ctx, history, size, false)
}

// RecordWinSequence is the winning counterpart of RecordLossSequence.
func (m *Memory) RecordWinSequence(ctx context.Context, history []engine.Move, size engine.BoardSize) {
	m.recordSequence(ctx, history, size, true)
}

func (m *Memory) recordSequence(ctx context.Context, history []engine.Move, size engine.BoardSize, won bool) {
	if !size.Valid() {
		return
	}
	seq := normalizeSequence(history, size)
	if len(seq) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	update := func(table map[string]*Outcome, key string) {
		o, ok := table[key]
		if !ok {
			o = &Outcome{}
			table[key] = o
		}
		if won {
			o.Wins++
		} else {
			o.Losses++
		}
	}

	update(m.data.OpeningMoves, seq[0])
	if len(seq) > 1 {
		update(m.data.SecondMoves, seq[0]+"|"+seq[1])
	}

	if !won {
		m.data.LosingSequences = append(m.data.LosingSequences, seq)
		if n := len(m.data.LosingSequences); n > losingSequenceCap {
			m.data.LosingSequences = m.data.LosingSequences[n-losingSequenceCap:]
		}
	}

	m.data.Aggregates.GamesPlayed++
	if won {
		m.data.Aggregates.Wins++
	} else {
		m.data.Aggregates.Losses++
	}
	m.data.Aggregates.TotalMoves += len(seq)

	m.persist(ctx)
}

func normalizeSequence(history []engine.Move, size engine.BoardSize) []string {
	var seq []string
	for _, mv := range history {
		if mv.Kind != engine.MoveReveal {
			continue
		}
		p := mv.Position()
		if !size.Contains(p) {
			continue
		}
		seq = append(seq, NormalizeKey(p, size))
	}
	return seq
}

// EvaluateCell scores the historical risk of revealing pos. A cell
// matching a recorded mine, exactly or by normalised key, is maximal
// risk with extreme confidence and outranks every other signal.
func (m *Memory) EvaluateCell(pos engine.Position, size engine.BoardSize, history []engine.Move) engine.Risk {
	if !size.Valid() || !size.Contains(pos) {
		return engine.Risk{Factor: 0, Reasoning: "out of bounds", Confidence: engine.ConfidenceLow}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := NormalizeKey(pos, size)

	for _, mine := range m.data.MineLog {
		if mine.Rows == size.Rows && mine.Cols == size.Cols &&
			mine.Row == pos.Row && mine.Col == pos.Col {
			return engine.Risk{
				Factor:     1,
				Reasoning:  "exact recorded mine at " + pos.String(),
				Confidence: engine.ConfidenceExtreme,
			}
		}
	}
	if m.data.HeatMap[key] > 0 {
		return engine.Risk{
			Factor:     1,
			Reasoning:  "recorded mine at normalized " + key,
			Confidence: engine.ConfidenceExtreme,
		}
	}

	var (
		factor  float64
		reasons []string
	)

	nearby := 0
	for _, mine := range m.data.MineLog {
		if mine.Rows != size.Rows || mine.Cols != size.Cols {
			continue
		}
		if pos.ManhattanTo(engine.Position{Row: mine.Row, Col: mine.Col}) <= 2 {
			nearby++
		}
	}
	if nearby > 0 {
		factor += min(0.3, 0.1*float64(nearby))
		reasons = append(reasons, fmt.Sprintf("%d mines recorded nearby", nearby))
	}

	if games := m.data.Aggregates.GamesPlayed; games > 0 {
		heat := 0
		for hk, count := range m.data.HeatMap {
			if near, err := Denormalize(hk, size); err == nil &&
				pos.ManhattanTo(near) <= 2 {
				heat += count
			}
		}
		if heat > 0 {
			factor += min(0.25, float64(heat)/float64(games)*0.25)
			reasons = append(reasons, "historically warm region")
		}
	}

	if len(history) == 0 {
		if o, ok := m.data.OpeningMoves[key]; ok &&
			o.Total() >= minOutcomeSamples && o.LossRate() > 0.6 {
			factor += 0.2
			reasons = append(reasons, fmt.Sprintf(
				"opening loses %.0f%% of the time", o.LossRate()*100))
		}
	}

	if seq := normalizeSequence(history, size); len(seq) == 1 {
		if o, ok := m.data.SecondMoves[seq[0]+"|"+key]; ok &&
			o.Total() >= minOutcomeSamples && o.LossRate() > 0.6 {
			factor += 0.2
			reasons = append(reasons, fmt.Sprintf(
				"second move loses %.0f%% of the time", o.LossRate()*100))
		}
	}

	if m.overlapsLosingSequence(history, key, size) {
		factor += 0.15
		reasons = append(reasons, "continues a recorded losing sequence")
	}

	if len(reasons) == 0 {
		return engine.Risk{Factor: 0, Reasoning: "no history for this cell", Confidence: engine.ConfidenceLow}
	}
	return engine.Risk{
		Factor:     min(1, factor),
		Reasoning:  strings.Join(reasons, "; "),
		Confidence: engine.ConfidenceHigh,
	}
}

// overlapsLosingSequence reports whether playing key after history
// would reproduce a prefix of a recorded losing sequence.
func (m *Memory) overlapsLosingSequence(history []engine.Move, key string, size engine.BoardSize) bool {
	prefix := append(normalizeSequence(history, size), key)
	for _, seq := range m.data.LosingSequences {
		if len(seq) < len(prefix) {
			continue
		}
		match := true
		for i, k := range prefix {
			if seq[i] != k {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// RecommendSecondMove returns the historically best second move after
// first, denormalised onto the current board, but only when its win
// rate is decisively ahead of the alternatives. A nil result defers to
// the regular analysis path.
func (m *Memory) RecommendSecondMove(first engine.Position, size engine.BoardSize) *engine.Position {
	if !size.Valid() || !size.Contains(first) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := NormalizeKey(first, size) + "|"

	type ranked struct {
		key     string
		outcome *Outcome
	}
	var all []ranked
	for k, o := range m.data.SecondMoves {
		if strings.HasPrefix(k, prefix) {
			all = append(all, ranked{strings.TrimPrefix(k, prefix), o})
		}
	}
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].outcome.WinRate() != all[j].outcome.WinRate() {
			return all[i].outcome.WinRate() > all[j].outcome.WinRate()
		}
		return all[i].outcome.Total() > all[j].outcome.Total()
	})

	best := all[0]
	if best.outcome.Total() < minOutcomeSamples || best.outcome.WinRate() < 0.5 {
		return nil
	}
	if len(all) > 1 && best.outcome.WinRate()-all[1].outcome.WinRate() < decisiveMargin {
		return nil
	}

	p, err := Denormalize(best.key, size)
	if err != nil {
		m.log.WithError(err).Warn("corrupt second-move key in memory")
		return nil
	}
	return &p
}

// Stats returns a copy of the aggregate counters.
func (m *Memory) Stats() Aggregates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Aggregates
}

// SizeStats is a per-board-size view over the shared document.
type SizeStats struct {
	Rows            int `json:"rows"`
	Cols            int `json:"cols"`
	KnownMines      int `json:"known_mines"`
	OpeningsTracked int `json:"openings_tracked"`
}

func (m *Memory) StatsForSize(size engine.BoardSize) SizeStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := SizeStats{Rows: size.Rows, Cols: size.Cols}
	for _, mine := range m.data.MineLog {
		if mine.Rows == size.Rows && mine.Cols == size.Cols {
			stats.KnownMines++
		}
	}
	stats.OpeningsTracked = len(m.data.OpeningMoves)
	return stats
}

// persist writes the whole document through the store. Must be called
// with the lock held. Persistence failures are logged and swallowed:
// the in-process memory stays usable either way.
func (m *Memory) persist(ctx context.Context) {
	if err := m.store.Save(ctx, m.data); err != nil {
		m.log.WithError(err).Warn("unable to persist memory")
	}
}
