package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/engine"
	"github.com/minepilot/minepilot/internal/memory"
)

type Memory struct {
	log  *logrus.Logger
	pool *memory.Pool
}

func NewMemory(log *logrus.Logger, pool *memory.Pool) *Memory {
	return &Memory{log: log, pool: pool}
}

type StatsQueryDTO struct {
	Rows int `schema:"rows"`
	Cols int `schema:"cols"`
}

func ParseStatsQueryDTO(src map[string][]string) (StatsQueryDTO, error) {
	var dto StatsQueryDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

type StatsDTO struct {
	Aggregates memory.Aggregates `json:"aggregates"`
	Size       *memory.SizeStats `json:"size,omitempty"`
}

func (h Memory) Stats(w http.ResponseWriter, r *http.Request) {
	query, err := ParseStatsQueryDTO(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(err))
		return
	}

	mem := h.pool.Get(r.Context(), ownerID(r))
	dto := StatsDTO{Aggregates: mem.Stats()}
	if query.Rows > 0 && query.Cols > 0 {
		size := mem.StatsForSize(engine.BoardSize{Rows: query.Rows, Cols: query.Cols})
		dto.Size = &size
	}

	sendJSONOrLog(w, h.log, dto)
}

type OutcomeDTO struct {
	Rows    int              `json:"rows"`
	Cols    int              `json:"cols"`
	Won     bool             `json:"won"`
	History []engine.Move    `json:"history"`
	Mine    *engine.Position `json:"mine,omitempty"`
}

var ErrBadOutcomeBody = fmt.Errorf("request body must be a JSON game outcome")

func (h Memory) Outcome(w http.ResponseWriter, r *http.Request) {
	var dto OutcomeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(ErrBadOutcomeBody))
		return
	}

	size := engine.BoardSize{Rows: dto.Rows, Cols: dto.Cols}
	if !size.Valid() {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(fmt.Errorf("invalid board size %dx%d", dto.Rows, dto.Cols)))
		return
	}

	ctx := r.Context()
	mem := h.pool.Get(ctx, ownerID(r))
	if dto.Won {
		mem.RecordWinSequence(ctx, dto.History, size)
	} else {
		if dto.Mine != nil {
			mem.RecordMineFound(ctx, *dto.Mine, size)
		}
		mem.RecordLossSequence(ctx, dto.History, size)
	}

	sendJSONOrLog(w, h.log, mem.Stats())
}
