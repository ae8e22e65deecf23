package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/engine"
	"github.com/minepilot/minepilot/internal/memory"
	"github.com/minepilot/minepilot/internal/repository"
)

type Analyze struct {
	log  *logrus.Logger
	pool *memory.Pool
	repo *repository.Queries // nil when postgres is not configured
}

func NewAnalyze(log *logrus.Logger, pool *memory.Pool, repo *repository.Queries) *Analyze {
	return &Analyze{log: log, pool: pool, repo: repo}
}

var ErrBadTurnBody = fmt.Errorf("request body must be a JSON turn snapshot")

func (h Analyze) Turn(w http.ResponseWriter, r *http.Request) {
	var in engine.TurnInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, h.log, wrapError(ErrBadTurnBody))
		return
	}

	owner := ownerID(r)
	mem := h.pool.Get(r.Context(), owner)
	decision := engine.New(h.log, mem, nil).Analyze(in)

	h.logDecision(r, owner, in, decision)
	sendJSONOrLog(w, h.log, decision)
}

// logDecision is best effort: an audit row never fails the request.
func (h Analyze) logDecision(
	r *http.Request, owner string, in engine.TurnInput, decision engine.Decision,
) {
	if h.repo == nil {
		return
	}
	params := repository.InsertDecisionParams{
		Owner:     owner,
		BoardRows: in.Rows,
		BoardCols: in.Cols,
		Tag:       string(decision.Tag),
		Rationale: decision.Rationale,
	}
	if decision.Cell != nil {
		params.CellRow = &decision.Cell.Row
		params.CellCol = &decision.Cell.Col
	}
	if err := h.repo.InsertDecision(r.Context(), params); err != nil {
		h.log.WithError(err).Warn("unable to record decision")
	}
}
