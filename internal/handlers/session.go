package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/config"
	"github.com/minepilot/minepilot/internal/engine"
	"github.com/minepilot/minepilot/internal/memory"
)

// Session drives a long-lived advisory loop: the client streams turn
// snapshots, the server answers each with a decision, and an optional
// final outcome message feeds the memory before the socket closes.
type Session struct {
	log  *logrus.Logger
	pool *memory.Pool
	ws   *config.WebSocket
}

func NewSession(log *logrus.Logger, pool *memory.Pool, ws *config.WebSocket) *Session {
	return &Session{log: log, pool: pool, ws: ws}
}

type sessionMessage struct {
	Turn    *engine.TurnInput `json:"turn,omitempty"`
	Outcome *OutcomeDTO       `json:"outcome,omitempty"`
}

func (h Session) Connect(w http.ResponseWriter, r *http.Request) {
	c, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("unable to upgrade connection")
		return
	}
	defer c.Close()

	// One memory document and one engine per connection.
	mem := h.pool.Get(r.Context(), ownerID(r))
	eng := engine.New(h.log, mem, nil)

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Warn("unable to read session message")
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}

		var msg sessionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			if err := c.WriteJSON(wrapError(ErrBadTurnBody)); err != nil {
				h.log.WithError(err).Error("unable to write session error")
				break
			}
			continue
		}

		switch {
		case msg.Turn != nil:
			decision := eng.Analyze(*msg.Turn)
			if err := c.WriteJSON(decision); err != nil {
				h.log.WithError(err).Error("unable to write decision")
				return
			}
		case msg.Outcome != nil:
			h.recordOutcome(r, mem, *msg.Outcome)
			if err := c.WriteJSON(mem.Stats()); err != nil {
				h.log.WithError(err).Error("unable to write stats")
				return
			}
		}
	}
}

func (h Session) recordOutcome(r *http.Request, mem *memory.Memory, dto OutcomeDTO) {
	size := engine.BoardSize{Rows: dto.Rows, Cols: dto.Cols}
	if !size.Valid() {
		return
	}
	ctx := r.Context()
	if dto.Won {
		mem.RecordWinSequence(ctx, dto.History, size)
		return
	}
	if dto.Mine != nil {
		mem.RecordMineFound(ctx, *dto.Mine, size)
	}
	mem.RecordLossSequence(ctx, dto.History, size)
}
