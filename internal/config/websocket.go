package config

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

func NewWebSocket(cfg *Config) *WebSocket {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if cfg.Development() || cfg.Domain == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || strings.Contains(origin, cfg.Domain)
		},
	}

	return &WebSocket{
		Upgrader: upgrader,
	}
}
