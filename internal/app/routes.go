package app

import (
	"github.com/minepilot/minepilot/internal/handlers"
)

func (a *App) loadRoutes() {
	analyze := handlers.NewAnalyze(a.log, a.mem, a.repo)
	mem := handlers.NewMemory(a.log, a.mem)
	session := handlers.NewSession(a.log, a.mem, a.ws)

	a.router.HandleFunc("POST /v1/analyze", analyze.Turn)
	a.router.HandleFunc("GET /v1/memory/stats", mem.Stats)
	a.router.HandleFunc("POST /v1/memory/outcome", mem.Outcome)
	a.router.HandleFunc("/v1/session/connect", session.Connect)

	if a.db != nil && a.cookies != nil {
		auth := handlers.NewAuth(a.log, a.db, a.cookies)
		a.router.HandleFunc("GET /v1/status", auth.Status)
		a.router.HandleFunc("POST /v1/register", auth.Register)
		a.router.HandleFunc("POST /v1/login", auth.Login)
		a.router.HandleFunc("POST /v1/logout", auth.Logout)
	}
}
