package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/minepilot/minepilot/internal/config"
)

type CtxKey int

const (
	CtxPlayerClaims CtxKey = iota
)

// PlayerClaims extracts claims stored by [Auth]; nil when the request
// is anonymous.
func PlayerClaims(ctx context.Context) *config.PlayerClaims {
	claims, ok := ctx.Value(CtxPlayerClaims).(*config.PlayerClaims)
	if !ok {
		return nil
	}
	return claims
}

func Auth(log *logrus.Logger, cookies *config.Cookies) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParsePlayerClaims(r)
			if err != nil {
				cookies.Clear(w)
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
