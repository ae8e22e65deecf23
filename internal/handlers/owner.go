package handlers

import (
	"fmt"
	"net/http"

	"github.com/minepilot/minepilot/internal/memory"
	"github.com/minepilot/minepilot/internal/middleware"
)

// ownerID partitions the memory document per authenticated player.
// Anonymous requests share the default document.
func ownerID(r *http.Request) string {
	if claims := middleware.PlayerClaims(r.Context()); claims != nil {
		return fmt.Sprintf("player:%d", claims.PlayerId)
	}
	return memory.DefaultOwner
}
