package maintenance

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/apigate/pkg/flagstore"
	"github.com/dmitrymomot/apigate/pkg/respond"
)

// How long a status read is served from the local cache. Browsers poll the
// status endpoint while gated, so reads are collapsed and cached briefly
// instead of hitting the flag store on every poll.
const statusCacheTTL = time.Second

// StatusHandler returns an http.HandlerFunc exposing the current maintenance
// status. Mount it on one of the always-allowed prefixes so clients can poll
// it while the rest of the API is gated.
func StatusHandler(manager *Manager) http.HandlerFunc {
	cache := flagstore.NewMemory[Status](flagstore.WithCleanupInterval(0))

	return func(w http.ResponseWriter, r *http.Request) {
		status, err := flagstore.GetOrSet(r.Context(), cache, stateKey, func(ctx context.Context) (Status, time.Duration, error) {
			s, err := manager.Status(ctx)
			return s, statusCacheTTL, err
		})
		if err != nil {
			_ = respond.JSON(w, respond.Error(respond.TypeInternalError, http.StatusInternalServerError, ""))
			return
		}
		_ = respond.JSON(w, respond.Success(http.StatusOK, status))
	}
}
