package billing

import (
	"crypto/subtle"
	"net/http"

	"github.com/readlingo/readlingo/core"
)

// cleanupSecretHeader carries the shared secret for the sweep trigger.
const cleanupSecretHeader = "X-Cleanup-Secret"

// handleCleanup runs the premium cleanup sweep. Operator-facing endpoint
// guarded by a shared secret, typically hit by a scheduler.
func (h *Handlers) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if h.cfg.CleanupSecret == "" {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Cleanup secret is not configured", "")
		return
	}

	provided := r.Header.Get(cleanupSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.cfg.CleanupSecret)) != 1 {
		core.WriteError(w, http.StatusUnauthorized, core.ErrUnauthorized.Code, "Invalid cleanup secret", "")
		return
	}

	res, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Cleanup sweep failed", err.Error())
		return
	}

	core.WriteJSON(w, http.StatusOK, res)
}
