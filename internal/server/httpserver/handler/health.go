package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/pgpauth-go/internal/infra/buildinfo"
)

// HandleHealth handles GET /health. It reports "degraded" while no trusted
// signer is loaded, since every authenticated request would then fail.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: buildinfo.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if h.signers != nil {
		resp.Signers = h.signers.Len()
		if resp.Signers == 0 {
			resp.Status = "degraded"
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
