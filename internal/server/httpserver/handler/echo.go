package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// redactedHeaders are never echoed back.
var redactedHeaders = []string{
	token.HeaderName,
	"Authorization",
	"Cookie",
}

// HandleEcho handles GET and POST /echo by describing the request back to
// the caller, together with the identity that signed its token.
func (h *Handler) HandleEcho(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		WriteError(w, r, domain.ErrTokenMissing)
		return
	}

	resp := EchoResponse{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: r.Header.Clone(),
		Identity: IdentityView{
			Fingerprint: id.Fingerprint.String(),
			KeyID:       id.Fingerprint.Short(),
			Name:        id.Name,
			Email:       id.Email,
		},
	}
	for _, name := range redactedHeaders {
		delete(resp.Headers, http.CanonicalHeaderKey(name))
	}
	if len(resp.Query) == 0 {
		resp.Query = nil
	}

	if r.Body != nil && r.Method != http.MethodGet {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, r, domain.ErrBadRequest.WithDetails("request body too large"))
				return
			}
			WriteError(w, r, domain.ErrBadRequest.WithDetails("read body: "+err.Error()))
			return
		}
		resp.Body = string(body)
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}
