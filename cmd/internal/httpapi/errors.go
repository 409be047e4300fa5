package httpapi

import (
	"errors"
	"net/http"

	"tasktrack/cmd/internal/apperr"
)

// writeAppError maps an apperr kind to its HTTP status and error code.
// Causes of storage failures are logged, never sent.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict apperr.ConflictError
		opErr    apperr.OpError
	)

	switch {
	case errors.As(err, &conflict) && conflict.Field == "username":
		writeError(w, http.StatusBadRequest, "username_taken", "username already exists")
	case apperr.IsConflict(err):
		writeError(w, http.StatusBadRequest, "conflict", "resource already exists")
	case apperr.IsInvalidInput(err):
		msg := "invalid request"
		if errors.As(err, &opErr) && opErr.Msg != "" {
			msg = opErr.Msg
		}
		writeError(w, http.StatusBadRequest, "invalid_input", msg)
	case apperr.IsUnauthenticated(err):
		writeUnauthorized(w)
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "task not found")
	default:
		h.log.Error("http.handler.fail",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tasktrack"`)
	writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
}

// RejectUnauthenticated is the auth gate's response writer for task routes.
func RejectUnauthenticated(w http.ResponseWriter, _ *http.Request, _ error) {
	writeUnauthorized(w)
}
