package httpapi

import (
	"net/http"

	"tasktrack/cmd/internal/apperr"
)

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.accounts.Signup(r.Context(), req.Username, req.Password); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "user created"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperr.IsUnauthenticated(err) {
			writeError(w, http.StatusBadRequest, "invalid_credentials", "invalid username or password")
			return
		}
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.owner(w, r)
	if !ok {
		return
	}

	u, err := h.accounts.Profile(r.Context(), uid)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:        int64(u.ID),
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC(),
	})
}
