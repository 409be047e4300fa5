// Package httpapi is tasktrack's JSON-over-HTTP surface: signup, login, and the
// owner-scoped task routes behind the auth gate.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/task"
	"tasktrack/cmd/security/token"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Accounts is the signup/login surface (account.Service).
type Accounts interface {
	Signup(ctx context.Context, username, password string) (identity.UserID, error)
	Login(ctx context.Context, username, password string) (token.Issued, error)
	Profile(ctx context.Context, uid identity.UserID) (identity.User, error)
}

// Tasks is the owner-scoped task surface (task.Service).
type Tasks interface {
	Create(ctx context.Context, owner identity.UserID, description string, dueDate *string) (task.ID, error)
	List(ctx context.Context, owner identity.UserID) ([]task.Task, error)
	UpdateStatusAndDueDate(ctx context.Context, id task.ID, owner identity.UserID, status task.Status, dueDate *string) error
	Delete(ctx context.Context, id task.ID, owner identity.UserID) error
}

// Gate authenticates requests and attaches the caller identity (gate.Gate).
type Gate interface {
	Require(next http.Handler) http.Handler
}

// UserFunc extracts the identity attached by the Gate (gate.UserFrom).
type UserFunc func(ctx context.Context) (identity.UserID, bool)

// Config controls request handling limits.
type Config struct {
	MaxBodyBytes int64
}

// Handler wires HTTP routes to the account and task services.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	accounts Accounts
	tasks    Tasks
	gate     Gate
	userFrom UserFunc
}

// NewHandler constructs a Handler. Every dependency is required.
func NewHandler(log *slog.Logger, cfg Config, accounts Accounts, tasks Tasks, gate Gate, userFrom UserFunc) (*Handler, error) {
	if accounts == nil || tasks == nil || gate == nil || userFrom == nil {
		return nil, errors.New("httpapi: nil dependency")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		accounts: accounts,
		tasks:    tasks,
		gate:     gate,
		userFrom: userFrom,
	}, nil
}

// Register wires routes onto mux. Task routes and /me run behind the gate; signup and
// login never do.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /signup", h.handleSignup)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.Handle("GET /me", h.gate.Require(http.HandlerFunc(h.handleMe)))

	mux.Handle("GET /tasks", h.gate.Require(http.HandlerFunc(h.handleListTasks)))
	mux.Handle("POST /tasks", h.gate.Require(http.HandlerFunc(h.handleCreateTask)))
	mux.Handle("PUT /tasks/{id}", h.gate.Require(http.HandlerFunc(h.handleUpdateTask)))
	mux.Handle("DELETE /tasks/{id}", h.gate.Require(http.HandlerFunc(h.handleDeleteTask)))
}

// owner returns the gate-attached identity, writing a 401 if it is absent.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (identity.UserID, bool) {
	uid, ok := h.userFrom(r.Context())
	if !ok {
		writeUnauthorized(w)
		return 0, false
	}
	return uid, true
}
