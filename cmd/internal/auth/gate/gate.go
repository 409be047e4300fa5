// Package gate authenticates task requests: it verifies the bearer token and attaches
// the caller's identity.UserID to the request context. It performs no I/O.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/security/token"
)

// Rejection reasons, used as metric labels.
const (
	ReasonMissing = "missing"
	ReasonInvalid = "invalid"
)

// Verifier is the subset of token.Manager the gate needs.
type Verifier interface {
	Verify(raw string, now time.Time) (token.Claims, error)
}

// Recorder counts rejected requests.
type Recorder interface {
	GateRejected(reason string)
}

// RejectFunc writes the response for an unauthenticated request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Gate wraps handlers that require an authenticated caller.
type Gate struct {
	verifier Verifier
	log      *slog.Logger
	recorder Recorder
	reject   RejectFunc
	now      func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for debug-level rejection events.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// WithRecorder sets the rejection counter.
func WithRecorder(rec Recorder) Option {
	return func(g *Gate) { g.recorder = rec }
}

// WithReject overrides the default plain 401 response.
func WithReject(fn RejectFunc) Option {
	return func(g *Gate) {
		if fn != nil {
			g.reject = fn
		}
	}
}

// WithClock overrides the time source used for token verification.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New builds a Gate over verifier.
func New(verifier Verifier, opts ...Option) *Gate {
	g := &Gate{
		verifier: verifier,
		log:      slog.Default(),
		reject:   defaultReject,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Require runs next only for requests carrying a valid bearer token.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, reason, err := g.Authenticate(r)
		if err != nil {
			if g.recorder != nil {
				g.recorder.GateRejected(reason)
			}
			g.log.Debug("auth.gate.reject",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
			)
			g.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uid)))
	})
}

// Authenticate verifies the request's bearer token. On failure it returns the
// rejection reason and an error of kind apperr.ErrUnauthenticated.
func (g *Gate) Authenticate(r *http.Request) (identity.UserID, string, error) {
	const op = "gate.Authenticate"

	raw := bearerToken(r)
	if raw == "" {
		return 0, ReasonMissing, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing bearer token"}
	}

	claims, err := g.verifier.Verify(raw, g.now().UTC())
	if err != nil {
		return 0, ReasonInvalid, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "invalid token"}
	}

	uid := identity.UserID(claims.UserID)
	if !uid.Valid() {
		return 0, ReasonInvalid, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "invalid token"}
	}
	return uid, "", nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func defaultReject(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tasktrack"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying uid.
func WithUser(ctx context.Context, uid identity.UserID) context.Context {
	return context.WithValue(ctx, ctxKey{}, uid)
}

// UserFrom returns the authenticated identity attached by Require.
func UserFrom(ctx context.Context) (identity.UserID, bool) {
	uid, ok := ctx.Value(ctxKey{}).(identity.UserID)
	return uid, ok && uid.Valid()
}
