// Package account orchestrates signup and login over the credential store, the
// password hasher and the token manager.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/apperr"
	"tasktrack/cmd/security/password"
	"tasktrack/cmd/security/token"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalid            = "invalid"
	OutcomeUsernameTaken      = "username_taken"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

// loginFailureMsg is shared by unknown-user and wrong-password failures.
const loginFailureMsg = "invalid username or password"

// Hasher hashes and verifies passwords. password.Config implements it.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(encodedHash, plaintext string) (bool, error)
}

// Issuer issues access tokens. token.Manager implements it.
type Issuer interface {
	Issue(userID int64, now time.Time) (token.Issued, error)
}

// Recorder counts signup and login outcomes.
type Recorder interface {
	SignupAttempt(outcome string)
	LoginAttempt(outcome string)
}

// Service implements signup and login.
type Service struct {
	users    identity.Store
	hasher   Hasher
	tokens   Issuer
	log      *slog.Logger
	recorder Recorder
	now      func() time.Time

	// dummyHash is verified for unknown usernames so both failure paths cost a hash.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecorder sets the outcome counter.
func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// WithClock overrides the time source used for token issuance.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service. It hashes a throwaway password once to prepare the
// timing-equalization digest.
func New(users identity.Store, hasher Hasher, tokens Issuer, opts ...Option) (*Service, error) {
	if users == nil || hasher == nil || tokens == nil {
		return nil, errors.New("account: nil dependency")
	}

	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	dummy, err := hasher.Hash("tasktrack-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("account: prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Signup registers username with a freshly hashed password.
// A taken username yields apperr.ConflictError{Field: "username"}.
func (s *Service) Signup(ctx context.Context, username, plaintext string) (identity.UserID, error) {
	const op = "account.Signup"

	if strings.TrimSpace(username) == "" || plaintext == "" {
		s.recordSignup(OutcomeInvalid)
		return 0, apperr.Invalid(op, "username and password are required")
	}
	if err := identity.CheckUsername(op, username); err != nil {
		s.recordSignup(OutcomeInvalid)
		return 0, err
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		if policyMsg, ok := policyMessage(err); ok {
			s.recordSignup(OutcomeInvalid)
			return 0, apperr.Invalid(op, policyMsg)
		}
		s.recordSignup(OutcomeError)
		return 0, apperr.OpError{Op: op, Kind: apperr.ErrStorage, Msg: "hash password", Err: err}
	}

	uid, err := s.users.Register(ctx, username, digest)
	if err != nil {
		switch {
		case apperr.IsConflict(err):
			s.recordSignup(OutcomeUsernameTaken)
		case apperr.IsInvalidInput(err):
			s.recordSignup(OutcomeInvalid)
		default:
			s.recordSignup(OutcomeError)
		}
		return 0, err
	}

	s.recordSignup(OutcomeSuccess)
	s.log.Info("auth.signup.ok", "user_id", int64(uid))
	return uid, nil
}

// Login verifies credentials and issues an access token. Unknown usernames and wrong
// passwords return the same apperr.ErrUnauthenticated error.
func (s *Service) Login(ctx context.Context, username, plaintext string) (token.Issued, error) {
	const op = "account.Login"

	if strings.TrimSpace(username) == "" || plaintext == "" {
		s.recordLogin(OutcomeInvalid)
		return token.Issued{}, apperr.Invalid(op, "username and password are required")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !apperr.IsNotFound(err) {
			s.recordLogin(OutcomeError)
			return token.Issued{}, err
		}
		_, _ = s.hasher.Verify(s.dummyHash, plaintext)
		s.recordLogin(OutcomeInvalidCredentials)
		s.log.Info("auth.login.fail", "reason", "not_found")
		return token.Issued{}, authFailure(op)
	}

	ok, err := s.hasher.Verify(u.PasswordHash, plaintext)
	if err != nil {
		// A stored digest we cannot parse is a server-side problem, but the caller
		// still only learns that the credentials were rejected.
		s.log.Error("auth.login.verify.fail", "user_id", int64(u.ID), "err", err)
	}
	if err != nil || !ok {
		s.recordLogin(OutcomeInvalidCredentials)
		s.log.Info("auth.login.fail", "reason", "bad_password", "user_id", int64(u.ID))
		return token.Issued{}, authFailure(op)
	}

	issued, err := s.tokens.Issue(int64(u.ID), s.now().UTC())
	if err != nil {
		s.recordLogin(OutcomeError)
		return token.Issued{}, apperr.OpError{Op: op, Kind: apperr.ErrStorage, Msg: "issue token", Err: err}
	}

	s.recordLogin(OutcomeSuccess)
	s.log.Info("auth.login.ok", "user_id", int64(u.ID))
	return issued, nil
}

// Profile returns the account behind an authenticated identity. A token whose user no
// longer exists is treated as unauthenticated.
func (s *Service) Profile(ctx context.Context, uid identity.UserID) (identity.User, error) {
	const op = "account.Profile"

	if !uid.Valid() {
		return identity.User{}, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "missing identity"}
	}

	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if apperr.IsNotFound(err) {
			s.log.Info("auth.profile.unknown_user", "user_id", int64(uid))
			return identity.User{}, apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: "unknown user"}
		}
		return identity.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *Service) recordSignup(outcome string) {
	if s.recorder != nil {
		s.recorder.SignupAttempt(outcome)
	}
}

func (s *Service) recordLogin(outcome string) {
	if s.recorder != nil {
		s.recorder.LoginAttempt(outcome)
	}
}

func authFailure(op string) error {
	return apperr.OpError{Op: op, Kind: apperr.ErrUnauthenticated, Msg: loginFailureMsg}
}

func policyMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return "password is too short", true
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password is too long", true
	case errors.Is(err, password.ErrWeakPassword):
		return "password is too weak", true
	}
	return "", false
}
