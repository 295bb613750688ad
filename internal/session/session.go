// Package session owns the signed-in user's bearer token. A *Session is
// created once and handed to every resource manager.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

// Authenticator exchanges credentials for a token. *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
}

var _ Authenticator = (*api.Client)(nil)

const (
	tokenKey = "user_token"
	userKey  = "user"
)

// ErrMissingCredentials is returned when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Session holds the current token and user.
type Session struct {
	mu    sync.RWMutex
	store kv.Store
	auth  Authenticator
	log   logrus.FieldLogger
	now   func() time.Time

	token string
	user  api.User
}

// New returns a signed-out session persisting into store.
func New(store kv.Store, auth Authenticator, log logrus.FieldLogger) *Session {
	if store == nil {
		store = kv.NewMemoryStore()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{store: store, auth: auth, log: log, now: time.Now}
}

// NewWithToken returns an in-memory session already holding token.
func NewWithToken(token string) *Session {
	s := New(nil, nil, nil)
	s.token = token
	return s
}

// Login authenticates against the API, then persists and exposes the token.
// Server error messages are returned to the caller unchanged.
func (s *Session) Login(ctx context.Context, email, password string) (api.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return api.User{}, ErrMissingCredentials
	}
	if s.auth == nil {
		return api.User{}, fmt.Errorf("session has no authenticator")
	}

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.log.WithError(err).WithField("email", email).Error("login failed")
		return api.User{}, err
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = resp.User
	s.mu.Unlock()

	if err := s.store.Set(ctx, tokenKey, []byte(resp.AccessToken)); err != nil {
		s.log.WithError(err).Warn("persist token failed; session will not survive restart")
	}
	if err := kv.SetJSON(ctx, s.store, userKey, resp.User); err != nil {
		s.log.WithError(err).Warn("persist user failed")
	}
	return resp.User, nil
}

// Restore loads a previously persisted token. Expired tokens are discarded.
// It reports whether a usable token was found.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	raw, ok, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if !ok || token == "" {
		return false, nil
	}

	if exp, known := expiry(token); known && !exp.After(s.now()) {
		s.log.WithField("expired_at", exp).Info("stored token expired; signing out")
		if err := s.SignOut(ctx); err != nil {
			return false, err
		}
		return false, nil
	}

	var user api.User
	if _, err := kv.GetJSON(ctx, s.store, userKey, &user); err != nil {
		s.log.WithError(err).Warn("stored user unreadable")
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return true, nil
}

// SignOut forgets the token in memory and in storage.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = api.User{}
	s.mu.Unlock()

	var errs []error
	if err := s.store.Delete(ctx, tokenKey); err != nil {
		errs = append(errs, fmt.Errorf("delete token: %w", err))
	}
	if err := s.store.Delete(ctx, userKey); err != nil {
		errs = append(errs, fmt.Errorf("delete user: %w", err))
	}
	return errors.Join(errs...)
}

// Token returns the bearer token, or "" when signed out or expired.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return ""
	}
	if exp, known := expiry(token); known && !exp.After(s.now()) {
		return ""
	}
	return token
}

// Authenticated reports whether a usable token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// User returns the signed-in user.
func (s *Session) User() (api.User, bool) {
	if !s.Authenticated() {
		return api.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, true
}

// ExpiresAt returns the token's exp claim when the token is a JWT carrying one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}
	return expiry(token)
}

// expiry reads the exp claim without verifying the signature.
func expiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
