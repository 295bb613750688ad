package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/lezoo/keep/internal/api"
	"github.com/lezoo/keep/internal/kv"
)

func newLoginServer(t *testing.T, token string) *api.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login sent Authorization header %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"access_token":"` + token + `","user":{"email":"test@test.com"}}`))
	}))
	t.Cleanup(server.Close)

	c, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestLogin_PersistsTokenForLaterCalls(t *testing.T) {
	store := kv.NewMemoryStore()
	logger, _ := test.NewNullLogger()
	s := New(store, newLoginServer(t, "abc"), logger)

	if s.Authenticated() {
		t.Fatalf("new session should be signed out")
	}

	user, err := s.Login(context.Background(), "test@test.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.Email != "test@test.com" {
		t.Fatalf("user = %#v, want test@test.com", user)
	}
	if s.Token() != "abc" || !s.Authenticated() {
		t.Fatalf("Token = %q, want abc", s.Token())
	}

	raw, ok, err := store.Get(context.Background(), tokenKey)
	if err != nil || !ok || string(raw) != "abc" {
		t.Fatalf("persisted token = %q ok=%v err=%v, want abc", raw, ok, err)
	}

	restored := New(store, nil, logger)
	ok, err = restored.Restore(context.Background())
	if err != nil || !ok {
		t.Fatalf("Restore = %v, %v; want true, nil", ok, err)
	}
	if restored.Token() != "abc" {
		t.Fatalf("restored Token = %q, want abc", restored.Token())
	}
	if u, ok := restored.User(); !ok || u.Email != "test@test.com" {
		t.Fatalf("restored User = %#v ok=%v, want test@test.com", u, ok)
	}
}

func TestLogin_RequiresCredentials(t *testing.T) {
	s := New(nil, newLoginServer(t, "abc"), nil)
	for _, tc := range []struct{ email, password string }{
		{"", "pw"},
		{"  ", "pw"},
		{"a@b.c", ""},
	} {
		if _, err := s.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("Login(%q, %q) error = %v, want ErrMissingCredentials", tc.email, tc.password, err)
		}
	}
}

func TestLogin_PropagatesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Identifiants invalides"}`))
	}))
	t.Cleanup(server.Close)
	c, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	logger, hook := test.NewNullLogger()
	s := New(nil, c, logger)
	_, err = s.Login(context.Background(), "test@test.com", "bad")
	if err == nil || err.Error() != "Identifiants invalides" {
		t.Fatalf("Login error = %v, want server message", err)
	}
	if s.Authenticated() {
		t.Fatalf("failed login should leave session signed out")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "login failed" {
		t.Fatalf("expected login failure to be logged")
	}
}

func TestRestore_DiscardsExpiredJWT(t *testing.T) {
	store := kv.NewMemoryStore()
	expired := signedToken(t, time.Now().Add(-time.Hour))
	_ = store.Set(context.Background(), tokenKey, []byte(expired))

	logger, _ := test.NewNullLogger()
	s := New(store, nil, logger)
	ok, err := s.Restore(context.Background())
	if err != nil || ok {
		t.Fatalf("Restore = %v, %v; want false, nil", ok, err)
	}
	if _, present, _ := store.Get(context.Background(), tokenKey); present {
		t.Fatalf("expired token should be deleted from storage")
	}
}

func TestToken_ExpiresInMemory(t *testing.T) {
	now := time.Now()
	s := NewWithToken(signedToken(t, now.Add(time.Minute)))
	if !s.Authenticated() {
		t.Fatalf("fresh token should authenticate")
	}
	exp, ok := s.ExpiresAt()
	if !ok || exp.Unix() != now.Add(time.Minute).Unix() {
		t.Fatalf("ExpiresAt = %v ok=%v, want %v", exp, ok, now.Add(time.Minute))
	}

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	if s.Authenticated() || s.Token() != "" {
		t.Fatalf("expired token should not be returned")
	}
}

func TestToken_OpaqueTokensNeverExpire(t *testing.T) {
	s := NewWithToken("1|opaque-token")
	if !s.Authenticated() {
		t.Fatalf("opaque token should authenticate")
	}
	if _, ok := s.ExpiresAt(); ok {
		t.Fatalf("opaque token should have no known expiry")
	}
}

func TestSignOut_ClearsMemoryAndStorage(t *testing.T) {
	store := kv.NewMemoryStore()
	logger, _ := test.NewNullLogger()
	s := New(store, newLoginServer(t, "abc"), logger)
	if _, err := s.Login(context.Background(), "test@test.com", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := s.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if s.Authenticated() {
		t.Fatalf("session still authenticated after SignOut")
	}
	for _, key := range []string{tokenKey, userKey} {
		if _, ok, _ := store.Get(context.Background(), key); ok {
			t.Fatalf("%s still stored after SignOut", key)
		}
	}
}
