package api

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"eventadmin-client-go/internal/apitest"
)

func newSessionEnv(t *testing.T) (*apitest.Server, *Session, *TokenStore) {
	t.Helper()
	backend := apitest.New()
	server := httptest.NewServer(backend.Router())
	t.Cleanup(server.Close)
	tokens := NewTokenStore(filepath.Join(t.TempDir(), "token"))
	client := NewClient(server.URL, tokens, 5*time.Second)
	return backend, NewSession(client, tokens, "/users"), tokens
}

func TestLoginThenBootstrapReplaysSession(t *testing.T) {
	backend, session, tokens := newSessionEnv(t)

	landed := ""
	session.OnLogin = func(landing string) { landed = landing }

	user, err := session.Login(context.Background(), apitest.AdminEmail, apitest.AdminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user == nil || user.Role != "super_admin" {
		t.Fatalf("login user = %+v", user)
	}
	if landed != "/users" {
		t.Fatalf("landing = %q", landed)
	}
	if tokens.Get() == "" {
		t.Fatal("token not persisted")
	}

	// Same token file, fresh process: bootstrap must yield the same user
	// without credentials.
	reloadedTokens := NewTokenStore(tokens.path)
	client := NewClient(session.client.BaseURL, reloadedTokens, 5*time.Second)
	reloaded := NewSession(client, reloadedTokens, "/users")
	bootstrapped := reloaded.Bootstrap(context.Background())
	if bootstrapped == nil || bootstrapped.ID != user.ID {
		t.Fatalf("bootstrap user = %+v", bootstrapped)
	}
	if reloaded.Loading() {
		t.Fatal("loading flag did not settle")
	}
	_ = backend
}

func TestLoginFailureKeepsExistingToken(t *testing.T) {
	_, session, tokens := newSessionEnv(t)
	if err := tokens.Set("pre-existing"); err != nil {
		t.Fatal(err)
	}
	_, err := session.Login(context.Background(), apitest.AdminEmail, "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if tokens.Get() != "pre-existing" {
		t.Fatalf("token = %q, want pre-existing", tokens.Get())
	}
	if session.CurrentUser() != nil {
		t.Fatal("user set on failed login")
	}
}

func TestBootstrapWithoutTokenSettlesImmediately(t *testing.T) {
	backend, session, _ := newSessionEnv(t)
	if user := session.Bootstrap(context.Background()); user != nil {
		t.Fatalf("user = %+v", user)
	}
	if got := backend.CountRequests("GET", "/me"); got != 0 {
		t.Fatalf("/me requests = %d, want 0", got)
	}
}

func TestBootstrapClearsInvalidToken(t *testing.T) {
	_, session, tokens := newSessionEnv(t)
	if err := tokens.Set("not-a-real-token"); err != nil {
		t.Fatal(err)
	}
	if user := session.Bootstrap(context.Background()); user != nil {
		t.Fatalf("user = %+v", user)
	}
	if tokens.Get() != "" {
		t.Fatal("invalid token survived bootstrap")
	}
}

func TestBootstrapSkipsRoundTripForExpiredJWT(t *testing.T) {
	backend, session, tokens := newSessionEnv(t)
	if err := tokens.Set(backend.IssueToken(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if user := session.Bootstrap(context.Background()); user != nil {
		t.Fatalf("user = %+v", user)
	}
	if got := backend.CountRequests("GET", "/me"); got != 0 {
		t.Fatalf("/me requests = %d, want 0", got)
	}
	if tokens.Get() != "" {
		t.Fatal("expired token survived")
	}
}

func TestLogoutTearsDownLocallyEvenIfServerFails(t *testing.T) {
	backend, session, tokens := newSessionEnv(t)
	if _, err := session.Login(context.Background(), apitest.AdminEmail, apitest.AdminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	loggedOut := false
	session.OnLogout = func() { loggedOut = true }

	// Point the client at a dead address so the server call fails; logout
	// must still clear everything.
	session.client.BaseURL = "http://127.0.0.1:1"
	session.client.HTTP.Timeout = 200 * time.Millisecond
	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if tokens.Get() != "" {
		t.Fatal("token survived logout")
	}
	if session.CurrentUser() != nil {
		t.Fatal("user survived logout")
	}
	if !loggedOut {
		t.Fatal("logout hook not called")
	}
	_ = backend
}

func TestExpiredTokenPreCheckTreatsOpaqueAsSendable(t *testing.T) {
	if tokenExpired("opaque-session-token") {
		t.Fatal("opaque token treated as expired")
	}
}
