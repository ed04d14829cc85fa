package api

import (
	"context"
	"log"
	"sync"
	"time"

	"eventadmin-client-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Session owns the current-user identity. It wraps the token store and the
// client; a 401 on any authenticated call expires it in one place.
type Session struct {
	client  *Client
	tokens  *TokenStore
	landing string

	mu      sync.Mutex
	user    *models.User
	loading bool

	// Navigation hooks. The browser original hard-redirects after login and
	// routes to the login screen after logout; callers model that here.
	OnLogin   func(landing string)
	OnLogout  func()
	OnExpired func()
}

// LoginResponse is the login endpoint's success payload.
type LoginResponse struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
}

func NewSession(client *Client, tokens *TokenStore, landing string) *Session {
	s := &Session{client: client, tokens: tokens, landing: landing}
	client.OnUnauthorized(s.expire)
	return s
}

func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Bootstrap rehydrates the session once at startup. No token resolves
// immediately with a nil user; a token is validated against /me and cleared
// on any failure. The loading flag settles exactly once per call.
func (s *Session) Bootstrap(ctx context.Context) *models.User {
	s.setLoading(true)
	defer s.setLoading(false)

	token := s.tokens.Get()
	if token == "" {
		s.setUser(nil)
		return nil
	}
	if tokenExpired(token) {
		_ = s.tokens.Clear()
		s.setUser(nil)
		return nil
	}
	var user models.User
	if err := s.client.DoJSON(ctx, "GET", "/me", nil, &user, SkipAuthTeardown()); err != nil {
		_ = s.tokens.Clear()
		s.setUser(nil)
		return nil
	}
	s.setUser(&user)
	return &user
}

// Login authenticates and stores the returned token. A failure propagates
// the typed error untouched and leaves any pre-existing token in place.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := s.client.DoJSON(ctx, "POST", "/login", payload, &resp, SkipAuthTeardown()); err != nil {
		return nil, err
	}
	if err := s.tokens.Set(resp.AccessToken); err != nil {
		return nil, WrapError(err, "persist token")
	}
	s.setUser(&resp.User)
	if s.OnLogin != nil {
		s.OnLogin(s.landing)
	}
	return &resp.User, nil
}

// Logout tears the session down locally no matter what the server says; the
// server call is best-effort and only logged on failure.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.DoJSON(ctx, "POST", "/logout", nil, nil, SkipAuthTeardown()); err != nil {
		log.Printf("logout request failed: %v", err)
	}
	err := s.tokens.Clear()
	s.setUser(nil)
	if s.OnLogout != nil {
		s.OnLogout()
	}
	return err
}

func (s *Session) expire() {
	_ = s.tokens.Clear()
	s.setUser(nil)
	if s.OnExpired != nil {
		s.OnExpired()
	}
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// tokenExpired inspects a JWT-shaped token's exp claim to skip a bootstrap
// round-trip that cannot succeed. Opaque tokens are sent as-is.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(nowFunc())
}
