package apitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != AdminEmail || bcrypt.CompareHashAndPassword(s.password, []byte(req.Password)) != nil {
		WriteErrorCode(w, http.StatusUnauthorized, "Invalid credentials", "invalid_credentials")
		return
	}
	s.mu.Lock()
	user := s.admin
	s.mu.Unlock()
	s.logAction("login", "User", atoi(user.ID), nil, map[string]any{
		"last_login_at": time.Now().UTC().Format(time.RFC3339),
	})
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"access_token": s.IssueToken(time.Hour),
		"token_type":   "Bearer",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	user := s.admin
	s.mu.Unlock()
	WriteJSON(w, http.StatusOK, user)
}
