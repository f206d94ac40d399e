package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/setasidevault/internal/domain"
)

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello from Set-Aside-Vault!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such endpoint"})
}

// admin rejects requests without a valid bearer token when authentication
// is enabled.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			next(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, domain.ErrUnauthorized)
			return
		}
		if err := s.auth.Verify(token); err != nil {
			s.logger.Warn("rejected admin token", "path", r.URL.Path, "error", err)
			s.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, invalid("invalid JSON body"))
		return
	}

	token, expires, err := s.auth.Login(req.Password)
	if err != nil {
		s.logger.Warn("admin login failed", "error", err)
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("admin logged in", "expires_at", expires)
	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

type authStatusResponse struct {
	AuthEnabled   bool `json:"authEnabled"`
	Authenticated bool `json:"authenticated"`
}

// handleAuthStatus lets the client decide whether to show the login form.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	resp := authStatusResponse{AuthEnabled: s.auth.Enabled(), Authenticated: !s.auth.Enabled()}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && resp.AuthEnabled {
		resp.Authenticated = s.auth.Verify(token) == nil
	}
	s.writeJSON(w, http.StatusOK, resp)
}
