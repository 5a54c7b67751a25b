package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"biscuits/internal/domain"
	"biscuits/internal/repository"
	"biscuits/internal/repository/sqldb"
)

const minPasswordLength = 8

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// handleRegister creates an account and signs it in
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hashedPassword, err := sqldb.HashPassword(req.Password)
	if err != nil {
		s.internalError(w, r, "failed to hash password", err)
		return
	}

	user := &domain.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hashedPassword,
		Role:         domain.RoleUser,
	}
	if err := s.repos.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			writeError(w, http.StatusConflict, "Email is already registered")
			return
		}
		s.internalError(w, r, "failed to create user", err)
		return
	}

	s.signIn(w, r, user, http.StatusCreated)
}

// handleLogin authenticates with email and password
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.repos.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		s.internalError(w, r, "failed to load user", err)
		return
	}
	if user == nil || !sqldb.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.signIn(w, r, user, http.StatusOK)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User, status int) {
	token, err := s.generateToken(user)
	if err != nil {
		s.internalError(w, r, "failed to generate token", err)
		return
	}
	s.setAuthCookie(w, token, s.config.JWT.ExpirationHours*3600)
	writeJSON(w, status, authResponse{Token: token, User: user})
}

// handleLogout clears the auth cookie
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handlePrivileged tells the ad widget whether to skip tracking. Anonymous
// callers are never privileged.
func (s *Server) handlePrivileged(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"privileged": getUserClaims(r).Privileged()})
}
