package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/nikhilsahni7/StandupX/auth"
	"github.com/nikhilsahni7/StandupX/models"
	"go.uber.org/zap"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(in.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user := &models.User{Email: in.Email, Name: in.Name, PasswordHash: hash, Role: models.RoleMember}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.sessions.Login(w, r, user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user, err := s.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil || user.PasswordHash == "" || !auth.CheckPasswordHash(in.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := s.sessions.Login(w, r, user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateStateCookie(w)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	if err := auth.VerifyStateCookie(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	token, err := s.oauth.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "failed to exchange token")
		return
	}
	info, err := auth.FetchGoogleUser(ctx, s.oauth, token, s.userInfoURL)
	if err != nil {
		s.logger.Warn("google profile lookup failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "failed to get user info")
		return
	}

	user := info.User()
	if err := s.store.UpsertGoogleUser(ctx, user); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.sessions.Login(w, r, user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, s.loginRedirect, http.StatusSeeOther)
}
