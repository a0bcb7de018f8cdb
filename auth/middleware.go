package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "standupx-session"

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the authenticated user id stored by the middleware.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ctxKey{}).(uint)
	return id, ok && id != 0
}

// Sessions manages login state in a gorilla session store. Production uses
// pgstore; tests use a cookie store.
type Sessions struct {
	store sessions.Store
}

func NewSessions(store sessions.Store) *Sessions {
	return &Sessions{store: store}
}

// Login marks the session as authenticated for userID.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	session, err := s.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values["authenticated"] = true
	session.Values["user_id"] = userID
	return session.Save(r, w)
}

// Logout expires the session.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}
	session.Options.MaxAge = -1
	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	return session.Save(r, w)
}

// Current returns the user id of an authenticated session.
func (s *Sessions) Current(r *http.Request) (uint, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
		return 0, false
	}
	id, ok := session.Values["user_id"].(uint)
	return id, ok && id != 0
}

// Middleware rejects requests without an authenticated session and puts the
// user id into the request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.Current(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "not authenticated"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
