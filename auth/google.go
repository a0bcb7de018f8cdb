package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nikhilsahni7/StandupX/models"
	"golang.org/x/oauth2"
)

const (
	stateCookie     = "oauthstate"
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateCookieLife = 30 * time.Minute
)

var ErrInvalidState = errors.New("invalid oauth state")

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// User converts the profile into an unsaved user.
func (g *GoogleUserInfo) User() *models.User {
	id := g.ID
	return &models.User{
		GoogleID: &id,
		Email:    g.Email,
		Name:     g.Name,
		Picture:  g.Picture,
		Role:     models.RoleMember,
	}
}

// FetchGoogleUser reads the profile of the token's owner. endpoint overrides
// the Google userinfo URL when non-empty.
func FetchGoogleUser(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, endpoint string) (*GoogleUserInfo, error) {
	if endpoint == "" {
		endpoint = googleUserInfo
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed getting user info: %s", resp.Status)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, errors.New("google profile has no id or email")
	}
	return &info, nil
}

// GenerateStateCookie sets a random OAuth state cookie and returns its value.
func GenerateStateCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(stateCookieLife),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// VerifyStateCookie checks the state parameter against the state cookie.
func VerifyStateCookie(r *http.Request) error {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return ErrInvalidState
	}
	state := r.FormValue("state")
	if state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		return ErrInvalidState
	}
	return nil
}
