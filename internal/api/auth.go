package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/susu3304/smashmate/internal/domain"
)

const (
	tokenCookie = "smashmate_token"
	stateCookie = "smashmate_oauth_state"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (a *API) issueToken(id domain.Identity) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID:   id.UserID,
		Email:    id.Email,
		Username: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *API) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Auth handlers
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := generateRandomString(32)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": a.oauthConfig.AuthCodeURL(state),
		"state":    state,
	})
}

func (a *API) authenticateUser(r *http.Request, code string) (domain.Identity, error) {
	// Exchange code for token
	token, err := a.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("token exchange failed: %w", err)
	}

	// Get user info
	user, err := a.getDiscordUser(r.Context(), token.AccessToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to get user: %w", err)
	}

	player, err := a.store.UpsertPlayer(r.Context(), user.ID, getUsername(user), user.Email, user.avatarURL())
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to save player: %w", err)
	}
	return domain.Identity{UserID: player.ID, Email: player.Email, Name: player.Name}, nil
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing code"})
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid oauth state"})
		return
	}

	id, err := a.authenticateUser(r, code)
	if err != nil {
		log.Printf("api: login failed: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "login failed"})
		return
	}

	tokenString, err := a.issueToken(id)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to create token: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    tokenString,
		Path:     "/",
		Expires:  a.now().Add(a.config.TokenTTL),
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	log.Printf("api: %s logged in", id.UserID)
	http.Redirect(w, r, a.config.WebUIBaseURL+"/", http.StatusSeeOther)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// Middleware

// authMiddleware accepts the token cookie or, for non-browser clients, a
// bearer token.
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		if c, err := r.Cookie(tokenCookie); err == nil {
			tokenString = c.Value
		}
		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}
		if tokenString == "" {
			writeError(w, r, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated))
			return
		}

		claims, err := a.parseToken(tokenString)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated))
			return
		}

		id := domain.Identity{UserID: claims.UserID, Email: claims.Email, Name: claims.Username}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
