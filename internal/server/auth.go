package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// requireUser resolves the session cookie and rejects the request with 401
// when there is no live session.
func requireUser(auth AuthService, cookie CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookie.Name); err == nil {
				token = c.Value
			}

			user, err := auth.CurrentUser(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func registerHandler(auth AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := decodeJSON(r, &creds); err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := auth.Register(r.Context(), creds); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "User registered successfully")
	}
}

func loginHandler(auth AuthService, cookie CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if err := decodeJSON(r, &creds); err != nil {
			writeError(w, r, err)
			return
		}
		if err := creds.Validate(); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := auth.Login(r.Context(), creds)
		if err != nil {
			writeError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookie.Name,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		writeMessage(w, http.StatusOK, "Login successful")
	}
}

func logoutHandler(auth AuthService, cookie CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookie.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		writeMessage(w, http.StatusOK, "Logged out successfully")
	}
}
