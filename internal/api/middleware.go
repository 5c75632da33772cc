package api

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/chapterly/webnovel-go-server/internal/auth"
	"github.com/chapterly/webnovel-go-server/internal/db"
)

type contextKey string

const UserIDKey contextKey = "userID"

type Middleware struct {
	DB *db.DB
}

// RequireAuth validates the bearer token and verifies the user still exists
// in the database (a valid token can outlive a wiped or deleted account).
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is RequireAuth plus the profile's is_admin flag.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.authenticate(w, r)
		if !ok {
			return
		}

		profile, err := m.DB.GetProfileByID(userID)
		if err != nil {
			log.Printf("RequireAdmin: DB error loading profile %s: %v", userID, err)
			JSONError(w, "Database error", http.StatusInternalServerError)
			return
		}
		if !profile.IsAdmin {
			JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user id when a valid token is present but never
// rejects; browse endpoints use it to tailor lock state for signed-in users.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := auth.ValidateToken(token); err == nil {
				ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		JSONError(w, "Invalid token", http.StatusUnauthorized)
		return "", false
	}

	exists, err := m.DB.ProfileExists(claims.UserID)
	if err != nil {
		log.Printf("Auth: DB error checking user %s: %v", claims.UserID, err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return "", false
	}
	if !exists {
		JSONError(w, "User not found", http.StatusUnauthorized)
		return "", false
	}

	return claims.UserID, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok
}
