package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
)

var errInvalidToken = errors.New("invalid token")

// requireAuthenticatedUser rejects any request that does not carry a valid
// bearer token and binds the token's user id to the request context before
// the protected handler runs.
func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, errors.New("invalid Authorization header"), http.StatusUnauthorized)
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, errors.New("invalid Authorization header"), http.StatusUnauthorized)
			return
		}
		claims, err := parseToken(app.config.jwt, parts[1])
		if err != nil {
			log.Println(err)
			writeError(w, errInvalidToken, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, claims.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) enableCORS(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, o := range app.config.cors.trustedOrigins {
				if origin == o || o == "*" {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					// preflight request
					if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
						w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, PUT, PATCH, DELETE")
						w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
						w.WriteHeader(http.StatusOK)
						return
					}
					break
				}
			}
		}
		next.ServeHTTP(w, r)
	}
}

type userIDContext string

const userIDContextKey userIDContext = "userIDContextKey"

func getUserIDFromRequest(r *http.Request) int {
	id, _ := r.Context().Value(userIDContextKey).(int)
	return id
}
