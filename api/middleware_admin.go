package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type adminClaimsKey struct{}

// AdminClaims carries the verified identity of an admin request
type AdminClaims struct {
	ID    string
	Email string
	Roles []string
}

// AdminFromContext returns the admin claims set by AdminMiddleware
func AdminFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey{}).(AdminClaims)
	return claims, ok
}

// AdminMiddleware gates console routes behind an HS256 JWT with admin scope.
// The secret comes from JWT_SECRET; a missing secret rejects everything
// rather than letting requests through unverified.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		secret := []byte(os.Getenv("JWT_SECRET"))
		if len(secret) == 0 {
			zap.S().Error("JWT_SECRET is not set, rejecting admin request")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "server misconfigured"}`))
			return
		}

		header := r.Header.Get("Authorization")
		parts := strings.Split(header, "Bearer ")
		if len(parts) < 2 || parts[1] == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			zap.S().Warnw("admin token rejected", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok || mapClaims["scope"] != "admin" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "forbidden"}`))
			return
		}

		claims := AdminClaims{}
		if sub, ok := mapClaims["sub"].(string); ok {
			claims.ID = sub
		}
		if email, ok := mapClaims["email"].(string); ok {
			claims.Email = email
		}
		if roles, ok := mapClaims["roles"].([]interface{}); ok {
			for _, role := range roles {
				if s, ok := role.(string); ok {
					claims.Roles = append(claims.Roles, s)
				}
			}
		}

		ctx := context.WithValue(r.Context(), adminClaimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
