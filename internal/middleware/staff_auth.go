// Package middleware authenticates HTTP requests against a Staff
// identity. The spec treats the HTTP/auth layer as an external
// collaborator; this is the minimal adapter the core's authorization
// checks (service.Can, service.AuthorizeStopCompletion) need to resolve
// who is calling.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"buyerdispatch/internal/modules/dispatch/types"
)

var jwtSecretKey = []byte("dev-secret-change-in-production")

type staffContextKey struct{}

// StaffClaims is the JWT payload identifying the acting Staff.
type StaffClaims struct {
	jwt.RegisteredClaims
	StaffID int64           `json:"staff_id"`
	Role    types.StaffRole `json:"role"`
}

// IssueToken signs a token for the given staff identity. Used by tests
// and by whatever external login flow the out-of-scope auth layer runs.
func IssueToken(staffID int64, role types.StaffRole, ttl time.Duration) (string, error) {
	claims := StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(staffID, 10),
		},
		StaffID: staffID,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecretKey)
}

// StaffAuth validates the Authorization header's bearer token and
// attaches the resolved StaffClaims to the request context.
func StaffAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			http.Error(w, "authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), staffContextKey{}, *claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecretKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// ClaimsFromContext extracts the StaffClaims attached by StaffAuth.
func ClaimsFromContext(ctx context.Context) (StaffClaims, bool) {
	claims, ok := ctx.Value(staffContextKey{}).(StaffClaims)
	return claims, ok
}
