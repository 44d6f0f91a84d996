/*
Package devgateway is an in-memory stand-in for the Questify application server.

This file issues and validates the HS256 bearer tokens the stub hands out from
POST /token, and provides the middleware that resolves them back to an account.
*/
package devgateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

const (
	// tokenExpiration is the lifetime of issued bearer tokens.
	tokenExpiration = 24 * time.Hour

	// tokenIssuer identifies the development gateway in issued tokens.
	tokenIssuer = "Questify-DevGateway"
)

type contextKey string

// contextAccountKey stores the authenticated *Account in the request context.
const contextAccountKey contextKey = "account"

// tokenClaims is the claim set carried by issued bearer tokens.
type tokenClaims struct {
	jwt.StandardClaims

	// Email is the account identifier; tokens resolve to accounts through it.
	Email string `json:"email"`
}

// issueToken signs a bearer token for the given account email.
func issueToken(email, secretKey string) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(tokenExpiration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    tokenIssuer,
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// parseToken validates the token string and returns its claims.
func parseToken(tokenString, secretKey string) (*tokenClaims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}

// requireBearer is middleware that resolves the Authorization header to an
// account and rejects the request with 401 when it cannot.
func requireBearer(store *MemoryStore, secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, errs.NewError(errs.ErrUnauthorized))
				return
			}

			claims, err := parseToken(parts[1], secretKey)
			if err != nil {
				logx.Warn("Rejected invalid or expired bearer token", "error", err.Error())
				respondError(w, errs.NewError(errs.ErrUnauthorized))
				return
			}

			account, ok := store.AccountByEmail(claims.Email)
			if !ok {
				respondError(w, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), contextAccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accountFromContext extracts the authenticated account placed by requireBearer.
func accountFromContext(r *http.Request) *Account {
	account, _ := r.Context().Value(contextAccountKey).(*Account)
	return account
}
