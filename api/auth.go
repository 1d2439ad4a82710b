package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/mintage/types"
)

type callerKey struct{}

// errUnauthenticated is reported when a mutation arrives without a valid
// bearer token.
var errUnauthenticated = errors.New("api: authentication required")

// authenticate resolves the caller from the bearer token, if any. A
// malformed or badly signed token is rejected outright.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		caller, err := h.verify(raw)
		if err != nil {
			h.logger.WarnContext(r.Context(), "api: rejected bearer token", "error", err)
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCaller refuses anonymous requests.
func (h *Handler) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callerOf(r) == "" {
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", errUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) verify(raw string) (types.AccountID, error) {
	if len(h.secret) == 0 {
		return "", errors.New("no secret configured")
	}
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return h.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid claims")
	}
	caller, err := types.ParseAccountID(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("subject: %w", err)
	}
	return caller, nil
}

func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth, true
	}
	return strings.TrimSpace(auth[len(prefix):]), true
}

func callerOf(r *http.Request) types.AccountID {
	caller, _ := r.Context().Value(callerKey{}).(types.AccountID)
	return caller
}
