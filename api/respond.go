package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/xraph/mintage"
)

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusOf maps an error kind to an HTTP status.
func statusOf(k mintage.Kind) int {
	switch k {
	case mintage.KindValidation:
		return http.StatusBadRequest
	case mintage.KindConflict:
		return http.StatusConflict
	case mintage.KindCapacityExceeded:
		return http.StatusUnprocessableEntity
	case mintage.KindNotFound:
		return http.StatusNotFound
	case mintage.KindUnauthorized:
		return http.StatusForbidden
	case mintage.KindUnderpayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeStatus(w, http.StatusGatewayTimeout, "timeout", "request timed out")
		return
	}
	kind := mintage.KindOf(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "api: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeStatus(w, status, kind.String(), "internal error")
		return
	}
	writeStatus(w, status, kind.String(), err.Error())
}

func writeStatus(w http.ResponseWriter, status int, kind, message string) {
	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = message
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "api: panic",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				writeStatus(w, http.StatusInternalServerError, "internal", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
