// Package api exposes a Mintage registry over HTTP.
//
// Routes are served by a chi router under /v1. Reads may be anonymous;
// mutations require a bearer token whose HS256-signed "sub" claim names
// the calling account. The attached deposit travels in the
// X-Attached-Deposit header as a base-10 yocto amount.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/mintage"
)

// DepositHeader carries the attached deposit of a mutation.
const DepositHeader = "X-Attached-Deposit"

// Handler serves the registry API.
type Handler struct {
	registry *mintage.Registry
	logger   *slog.Logger
	secret   []byte
	timeout  time.Duration
	router   chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithJWTSecret sets the HS256 secret used to verify bearer tokens.
// Without it every request is anonymous and mutations are refused.
func WithJWTSecret(secret []byte) Option {
	return func(h *Handler) { h.secret = secret }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithTimeout bounds each request (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New builds the API for reg.
func New(reg *mintage.Registry, opts ...Option) *Handler {
	h := &Handler{
		registry: reg,
		logger:   slog.Default(),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.recoverer)
	r.Use(h.withTimeout)
	r.Use(h.authenticate)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/supply", h.handleTotalSupply)
		r.Get("/metadata", h.handleContractMetadata)
		r.Get("/accounts/{accountID}/balance", h.handleBalance)
		r.Get("/owners/{accountID}/tokens", h.handleListForOwner)
		r.Get("/owners/{accountID}/supply", h.handleSupplyForOwner)

		r.Route("/tokens", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.With(h.requireCaller).Post("/", h.handleMint)

			r.Route("/{tokenID}", func(r chi.Router) {
				r.Get("/", h.handleGet)
				r.Get("/payout", h.handlePayout)

				r.Group(func(r chi.Router) {
					r.Use(h.requireCaller)
					r.Post("/transfer", h.handleTransfer)
					r.Post("/transfer_payout", h.handleTransferPayout)
					r.Post("/approvals", h.handleApprove)
					r.Delete("/approvals/{accountID}", h.handleRevoke)
				})
			})
		})
	})
	return r
}
