package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/api"
	"github.com/xraph/mintage/store/memory"
)

var secret = []byte("test-secret")

type server struct {
	h   http.Handler
	reg *mintage.Registry
}

func newServer(t *testing.T) *server {
	t.Helper()
	reg := mintage.New(memory.New(),
		mintage.WithContractAccount("registry.near"),
		mintage.WithStorageBytePrice(mintage.NewAmount(1)),
		mintage.WithClock(func() time.Time { return time.Unix(0, 0) }),
	)
	require.NoError(t, reg.Start(context.Background()))
	t.Cleanup(func() { _ = reg.Stop() })
	return &server{h: api.New(reg, api.WithJWTSecret(secret)), reg: reg}
}

func sign(t *testing.T, sub string, key []byte) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

type request struct {
	method  string
	path    string
	body    string
	caller  string
	deposit string
}

func (s *server) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
	if r.caller != "" {
		req.Header.Set("Authorization", "Bearer "+sign(t, r.caller, secret))
	}
	if r.deposit != "" {
		req.Header.Set(api.DepositHeader, r.deposit)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func (s *server) mint(t *testing.T, id, owner, extra string) {
	t.Helper()
	body := `{"token_id":"` + id + `","receiver_id":"` + owner + `","token_metadata":{"title":"T"}` + extra + `}`
	rec := s.do(t, request{method: http.MethodPost, path: "/v1/tokens", body: body, caller: owner, deposit: "100000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func kindOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Kind
}

func TestMintAndRead(t *testing.T) {
	s := newServer(t)
	s.mint(t, "t1", "alice.near", `,"perpetual_royalties":{"artist.near":1000}`)

	rec := s.do(t, request{method: http.MethodGet, path: "/v1/tokens/t1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var anon mintage.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anon))
	assert.Nil(t, anon.Metadata, "anonymous readers do not see metadata")
	assert.Equal(t, mintage.RoyaltyTable{"artist.near": 1000}, anon.Royalty)

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/tokens/t1", caller: "alice.near"})
	require.Equal(t, http.StatusOK, rec.Code)
	var owner mintage.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owner))
	require.NotNil(t, owner.Metadata)
	assert.Equal(t, "T", *owner.Metadata.Title)

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/tokens/missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/supply"})
	assert.JSONEq(t, `{"supply":"1"}`, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/owners/alice.near/supply"})
	assert.JSONEq(t, `{"supply":"1"}`, rec.Body.String())

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/owners/alice.near/tokens?limit=10"})
	require.Equal(t, http.StatusOK, rec.Code)
	var views []mintage.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 1)
}

func TestErrorStatuses(t *testing.T) {
	s := newServer(t)
	s.mint(t, "t1", "alice.near", `,"perpetual_royalties":{"a.near":1,"b.near":1}`)
	s.mint(t, "plain", "alice.near", "")

	tests := []struct {
		name   string
		req    request
		status int
		kind   string
	}{
		{
			name:   "duplicate mint",
			req:    request{method: http.MethodPost, path: "/v1/tokens", caller: "alice.near", deposit: "100000", body: `{"token_id":"t1","receiver_id":"alice.near","token_metadata":{}}`},
			status: http.StatusConflict,
			kind:   "conflict",
		},
		{
			name:   "underpaid mint",
			req:    request{method: http.MethodPost, path: "/v1/tokens", caller: "alice.near", deposit: "1", body: `{"token_id":"t2","receiver_id":"alice.near","token_metadata":{}}`},
			status: http.StatusPaymentRequired,
			kind:   "underpayment",
		},
		{
			name:   "bad duration",
			req:    request{method: http.MethodPost, path: "/v1/tokens", caller: "alice.near", deposit: "100000", body: `{"token_id":"t3","receiver_id":"alice.near","token_metadata":{},"expiration_period":"1x"}`},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "payout over max length",
			req:    request{method: http.MethodGet, path: "/v1/tokens/t1/payout?balance=100&max_len_payout=1"},
			status: http.StatusUnprocessableEntity,
			kind:   "capacity_exceeded",
		},
		{
			name:   "payout without royalty",
			req:    request{method: http.MethodGet, path: "/v1/tokens/plain/payout?balance=100&max_len_payout=5"},
			status: http.StatusNotFound,
			kind:   "not_found",
		},
		{
			name:   "transfer without one yocto",
			req:    request{method: http.MethodPost, path: "/v1/tokens/t1/transfer", caller: "alice.near", body: `{"receiver_id":"bob.near"}`},
			status: http.StatusForbidden,
			kind:   "unauthorized",
		},
		{
			name:   "zero limit",
			req:    request{method: http.MethodGet, path: "/v1/tokens?limit=0"},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name:   "anonymous mutation",
			req:    request{method: http.MethodPost, path: "/v1/tokens/t1/transfer", deposit: "1", body: `{"receiver_id":"bob.near"}`},
			status: http.StatusUnauthorized,
			kind:   "unauthenticated",
		},
		{
			name:   "unknown body field",
			req:    request{method: http.MethodPost, path: "/v1/tokens/t1/transfer", caller: "alice.near", deposit: "1", body: `{"receiver":"bob.near"}`},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, kindOf(t, rec))
		})
	}
}

func TestRejectsForgedToken(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/supply", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "alice.near", []byte("other")))
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSaleFlow(t *testing.T) {
	s := newServer(t)
	s.mint(t, "t1", "alice.near", `,"perpetual_royalties":{"artist.near":2000}`)

	rec := s.do(t, request{
		method: http.MethodPost, path: "/v1/tokens/t1/approvals",
		caller: "alice.near", deposit: "100000",
		body: `{"account_id":"market.near"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"approval_id":0}`, rec.Body.String())

	rec = s.do(t, request{
		method: http.MethodPost, path: "/v1/tokens/t1/transfer_payout",
		caller: "market.near", deposit: "1",
		body: `{"receiver_id":"bob.near","approval_id":0,"balance":"10000","max_len_payout":10}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"payout":{"alice.near":"8000","artist.near":"2000"}}`, rec.Body.String())

	view, err := s.reg.Get(context.Background(), "t1", "bob.near")
	require.NoError(t, err)
	assert.Equal(t, mintage.AccountID("bob.near"), view.OwnerID)
	assert.Empty(t, view.Approvals)

	rec = s.do(t, request{method: http.MethodGet, path: "/v1/accounts/registry.near/balance"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, request{
		method: http.MethodDelete, path: "/v1/tokens/t1/approvals/market.near",
		caller: "bob.near", deposit: "1",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestContractMetadata(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, request{method: http.MethodGet, path: "/v1/metadata"})
	require.Equal(t, http.StatusOK, rec.Code)
	var md mintage.ContractMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &md))
	assert.Equal(t, "nft-1.0.0", md.Spec)
}
