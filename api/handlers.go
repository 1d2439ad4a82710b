package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/types"
	"github.com/xraph/mintage/visibility"
)

// ──────────────────────────────────────────────────
// Tokens
// ──────────────────────────────────────────────────

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	call, err := callFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req mintage.MintRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.registry.Mint(r.Context(), call, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.registry.Get(r.Context(), chi.URLParam(r, "tokenID"), callerOf(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if view == nil {
		writeStatus(w, http.StatusNotFound, mintage.KindNotFound.String(), "token not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views, err := h.registry.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListForOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := types.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views, err := h.registry.ListForOwner(r.Context(), owner, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ──────────────────────────────────────────────────
// Transfers and approvals
// ──────────────────────────────────────────────────

type transferBody struct {
	Receiver   types.AccountID `json:"receiver_id"`
	ApprovalID *uint64         `json:"approval_id,omitempty"`
	Memo       *string         `json:"memo,omitempty"`
}

func (b transferBody) request(tokenID string) mintage.TransferRequest {
	return mintage.TransferRequest{
		Receiver:   b.Receiver,
		TokenID:    tokenID,
		ApprovalID: b.ApprovalID,
		Memo:       b.Memo,
	}
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	call, err := callFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body transferBody
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.registry.Transfer(r.Context(), call, body.request(chi.URLParam(r, "tokenID")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleTransferPayout(w http.ResponseWriter, r *http.Request) {
	call, err := callFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body struct {
		transferBody
		Balance      types.Amount `json:"balance"`
		MaxLenPayout uint32       `json:"max_len_payout"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.registry.TransferWithPayout(r.Context(), call, mintage.TransferPayoutRequest{
		TransferRequest: body.request(chi.URLParam(r, "tokenID")),
		Balance:         body.Balance,
		MaxLenPayout:    body.MaxLenPayout,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	call, err := callFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body struct {
		Account types.AccountID `json:"account_id"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	approvalID, err := h.registry.Approve(r.Context(), call, chi.URLParam(r, "tokenID"), body.Account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"approval_id": approvalID})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	call, err := callFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account := types.AccountID(chi.URLParam(r, "accountID"))
	if err := h.registry.Revoke(r.Context(), call, chi.URLParam(r, "tokenID"), account); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Payouts
// ──────────────────────────────────────────────────

func (h *Handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := types.ParseAmount(q.Get("balance"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	maxLen, err := strconv.ParseUint(q.Get("max_len_payout"), 10, 32)
	if err != nil {
		h.writeError(w, r, mintage.ValidationError{Field: "max_len_payout", Message: err.Error()})
		return
	}
	b, err := h.registry.Payout(r.Context(), chi.URLParam(r, "tokenID"), amount, uint32(maxLen))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ──────────────────────────────────────────────────
// Registry reads
// ──────────────────────────────────────────────────

func (h *Handler) handleTotalSupply(w http.ResponseWriter, r *http.Request) {
	n, err := h.registry.TotalSupply(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"supply": strconv.FormatUint(n, 10)})
}

func (h *Handler) handleSupplyForOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := types.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.registry.SupplyForOwner(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"supply": strconv.FormatUint(n, 10)})
}

func (h *Handler) handleContractMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.ContractMetadata())
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bal, err := h.registry.Balance(r.Context(), account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": account, "balance": bal})
}

// ──────────────────────────────────────────────────
// Request parsing
// ──────────────────────────────────────────────────

func callFrom(r *http.Request) (mintage.Call, error) {
	call := mintage.Call{Predecessor: callerOf(r), Deposit: types.Zero}
	if raw := r.Header.Get(DepositHeader); raw != "" {
		d, err := types.ParseAmount(raw)
		if err != nil {
			return call, fmt.Errorf("%s: %w", DepositHeader, err)
		}
		call.Deposit = d
	}
	return call, nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return mintage.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func pageFrom(r *http.Request) (visibility.Page, error) {
	var page visibility.Page
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **uint64
	}{
		{"from_index", &page.FromIndex},
		{"limit", &page.Limit},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return page, mintage.ValidationError{Field: p.name, Message: err.Error()}
		}
		*p.dst = &v
	}
	return page, nil
}
