package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/blob"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/ledger"
	"github.com/Atmakurhemanthkumar/splitmate/internal/middleware"
	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/internal/service"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api"
)

// proofField is the multipart field carrying the image.
const proofField = "proof"

// multipartOverhead is allowed on top of the image for headers and boundaries.
const multipartOverhead = 64 << 10

type uploadHandler struct {
	proofs *proofs.Bridge
	ledger *ledger.Ledger
}

// ServeHTTP stores a proof image for the caller's entry and attaches it.
func (h *uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := chi.URLParam(r, "expenseID")

	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxImageBytes+multipartOverhead)
	file, header, err := r.FormFile(proofField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperr.Validation("%v", blob.ErrTooLarge))
			return
		}
		writeError(w, apperr.Validation("multipart field %q is required", proofField))
		return
	}
	defer file.Close()

	url, err := h.proofs.UploadProof(r.Context(), expenseID, userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	expense, err := h.ledger.GetExpense(r.Context(), userID, expenseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.UploadProofResponse{
		ProofURL: url,
		Expense:  service.ExpenseToAPI(expense),
	})
}

type wsHandler struct {
	tokens   *auth.JWTManager
	registry *registry.Registry
	hub      *broadcast.Hub
}

// ServeHTTP subscribes the caller to their group's room. Browsers cannot set
// headers on websocket requests, so the token comes from the query string.
func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(r.Header.Get("Authorization")); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
		return
	}

	group, err := h.registry.GroupOf(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Debug("websocket subscribed", "user_id", claims.UserID, "group_id", group.ID)
	h.hub.ServeWS(w, r, group.ID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// writeError writes err as {"error": msg} with a status derived from its kind.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Msg
		switch ae.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotAuthorized:
			status = http.StatusForbidden
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
