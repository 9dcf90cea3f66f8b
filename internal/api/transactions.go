package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"meditrack/m/internal/ledger"
)

// recordTimeout bounds the ledger's atomic unit of work.
const recordTimeout = 5 * time.Second

type transactionRequest struct {
	MedicineID      int64  `json:"medicine_id"`
	Type            string `json:"type"`
	Quantity        int64  `json:"quantity"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicineID <= 0 {
		respondError(w, http.StatusBadRequest, "Field 'medicine_id' is required")
		return
	}
	if req.Type == "" {
		respondError(w, http.StatusBadRequest, "Field 'type' is required")
		return
	}
	if req.Quantity == 0 {
		respondError(w, http.StatusBadRequest, "Field 'quantity' is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), recordTimeout)
	defer cancel()

	actor := identityFromContext(r).Username
	result, err := h.ledger.Record(ctx, req.MedicineID, req.Type, req.Quantity,
		nullIfEmpty(req.ReferenceNumber), nullIfEmpty(req.Notes), actor)
	if err != nil {
		var insufficient *ledger.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Insufficient stock. Available: %d", insufficient.Available))
		case errors.Is(err, ledger.ErrInvalidType):
			respondError(w, http.StatusBadRequest, "Invalid transaction type")
		case errors.Is(err, ledger.ErrInvalidQuantity):
			respondError(w, http.StatusBadRequest, "Invalid quantity for transaction type")
		case errors.Is(err, ledger.ErrNegativeStock):
			respondError(w, http.StatusBadRequest, "Adjustment would result in negative stock")
		case errors.Is(err, ledger.ErrMedicineNotFound):
			respondError(w, http.StatusNotFound, "Medicine not found")
		case errors.Is(err, ledger.ErrConflict):
			respondError(w, http.StatusConflict, "Stock changed concurrently, please retry")
		default:
			logrus.Errorf("record transaction: %v", err)
			respondError(w, http.StatusInternalServerError, "Transaction failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"message":        "Transaction recorded successfully",
		"transaction_id": result.TransactionID,
		"new_stock":      result.NewStock,
		"needs_reorder":  result.NeedsReorder,
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	var medicineID int64
	if raw := r.URL.Query().Get("medicine_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "medicine_id must be an id")
			return
		}
		medicineID = parsed
	}
	limit, _ := pageParams(r, 100, 200)

	rows, err := h.ledger.List(r.Context(), medicineID, limit)
	if err != nil {
		logrus.Errorf("list transactions: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": rows})
}
