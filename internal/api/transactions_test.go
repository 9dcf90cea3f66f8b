package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransactionFlow(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)

	id := createMedicine(t, srv, admin, map[string]any{
		"name": "Paracetamol", "unit": "tablet",
		"stock_quantity": 100, "reorder_level": 20,
	})

	status, body := doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "stock_out", "quantity": 30,
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)
	assert.Equal(t, float64(70), body["new_stock"])
	assert.Equal(t, false, body["needs_reorder"])

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "stock_out", "quantity": 60,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(10), body["new_stock"])
	assert.Equal(t, true, body["needs_reorder"])

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "stock_out", "quantity": 50,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock. Available: 10", body["message"])

	// The rejected movement changed nothing.
	status, body = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/medicines/%d", id), admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(10), body["data"].(map[string]any)["stock_quantity"])

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "stock_in", "quantity": 15,
		"reference_number": "GRN-042", "notes": "weekly delivery",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(25), body["new_stock"])

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "adjustment", "quantity": -5,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(20), body["new_stock"])
	assert.Equal(t, true, body["needs_reorder"])

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "adjustment", "quantity": -21,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "negative stock")
}

func TestRecordTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)

	id := createMedicine(t, srv, admin, map[string]any{
		"name": "Ibuprofen", "unit": "tablet",
		"stock_quantity": 10, "reorder_level": 2,
	})

	status, body := doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"type": "stock_in", "quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "medicine_id")

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "type")

	status, body = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "stock_in",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "quantity")

	status, _ = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": id, "type": "transfer", "quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, srv, http.MethodPost, "/transactions", admin, map[string]any{
		"medicine_id": 9999, "type": "stock_in", "quantity": 5,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, srv, http.MethodPost, "/transactions", "", map[string]any{
		"medicine_id": id, "type": "stock_in", "quantity": 5,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListTransactions(t *testing.T) {
	srv := newTestServer(t)
	admin := adminToken(t, srv)

	first := createMedicine(t, srv, admin, map[string]any{
		"name": "Loratadine", "unit": "tablet",
		"stock_quantity": 50, "reorder_level": 5,
	})
	second := createMedicine(t, srv, admin, map[string]any{
		"name": "Omeprazole", "unit": "capsule",
		"stock_quantity": 50, "reorder_level": 5,
	})

	for _, payload := range []map[string]any{
		{"medicine_id": first, "type": "stock_in", "quantity": 10},
		{"medicine_id": second, "type": "stock_out", "quantity": 5},
		{"medicine_id": first, "type": "stock_out", "quantity": 3},
	} {
		status, _ := doRequest(t, srv, http.MethodPost, "/transactions", admin, payload)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := doRequest(t, srv, http.MethodGet, "/transactions", admin, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 3)
	newest := data[0].(map[string]any)
	assert.Equal(t, "Loratadine", newest["medicine_name"])
	assert.Equal(t, "stock_out", newest["type"])
	assert.Equal(t, "admin", newest["performed_by"])

	status, body = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/transactions?medicine_id=%d", second), admin, nil)
	require.Equal(t, http.StatusOK, status)
	data = body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Omeprazole", data[0].(map[string]any)["medicine_name"])

	status, body = doRequest(t, srv, http.MethodGet, "/transactions?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)
}
