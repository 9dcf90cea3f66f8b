package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"meditrack/m/domain"
)

// medicineRow carries the stored columns plus the read-time derived fields
// and joined reference names.
type medicineRow struct {
	domain.Medicine
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	SupplierName *string `db:"supplier_name" json:"supplier_name,omitempty"`
	ExpiryStatus string  `db:"expiry_status" json:"expiry_status"`
	NeedsReorder bool    `db:"needs_reorder" json:"needs_reorder"`
}

const medicineSelect = `
    SELECT m.id, m.name, m.generic_name, m.category_id, m.supplier_id, m.unit,
           m.stock_quantity, m.reorder_level, m.unit_price, m.expiry_date,
           m.location, m.description, m.status, m.created_at, m.updated_at,
           c.name AS category_name, s.name AS supplier_name,
           CASE
               WHEN m.expiry_date IS NOT NULL AND m.expiry_date < date('now') THEN 'expired'
               WHEN m.expiry_date IS NOT NULL AND m.expiry_date <= date('now', '+90 days') THEN 'expiring_soon'
               ELSE 'ok'
           END AS expiry_status,
           CASE WHEN m.stock_quantity <= m.reorder_level THEN 1 ELSE 0 END AS needs_reorder
    FROM medicines m
    LEFT JOIN categories c ON m.category_id = c.id
    LEFT JOIN suppliers s ON m.supplier_id = s.id`

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	var (
		clauses []string
		args    []any
	)

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		like := "%" + search + "%"
		clauses = append(clauses, `(m.name LIKE ? OR m.generic_name LIKE ?)`)
		args = append(args, like, like)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		categoryID, err := strconv.ParseInt(category, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Category must be an id")
			return
		}
		clauses = append(clauses, `m.category_id = ?`)
		args = append(args, categoryID)
	}
	switch r.URL.Query().Get("status") {
	case "":
	case "low_stock":
		clauses = append(clauses, `m.stock_quantity <= m.reorder_level`)
	case "expiring":
		clauses = append(clauses, `m.expiry_date IS NOT NULL AND m.expiry_date <= date('now', '+90 days') AND m.expiry_date >= date('now')`)
	case "expired":
		clauses = append(clauses, `m.expiry_date IS NOT NULL AND m.expiry_date < date('now')`)
	default:
		respondError(w, http.StatusBadRequest, "Status must be low_stock, expiring or expired")
		return
	}

	query := medicineSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit, offset := pageParams(r, 100, 500)
	query += " ORDER BY m.name ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows := []medicineRow{}
	if err := h.db.SelectContext(r.Context(), &rows, query, args...); err != nil {
		logrus.Errorf("list medicines: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to list medicines")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": rows, "total": len(rows)})
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid medicine id")
		return
	}
	var row medicineRow
	err := h.db.GetContext(r.Context(), &row, medicineSelect+" WHERE m.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "Medicine not found")
		return
	}
	if err != nil {
		logrus.Errorf("get medicine: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load medicine")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": row})
}

type medicineRequest struct {
	Name          string  `json:"name"`
	GenericName   string  `json:"generic_name,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	SupplierID    *int64  `json:"supplier_id,omitempty"`
	Unit          string  `json:"unit"`
	StockQuantity int64   `json:"stock_quantity"`
	ReorderLevel  int64   `json:"reorder_level"`
	UnitPrice     float64 `json:"unit_price,omitempty"`
	ExpiryDate    string  `json:"expiry_date,omitempty"`
	Location      string  `json:"location,omitempty"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status,omitempty"`
}

func (req *medicineRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "Field 'name' is required"
	}
	if strings.TrimSpace(req.Unit) == "" {
		return "Field 'unit' is required"
	}
	if req.StockQuantity < 0 {
		return "Stock quantity cannot be negative"
	}
	if req.ReorderLevel < 0 {
		return "Reorder level cannot be negative"
	}
	if req.UnitPrice < 0 {
		return "Unit price cannot be negative"
	}
	if req.Status != "" && req.Status != "active" && req.Status != "inactive" {
		return "Status must be active or inactive"
	}
	return ""
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	res, err := h.db.ExecContext(r.Context(),
		`INSERT INTO medicines (name, generic_name, category_id, supplier_id, unit,
                                stock_quantity, reorder_level, unit_price, expiry_date, location, description, status)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Name, nullIfEmpty(req.GenericName), req.CategoryID, req.SupplierID, req.Unit,
		req.StockQuantity, req.ReorderLevel, req.UnitPrice, nullIfEmpty(req.ExpiryDate),
		nullIfEmpty(req.Location), nullIfEmpty(req.Description), status)
	if err != nil {
		logrus.Errorf("create medicine: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to add medicine")
		return
	}
	id, _ := res.LastInsertId()
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Medicine added.", "id": id})
}

// updateMedicine changes descriptive fields only. stock_quantity is owned
// by the ledger engine and never written here.
func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid medicine id")
		return
	}
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	res, err := h.db.ExecContext(r.Context(),
		`UPDATE medicines SET
            name = ?, generic_name = ?, category_id = ?, supplier_id = ?, unit = ?,
            reorder_level = ?, unit_price = ?, expiry_date = ?, location = ?,
            description = ?, status = ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ?`,
		req.Name, nullIfEmpty(req.GenericName), req.CategoryID, req.SupplierID, req.Unit,
		req.ReorderLevel, req.UnitPrice, nullIfEmpty(req.ExpiryDate), nullIfEmpty(req.Location),
		nullIfEmpty(req.Description), status, id)
	if err != nil {
		logrus.Errorf("update medicine: %v", err)
		respondError(w, http.StatusInternalServerError, "Update failed")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Medicine updated."})
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid medicine id")
		return
	}

	// The ledger is append-only; a medicine with history stays.
	var entries int64
	if err := h.db.GetContext(r.Context(), &entries,
		`SELECT COUNT(*) FROM stock_transactions WHERE medicine_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}
	if entries > 0 {
		respondError(w, http.StatusConflict, "Medicine has recorded stock transactions and cannot be deleted")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		logrus.Errorf("delete medicine: %v", err)
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Medicine not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Medicine deleted."})
}
