package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"meditrack/m/domain"
)

// refKind selects between the two reference tables. Dispatch is by enum so
// no table name ever comes from request input.
type refKind int

const (
	refCategories refKind = iota
	refSuppliers
)

func (k refKind) table() string {
	if k == refSuppliers {
		return "suppliers"
	}
	return "categories"
}

func (k refKind) label() string {
	if k == refSuppliers {
		return "Supplier"
	}
	return "Category"
}

func (k refKind) medicineColumn() string {
	if k == refSuppliers {
		return "supplier_id"
	}
	return "category_id"
}

func (h *Handler) refRoutes(kind refKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listRefs(kind))
		r.Post("/", h.createRef(kind))
		r.Delete("/{id}", h.deleteRef(kind))
	}
}

func (h *Handler) listRefs(kind refKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r, 100, 500)
		var (
			data any
			err  error
		)
		if kind == refSuppliers {
			rows := []domain.Supplier{}
			err = h.db.SelectContext(r.Context(), &rows,
				`SELECT id, name, contact_person, phone, email, address, created_at
                 FROM suppliers ORDER BY name ASC LIMIT ? OFFSET ?`, limit, offset)
			data = rows
		} else {
			rows := []domain.Category{}
			err = h.db.SelectContext(r.Context(), &rows,
				`SELECT id, name, description, created_at
                 FROM categories ORDER BY name ASC LIMIT ? OFFSET ?`, limit, offset)
			data = rows
		}
		if err != nil {
			logrus.Errorf("list %s: %v", kind.table(), err)
			respondError(w, http.StatusInternalServerError, "Unable to list "+kind.table())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	}
}

type refRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
}

func (h *Handler) createRef(kind refKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}

		var (
			res sql.Result
			err error
		)
		if kind == refSuppliers {
			res, err = h.db.ExecContext(r.Context(),
				`INSERT INTO suppliers (name, contact_person, phone, email, address) VALUES (?, ?, ?, ?, ?)`,
				req.Name, nullIfEmpty(req.ContactPerson), nullIfEmpty(req.Phone),
				nullIfEmpty(req.Email), nullIfEmpty(req.Address))
		} else {
			res, err = h.db.ExecContext(r.Context(),
				`INSERT INTO categories (name, description) VALUES (?, ?)`,
				req.Name, nullIfEmpty(req.Description))
		}
		if err != nil {
			logrus.Errorf("create %s: %v", kind.table(), err)
			respondError(w, http.StatusInternalServerError, "Failed to add")
			return
		}
		id, _ := res.LastInsertId()
		respondJSON(w, http.StatusCreated, map[string]any{"success": true, "message": kind.label() + " added", "id": id})
	}
}

func (h *Handler) deleteRef(kind refKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireRole(w, r, "admin") {
			return
		}
		id, ok := pathID(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid id")
			return
		}

		// Restrict-if-referenced: a reference row in use by medicines
		// cannot be removed.
		var referenced int64
		countQuery := `SELECT COUNT(*) FROM medicines WHERE ` + kind.medicineColumn() + ` = ?`
		if err := h.db.GetContext(r.Context(), &referenced, countQuery, id); err != nil {
			respondError(w, http.StatusInternalServerError, "Delete failed")
			return
		}
		if referenced > 0 {
			respondError(w, http.StatusConflict, kind.label()+" is referenced by existing medicines")
			return
		}

		deleteQuery := `DELETE FROM ` + kind.table() + ` WHERE id = ?`
		res, err := h.db.ExecContext(r.Context(), deleteQuery, id)
		if err != nil {
			logrus.Errorf("delete %s: %v", kind.table(), err)
			respondError(w, http.StatusInternalServerError, "Delete failed")
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			respondError(w, http.StatusNotFound, kind.label()+" not found")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": kind.label() + " deleted"})
	}
}
