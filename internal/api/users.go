package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"meditrack/m/domain"
)

// All user management is admin-only. Accounts are created through
// /auth/register.

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	limit, offset := pageParams(r, 100, 500)
	users := []domain.User{}
	if err := h.db.SelectContext(r.Context(), &users,
		`SELECT id, username, full_name, role, created_at FROM users
         ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset); err != nil {
		logrus.Errorf("list users: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to list users")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": users})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var user domain.User
	err := h.db.GetContext(r.Context(), &user,
		`SELECT id, username, full_name, role, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logrus.Errorf("get user: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": user})
}

type userUpdateRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Partial update: only the provided fields change.
	var (
		updates []string
		args    []any
	)
	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			respondError(w, http.StatusBadRequest, "Full name cannot be empty")
			return
		}
		updates = append(updates, "full_name = ?")
		args = append(args, *req.FullName)
	}
	if req.Role != nil {
		if *req.Role != "admin" && *req.Role != "staff" {
			respondError(w, http.StatusBadRequest, "Invalid role")
			return
		}
		updates = append(updates, "role = ?")
		args = append(args, *req.Role)
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < minPasswordLength {
			respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Unable to secure password")
			return
		}
		updates = append(updates, "password = ?")
		args = append(args, string(hashed))
	}
	if len(updates) == 0 {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	args = append(args, id)
	res, err := h.db.ExecContext(r.Context(),
		`UPDATE users SET `+strings.Join(updates, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		logrus.Errorf("update user: %v", err)
		respondError(w, http.StatusInternalServerError, "Update failed")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User updated successfully"})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if id == identityFromContext(r).UserID {
		respondError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		logrus.Errorf("delete user: %v", err)
		respondError(w, http.StatusInternalServerError, "Delete failed")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User deleted successfully"})
}
