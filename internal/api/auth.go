package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"meditrack/m/domain"
	"meditrack/m/internal/session"
)

const minPasswordLength = 6

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	for field, value := range map[string]string{
		"username":  req.Username,
		"password":  req.Password,
		"full_name": req.FullName,
	} {
		if strings.TrimSpace(value) == "" {
			respondError(w, http.StatusBadRequest, "Field '"+field+"' is required")
			return
		}
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	role := req.Role
	if role == "" {
		role = "staff"
	}
	if role != "admin" && role != "staff" {
		respondError(w, http.StatusBadRequest, "Role must be admin or staff")
		return
	}

	// The very first account may bootstrap itself as admin; after that,
	// only an admin session can mint another admin.
	if role == "admin" {
		var userCount int64
		if err := h.db.GetContext(r.Context(), &userCount, `SELECT COUNT(*) FROM users`); err != nil {
			respondError(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		if userCount > 0 {
			if id, ok := h.identityFromRequest(r); !ok || id.Role != "admin" {
				respondError(w, http.StatusForbidden, "Only admins can create admin accounts. Please select Staff role.")
				return
			}
		}
	}

	var exists bool
	if err := h.db.GetContext(r.Context(), &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, req.Username); err != nil {
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	if exists {
		respondError(w, http.StatusConflict, "Username already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unable to secure password")
		return
	}

	res, err := h.db.ExecContext(r.Context(),
		`INSERT INTO users (username, password, full_name, role) VALUES (?, ?, ?, ?)`,
		req.Username, string(hashed), req.FullName, role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "Username already exists")
			return
		}
		logrus.Errorf("register insert: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	userID, _ := res.LastInsertId()

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful! You can now login.",
		"user_id": userID,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	var user domain.User
	err := h.db.GetContext(r.Context(), &user,
		`SELECT id, username, password, full_name, role FROM users WHERE username = ?`, req.Username)
	if errors.Is(err, sql.ErrNoRows) {
		// Same message as a wrong password so usernames cannot be probed.
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		logrus.Errorf("login lookup: %v", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.sessions.Create(r.Context(), session.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      user.Role,
		LoginTime: time.Now(),
	})
	if err != nil {
		logrus.Errorf("session create: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	user.Password = ""
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		_ = h.sessions.Delete(r.Context(), token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (h *Handler) sessionCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identityFromRequest(r)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"authenticated": true,
		"user": map[string]any{
			"id":        id.UserID,
			"username":  id.Username,
			"full_name": id.FullName,
			"role":      id.Role,
		},
	})
}
