package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"meditrack/m/internal/ledger"
	"meditrack/m/internal/session"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

const sessionCookie = "meditrack_session"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db         *sqlx.DB
	sessions   session.Store
	ledger     *ledger.Engine
	sessionTTL time.Duration
}

// New constructs a Handler.
func New(db *sqlx.DB, sessions session.Store, sessionTTL time.Duration) *Handler {
	return &Handler{db: db, sessions: sessions, ledger: ledger.New(db), sessionTTL: sessionTTL}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/check", h.sessionCheck)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Post("/", h.createMedicine)
			r.Get("/{id}", h.getMedicine)
			r.Put("/{id}", h.updateMedicine)
			r.Delete("/{id}", h.deleteMedicine)
		})

		pr.Route("/categories", h.refRoutes(refCategories))
		pr.Route("/suppliers", h.refRoutes(refSuppliers))

		pr.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.listTransactions)
			r.Post("/", h.recordTransaction)
		})

		pr.Get("/dashboard", h.dashboard)

		pr.Route("/users", func(r chi.Router) {
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication plumbing

// sessionToken pulls the opaque token from the session cookie, falling
// back to an Authorization bearer header for non-browser clients.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// identityFromRequest resolves the session if one exists. Used by the
// middleware and by the endpoints that behave differently for logged-in
// callers (register, check).
func (h *Handler) identityFromRequest(r *http.Request) (session.Identity, bool) {
	token := sessionToken(r)
	if token == "" {
		return session.Identity{}, false
	}
	id, ok, err := h.sessions.Get(r.Context(), token)
	if err != nil || !ok {
		return session.Identity{}, false
	}
	return id, true
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.identityFromRequest(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized. Please login.")
			return
		}
		ctx := context.WithValue(r.Context(), ctxIdentity, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(r *http.Request) session.Identity {
	if id, ok := r.Context().Value(ctxIdentity).(session.Identity); ok {
		return id
	}
	return session.Identity{}
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	current := identityFromContext(r).Role
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
	return false
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// pageParams bounds list queries. Zero or missing limit falls back to the
// default; anything above max is clamped.
func pageParams(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > max {
		limit = max
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}
