package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"meditrack/m/domain"
)

type dashboardStats struct {
	TotalMedicines      int64   `json:"total_medicines"`
	LowStockCount       int64   `json:"low_stock_count"`
	ExpiringSoonCount   int64   `json:"expiring_soon_count"`
	ExpiredCount        int64   `json:"expired_count"`
	TotalInventoryValue float64 `json:"total_inventory_value"`
	AlertCount          int64   `json:"alert_count"`
}

type expiringItem struct {
	domain.Medicine
	CategoryName    *string `db:"category_name" json:"category_name,omitempty"`
	DaysUntilExpiry int64   `db:"days_until_expiry" json:"days_until_expiry"`
}

type lowStockItem struct {
	domain.Medicine
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
}

// dashboard fans out the summary queries. Everything is computed fresh per
// call; counts may overlap (an expired low-stock item alerts twice).
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats dashboardStats

	counts := []struct {
		dest  *int64
		query string
	}{
		{&stats.TotalMedicines, `SELECT COUNT(*) FROM medicines WHERE status = 'active'`},
		{&stats.LowStockCount, `SELECT COUNT(*) FROM medicines WHERE stock_quantity <= reorder_level AND status = 'active'`},
		{&stats.ExpiringSoonCount, `SELECT COUNT(*) FROM medicines
            WHERE expiry_date IS NOT NULL AND expiry_date <= date('now', '+90 days')
            AND expiry_date >= date('now') AND status = 'active'`},
		{&stats.ExpiredCount, `SELECT COUNT(*) FROM medicines
            WHERE expiry_date IS NOT NULL AND expiry_date < date('now') AND status = 'active'`},
	}
	for _, c := range counts {
		if err := h.db.GetContext(ctx, c.dest, c.query); err != nil {
			logrus.Errorf("dashboard count: %v", err)
			respondError(w, http.StatusInternalServerError, "Unable to load dashboard")
			return
		}
	}
	if err := h.db.GetContext(ctx, &stats.TotalInventoryValue,
		`SELECT COALESCE(SUM(stock_quantity * unit_price), 0) FROM medicines WHERE status = 'active'`); err != nil {
		logrus.Errorf("dashboard inventory value: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load dashboard")
		return
	}
	stats.AlertCount = stats.LowStockCount + stats.ExpiringSoonCount + stats.ExpiredCount

	recent, err := h.ledger.List(ctx, 0, 10)
	if err != nil {
		logrus.Errorf("dashboard transactions: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load dashboard")
		return
	}

	lowStock := []lowStockItem{}
	if err := h.db.SelectContext(ctx, &lowStock,
		`SELECT m.id, m.name, m.generic_name, m.category_id, m.supplier_id, m.unit,
                m.stock_quantity, m.reorder_level, m.unit_price, m.expiry_date,
                m.location, m.description, m.status, m.created_at, m.updated_at,
                c.name AS category_name
         FROM medicines m
         LEFT JOIN categories c ON m.category_id = c.id
         WHERE m.stock_quantity <= m.reorder_level AND m.status = 'active'
         ORDER BY m.stock_quantity ASC
         LIMIT 10`); err != nil {
		logrus.Errorf("dashboard low stock: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load dashboard")
		return
	}

	expiring := []expiringItem{}
	if err := h.db.SelectContext(ctx, &expiring,
		`SELECT m.id, m.name, m.generic_name, m.category_id, m.supplier_id, m.unit,
                m.stock_quantity, m.reorder_level, m.unit_price, m.expiry_date,
                m.location, m.description, m.status, m.created_at, m.updated_at,
                c.name AS category_name,
                CAST(julianday(m.expiry_date) - julianday(date('now')) AS INTEGER) AS days_until_expiry
         FROM medicines m
         LEFT JOIN categories c ON m.category_id = c.id
         WHERE m.expiry_date IS NOT NULL AND m.expiry_date <= date('now', '+90 days')
         AND m.status = 'active'
         ORDER BY m.expiry_date ASC
         LIMIT 10`); err != nil {
		logrus.Errorf("dashboard expiring: %v", err)
		respondError(w, http.StatusInternalServerError, "Unable to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"stats":               stats,
		"recent_transactions": recent,
		"low_stock_items":     lowStock,
		"expiring_items":      expiring,
	})
}
