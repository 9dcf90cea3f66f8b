package domain

// StockTransaction is an append-only ledger entry. Rows are never updated
// or deleted once committed.
type StockTransaction struct {
	ID              int64   `db:"id" json:"id"`
	MedicineID      int64   `db:"medicine_id" json:"medicine_id"`
	Type            string  `db:"type" json:"type"`
	Quantity        int64   `db:"quantity" json:"quantity"`
	ReferenceNumber *string `db:"reference_number" json:"reference_number,omitempty"`
	Notes           *string `db:"notes" json:"notes,omitempty"`
	PerformedBy     string  `db:"performed_by" json:"performed_by"`
	TransactionDate string  `db:"transaction_date" json:"transaction_date"`
}
