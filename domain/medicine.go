package domain

type Medicine struct {
	ID            int64   `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	GenericName   *string `db:"generic_name" json:"generic_name,omitempty"`
	CategoryID    *int64  `db:"category_id" json:"category_id,omitempty"`
	SupplierID    *int64  `db:"supplier_id" json:"supplier_id,omitempty"`
	Unit          string  `db:"unit" json:"unit"`
	StockQuantity int64   `db:"stock_quantity" json:"stock_quantity"`
	ReorderLevel  int64   `db:"reorder_level" json:"reorder_level"`
	UnitPrice     float64 `db:"unit_price" json:"unit_price"`
	ExpiryDate    *string `db:"expiry_date" json:"expiry_date,omitempty"`
	Location      *string `db:"location" json:"location,omitempty"`
	Description   *string `db:"description" json:"description,omitempty"`
	Status        string  `db:"status" json:"status"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	UpdatedAt     string  `db:"updated_at" json:"updated_at"`
}
