package domain

type Category struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}
