package domain

type Supplier struct {
	ID            int64   `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	ContactPerson *string `db:"contact_person" json:"contact_person,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}
