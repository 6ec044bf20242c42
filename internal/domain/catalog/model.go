package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one service in the clinic's procedure catalog. Entry names are the
// allowed procedure vocabulary for treatment forms and autocomplete.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
