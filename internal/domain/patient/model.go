package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record.
type Patient struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	MiddleName *string    `db:"middle_name" json:"middle_name,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex        *string    `db:"sex" json:"sex,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Address    *string    `db:"address" json:"address,omitempty"`
	Branch     string     `db:"branch" json:"branch"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
