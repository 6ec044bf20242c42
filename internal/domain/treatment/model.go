package treatment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Treatment represents one performed procedure on one tooth. Notes may carry
// an embedded appointment back-reference marker; see pkg/apptref.
type Treatment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Procedure     string    `db:"procedure" json:"procedure"`
	Tooth         int       `db:"tooth" json:"tooth"`
	Plan          string    `db:"plan" json:"plan"`
	Notes         string    `db:"notes" json:"notes"`
	TreatmentDate time.Time `db:"treatment_date" json:"treatment_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ValidationError names the form field that failed validation. Submissions
// are rejected atomically on the first validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
