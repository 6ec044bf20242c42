package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is a scheduled visit. Services holds the procedure names booked
// for the visit; a completed appointment's services seed treatment creation.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DentistID uuid.UUID `db:"dentist_id" json:"dentist_id"`
	Branch    string    `db:"branch" json:"branch"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Status    string    `db:"status" json:"status"`
	Services  []string  `db:"services" json:"services"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Suggestion annotates an appointment in the treatment-creation list.
// SameDayTreatment is a weak date-based hint only; it never hides the
// appointment.
type Suggestion struct {
	Appointment      *Appointment `json:"appointment"`
	SameDayTreatment bool         `json:"same_day_treatment"`
}
