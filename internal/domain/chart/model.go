package chart

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Symbol is a short condition code shown on a tooth in the chart.
type Symbol string

const (
	SymbolNone    Symbol = ""
	SymbolFilled  Symbol = "F"
	SymbolMissing Symbol = "M"
	SymbolCrown   Symbol = "C"
)

// ToothEntry is the recorded condition of a single tooth.
type ToothEntry struct {
	Symbol        Symbol `json:"symbol"`
	Procedure     string `json:"procedure,omitempty"`
	TreatmentDate string `json:"treatment_date,omitempty"`
}

// Appliances holds the appliance assessment flags plus one free-text field.
type Appliances struct {
	Flags map[string]bool `json:"flags"`
	Other string          `json:"other,omitempty"`
}

// Document is the per-patient dental chart. Teeth is keyed by the canonical
// tooth id rendered as a string; legacy rows may carry raw letter keys, which
// readers must tolerate.
type Document struct {
	ID          uuid.UUID             `db:"id" json:"id"`
	PatientID   uuid.UUID             `db:"patient_id" json:"patient_id"`
	Teeth       map[string]ToothEntry `db:"teeth" json:"teeth"`
	Periodontal map[string]bool       `db:"periodontal" json:"periodontal"`
	Occlusion   map[string]bool       `db:"occlusion" json:"occlusion"`
	Appliances  Appliances            `db:"appliances" json:"appliances"`
	TMD         map[string]bool       `db:"tmd" json:"tmd"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// NewDocument returns an empty chart for a patient.
func NewDocument(patientID uuid.UUID) *Document {
	return &Document{
		PatientID:   patientID,
		Teeth:       make(map[string]ToothEntry),
		Periodontal: make(map[string]bool),
		Occlusion:   make(map[string]bool),
		Appliances:  Appliances{Flags: make(map[string]bool)},
		TMD:         make(map[string]bool),
	}
}

// ToothKey renders a canonical tooth id as the map key used in Teeth.
func ToothKey(canonical int) string {
	return strconv.Itoa(canonical)
}
