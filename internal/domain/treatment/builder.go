package treatment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic/pkg/apptref"
	"github.com/smilecare/clinic/pkg/toothnum"
)

// Mode selects how a submission fans out into treatment records.
type Mode string

const (
	// ModeSingle is one tooth and one procedure producing one record.
	ModeSingle Mode = "single"
	// ModeMultiTooth is one procedure applied to N teeth, producing N
	// records persisted independently.
	ModeMultiTooth Mode = "multi-tooth"
	// ModeMultiProcedure is a list of procedure/tooth pairs, typically from
	// a multi-service appointment. It produces one record per pair, or a
	// single combined record when Combine is set.
	ModeMultiProcedure Mode = "multi-procedure"
)

// ProcedureTooth pairs one procedure with the display tooth token it was
// performed on.
type ProcedureTooth struct {
	Procedure string `json:"procedure"`
	Tooth     string `json:"tooth"`
}

// Input is one treatment form submission. Teeth and pair tooth fields hold
// display tokens (1-32 or A-T); canonicalization happens during Build.
type Input struct {
	Mode      Mode             `json:"mode"`
	PatientID uuid.UUID        `json:"patient_id"`
	DoctorID  uuid.UUID        `json:"doctor_id"`
	Teeth     []string         `json:"teeth,omitempty"`
	Procedure string           `json:"procedure,omitempty"`
	Pairs     []ProcedureTooth `json:"pairs,omitempty"`
	Combine   bool             `json:"combine,omitempty"`
	Plan      string           `json:"plan"`
	Notes     string           `json:"notes,omitempty"`
	Date      time.Time        `json:"date"`

	// Source is set when the submission originates from an appointment; a
	// back-reference marker is appended to the notes.
	Source *apptref.Source `json:"source,omitempty"`

	// EditID and PreviousNotes are set when editing an existing record. Any
	// marker in PreviousNotes survives the edit.
	EditID        uuid.UUID `json:"edit_id,omitempty"`
	PreviousNotes string    `json:"-"`
}

// ChartInstruction tells the chart engine which tooth to reconcile after a
// record is saved.
type ChartInstruction struct {
	Tooth     int
	Procedure string
	Date      time.Time
}

// Build validates the input and expands it into ready-to-persist records with
// one chart instruction per record. Validation is atomic: any failure returns
// before a single record is produced.
func Build(in Input, today time.Time) ([]*Treatment, []ChartInstruction, error) {
	if strings.TrimSpace(in.Plan) == "" {
		return nil, nil, invalidField("plan", "treatment plan is required")
	}
	if in.Date.IsZero() {
		return nil, nil, invalidField("date", "treatment date is required")
	}
	if dateOnly(in.Date).After(dateOnly(today)) {
		return nil, nil, invalidField("date", "treatment date must not be in the future")
	}

	notes := apptref.Compose(in.Notes, in.PreviousNotes, in.Source)

	switch in.Mode {
	case ModeSingle, ModeMultiTooth:
		return buildPerTooth(in, notes)
	case ModeMultiProcedure:
		return buildFromPairs(in, notes)
	default:
		return nil, nil, invalidField("mode", "unknown submission mode")
	}
}

func buildPerTooth(in Input, notes string) ([]*Treatment, []ChartInstruction, error) {
	if strings.TrimSpace(in.Procedure) == "" {
		return nil, nil, invalidField("procedure", "procedure is required")
	}
	if len(in.Teeth) == 0 {
		return nil, nil, invalidField("teeth", "at least one tooth must be selected")
	}
	if in.Mode == ModeSingle && len(in.Teeth) != 1 {
		return nil, nil, invalidField("teeth", "exactly one tooth is required")
	}

	canonical := make([]int, 0, len(in.Teeth))
	for _, token := range in.Teeth {
		id, err := toothnum.ToCanonical(token)
		if err != nil {
			return nil, nil, err
		}
		canonical = append(canonical, id)
	}

	records := make([]*Treatment, 0, len(canonical))
	instructions := make([]ChartInstruction, 0, len(canonical))
	for _, tooth := range canonical {
		records = append(records, &Treatment{
			PatientID:     in.PatientID,
			DoctorID:      in.DoctorID,
			Procedure:     in.Procedure,
			Tooth:         tooth,
			Plan:          in.Plan,
			Notes:         notes,
			TreatmentDate: in.Date,
		})
		instructions = append(instructions, ChartInstruction{
			Tooth:     tooth,
			Procedure: in.Procedure,
			Date:      in.Date,
		})
	}
	return records, instructions, nil
}

func buildFromPairs(in Input, notes string) ([]*Treatment, []ChartInstruction, error) {
	if len(in.Pairs) == 0 {
		return nil, nil, invalidField("pairs", "at least one procedure is required")
	}

	type resolvedPair struct {
		procedure string
		tooth     int
	}
	resolved := make([]resolvedPair, 0, len(in.Pairs))
	for _, p := range in.Pairs {
		if strings.TrimSpace(p.Procedure) == "" {
			return nil, nil, invalidField("procedure", "procedure is required")
		}
		if strings.TrimSpace(p.Tooth) == "" {
			return nil, nil, invalidField("tooth", "tooth is required for each procedure")
		}
		id, err := toothnum.ToCanonical(p.Tooth)
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, resolvedPair{procedure: p.Procedure, tooth: id})
	}

	if in.Combine {
		// Combined records only track the first pair's tooth; the remaining
		// tooth associations are recoverable only from the joined text.
		names := make([]string, len(resolved))
		for i, p := range resolved {
			names[i] = p.procedure
		}
		joined := strings.Join(names, ", ")
		record := &Treatment{
			PatientID:     in.PatientID,
			DoctorID:      in.DoctorID,
			Procedure:     joined,
			Tooth:         resolved[0].tooth,
			Plan:          in.Plan,
			Notes:         notes,
			TreatmentDate: in.Date,
		}
		instruction := ChartInstruction{
			Tooth:     resolved[0].tooth,
			Procedure: joined,
			Date:      in.Date,
		}
		return []*Treatment{record}, []ChartInstruction{instruction}, nil
	}

	records := make([]*Treatment, 0, len(resolved))
	instructions := make([]ChartInstruction, 0, len(resolved))
	for _, p := range resolved {
		records = append(records, &Treatment{
			PatientID:     in.PatientID,
			DoctorID:      in.DoctorID,
			Procedure:     p.procedure,
			Tooth:         p.tooth,
			Plan:          in.Plan,
			Notes:         notes,
			TreatmentDate: in.Date,
		})
		instructions = append(instructions, ChartInstruction{
			Tooth:     p.tooth,
			Procedure: p.procedure,
			Date:      in.Date,
		})
	}
	return records, instructions, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
