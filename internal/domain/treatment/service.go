package treatment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordOutcome is the per-record result of a submission. Err is the
// persistence outcome; ChartWarning is set when the record saved but the
// follow-up chart merge failed.
type RecordOutcome struct {
	Index        int        `json:"index"`
	Record       *Treatment `json:"record,omitempty"`
	Err          error      `json:"-"`
	Error        string     `json:"error,omitempty"`
	ChartWarning string     `json:"chart_warning,omitempty"`
}

// SaveResult summarizes a submission. Partial success is a valid terminal
// outcome for multi-tooth submissions.
type SaveResult struct {
	Outcomes []RecordOutcome `json:"outcomes"`
	Saved    int             `json:"saved"`
	Failed   int             `json:"failed"`
}

type Service struct {
	repo     Repository
	chart    ChartUpdater
	notifier Notifier
	vocab    ProcedureVocabulary
}

func NewService(repo Repository, chart ChartUpdater) *Service {
	return &Service{repo: repo, chart: chart}
}

// SetNotifier installs an optional post-save notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetVocabulary installs an optional procedure vocabulary check backed by the
// service catalog.
func (s *Service) SetVocabulary(v ProcedureVocabulary) {
	s.vocab = v
}

// checkVocabulary rejects procedure names the catalog does not know. A
// lookup failure never blocks the save; the vocabulary is a validation aid,
// not a dependency of persistence.
func (s *Service) checkVocabulary(ctx context.Context, in Input) error {
	if s.vocab == nil {
		return nil
	}
	names := make([]string, 0, 1+len(in.Pairs))
	if strings.TrimSpace(in.Procedure) != "" {
		names = append(names, in.Procedure)
	}
	for _, p := range in.Pairs {
		if strings.TrimSpace(p.Procedure) != "" {
			names = append(names, p.Procedure)
		}
	}
	for _, name := range names {
		known, err := s.vocab.Known(ctx, strings.TrimSpace(name))
		if err != nil {
			return nil
		}
		if !known {
			return invalidField("procedure", fmt.Sprintf("unknown procedure: %s", name))
		}
	}
	return nil
}

// Save validates and persists a submission. Validation failures reject the
// whole submission before any write; once validation has passed, each record
// is written independently and failures are reported per record. Chart merge
// failures never fail the record that triggered them.
func (s *Service) Save(ctx context.Context, in Input) (*SaveResult, error) {
	if err := s.checkVocabulary(ctx, in); err != nil {
		return nil, err
	}
	records, instructions, err := Build(in, time.Now())
	if err != nil {
		return nil, err
	}

	var outcomes []error
	if len(records) == 1 {
		outcomes = []error{s.repo.Insert(ctx, records[0])}
	} else {
		outcomes = s.repo.InsertBatch(ctx, records)
	}

	result := &SaveResult{Outcomes: make([]RecordOutcome, len(records))}
	for i, record := range records {
		outcome := RecordOutcome{Index: i, Record: record, Err: outcomes[i]}
		if outcomes[i] != nil {
			outcome.Error = outcomes[i].Error()
			result.Failed++
		} else {
			result.Saved++
			outcome.ChartWarning = s.reconcileChart(ctx, record.PatientID, instructions[i])
		}
		result.Outcomes[i] = outcome
	}

	if s.notifier != nil && result.Saved > 0 {
		var procedures []string
		for _, o := range result.Outcomes {
			if o.Err == nil {
				procedures = append(procedures, o.Record.Procedure)
			}
		}
		s.notifier.TreatmentSaved(ctx, in.PatientID, procedures, records[0].TreatmentDate)
	}
	return result, nil
}

// Update edits an existing record. The previous notes are loaded first so any
// appointment marker they carry survives the edit.
func (s *Service) Update(ctx context.Context, in Input) (*SaveResult, error) {
	if in.EditID == uuid.Nil {
		return nil, invalidField("id", "record id is required")
	}
	existing, err := s.repo.GetByID(ctx, in.EditID)
	if err != nil {
		return nil, fmt.Errorf("load treatment: %w", err)
	}
	in.PreviousNotes = existing.Notes
	in.Mode = ModeSingle
	if err := s.checkVocabulary(ctx, in); err != nil {
		return nil, err
	}

	records, instructions, err := Build(in, time.Now())
	if err != nil {
		return nil, err
	}

	record := records[0]
	record.ID = in.EditID
	record.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, record); err != nil {
		return &SaveResult{
			Outcomes: []RecordOutcome{{Record: record, Err: err, Error: err.Error()}},
			Failed:   1,
		}, nil
	}

	return &SaveResult{
		Outcomes: []RecordOutcome{{
			Record:       record,
			ChartWarning: s.reconcileChart(ctx, record.PatientID, instructions[0]),
		}},
		Saved: 1,
	}, nil
}

// reconcileChart runs the chart merge and downgrades any failure to a
// warning string.
func (s *Service) reconcileChart(ctx context.Context, patientID uuid.UUID, instr ChartInstruction) string {
	if s.chart == nil {
		return ""
	}
	if err := s.chart.ApplyTreatment(ctx, patientID, instr.Tooth, instr.Procedure, instr.Date); err != nil {
		return fmt.Sprintf("chart update failed, display may be stale: %v", err)
	}
	return ""
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error) {
	return s.repo.ListByPatient(ctx, patientID, doctorID)
}
