package treatment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic/pkg/apptref"
	"github.com/smilecare/clinic/pkg/toothnum"
)

var today = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func validInput(mode Mode) Input {
	in := Input{
		Mode:      mode,
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Plan:      "restore function",
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	switch mode {
	case ModeSingle:
		in.Teeth = []string{"14"}
		in.Procedure = "Tooth Filling"
	case ModeMultiTooth:
		in.Teeth = []string{"3", "14", "B"}
		in.Procedure = "Extraction"
	case ModeMultiProcedure:
		in.Pairs = []ProcedureTooth{
			{Procedure: "Tooth Filling", Tooth: "14"},
			{Procedure: "Routine Cleaning", Tooth: "8"},
		}
	}
	return in
}

func TestBuild_Single(t *testing.T) {
	records, instructions, err := Build(validInput(ModeSingle), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Tooth != 14 || records[0].Procedure != "Tooth Filling" {
		t.Errorf("record = %+v", records[0])
	}
	if len(instructions) != 1 || instructions[0].Tooth != 14 {
		t.Errorf("instructions = %+v", instructions)
	}
}

func TestBuild_MultiToothFanOut(t *testing.T) {
	records, instructions, err := Build(validInput(ModeMultiTooth), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	wantTeeth := []int{3, 14, 102}
	for i, r := range records {
		if r.Tooth != wantTeeth[i] {
			t.Errorf("record %d tooth = %d, want %d", i, r.Tooth, wantTeeth[i])
		}
		if r.Procedure != "Extraction" {
			t.Errorf("record %d procedure = %q", i, r.Procedure)
		}
		if !r.TreatmentDate.Equal(records[0].TreatmentDate) {
			t.Errorf("record %d has a different treatment date", i)
		}
	}
	if len(instructions) != 3 {
		t.Errorf("expected 3 chart instructions, got %d", len(instructions))
	}
}

func TestBuild_MultiProcedurePerPair(t *testing.T) {
	records, _, err := Build(validInput(ModeMultiProcedure), today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Procedure != "Tooth Filling" || records[0].Tooth != 14 {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].Procedure != "Routine Cleaning" || records[1].Tooth != 8 {
		t.Errorf("record 1 = %+v", records[1])
	}
}

func TestBuild_MultiProcedureCombined(t *testing.T) {
	in := validInput(ModeMultiProcedure)
	in.Combine = true

	records, instructions, err := Build(in, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 combined record, got %d", len(records))
	}
	if records[0].Procedure != "Tooth Filling, Routine Cleaning" {
		t.Errorf("procedure = %q", records[0].Procedure)
	}
	// Combined records keep only the first pair's tooth.
	if records[0].Tooth != 14 {
		t.Errorf("tooth = %d, want 14", records[0].Tooth)
	}
	if len(instructions) != 1 || instructions[0].Tooth != 14 {
		t.Errorf("instructions = %+v", instructions)
	}
}

func TestBuild_ValidationFields(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Input)
		wantField string
	}{
		{"missing plan", func(in *Input) { in.Plan = "" }, "plan"},
		{"blank plan", func(in *Input) { in.Plan = "   " }, "plan"},
		{"missing date", func(in *Input) { in.Date = time.Time{} }, "date"},
		{"future date", func(in *Input) { in.Date = today.AddDate(0, 0, 1) }, "date"},
		{"missing procedure", func(in *Input) { in.Procedure = "" }, "procedure"},
		{"no teeth", func(in *Input) { in.Teeth = nil }, "teeth"},
		{"two teeth in single mode", func(in *Input) { in.Teeth = []string{"1", "2"} }, "teeth"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(ModeSingle)
			tc.mutate(&in)
			_, _, err := Build(in, today)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tc.wantField)
			}
		})
	}
}

func TestBuild_SameDayDateAllowed(t *testing.T) {
	in := validInput(ModeSingle)
	in.Date = today
	if _, _, err := Build(in, today); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuild_InvalidToothToken(t *testing.T) {
	in := validInput(ModeMultiTooth)
	in.Teeth = []string{"3", "U", "14"}
	_, _, err := Build(in, today)
	var terr *toothnum.InvalidToothError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidToothError, got %v", err)
	}
}

func TestBuild_PairMissingTooth(t *testing.T) {
	in := validInput(ModeMultiProcedure)
	in.Pairs[1].Tooth = ""
	_, _, err := Build(in, today)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "tooth" {
		t.Errorf("field = %q, want tooth", verr.Field)
	}
}

func TestBuild_NotesVerbatimWhenAdHoc(t *testing.T) {
	in := validInput(ModeSingle)
	in.Notes = "patient was anxious"
	records, _, err := Build(in, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].Notes != "patient was anxious" {
		t.Errorf("notes = %q", records[0].Notes)
	}
}

func TestBuild_NotesMarkerFromAppointment(t *testing.T) {
	in := validInput(ModeSingle)
	in.Notes = "routine"
	in.Source = &apptref.Source{AppointmentID: "abc123", Branch: "Cabugao", Time: "09:00:00"}

	records, _, err := Build(in, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "routine<!--APPOINTMENT_REF:abc123:Cabugao:09:00:00-->"
	if records[0].Notes != want {
		t.Errorf("notes = %q, want %q", records[0].Notes, want)
	}
}

func TestBuild_NotesMarkerPreservedOnEdit(t *testing.T) {
	marker := "<!--APPOINTMENT_REF:abc123:Cabugao:09:00:00-->"
	in := validInput(ModeSingle)
	in.Notes = "follow-up needed"
	in.PreviousNotes = "old text" + marker

	records, _, err := Build(in, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "follow-up needed" + marker
	if records[0].Notes != want {
		t.Errorf("notes = %q, want %q", records[0].Notes, want)
	}
}
