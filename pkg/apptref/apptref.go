// Package apptref encodes and decodes the appointment back-reference marker
// embedded in a treatment record's free-text notes. Treatments created from
// an appointment are linked to it not by a foreign key but by this marker,
// so the format lives in exactly one place.
//
// Current format, wrapped in an HTML comment so print views never show it:
//
//	<!--APPOINTMENT_REF:<appointment_id>:<branch>:<time>-->
//
// A legacy plain-text form, "From appointment ID <id>: ...", still exists in
// stored data and is honored when matching.
package apptref

import (
	"regexp"
	"strings"
)

const (
	prefix       = "APPOINTMENT_REF:"
	legacyPrefix = "From appointment ID "
)

var markerRe = regexp.MustCompile(`<!--APPOINTMENT_REF:.*?-->`)

// Source identifies the appointment a marker points back to.
type Source struct {
	AppointmentID string
	Branch        string
	Time          string
}

// Encode renders the marker for an appointment.
func Encode(src Source) string {
	return "<!--" + prefix + src.AppointmentID + ":" + src.Branch + ":" + src.Time + "-->"
}

// Extract returns the first current-format marker found in notes, verbatim.
func Extract(notes string) (string, bool) {
	m := markerRe.FindString(notes)
	return m, m != ""
}

// Decode parses a current-format marker back into its Source. The time field
// may itself contain colons ("09:00:00"), so it is everything after the
// branch separator.
func Decode(marker string) (Source, bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(marker, "<!--"), "-->")
	if !strings.HasPrefix(body, prefix) {
		return Source{}, false
	}
	parts := strings.SplitN(strings.TrimPrefix(body, prefix), ":", 3)
	if len(parts) < 3 {
		return Source{}, false
	}
	return Source{AppointmentID: parts[0], Branch: parts[1], Time: parts[2]}, true
}

// References reports whether notes link back to the given appointment, in
// either the current marker format or the legacy plain-text form. This is a
// best-effort heuristic: it depends on the marker having been written at
// creation time and preserved across edits.
func References(notes, appointmentID string) bool {
	if appointmentID == "" {
		return false
	}
	if strings.Contains(notes, prefix+appointmentID+":") {
		return true
	}
	return strings.Contains(notes, legacyPrefix+appointmentID+":")
}

// Strip removes any current-format marker from notes, returning the
// user-visible text.
func Strip(notes string) string {
	return markerRe.ReplaceAllString(notes, "")
}

// Compose builds the notes field for a treatment record.
//
// Editing an existing record preserves the marker found in previousNotes and
// appends it after the new user text. Creating a record from an appointment
// appends a freshly encoded marker. Otherwise the user text is stored
// verbatim.
func Compose(userNotes, previousNotes string, src *Source) string {
	if marker, ok := Extract(previousNotes); ok {
		return userNotes + marker
	}
	if src != nil {
		return userNotes + Encode(*src)
	}
	return userNotes
}
