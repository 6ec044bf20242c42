// Package toothnum converts between the display form of a tooth identifier
// (1-32 for permanent teeth, letters A-T for temporary teeth) and the
// canonical integer form persisted in the database (1-32, 101-120).
package toothnum

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// PermanentMin and PermanentMax bound the universal numbering of
	// permanent teeth.
	PermanentMin = 1
	PermanentMax = 32

	// TemporaryBase is added to a temporary tooth's letter index (A=0 .. T=19)
	// to produce its canonical integer form (101-120).
	TemporaryBase = 101

	// TemporaryMin and TemporaryMax bound the canonical range of temporary teeth.
	TemporaryMin = 101
	TemporaryMax = 120
)

// Kind distinguishes permanent from temporary teeth.
type Kind int

const (
	Permanent Kind = iota
	Temporary
)

func (k Kind) String() string {
	if k == Temporary {
		return "temporary"
	}
	return "permanent"
}

// Token is the resolved form of a tooth identifier. It is produced once at
// the input boundary so downstream code only handles the canonical integer.
type Token struct {
	Kind      Kind
	Canonical int
}

// InvalidToothError reports a tooth token that is neither a permanent tooth
// number (1-32) nor a temporary tooth letter (A-T).
type InvalidToothError struct {
	Token string
}

func (e *InvalidToothError) Error() string {
	return fmt.Sprintf("invalid tooth identifier: %q", e.Token)
}

// Parse resolves a display token into a Token. Accepted inputs are the
// decimal strings "1".."32" and the single letters "A".."T" (case
// insensitive, surrounding whitespace ignored). Everything else fails with
// *InvalidToothError.
func Parse(token string) (Token, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Token{}, &InvalidToothError{Token: token}
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= PermanentMin && n <= PermanentMax {
			return Token{Kind: Permanent, Canonical: n}, nil
		}
		return Token{}, &InvalidToothError{Token: token}
	}

	if len(trimmed) == 1 {
		c := trimmed[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'T' {
			return Token{Kind: Temporary, Canonical: TemporaryBase + int(c-'A')}, nil
		}
	}

	return Token{}, &InvalidToothError{Token: token}
}

// ToCanonical converts a display token to its canonical integer form.
func ToCanonical(token string) (int, error) {
	t, err := Parse(token)
	if err != nil {
		return 0, err
	}
	return t.Canonical, nil
}

// ToDisplay converts a canonical integer back to its display form. Permanent
// teeth (1-32) render as digits, temporary teeth (101-120) as their letter.
// Any other value is rendered as digits rather than rejected: historical
// records may carry identifiers that predate this mapping.
func ToDisplay(canonical int) string {
	if canonical >= TemporaryMin && canonical <= TemporaryMax {
		return string(rune('A' + canonical - TemporaryBase))
	}
	return strconv.Itoa(canonical)
}

// IsValid reports whether a display token would be accepted by ToCanonical.
func IsValid(token string) bool {
	_, err := Parse(token)
	return err == nil
}

// IsTemporary reports whether a canonical identifier denotes a temporary tooth.
func IsTemporary(canonical int) bool {
	return canonical >= TemporaryMin && canonical <= TemporaryMax
}
