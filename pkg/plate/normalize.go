package plate

import (
	"regexp"
	"strings"
)

const (
	// MinLength and MaxLength bound a cleaned registration (no spaces).
	MinLength = 5
	MaxLength = 10
)

// ValidationError explains why a raw registration was rejected.
type ValidationError struct {
	Raw    string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid registration " + strings.TrimSpace(e.Raw) + ": " + e.Reason
}

var (
	alnumRE = regexp.MustCompile(`^[A-Z0-9]+$`)

	// UK plate shapes on the cleaned (spaceless) form. The second group is
	// where the display space goes.
	currentRE  = regexp.MustCompile(`^([A-Z]{2}[0-9]{2})([A-Z]{3})$`) // AB12 CDE
	prefixRE   = regexp.MustCompile(`^([A-Z][0-9]{1,3})([A-Z]{3})$`)  // P123 ABC
	suffixRE   = regexp.MustCompile(`^([A-Z]{3})([0-9]{1,3}[A-Z])$`)  // ABC 123D
	datelessRE = regexp.MustCompile(`^([0-9]{1,4})([A-Z]{1,3})$|^([A-Z]{1,3})([0-9]{1,4})$`)
)

// Clean strips all whitespace and uppercases a raw registration. It performs
// no validation; use Normalize for the full contract.
func Clean(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Normalize converts raw user or OCR text into the canonical display form of
// a UK registration (uppercase, single internal space, e.g. "AB12 CDE").
// Every input maps to either a canonical plate or a *ValidationError with a
// readable reason; it never panics.
func Normalize(raw string) (string, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return "", &ValidationError{Raw: raw, Reason: "empty"}
	}
	if !alnumRE.MatchString(cleaned) {
		return "", &ValidationError{Raw: raw, Reason: "contains invalid characters"}
	}
	if len(cleaned) < MinLength {
		return "", &ValidationError{Raw: raw, Reason: "too short"}
	}
	if len(cleaned) > MaxLength {
		return "", &ValidationError{Raw: raw, Reason: "too long"}
	}
	if m := currentRE.FindStringSubmatch(cleaned); m != nil {
		return m[1] + " " + m[2], nil
	}
	if m := prefixRE.FindStringSubmatch(cleaned); m != nil {
		return m[1] + " " + m[2], nil
	}
	if m := suffixRE.FindStringSubmatch(cleaned); m != nil {
		return m[1] + " " + m[2], nil
	}
	if m := datelessRE.FindStringSubmatch(cleaned); m != nil {
		if m[1] != "" {
			return m[1] + " " + m[2], nil
		}
		return m[3] + " " + m[4], nil
	}
	return "", &ValidationError{Raw: raw, Reason: "unrecognised format"}
}

// IsCanonical reports whether s is already in the normalized display form
// produced by Normalize.
func IsCanonical(s string) bool {
	n, err := Normalize(s)
	return err == nil && n == s
}
