package plate

import (
	"errors"
	"testing"
)

func TestNormalizeCanonicalForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{" ab12 cde ", "AB12 CDE"},
		{"AB12CDE", "AB12 CDE"},
		{"kt68xyz", "KT68 XYZ"},
		{"p123abc", "P123 ABC"},
		{"ABC123D", "ABC 123D"},
		{"1234ab", "1234 AB"},
		{"abc1234", "ABC 1234"},
		{"a b 1 2 c d e", "AB12 CDE"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q) unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		in     string
		reason string
	}{
		{"", "empty"},
		{"   ", "empty"},
		{"AB1", "too short"},
		{"AB12CDE4567", "too long"},
		{"AB12-CDE", "contains invalid characters"},
		{"ab12.cde", "contains invalid characters"},
		{"1234567", "unrecognised format"},
		{"ABCDEFG", "unrecognised format"},
	}
	for _, c := range cases {
		_, err := Normalize(c.in)
		if err == nil {
			t.Fatalf("Normalize(%q) expected rejection", c.in)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Normalize(%q) error type %T, want *ValidationError", c.in, err)
		}
		if verr.Reason != c.reason {
			t.Fatalf("Normalize(%q) reason %q, want %q", c.in, verr.Reason, c.reason)
		}
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	// Arbitrary garbage must produce either a canonical plate or a reason.
	inputs := []string{"\x00\xff", "££££££", "A B", "9", "    KT68 XYZ\n", "Ab12cDe!"}
	for _, in := range inputs {
		got, err := Normalize(in)
		if err == nil && !IsCanonical(got) {
			t.Fatalf("Normalize(%q) returned non-canonical %q without error", in, got)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical("AB12 CDE") {
		t.Fatal("AB12 CDE should be canonical")
	}
	if IsCanonical("ab12 cde") {
		t.Fatal("lowercase form must not be canonical")
	}
	if IsCanonical("AB12CDE") {
		t.Fatal("spaceless form must not be canonical")
	}
}
