package main

import (
	"strings"
	"testing"
	"time"

	"tradesnap/models"
)

var bookingNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func validRecallRequest() bookingRequest {
	return bookingRequest{
		Kind:          models.BookingRecall,
		Registration:  "ab12cde",
		RecallID:      "R2023-114",
		Garage:        "Sytner BMW Birmingham - High St",
		Date:          "2026-03-15",
		TimeSlot:      "09:00 AM",
		CustomerName:  "Jo Bloggs",
		CustomerPhone: "07700 900123",
		CustomerEmail: "jo@example.com",
	}
}

func TestValidateRecallBooking(t *testing.T) {
	b, err := validateBooking(validRecallRequest(), bookingNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Registration != "AB12 CDE" {
		t.Fatalf("registration not normalized: %q", b.Registration)
	}
	if want := "RCL-R2023-114-202603101430"; b.Reference != want {
		t.Fatalf("reference = %q, want %q", b.Reference, want)
	}
	if b.Kind != models.BookingRecall {
		t.Fatalf("kind = %q", b.Kind)
	}
}

func TestValidateInspectionBooking(t *testing.T) {
	req := bookingRequest{
		Kind:          models.BookingInspection,
		Registration:  "KT68 XYZ",
		Garage:        "Sytner BMW Birmingham - High St",
		Date:          "2026-03-10", // same day is fine for inspections
		TimeSlot:      "Next Available (30 mins)",
		CustomerName:  "Sam Reed",
		CustomerPhone: "+44 7700 900456",
		OfferValue:    10450,
	}
	b, err := validateBooking(req, bookingNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(b.Reference, "INS-") {
		t.Fatalf("reference = %q", b.Reference)
	}
	if b.OfferValue != 10450 {
		t.Fatalf("offer value lost: %d", b.OfferValue)
	}
}

func TestValidateBookingRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*bookingRequest)
	}{
		{"unknown kind", func(r *bookingRequest) { r.Kind = "service" }},
		{"bad plate", func(r *bookingRequest) { r.Registration = "!!" }},
		{"unknown garage", func(r *bookingRequest) { r.Garage = "Bob's Garage" }},
		{"bad date format", func(r *bookingRequest) { r.Date = "15/03/2026" }},
		{"recall same day", func(r *bookingRequest) { r.Date = "2026-03-10" }},
		{"recall too far out", func(r *bookingRequest) { r.Date = "2026-06-10" }},
		{"missing recall id", func(r *bookingRequest) { r.RecallID = "" }},
		{"slot not offered", func(r *bookingRequest) { r.TimeSlot = "10:30 PM" }},
		{"blank name", func(r *bookingRequest) { r.CustomerName = "   " }},
		{"short phone", func(r *bookingRequest) { r.CustomerPhone = "0770 090" }},
		{"bad email", func(r *bookingRequest) { r.CustomerEmail = "not-an-email" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRecallRequest()
			tc.mutate(&req)
			if _, err := validateBooking(req, bookingNow); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestInspectionWindow(t *testing.T) {
	req := bookingRequest{
		Kind:          models.BookingInspection,
		Registration:  "AB12 CDE",
		Garage:        "Sytner BMW Birmingham - High St",
		Date:          "2026-03-18", // 8 days out
		TimeSlot:      "11:00 AM",
		CustomerName:  "Sam Reed",
		CustomerPhone: "07700900456",
	}
	if _, err := validateBooking(req, bookingNow); err == nil {
		t.Fatal("expected rejection past 7-day window")
	}
	req.Date = "2026-03-17"
	if _, err := validateBooking(req, bookingNow); err != nil {
		t.Fatalf("7 days out should be accepted: %v", err)
	}
	// the early recall slot is not offered for inspections
	req.TimeSlot = "09:00 AM"
	if _, err := validateBooking(req, bookingNow); err == nil {
		t.Fatal("expected rejection of recall-only slot")
	}
}

func TestEmailOptional(t *testing.T) {
	req := validRecallRequest()
	req.CustomerEmail = ""
	if _, err := validateBooking(req, bookingNow); err != nil {
		t.Fatalf("empty email should pass: %v", err)
	}
}
