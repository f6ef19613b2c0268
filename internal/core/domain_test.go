package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProjectValidate(t *testing.T) {
	good := Project{Name: "Website", Client: "Acme", Quotation: Money{Cents: 100000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Project{Name: "Free fix", Client: "Acme"}).Validate(); err != nil {
		t.Fatalf("zero quotation should validate, got %v", err)
	}

	cases := []struct {
		p    Project
		want error
	}{
		{Project{Name: "", Client: "Acme", Quotation: Money{Cents: 1}}, ErrEmptyProjectName},
		{Project{Name: "   ", Client: "Acme", Quotation: Money{Cents: 1}}, ErrEmptyProjectName},
		{Project{Name: "Website", Client: "", Quotation: Money{Cents: 1}}, ErrEmptyClientName},
		{Project{Name: "Website", Client: "Acme", Quotation: Money{Cents: -1}}, ErrNegativeQuotation},
	}
	for i, tc := range cases {
		if err := tc.p.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	long := Project{Name: strings.Repeat("x", 201), Client: "Acme"}
	if err := long.Validate(); err == nil {
		t.Fatalf("expected error for overlong name")
	}
}

func TestPaymentValidate(t *testing.T) {
	if err := (Payment{Amount: Money{Cents: 1}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, cents := range []int64{0, -1} {
		if err := (Payment{Amount: Money{Cents: cents}}).Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("cents=%d expected ErrInvalidAmount", cents)
		}
	}
}

func TestCreatedAtDisplay(t *testing.T) {
	if got := (Project{}).CreatedAtDisplay(); got != CreatedAtUnknown {
		t.Fatalf("zero time expected %q, got %q", CreatedAtUnknown, got)
	}
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	if got := (Project{CreatedAt: ts}).CreatedAtDisplay(); got != "2025-03-01 09:30:00" {
		t.Fatalf("unexpected display %q", got)
	}
}
