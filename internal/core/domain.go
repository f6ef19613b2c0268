package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Money struct {
		Cents int64
	}

	// Project is a tracked client engagement with a fixed quotation.
	// A zero CreatedAt marks a row persisted before the created_at
	// column existed; it is displayed with the "unknown" sentinel.
	Project struct {
		ID        int64
		Name      string
		Client    string
		Quotation Money
		CreatedAt time.Time
	}

	// Payment is a single amount received against a project's
	// quotation. Payments are never edited; they disappear only when
	// their project is deleted.
	Payment struct {
		ID        int64
		ProjectID int64
		Amount    Money
		PaidAt    time.Time
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativeQuotation = errors.New("quotation cannot be negative")
	ErrEmptyProjectName  = errors.New("empty project name")
	ErrEmptyClientName   = errors.New("empty client name")
	ErrProjectNotFound   = errors.New("project not found")
	ErrAmountOverflow    = errors.New("amount overflow")
)

// CreatedAtUnknown is reported for projects persisted before the
// created_at column was added to the schema.
const CreatedAtUnknown = "unknown"

// TimestampLayout is the persisted timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

func (p Project) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyProjectName
	}
	if len(p.Name) > 200 {
		return errors.New("project name too long (max 200 characters)")
	}
	if len(strings.TrimSpace(p.Client)) == 0 {
		return ErrEmptyClientName
	}
	if len(p.Client) > 200 {
		return errors.New("client name too long (max 200 characters)")
	}
	if p.Quotation.Cents < 0 {
		return ErrNegativeQuotation
	}
	return nil
}

func (p Payment) Validate() error {
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// CreatedAtDisplay formats the creation timestamp, falling back to the
// sentinel for rows migrated from the pre-timestamp schema.
func (p Project) CreatedAtDisplay() string {
	if p.CreatedAt.IsZero() {
		return CreatedAtUnknown
	}
	return p.CreatedAt.Format(TimestampLayout)
}
