// Package receipt builds and renders the quotation/receipt document
// for a project. The layout is declared as an ordered list of sections
// so the content is testable without touching the PDF renderer.
package receipt

import (
	"strings"

	"paytrack/internal/core"
)

type Section interface {
	isSection()
}

// Letterhead is an optional image centered at the top of the page.
// A missing or unreadable file skips the section instead of failing
// the render.
type Letterhead struct {
	Path  string
	Width float64 // mm
}

type Heading struct {
	Text string
}

type FieldRow struct {
	Label string
	Value string
}

// FieldTable is the label/value block under the heading.
type FieldTable struct {
	Rows []FieldRow
}

// PaymentsTable lists payments two columns wide, or a single
// placeholder row when the project has none.
type PaymentsTable struct {
	Title       string
	Header      [2]string
	Rows        [][2]string
	Placeholder string
}

func (Letterhead) isSection()    {}
func (Heading) isSection()       {}
func (FieldTable) isSection()    {}
func (PaymentsTable) isSection() {}

type Document struct {
	Sections []Section
}

type Options struct {
	// LetterheadPath is the optional logo image; empty omits the section.
	LetterheadPath string
	// Currency prefixes every monetary value, e.g. "Rs.".
	Currency string
}

const letterheadWidthMM = 60

// BuildReceipt assembles the fixed receipt layout from one immutable
// snapshot of a project, its payments in creation order, and the
// already-computed totals.
func BuildReceipt(p core.Project, payments []core.Payment, totalPaid, remainingDue core.Money, opts Options) Document {
	var sections []Section

	if opts.LetterheadPath != "" {
		sections = append(sections, Letterhead{Path: opts.LetterheadPath, Width: letterheadWidthMM})
	}

	sections = append(sections, Heading{Text: "Quotation / Receipt"})

	sections = append(sections, FieldTable{Rows: []FieldRow{
		{Label: "Project Name", Value: p.Name},
		{Label: "Client Name", Value: p.Client},
		{Label: "Quotation", Value: core.FormatAmount(opts.Currency, p.Quotation)},
		{Label: "Total Paid", Value: core.FormatAmount(opts.Currency, totalPaid)},
		{Label: "Remaining Due", Value: core.FormatAmount(opts.Currency, remainingDue)},
		{Label: "Created", Value: p.CreatedAtDisplay()},
	}})

	table := PaymentsTable{
		Title:  "Payments",
		Header: [2]string{"Amount", "Date"},
	}
	if len(payments) == 0 {
		table.Placeholder = "No payments recorded"
	}
	for _, pay := range payments {
		table.Rows = append(table.Rows, [2]string{
			core.FormatAmount(opts.Currency, pay.Amount),
			pay.PaidAt.Format(core.TimestampLayout),
		})
	}
	sections = append(sections, table)

	return Document{Sections: sections}
}

// Filename derives the download name for a project's receipt, e.g.
// "Website_receipt.pdf". Characters that are hostile to filesystems
// collapse to underscores.
func Filename(projectName string) string {
	name := strings.TrimSpace(projectName)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		name = "project"
	}
	return name + "_receipt.pdf"
}
