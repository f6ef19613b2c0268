// Package services orchestrates the ledger store, balance derivation,
// and receipt export behind one application-facing API.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"paytrack/internal/core"
	"paytrack/internal/receipt"
	"paytrack/internal/storage"
)

// ProjectSummary is one project joined with its payments and the
// derived totals, as shown on the index page and on the receipt.
type ProjectSummary struct {
	Project      core.Project
	Payments     []core.Payment
	TotalPaid    core.Money
	RemainingDue core.Money
}

// ProjectService owns the repository handle for the application run
// and carries the export options (letterhead, currency prefix).
type ProjectService struct {
	store      *storage.SQLiteRepository
	exportOpts receipt.Options
}

func NewProjectService(store *storage.SQLiteRepository, exportOpts receipt.Options) *ProjectService {
	return &ProjectService{
		store:      store,
		exportOpts: exportOpts,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, name, client string, quotation core.Money) (core.Project, error) {
	return s.store.CreateProject(ctx, name, client, quotation)
}

func (s *ProjectService) AddPayment(ctx context.Context, projectID int64, amount core.Money) (core.Payment, error) {
	return s.store.AddPayment(ctx, projectID, amount)
}

func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	return s.store.DeleteProject(ctx, id)
}

// Summary loads one project with its payments and computed balances.
func (s *ProjectService) Summary(ctx context.Context, id int64) (ProjectSummary, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return ProjectSummary{}, err
	}
	return s.summarize(ctx, p)
}

// Summaries loads every project with payments and balances, in
// creation order.
func (s *ProjectService) Summaries(ctx context.Context) ([]ProjectSummary, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		sum, err := s.summarize(ctx, p)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *ProjectService) summarize(ctx context.Context, p core.Project) (ProjectSummary, error) {
	payments, err := s.store.ListPayments(ctx, p.ID)
	if err != nil {
		return ProjectSummary{}, fmt.Errorf("list payments for project %d: %w", p.ID, err)
	}
	total, err := core.TotalPaid(payments)
	if err != nil {
		return ProjectSummary{}, fmt.Errorf("total paid for project %d: %w", p.ID, err)
	}
	return ProjectSummary{
		Project:      p,
		Payments:     payments,
		TotalPaid:    total,
		RemainingDue: core.RemainingDue(p.Quotation, total),
	}, nil
}

// ExportReceipt renders the PDF receipt for a project and returns the
// download filename alongside the document bytes.
func (s *ProjectService) ExportReceipt(ctx context.Context, id int64) (string, []byte, error) {
	sum, err := s.Summary(ctx, id)
	if err != nil {
		return "", nil, err
	}

	doc := receipt.BuildReceipt(sum.Project, sum.Payments, sum.TotalPaid, sum.RemainingDue, s.exportOpts)
	data, err := receipt.Render(doc)
	if err != nil {
		return "", nil, fmt.Errorf("export receipt for project %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Receipt exported",
		"project_id", id,
		"payments", len(sum.Payments),
		"bytes", len(data))

	return receipt.Filename(sum.Project.Name), data, nil
}

// Backup returns the raw database file bytes for download.
func (s *ProjectService) Backup(ctx context.Context) ([]byte, error) {
	return s.store.Snapshot(ctx)
}

func (s *ProjectService) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
