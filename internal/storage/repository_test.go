package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"paytrack/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "paytrack.db")
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func TestCreateAndListProjects(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	p1, err := repo.CreateProject(ctx, "Website", "Acme", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p1.ID == 0 || p1.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp, got %+v", p1)
	}

	p2, err := repo.CreateProject(ctx, "Logo", "Beta Ltd", core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != p1.ID || projects[1].ID != p2.ID {
		t.Fatalf("expected insertion order [%d %d], got %+v", p1.ID, p2.ID, projects)
	}
	if projects[0].Quotation.Cents != 100000 {
		t.Fatalf("quotation round-trip failed: %d", projects[0].Quotation.Cents)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name, client string
		cents        int64
		want         error
	}{
		{"", "Acme", 100, core.ErrEmptyProjectName},
		{"Website", "", 100, core.ErrEmptyClientName},
		{"Website", "Acme", -1, core.ErrNegativeQuotation},
	}
	for i, tc := range cases {
		_, err := repo.CreateProject(ctx, tc.name, tc.client, core.Money{Cents: tc.cents})
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	// Nothing was persisted by the rejected attempts
	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected empty store, got %d projects", len(projects))
	}
}

func TestAddAndListPayments(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, "Website", "Acme", core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, cents := range []int64{10000, 25050} {
		if _, err := repo.AddPayment(ctx, p.ID, core.Money{Cents: cents}); err != nil {
			t.Fatalf("add payment %d: %v", cents, err)
		}
	}

	payments, err := repo.ListPayments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 2 || payments[0].Amount.Cents != 10000 || payments[1].Amount.Cents != 25050 {
		t.Fatalf("expected [10000 25050] in creation order, got %+v", payments)
	}

	total, err := core.TotalPaid(payments)
	if err != nil || total.Cents != 35050 {
		t.Fatalf("expected total 35050, got %d (err=%v)", total.Cents, err)
	}
	if due := core.RemainingDue(p.Quotation, total); due.Cents != 14950 {
		t.Fatalf("expected due 14950, got %d", due.Cents)
	}
}

func TestAddPaymentRejections(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, "Website", "Acme", core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, cents := range []int64{0, -500} {
		if _, err := repo.AddPayment(ctx, p.ID, core.Money{Cents: cents}); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("cents=%d expected ErrInvalidAmount, got %v", cents, err)
		}
	}
	if _, err := repo.AddPayment(ctx, 9999, core.Money{Cents: 100}); !errors.Is(err, core.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	// Rejected attempts left the balance untouched
	payments, err := repo.ListPayments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(payments))
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	keep, err := repo.CreateProject(ctx, "Keep", "Acme", core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddPayment(ctx, keep.ID, core.Money{Cents: 500}); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	gone, err := repo.CreateProject(ctx, "Gone", "Beta", core.Money{Cents: 20000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.AddPayment(ctx, gone.ID, core.Money{Cents: 700}); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	if err := repo.DeleteProject(ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != keep.ID {
		t.Fatalf("expected only project %d to remain, got %+v", keep.ID, projects)
	}

	orphans, err := repo.ListPayments(ctx, gone.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected no orphaned payments, got %d", len(orphans))
	}

	// The surviving project's payments are untouched
	kept, err := repo.ListPayments(ctx, keep.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(kept) != 1 || kept[0].Amount.Cents != 500 {
		t.Fatalf("expected kept payment of 500, got %+v", kept)
	}

	if err := repo.DeleteProject(ctx, gone.ID); !errors.Is(err, core.ErrProjectNotFound) {
		t.Fatalf("second delete expected ErrProjectNotFound, got %v", err)
	}
}

func TestReopenPreservesAmounts(t *testing.T) {
	repo, dbPath := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, "Website", "Acme", core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, cents := range []int64{10000, 25050} {
		if _, err := repo.AddPayment(ctx, p.ID, core.Money{Cents: cents}); err != nil {
			t.Fatalf("add payment: %v", err)
		}
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Quotation.Cents != 50000 {
		t.Fatalf("quotation changed across reopen: %d", got.Quotation.Cents)
	}
	payments, err := reopened.ListPayments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	total, err := core.TotalPaid(payments)
	if err != nil || total.Cents != 35050 {
		t.Fatalf("expected total 35050 after reopen, got %d (err=%v)", total.Cents, err)
	}
	if due := core.RemainingDue(got.Quotation, total); due.Cents != 14950 {
		t.Fatalf("expected due 14950 after reopen, got %d", due.Cents)
	}
}

func TestOverpaymentUnclamped(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, "Website", "Acme", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, cents := range []int64{60000, 50000} {
		if _, err := repo.AddPayment(ctx, p.ID, core.Money{Cents: cents}); err != nil {
			t.Fatalf("add payment: %v", err)
		}
	}

	payments, err := repo.ListPayments(ctx, p.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	total, err := core.TotalPaid(payments)
	if err != nil || total.Cents != 110000 {
		t.Fatalf("expected total 110000, got %d (err=%v)", total.Cents, err)
	}
	if due := core.RemainingDue(p.Quotation, total); due.Cents != -10000 {
		t.Fatalf("expected due -10000, got %d", due.Cents)
	}
}

func TestLegacyCreatedAtSentinel(t *testing.T) {
	repo, dbPath := newTestRepo(t)
	ctx := context.Background()

	// Simulate a row carried over from the pre-timestamp schema: the
	// migration default leaves created_at as the sentinel text.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO projects (name, client, quotation_cents, created_at) VALUES ('Old', 'Acme', 100, 'unknown')`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected legacy row to be readable, got %d projects", len(projects))
	}
	if got := projects[0].CreatedAtDisplay(); got != core.CreatedAtUnknown {
		t.Fatalf("expected %q, got %q", core.CreatedAtUnknown, got)
	}
}
