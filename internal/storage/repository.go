// Package storage persists the ledger (projects and their payments)
// in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paytrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteRepository opens (creating if necessary) the database at
// dbPath and upgrades its schema to the current version. The DSN
// enables foreign keys and bounds lock waits so a second process
// holding the file fails with SQLITE_BUSY instead of blocking forever.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateProject validates and persists a new project, assigning its ID
// and creation timestamp.
func (r *SQLiteRepository) CreateProject(ctx context.Context, name, client string, quotation core.Money) (core.Project, error) {
	p := core.Project{
		Name:      name,
		Client:    client,
		Quotation: quotation,
		CreatedAt: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, client, quotation_cents, created_at) VALUES (?, ?, ?, ?)`,
		p.Name, p.Client, p.Quotation.Cents, p.CreatedAt.Format(core.TimestampLayout))
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Project{}, fmt.Errorf("project insert id: %w", err)
	}
	p.ID = id

	slog.InfoContext(ctx, "Project created",
		"id", p.ID,
		"name", p.Name,
		"client", p.Client,
		"quotation_cents", p.Quotation.Cents)

	return p, nil
}

// ListProjects returns all projects in creation order. A row that
// fails to scan is logged and skipped; callers only ever see it as
// absent, never as a partial record.
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, client, quotation_cents, created_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed project row", "error", err)
			continue
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// GetProject returns the project with the given ID, or
// core.ErrProjectNotFound.
func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, client, quotation_cents, created_at FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, core.ErrProjectNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// DeleteProject removes a project and all its payments in one
// transaction: either both disappear or neither does.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete payments for project %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %d rows affected: %w", id, err)
	}
	if affected == 0 {
		return core.ErrProjectNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}

	slog.InfoContext(ctx, "Project deleted with payments", "id", id)
	return nil
}

// AddPayment validates and records a payment against an existing
// project, assigning its ID and timestamp. The existence check and the
// insert share one transaction so a payment can never be written
// against a project deleted in between.
func (r *SQLiteRepository) AddPayment(ctx context.Context, projectID int64, amount core.Money) (core.Payment, error) {
	pay := core.Payment{
		ProjectID: projectID,
		Amount:    amount,
		PaidAt:    time.Now(),
	}
	if err := pay.Validate(); err != nil {
		return core.Payment{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Payment{}, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, projectID).Scan(&exists); err != nil {
		return core.Payment{}, fmt.Errorf("check project %d: %w", projectID, err)
	}
	if !exists {
		return core.Payment{}, core.ErrProjectNotFound
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (project_id, amount_cents, paid_at) VALUES (?, ?, ?)`,
		pay.ProjectID, pay.Amount.Cents, pay.PaidAt.Format(core.TimestampLayout))
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment insert id: %w", err)
	}
	pay.ID = id

	if err := tx.Commit(); err != nil {
		return core.Payment{}, fmt.Errorf("commit payment tx: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", pay.ID,
		"project_id", pay.ProjectID,
		"amount_cents", pay.Amount.Cents)

	return pay, nil
}

// ListPayments returns a project's payments in creation order. An
// unknown project simply yields an empty list, matching what a caller
// sees right after a cascade delete.
func (r *SQLiteRepository) ListPayments(ctx context.Context, projectID int64) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, amount_cents, paid_at FROM payments WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var (
			p      core.Payment
			paidAt string
		)
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Amount.Cents, &paidAt); err != nil {
			slog.WarnContext(ctx, "Skipping malformed payment row", "project_id", projectID, "error", err)
			continue
		}
		p.PaidAt = parseTimestamp(paidAt)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// Snapshot returns the raw database file for backup download. It is a
// byte-for-byte copy, not a logical export.
func (r *SQLiteRepository) Snapshot(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read database file: %w", err)
	}
	slog.InfoContext(ctx, "Database snapshot taken", "path", r.path, "bytes", len(data))
	return data, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p         core.Project
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Client, &p.Quotation.Cents, &createdAt); err != nil {
		return core.Project{}, err
	}
	p.CreatedAt = parseTimestamp(createdAt)
	return p, nil
}

// parseTimestamp maps the stored text to a time. The pre-migration
// sentinel and anything unparsable come back as the zero time, which
// displays as "unknown".
func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(core.TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
