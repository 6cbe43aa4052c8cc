package applicants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/telemetry"
)

const pgUndefinedTable = "42P01"

// SQLRepo implements Repo on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// NewSQLRepo constructs a SQLRepo.
func NewSQLRepo(database *sql.DB, dialect db.Dialect) *SQLRepo {
	return &SQLRepo{DB: database, Dialect: dialect}
}

const selectColumns = `id, first_name, last_name, email, phone, position, start_date, end_date, notes, cv_file_name, cv_file_path, status, created_at`

func (r *SQLRepo) List(ctx context.Context) ([]Applicant, error) {
	query := `SELECT ` + selectColumns + ` FROM applicants ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, r.classify("list", err)
	}
	defer rows.Close()

	var out []Applicant
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLRepo) Get(ctx context.Context, id string) (Applicant, error) {
	query := db.Rebind(r.Dialect, `SELECT `+selectColumns+` FROM applicants WHERE id = $1`)
	a, err := scanApplicant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Applicant{}, ErrNotFound
		}
		return Applicant{}, r.classify("get", err)
	}
	return a, nil
}

// Create inserts a with status NEW regardless of a.Status.
func (r *SQLRepo) Create(ctx context.Context, a Applicant) error {
	query := db.Rebind(r.Dialect, `
INSERT INTO applicants (
    id,
    first_name,
    last_name,
    email,
    phone,
    position,
    start_date,
    end_date,
    notes,
    cv_file_name,
    cv_file_path,
    status,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)

	_, err := r.DB.ExecContext(ctx, query,
		a.ID,
		a.FirstName,
		a.LastName,
		a.Email,
		a.Phone,
		a.Position,
		a.StartDate,
		a.EndDate,
		a.Notes,
		nullString(a.CVFileName),
		nullString(a.CVURL),
		string(StatusNew),
		a.CreatedAt,
	)
	if err != nil {
		return r.classify("create", err)
	}
	return nil
}

// Update writes status and position for a.ID.
func (r *SQLRepo) Update(ctx context.Context, a Applicant) error {
	query := db.Rebind(r.Dialect, `UPDATE applicants SET status = $1, position = $2 WHERE id = $3`)
	res, err := r.DB.ExecContext(ctx, query, string(a.Status), a.Position, a.ID)
	if err != nil {
		return r.classify("update", err)
	}
	return requireRow(res)
}

func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	query := db.Rebind(r.Dialect, `DELETE FROM applicants WHERE id = $1`)
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return r.classify("delete", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplicant(row rowScanner) (Applicant, error) {
	var a Applicant
	var notes, cvName, cvPath sql.NullString
	var status string
	if err := row.Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.Phone,
		&a.Position,
		&a.StartDate,
		&a.EndDate,
		&notes,
		&cvName,
		&cvPath,
		&status,
		&a.CreatedAt,
	); err != nil {
		return Applicant{}, err
	}
	a.Notes = notes.String
	a.CVFileName = cvName.String
	a.CVURL = cvPath.String
	a.Status = Status(status)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// classify logs a missing table distinctly and wraps it in ErrTableMissing.
func (r *SQLRepo) classify(op string, err error) error {
	if isUndefinedTable(err) {
		telemetry.Error("applicants.table_missing", map[string]any{
			"op":      op,
			"dialect": string(r.Dialect),
			"hint":    "the applicants table does not exist; run cmd/migrate",
			"error":   err,
		})
		return fmt.Errorf("%w: %v", ErrTableMissing, err)
	}
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*SQLRepo)(nil)
