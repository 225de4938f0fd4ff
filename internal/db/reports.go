package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

// InsertReport stores a new report in the database.
func InsertReport(db *sql.DB, r *report.Report) error {
	overrides, err := overridesToNullString(r.Annotations.StackOverride)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO reports (
			id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = db.Exec(query,
		r.ID, r.TestDate, toNullString(r.Lab), toNullString(r.Notes),
		toNullString(r.Annotations.AnchorState), overrides,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// ReplaceReport inserts a report or overwrites an existing row with the same
// ID, preserving the record's own timestamps and deleted_at. Used by import.
func ReplaceReport(db *sql.DB, r *report.Report) error {
	overrides, err := overridesToNullString(r.Annotations.StackOverride)
	if err != nil {
		return errors.NewInternal(err)
	}

	var deletedAt sql.NullInt64
	if r.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: *r.DeletedAt, Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO reports (
			id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.Exec(query,
		r.ID, r.TestDate, toNullString(r.Lab), toNullString(r.Notes),
		toNullString(r.Annotations.AnchorState), overrides,
		r.CreatedAt, r.UpdatedAt, deletedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetReportByID retrieves a report by its ULID.
// If includeDeleted is false, soft-deleted reports are excluded.
func GetReportByID(db *sql.DB, id string, includeDeleted bool) (*report.Report, error) {
	query := `
		SELECT id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		FROM reports
		WHERE id = ?
	`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := db.QueryRow(query, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return r, nil
}

// ListReports retrieves reports in resolution order (test date, created_at,
// id) with pagination, plus the total count of matching rows.
func ListReports(db *sql.DB, limit, offset int, includeDeleted bool) ([]report.Report, int, error) {
	where := "WHERE deleted_at IS NULL"
	if includeDeleted {
		where = ""
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM reports " + where).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		FROM reports ` + where + `
		ORDER BY test_date ASC, created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return reports, total, nil
}

// AllReports retrieves every report, the resolution core's input.
// Soft-deleted reports are excluded unless includeDeleted is set; deleted
// reports never participate in context resolution.
func AllReports(db *sql.DB, includeDeleted bool) ([]report.Report, error) {
	query := `
		SELECT id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		FROM reports
	`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY test_date ASC, created_at ASC, id ASC"

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return reports, nil
}

// UpdateReportByID updates mutable fields of an existing report.
// Sets updated_at to current timestamp. Does NOT change: id, created_at.
func UpdateReportByID(db *sql.DB, r *report.Report) error {
	overrides, err := overridesToNullString(r.Annotations.StackOverride)
	if err != nil {
		return errors.NewInternal(err)
	}

	now := time.Now().Unix()

	query := `
		UPDATE reports
		SET test_date = ?, lab = ?, notes = ?, anchor_state = ?,
			overrides_json = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query,
		r.TestDate, toNullString(r.Lab), toNullString(r.Notes),
		toNullString(r.Annotations.AnchorState), overrides, now,
		r.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(r.ID)
	}

	r.UpdatedAt = now

	return nil
}

// SoftDeleteReport marks a report as deleted by setting deleted_at.
func SoftDeleteReport(db *sql.DB, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE reports
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// PurgeReports permanently deletes soft-deleted reports.
// If cutoff is non-nil, only reports deleted at or before it are purged.
// Returns the number of rows removed.
func PurgeReports(db *sql.DB, cutoff *int64) (int, error) {
	query := "DELETE FROM reports WHERE deleted_at IS NOT NULL"
	args := []any{}
	if cutoff != nil {
		query += " AND deleted_at <= ?"
		args = append(args, *cutoff)
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(rowsAffected), nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport scans a single row into a Report struct.
func scanReport(row rowScanner) (*report.Report, error) {
	var (
		r           report.Report
		lab         sql.NullString
		notes       sql.NullString
		anchorState sql.NullString
		overrides   sql.NullString
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &r.TestDate, &lab, &notes, &anchorState, &overrides,
		&r.CreatedAt, &r.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Lab = fromNullString(lab)
	r.Notes = fromNullString(notes)
	r.Annotations.AnchorState = fromNullString(anchorState)

	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Int64
	}

	// SQL NULL means "override not set"; a stored "[]" means "explicitly
	// empty". The resolution core distinguishes the two, so the column
	// round-trips through the pointer shape exactly.
	if overrides.Valid {
		periods := []stack.Period{}
		if err := json.Unmarshal([]byte(overrides.String), &periods); err != nil {
			return nil, err
		}
		r.Annotations.StackOverride = &periods
	}

	return &r, nil
}

// collectReports drains rows into a slice of reports.
func collectReports(rows *sql.Rows) ([]report.Report, error) {
	reports := []report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// overridesToNullString serializes the override list, preserving the
// nil/empty distinction: nil pointer → SQL NULL, empty list → "[]".
func overridesToNullString(overrides *[]stack.Period) (sql.NullString, error) {
	if overrides == nil {
		return sql.NullString{}, nil
	}
	periods := *overrides
	if periods == nil {
		periods = []stack.Period{}
	}
	data, err := json.Marshal(periods)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
