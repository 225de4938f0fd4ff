package db

import (
	"database/sql"
	"time"

	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/stack"
)

// PeriodRecord is a supplement period with its persistence metadata.
// The resolution core only ever sees the embedded stack.Period.
type PeriodRecord struct {
	stack.Period

	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// InsertPeriod stores a new supplement period in the database.
func InsertPeriod(db *sql.DB, p *PeriodRecord) error {
	query := `
		INSERT INTO periods (
			id, name, dose, frequency, start_date, end_date,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := db.Exec(query,
		p.ID, p.Name, p.Dose, p.Frequency, p.StartDate, toNullString(p.EndDate),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// ReplacePeriod inserts a period or overwrites an existing row with the same
// ID, preserving the record's own timestamps and deleted_at. Used by import.
func ReplacePeriod(db *sql.DB, p *PeriodRecord) error {
	var deletedAt sql.NullInt64
	if p.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: *p.DeletedAt, Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO periods (
			id, name, dose, frequency, start_date, end_date,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		p.ID, p.Name, p.Dose, p.Frequency, p.StartDate, toNullString(p.EndDate),
		p.CreatedAt, p.UpdatedAt, deletedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetPeriodByID retrieves a period by its ULID.
// If includeDeleted is false, soft-deleted periods are excluded.
func GetPeriodByID(db *sql.DB, id string, includeDeleted bool) (*PeriodRecord, error) {
	query := `
		SELECT id, name, dose, frequency, start_date, end_date,
			created_at, updated_at, deleted_at
		FROM periods
		WHERE id = ?
	`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := db.QueryRow(query, id)
	p, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return p, nil
}

// ListPeriods retrieves all periods ordered by start date then name.
func ListPeriods(db *sql.DB, includeDeleted bool) ([]PeriodRecord, error) {
	query := `
		SELECT id, name, dose, frequency, start_date, end_date,
			created_at, updated_at, deleted_at
		FROM periods
	`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY start_date ASC, name COLLATE NOCASE ASC, id ASC"

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	periods := []PeriodRecord{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return periods, nil
}

// Timeline retrieves the active (non-deleted) periods as the bare
// stack.Period slice the resolution core consumes.
func Timeline(db *sql.DB) ([]stack.Period, error) {
	records, err := ListPeriods(db, false)
	if err != nil {
		return nil, err
	}

	timeline := make([]stack.Period, 0, len(records))
	for _, rec := range records {
		timeline = append(timeline, rec.Period)
	}
	return timeline, nil
}

// UpdatePeriodByID updates mutable fields of an existing period.
// Sets updated_at to current timestamp. Does NOT change: id, created_at.
func UpdatePeriodByID(db *sql.DB, p *PeriodRecord) error {
	now := time.Now().Unix()

	query := `
		UPDATE periods
		SET name = ?, dose = ?, frequency = ?, start_date = ?, end_date = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query,
		p.Name, p.Dose, p.Frequency, p.StartDate, toNullString(p.EndDate), now,
		p.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(p.ID)
	}

	p.UpdatedAt = now

	return nil
}

// SoftDeletePeriod marks a period as deleted by setting deleted_at.
func SoftDeletePeriod(db *sql.DB, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE periods
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

// PurgePeriods permanently deletes soft-deleted periods.
// If cutoff is non-nil, only periods deleted at or before it are purged.
// Returns the number of rows removed.
func PurgePeriods(db *sql.DB, cutoff *int64) (int, error) {
	query := "DELETE FROM periods WHERE deleted_at IS NOT NULL"
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

// scanPeriod scans a single row into a PeriodRecord.
func scanPeriod(row rowScanner) (*PeriodRecord, error) {
	var (
		p         PeriodRecord
		endDate   sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Dose, &p.Frequency, &p.StartDate, &endDate,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	p.EndDate = fromNullString(endDate)
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Int64
	}

	return &p, nil
}
