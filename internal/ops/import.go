package ops

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep existing on collision
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	ImportedReports int           `json:"imported_reports"`
	ImportedPeriods int           `json:"imported_periods"`
	Skipped         int           `json:"skipped"`
	Errors          []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importRecord is one parsed line of an export file.
type importRecord struct {
	line   int
	report *report.Report
	period *db.PeriodRecord
}

// Import restores reports and supplement periods from a JSONL export file.
func Import(database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.TrailError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	// mode:error refuses a file it cannot fully parse
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	switch input.Mode {
	case ImportModeError:
		return importModeError(database, records)
	default:
		return importModeOverlay(database, records, parseErrors, input.Mode)
	}
}

// parseExportFile parses a JSONL export file into records, skipping the
// header line.
func parseExportFile(file *os.File) ([]importRecord, []ImportError) {
	var records []importRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		var probe struct {
			LabtrailExport bool   `json:"_labtrail_export"`
			Type           string `json:"type"`
			ID             string `json:"id"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if probe.LabtrailExport {
			continue
		}
		if probe.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}

		switch probe.Type {
		case RecordTypeReport:
			var rec ReportExportRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				parseErrors = append(parseErrors, ImportError{
					Line:    lineNum,
					ID:      probe.ID,
					Code:    "PARSE_ERROR",
					Message: fmt.Sprintf("invalid report record: %v", err),
				})
				continue
			}
			r := rec.Report
			records = append(records, importRecord{line: lineNum, report: &r})
		case RecordTypePeriod:
			var rec PeriodExportRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				parseErrors = append(parseErrors, ImportError{
					Line:    lineNum,
					ID:      probe.ID,
					Code:    "PARSE_ERROR",
					Message: fmt.Sprintf("invalid period record: %v", err),
				})
				continue
			}
			p := rec.PeriodRecord
			records = append(records, importRecord{line: lineNum, period: &p})
		default:
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      probe.ID,
				Code:    "INVALID_RECORD",
				Message: fmt.Sprintf("unknown record type %q", probe.Type),
			})
		}
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}

// importModeError imports all records atomically, aborting without writes on
// any ID collision.
func importModeError(database *sql.DB, records []importRecord) (*ImportOutput, error) {
	tx, err := database.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	importedReports := 0
	importedPeriods := 0

	for _, rec := range records {
		if rec.report != nil {
			existing, err := db.GetReportByID(database, rec.report.ID, true)
			if err != nil && !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
			if existing != nil {
				return &ImportOutput{Errors: []ImportError{{
					Line:    rec.line,
					ID:      rec.report.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("report with id %q already exists", rec.report.ID),
				}}}, nil
			}
			if err := insertReportTx(tx, rec.report); err != nil {
				return nil, err
			}
			importedReports++
			continue
		}

		existing, err := db.GetPeriodByID(database, rec.period.ID, true)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return &ImportOutput{Errors: []ImportError{{
				Line:    rec.line,
				ID:      rec.period.ID,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("period with id %q already exists", rec.period.ID),
			}}}, nil
		}
		if err := insertPeriodTx(tx, rec.period); err != nil {
			return nil, err
		}
		importedPeriods++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ImportOutput{
		ImportedReports: importedReports,
		ImportedPeriods: importedPeriods,
	}, nil
}

// importModeOverlay imports records one by one. On ID collision, replace mode
// overwrites the existing row and skip mode keeps it.
func importModeOverlay(database *sql.DB, records []importRecord, parseErrors []ImportError, mode ImportMode) (*ImportOutput, error) {
	importedReports := 0
	importedPeriods := 0
	skipped := len(parseErrors)
	importErrors := append([]ImportError(nil), parseErrors...)

	for _, rec := range records {
		if rec.report != nil {
			existing, err := db.GetReportByID(database, rec.report.ID, true)
			if err != nil && !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
			if existing != nil && mode == ImportModeSkip {
				skipped++
				continue
			}
			if err := db.ReplaceReport(database, rec.report); err != nil {
				return nil, err
			}
			importedReports++
			continue
		}

		existing, err := db.GetPeriodByID(database, rec.period.ID, true)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if existing != nil && mode == ImportModeSkip {
			skipped++
			continue
		}
		if err := db.ReplacePeriod(database, rec.period); err != nil {
			return nil, err
		}
		importedPeriods++
	}

	return &ImportOutput{
		ImportedReports: importedReports,
		ImportedPeriods: importedPeriods,
		Skipped:         skipped,
		Errors:          importErrors,
	}, nil
}

// insertReportTx inserts a report within a transaction.
func insertReportTx(tx *sql.Tx, r *report.Report) error {
	var overrides sql.NullString
	if r.Annotations.StackOverride != nil {
		data, err := json.Marshal(*r.Annotations.StackOverride)
		if err != nil {
			return errors.NewInternal(err)
		}
		overrides = sql.NullString{String: string(data), Valid: true}
	}

	var deletedAt sql.NullInt64
	if r.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: *r.DeletedAt, Valid: true}
	}

	query := `
		INSERT INTO reports (
			id, test_date, lab, notes, anchor_state, overrides_json,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		r.ID, r.TestDate, nullString(r.Lab), nullString(r.Notes),
		nullString(r.Annotations.AnchorState), overrides,
		r.CreatedAt, r.UpdatedAt, deletedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// insertPeriodTx inserts a supplement period within a transaction.
func insertPeriodTx(tx *sql.Tx, p *db.PeriodRecord) error {
	var deletedAt sql.NullInt64
	if p.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: *p.DeletedAt, Valid: true}
	}

	query := `
		INSERT INTO periods (
			id, name, dose, frequency, start_date, end_date,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		p.ID, p.Name, p.Dose, p.Frequency, p.StartDate, nullString(p.EndDate),
		p.CreatedAt, p.UpdatedAt, deletedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// nullString converts *string to sql.NullString.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
