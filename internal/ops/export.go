package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
)

// Export record type tags
const (
	RecordTypeReport = "report"
	RecordTypePeriod = "period"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path           string // optional, default: ~/.labtrail/exports/trail-<timestamp>.jsonl
	IncludeDeleted bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Reports    int    `json:"reports"`
	Periods    int    `json:"periods"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	LabtrailExport bool   `json:"_labtrail_export"`
	SchemaVersion  string `json:"schema_version"`
	ExportedAt     int64  `json:"exported_at"`
}

// ReportExportRecord is a report line in a JSONL export file.
type ReportExportRecord struct {
	Type string `json:"type"`
	report.Report
}

// PeriodExportRecord is a supplement-period line in a JSONL export file.
type PeriodExportRecord struct {
	Type string `json:"type"`
	db.PeriodRecord
}

// Export writes the full trail (reports then periods) to a JSONL file.
// The file is written to a temp path and renamed into place, so a failed
// export never clobbers an existing file.
func Export(database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(now)
		if err != nil {
			return nil, err
		}
	}

	// Both user-provided and default paths go through validation.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure (original file is preserved)
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	header := ExportHeader{
		LabtrailExport: true,
		SchemaVersion:  "1.0",
		ExportedAt:     exportedAt,
	}
	if err := writeJSONLine(file, header); err != nil {
		return nil, err
	}

	reports, err := db.AllReports(database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if err := writeJSONLine(file, ReportExportRecord{Type: RecordTypeReport, Report: r}); err != nil {
			return nil, err
		}
	}

	periods, err := db.ListPeriods(database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	for _, p := range periods {
		if err := writeJSONLine(file, PeriodExportRecord{Type: RecordTypePeriod, PeriodRecord: p}); err != nil {
			return nil, err
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}

	// Close before atomic replace (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows, os.Rename fails if the destination exists. Fail safely,
	// preserving the existing file, rather than delete+rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows yet (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Reports:    len(reports),
		Periods:    len(periods),
		ExportedAt: exportedAt,
	}, nil
}

// writeJSONLine marshals v and writes it as one JSONL line.
func writeJSONLine(file *os.File, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write(line); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write([]byte("\n")); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// defaultExportPath generates the default export path.
// Format: ~/.labtrail/exports/trail-<timestamp>.jsonl
func defaultExportPath(now time.Time) (string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	timestamp := now.Format("2006-01-02T150405")
	return filepath.Join(exportsDir, fmt.Sprintf("trail-%s.jsonl", timestamp)), nil
}
