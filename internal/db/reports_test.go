package db

import (
	"database/sql"
	"testing"

	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func strPtr(s string) *string {
	return &s
}

func sampleReport(id, testDate string, createdAt int64) *report.Report {
	return &report.Report{
		ID:        id,
		TestDate:  testDate,
		Lab:       strPtr("Quest"),
		Notes:     strPtr("# Fasting panel"),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestInsertAndGetReport(t *testing.T) {
	database := testDB(t)

	r := sampleReport("01A", "2025-03-10", 100)
	if err := InsertReport(database, r); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	got, err := GetReportByID(database, "01A", false)
	if err != nil {
		t.Fatalf("GetReportByID: %v", err)
	}
	if got.TestDate != "2025-03-10" || *got.Lab != "Quest" || *got.Notes != "# Fasting panel" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Annotations.AnchorState != nil || got.Annotations.StackOverride != nil {
		t.Errorf("fresh report should carry no annotations: %+v", got.Annotations)
	}
}

func TestGetReportNotFound(t *testing.T) {
	database := testDB(t)

	_, err := GetReportByID(database, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestOverrideNullVsEmptyRoundTrip(t *testing.T) {
	database := testDB(t)

	tests := []struct {
		name     string
		override *[]stack.Period
		check    func(t *testing.T, got *[]stack.Period)
	}{
		{
			name:     "nil stays nil",
			override: nil,
			check: func(t *testing.T, got *[]stack.Period) {
				if got != nil {
					t.Errorf("override = %v, want nil", *got)
				}
			},
		},
		{
			name:     "empty stays empty, not nil",
			override: &[]stack.Period{},
			check: func(t *testing.T, got *[]stack.Period) {
				if got == nil {
					t.Fatal("override = nil, want empty list")
				}
				if len(*got) != 0 {
					t.Errorf("override = %v, want empty list", *got)
				}
			},
		},
		{
			name: "non-empty preserved",
			override: &[]stack.Period{
				{ID: "p1", Name: "NAC", Dose: "600 mg", Frequency: "daily", StartDate: "2025-03-10"},
			},
			check: func(t *testing.T, got *[]stack.Period) {
				if got == nil || len(*got) != 1 {
					t.Fatalf("override = %v, want one period", got)
				}
				if (*got)[0].Name != "NAC" || (*got)[0].Dose != "600 mg" {
					t.Errorf("period = %+v", (*got)[0])
				}
			},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleReport(string(rune('A'+i)), "2025-03-10", 100)
			r.Annotations.StackOverride = tt.override
			if err := InsertReport(database, r); err != nil {
				t.Fatalf("InsertReport: %v", err)
			}

			got, err := GetReportByID(database, r.ID, false)
			if err != nil {
				t.Fatalf("GetReportByID: %v", err)
			}
			tt.check(t, got.Annotations.StackOverride)
		})
	}
}

func TestListReportsOrderAndPagination(t *testing.T) {
	database := testDB(t)

	// Inserted out of order; listing must come back in resolution order.
	for _, r := range []*report.Report{
		sampleReport("b", "2025-02-01", 100),
		sampleReport("a", "2025-01-01", 100),
		sampleReport("c", "2025-02-01", 50),
	} {
		if err := InsertReport(database, r); err != nil {
			t.Fatalf("InsertReport: %v", err)
		}
	}

	reports, total, err := ListReports(database, 10, 0, false)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if total != 3 || len(reports) != 3 {
		t.Fatalf("total=%d len=%d, want 3/3", total, len(reports))
	}
	if reports[0].ID != "a" || reports[1].ID != "c" || reports[2].ID != "b" {
		t.Errorf("order = %s,%s,%s want a,c,b", reports[0].ID, reports[1].ID, reports[2].ID)
	}

	page, total, err := ListReports(database, 2, 2, false)
	if err != nil {
		t.Fatalf("ListReports page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != "b" {
		t.Errorf("page = %v (total %d), want [b] total 3", page, total)
	}
}

func TestUpdateReport(t *testing.T) {
	database := testDB(t)

	r := sampleReport("01A", "2025-03-10", 100)
	if err := InsertReport(database, r); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	r.TestDate = "2025-03-11"
	r.Annotations.AnchorState = strPtr("unknown")
	if err := UpdateReportByID(database, r); err != nil {
		t.Fatalf("UpdateReportByID: %v", err)
	}
	if r.UpdatedAt < 100 {
		t.Error("UpdatedAt not refreshed")
	}

	got, err := GetReportByID(database, "01A", false)
	if err != nil {
		t.Fatalf("GetReportByID: %v", err)
	}
	if got.TestDate != "2025-03-11" {
		t.Errorf("TestDate = %q, want 2025-03-11", got.TestDate)
	}
	if got.Annotations.AnchorState == nil || *got.Annotations.AnchorState != "unknown" {
		t.Errorf("AnchorState = %v, want unknown", got.Annotations.AnchorState)
	}
}

func TestUpdateReportNotFound(t *testing.T) {
	database := testDB(t)

	err := UpdateReportByID(database, sampleReport("ghost", "2025-01-01", 1))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestSoftDeleteAndPurgeReports(t *testing.T) {
	database := testDB(t)

	r := sampleReport("01A", "2025-03-10", 100)
	if err := InsertReport(database, r); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	if err := SoftDeleteReport(database, "01A"); err != nil {
		t.Fatalf("SoftDeleteReport: %v", err)
	}

	// Hidden from default reads, visible with includeDeleted.
	if _, err := GetReportByID(database, "01A", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted report visible: %v", err)
	}
	got, err := GetReportByID(database, "01A", true)
	if err != nil {
		t.Fatalf("GetReportByID include_deleted: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt not set")
	}

	// Deleting twice is NOT_FOUND.
	if err := SoftDeleteReport(database, "01A"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete err = %v, want NOT_FOUND", err)
	}

	purged, err := PurgeReports(database, nil)
	if err != nil {
		t.Fatalf("PurgeReports: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, err := GetReportByID(database, "01A", true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("purged report still present: %v", err)
	}
}

func TestPurgeReportsCutoff(t *testing.T) {
	database := testDB(t)

	r := sampleReport("01A", "2025-03-10", 100)
	if err := InsertReport(database, r); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if err := SoftDeleteReport(database, "01A"); err != nil {
		t.Fatalf("SoftDeleteReport: %v", err)
	}

	// Cutoff far in the past: nothing qualifies.
	past := int64(1)
	purged, err := PurgeReports(database, &past)
	if err != nil {
		t.Fatalf("PurgeReports: %v", err)
	}
	if purged != 0 {
		t.Errorf("purged = %d, want 0", purged)
	}
}

func TestAllReportsExcludesDeleted(t *testing.T) {
	database := testDB(t)

	for _, r := range []*report.Report{
		sampleReport("a", "2025-01-01", 100),
		sampleReport("b", "2025-02-01", 100),
	} {
		if err := InsertReport(database, r); err != nil {
			t.Fatalf("InsertReport: %v", err)
		}
	}
	if err := SoftDeleteReport(database, "b"); err != nil {
		t.Fatalf("SoftDeleteReport: %v", err)
	}

	reports, err := AllReports(database, false)
	if err != nil {
		t.Fatalf("AllReports: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "a" {
		t.Errorf("AllReports = %v, want [a]", reports)
	}

	all, err := AllReports(database, true)
	if err != nil {
		t.Fatalf("AllReports include_deleted: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("AllReports include_deleted len = %d, want 2", len(all))
	}
}
