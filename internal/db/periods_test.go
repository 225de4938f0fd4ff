package db

import (
	"testing"

	"github.com/labtrail/labtrail/internal/errors"
)

func samplePeriod(id, name, startDate string, createdAt int64) *PeriodRecord {
	p := &PeriodRecord{}
	p.ID = id
	p.Name = name
	p.Dose = "4000 IU"
	p.Frequency = "daily"
	p.StartDate = startDate
	p.CreatedAt = createdAt
	p.UpdatedAt = createdAt
	return p
}

func TestInsertAndGetPeriod(t *testing.T) {
	database := testDB(t)

	p := samplePeriod("01A", "Vitamin D3", "2025-01-01", 100)
	if err := InsertPeriod(database, p); err != nil {
		t.Fatalf("InsertPeriod: %v", err)
	}

	got, err := GetPeriodByID(database, "01A", false)
	if err != nil {
		t.Fatalf("GetPeriodByID: %v", err)
	}
	if got.Name != "Vitamin D3" || got.Dose != "4000 IU" || got.StartDate != "2025-01-01" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.EndDate != nil {
		t.Errorf("EndDate = %v, want nil (open)", *got.EndDate)
	}
}

func TestPeriodEndDateRoundTrip(t *testing.T) {
	database := testDB(t)

	p := samplePeriod("01A", "Zinc", "2025-01-15", 100)
	p.EndDate = strPtr("2025-03-01")
	if err := InsertPeriod(database, p); err != nil {
		t.Fatalf("InsertPeriod: %v", err)
	}

	got, err := GetPeriodByID(database, "01A", false)
	if err != nil {
		t.Fatalf("GetPeriodByID: %v", err)
	}
	if got.EndDate == nil || *got.EndDate != "2025-03-01" {
		t.Errorf("EndDate = %v, want 2025-03-01", got.EndDate)
	}
}

func TestListPeriodsOrder(t *testing.T) {
	database := testDB(t)

	for _, p := range []*PeriodRecord{
		samplePeriod("b", "zinc", "2025-02-01", 100),
		samplePeriod("a", "Vitamin D3", "2025-01-01", 100),
		samplePeriod("c", "Ashwagandha", "2025-02-01", 100),
	} {
		if err := InsertPeriod(database, p); err != nil {
			t.Fatalf("InsertPeriod: %v", err)
		}
	}

	periods, err := ListPeriods(database, false)
	if err != nil {
		t.Fatalf("ListPeriods: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("len = %d, want 3", len(periods))
	}
	// start asc, then case-insensitive name
	if periods[0].Name != "Vitamin D3" || periods[1].Name != "Ashwagandha" || periods[2].Name != "zinc" {
		t.Errorf("order = %s,%s,%s", periods[0].Name, periods[1].Name, periods[2].Name)
	}
}

func TestTimelineExcludesDeleted(t *testing.T) {
	database := testDB(t)

	for _, p := range []*PeriodRecord{
		samplePeriod("a", "Vitamin D3", "2025-01-01", 100),
		samplePeriod("b", "Zinc", "2025-01-15", 100),
	} {
		if err := InsertPeriod(database, p); err != nil {
			t.Fatalf("InsertPeriod: %v", err)
		}
	}
	if err := SoftDeletePeriod(database, "b"); err != nil {
		t.Fatalf("SoftDeletePeriod: %v", err)
	}

	timeline, err := Timeline(database)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(timeline) != 1 || timeline[0].Name != "Vitamin D3" {
		t.Errorf("Timeline = %v, want [Vitamin D3]", timeline)
	}
}

func TestUpdatePeriod(t *testing.T) {
	database := testDB(t)

	p := samplePeriod("01A", "Vitamin D3", "2025-01-01", 100)
	if err := InsertPeriod(database, p); err != nil {
		t.Fatalf("InsertPeriod: %v", err)
	}

	p.Dose = "5000 IU"
	p.EndDate = strPtr("2025-06-30")
	if err := UpdatePeriodByID(database, p); err != nil {
		t.Fatalf("UpdatePeriodByID: %v", err)
	}

	got, err := GetPeriodByID(database, "01A", false)
	if err != nil {
		t.Fatalf("GetPeriodByID: %v", err)
	}
	if got.Dose != "5000 IU" {
		t.Errorf("Dose = %q, want 5000 IU", got.Dose)
	}
	if got.EndDate == nil || *got.EndDate != "2025-06-30" {
		t.Errorf("EndDate = %v, want 2025-06-30", got.EndDate)
	}
}

func TestUpdatePeriodNotFound(t *testing.T) {
	database := testDB(t)

	err := UpdatePeriodByID(database, samplePeriod("ghost", "X", "2025-01-01", 1))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestSoftDeleteAndPurgePeriods(t *testing.T) {
	database := testDB(t)

	p := samplePeriod("01A", "Vitamin D3", "2025-01-01", 100)
	if err := InsertPeriod(database, p); err != nil {
		t.Fatalf("InsertPeriod: %v", err)
	}

	if err := SoftDeletePeriod(database, "01A"); err != nil {
		t.Fatalf("SoftDeletePeriod: %v", err)
	}
	if _, err := GetPeriodByID(database, "01A", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted period visible: %v", err)
	}
	if _, err := GetPeriodByID(database, "01A", true); err != nil {
		t.Errorf("deleted period not visible with include_deleted: %v", err)
	}

	purged, err := PurgePeriods(database, nil)
	if err != nil {
		t.Fatalf("PurgePeriods: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}
