package ops

import (
	"testing"

	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/report"
	"github.com/labtrail/labtrail/internal/stack"
)

func TestContextResolve_AllInTrailOrder(t *testing.T) {
	database, cfg := testDB(t)
	a := addReport(t, database, cfg, StoreInput{TestDate: "2024-02-01"})
	b := addReport(t, database, cfg, StoreInput{TestDate: "2024-01-01"})

	out, err := ContextResolve(database, cfg, ContextResolveInput{})
	if err != nil {
		t.Fatalf("ContextResolve failed: %v", err)
	}
	if len(out.Contexts) != 2 {
		t.Fatalf("len(Contexts) = %d, want 2", len(out.Contexts))
	}
	if out.Contexts[0].Context.ReportID != b {
		t.Errorf("first context = %q, want earlier report %q", out.Contexts[0].Context.ReportID, b)
	}
	if out.Contexts[1].Context.ReportID != a {
		t.Errorf("second context = %q, want later report %q", out.Contexts[1].Context.ReportID, a)
	}
}

func TestContextResolve_SingleByID(t *testing.T) {
	database, cfg := testDB(t)
	id := addReport(t, database, cfg, StoreInput{
		TestDate:    "2024-03-15",
		AnchorState: stringPtr("unknown"),
	})

	out, err := ContextResolve(database, cfg, ContextResolveInput{ID: &id})
	if err != nil {
		t.Fatalf("ContextResolve failed: %v", err)
	}
	if len(out.Contexts) != 1 {
		t.Fatalf("len(Contexts) = %d, want 1", len(out.Contexts))
	}
	if out.Contexts[0].Context.EffectiveState != report.StateUnknown {
		t.Errorf("EffectiveState = %q, want unknown", out.Contexts[0].Context.EffectiveState)
	}
}

func TestContextResolve_DraftByDate(t *testing.T) {
	database, cfg := testDB(t)
	override := []stack.Period{{Name: "NAC", Dose: "600 mg", StartDate: "2024-01-01"}}
	addReport(t, database, cfg, StoreInput{
		TestDate:      "2024-01-10",
		AnchorState:   stringPtr("anchor"),
		StackOverride: &override,
	})

	date := "2024-02-01"
	out, err := ContextResolve(database, cfg, ContextResolveInput{Date: &date})
	if err != nil {
		t.Fatalf("ContextResolve failed: %v", err)
	}
	if len(out.Contexts) != 1 {
		t.Fatalf("len(Contexts) = %d, want 1", len(out.Contexts))
	}
	// Draft inherits from the anchor before it, and nothing is stored
	if out.Contexts[0].SupplementsText != "NAC 600 mg" {
		t.Errorf("SupplementsText = %q, want inherited override", out.Contexts[0].SupplementsText)
	}
	listed, err := List(database, cfg, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if listed.Pagination.Total != 1 {
		t.Errorf("Total = %d, want 1 (draft must not be stored)", listed.Pagination.Total)
	}
}

func TestContextResolve_IDAndDateAreExclusive(t *testing.T) {
	database, cfg := testDB(t)
	id := addReport(t, database, cfg, StoreInput{TestDate: "2024-01-10"})
	date := "2024-02-01"

	_, err := ContextResolve(database, cfg, ContextResolveInput{ID: &id, Date: &date})
	if !errors.Is(err, errors.ErrAmbiguousAddressing) {
		t.Errorf("ContextResolve both = %v, want ErrAmbiguousAddressing", err)
	}
}

func TestContextResolve_UnknownID(t *testing.T) {
	database, cfg := testDB(t)
	missing := "01MISSING"

	_, err := ContextResolve(database, cfg, ContextResolveInput{ID: &missing})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ContextResolve missing = %v, want ErrNotFound", err)
	}
}

func TestContextCurrent_EmptyTrailUsesOpenStack(t *testing.T) {
	database, cfg := testDB(t)
	addPeriod(t, database, cfg, StackAddInput{
		Name: "Vitamin D3", Dose: "5000 IU", Frequency: "daily", StartDate: "2024-01-01",
	})

	out, err := ContextCurrent(database, cfg, ContextCurrentInput{})
	if err != nil {
		t.Fatalf("ContextCurrent failed: %v", err)
	}
	if out.Context.EffectiveState != report.StateAnchor {
		t.Errorf("EffectiveState = %q, want anchor", out.Context.EffectiveState)
	}
	if out.InheritedFrom != nil {
		t.Errorf("InheritedFrom = %v, want nil with no reports", out.InheritedFrom)
	}
	if out.SupplementsText != "Vitamin D3 5000 IU daily" {
		t.Errorf("SupplementsText = %q", out.SupplementsText)
	}
}

func TestContextCurrent_FollowsLastReport(t *testing.T) {
	database, cfg := testDB(t)
	addReport(t, database, cfg, StoreInput{TestDate: "2024-01-01"})
	last := addReport(t, database, cfg, StoreInput{
		TestDate:    "2024-03-01",
		AnchorState: stringPtr("none"),
	})

	out, err := ContextCurrent(database, cfg, ContextCurrentInput{})
	if err != nil {
		t.Fatalf("ContextCurrent failed: %v", err)
	}
	if out.Context.EffectiveState != report.StateNone {
		t.Errorf("EffectiveState = %q, want none", out.Context.EffectiveState)
	}
	if out.InheritedFrom == nil || *out.InheritedFrom != last {
		t.Errorf("InheritedFrom = %v, want %q", out.InheritedFrom, last)
	}
}

func TestBackfill_ListsUnknownsOldestFirst(t *testing.T) {
	database, cfg := testDB(t)
	u1 := addReport(t, database, cfg, StoreInput{
		TestDate:    "2024-01-01",
		AnchorState: stringPtr("unknown"),
	})
	// inherits unknown from u1
	u2 := addReport(t, database, cfg, StoreInput{TestDate: "2024-02-01"})
	// anchor clears the unknown run
	override := []stack.Period{{Name: "Zinc", Dose: "25 mg", Frequency: "daily"}}
	addReport(t, database, cfg, StoreInput{
		TestDate:      "2024-03-01",
		AnchorState:   stringPtr("anchor"),
		StackOverride: &override,
	})

	out, err := Backfill(database, cfg, BackfillInput{})
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if out.Total != 2 {
		t.Fatalf("Total = %d, want 2", out.Total)
	}
	if out.Items[0].ID != u1 || out.Items[1].ID != u2 {
		t.Errorf("items = %+v, want [%s %s] oldest first", out.Items, u1, u2)
	}
	if out.Items[1].AnchorState != "inherit" {
		t.Errorf("inherited unknown AnchorState = %q, want inherit", out.Items[1].AnchorState)
	}
}

func TestBackfill_EmptyWhenAllResolved(t *testing.T) {
	database, cfg := testDB(t)
	addReport(t, database, cfg, StoreInput{TestDate: "2024-01-01"})

	out, err := Backfill(database, cfg, BackfillInput{})
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if out.Total != 0 || len(out.Items) != 0 {
		t.Errorf("Backfill = %+v, want empty", out)
	}
}

func TestBackfill_LimitTruncates(t *testing.T) {
	database, cfg := testDB(t)
	addReport(t, database, cfg, StoreInput{
		TestDate:    "2024-01-01",
		AnchorState: stringPtr("unknown"),
	})
	addReport(t, database, cfg, StoreInput{TestDate: "2024-02-01"})
	addReport(t, database, cfg, StoreInput{TestDate: "2024-03-01"})

	out, err := Backfill(database, cfg, BackfillInput{Limit: 2})
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(out.Items))
	}
	if out.Total != 3 {
		t.Errorf("Total = %d, want 3", out.Total)
	}
}
