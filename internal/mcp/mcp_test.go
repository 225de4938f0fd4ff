package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/db"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultPayload decodes a success result body.
func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("content is not TextContent")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return payload
}

// storeReport stores a report through the handler and returns its ID.
func storeReport(t *testing.T, h *Handlers, args map[string]any) string {
	t.Helper()

	result, err := h.HandleReportStore(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("setup store failed: %v", extractErrorMessage(result))
	}
	return resultPayload(t, result)["id"].(string)
}

// TestHandleReportStore tests the report_store handler.
func TestHandleReportStore(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "store valid report",
			args: map[string]any{
				"test_date": "2024-03-15",
				"lab":       "Quest",
			},
			wantError: false,
		},
		{
			name:      "store without test_date",
			args:      map[string]any{"lab": "Quest"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "store with malformed date",
			args:      map[string]any{"test_date": "03/15/2024"},
			wantError: true,
			errorCode: "INVALID_DATE",
		},
		{
			name: "store with annotation",
			args: map[string]any{
				"test_date":    "2024-04-01",
				"anchor_state": "anchor",
				"stack_override": []any{
					map[string]any{"name": "Vitamin D3", "dose": "5000 IU", "frequency": "daily"},
				},
			},
			wantError: false,
		},
		{
			name: "store with bad anchor_state",
			args: map[string]any{
				"test_date":    "2024-04-01",
				"anchor_state": "baseline",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleReportStore(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

// TestHandleReportFetch tests the report_fetch handler.
func TestHandleReportFetch(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	id := storeReport(t, h, map[string]any{"test_date": "2024-03-15"})

	result, err := h.HandleReportFetch(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("fetch failed: %v", extractErrorMessage(result))
	}

	payload := resultPayload(t, result)
	report, ok := payload["report"].(map[string]any)
	if !ok {
		t.Fatalf("no report object in payload: %v", payload)
	}
	if report["id"] != id {
		t.Errorf("report id = %v, want %v", report["id"], id)
	}
	if _, ok := payload["context"].(map[string]any); !ok {
		t.Errorf("no context object in payload: %v", payload)
	}

	// missing report
	result, err = h.HandleReportFetch(ctx, makeRequest(map[string]any{"id": "01MISSING"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing report")
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

// TestHandleAnnotateAndResolve walks an annotation through context resolution.
func TestHandleAnnotateAndResolve(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	early := storeReport(t, h, map[string]any{"test_date": "2024-01-10"})
	late := storeReport(t, h, map[string]any{"test_date": "2024-03-10"})

	result, err := h.HandleReportAnnotate(ctx, makeRequest(map[string]any{
		"id":           early,
		"anchor_state": "anchor",
		"stack_override": []any{
			map[string]any{"name": "Zinc", "dose": "25 mg", "frequency": "daily"},
		},
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("annotate failed: %v", extractErrorMessage(result))
	}

	result, err = h.HandleContextResolve(ctx, makeRequest(map[string]any{"id": late}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("resolve failed: %v", extractErrorMessage(result))
	}

	payload := resultPayload(t, result)
	contexts, ok := payload["contexts"].([]any)
	if !ok || len(contexts) != 1 {
		t.Fatalf("contexts = %v, want one entry", payload["contexts"])
	}
	entry := contexts[0].(map[string]any)
	ctxObj := entry["context"].(map[string]any)
	if ctxObj["effective_state"] != "anchor" {
		t.Errorf("effective_state = %v, want anchor", ctxObj["effective_state"])
	}
	if ctxObj["anchor_report_id"] != early {
		t.Errorf("anchor_report_id = %v, want %v", ctxObj["anchor_report_id"], early)
	}
}

// TestHandleStackLifecycle covers add, active, stop, delete.
func TestHandleStackLifecycle(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	result, err := h.HandleStackAdd(ctx, makeRequest(map[string]any{
		"name":       "Vitamin D3",
		"dose":       "5000 IU",
		"frequency":  "daily",
		"start_date": "2024-01-01",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("stack_add failed: %v", extractErrorMessage(result))
	}
	id := resultPayload(t, result)["id"].(string)

	result, err = h.HandleStackActive(ctx, makeRequest(map[string]any{"date": "2024-02-01"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["display_text"] != "Vitamin D3 5000 IU daily" {
		t.Errorf("display_text = %v", payload["display_text"])
	}

	result, err = h.HandleStackStop(ctx, makeRequest(map[string]any{
		"id":       id,
		"end_date": "2024-02-15",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("stack_stop failed: %v", extractErrorMessage(result))
	}

	// stopping a closed period is a conflict
	result, err = h.HandleStackStop(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CONFLICT")

	result, err = h.HandleStackDelete(ctx, makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("stack_delete failed: %v", extractErrorMessage(result))
	}
}

// TestHandleContextCurrent tests the context_current handler on an empty trail.
func TestHandleContextCurrent(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)

	result, err := h.HandleContextCurrent(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("context_current failed: %v", extractErrorMessage(result))
	}

	payload := resultPayload(t, result)
	ctxObj := payload["context"].(map[string]any)
	if ctxObj["effective_state"] != "none" {
		t.Errorf("effective_state = %v, want none with empty trail", ctxObj["effective_state"])
	}
}

// TestHandleBackfill tests the report_backfill handler.
func TestHandleBackfill(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg)
	ctx := context.Background()

	storeReport(t, h, map[string]any{
		"test_date":    "2024-01-10",
		"anchor_state": "unknown",
	})

	result, err := h.HandleReportBackfill(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["total"] != float64(1) {
		t.Errorf("total = %v, want 1", payload["total"])
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 18 {
		t.Errorf("len(AllToolNames()) = %d, want 18", len(names))
	}

	sort.Strings(names)
	for _, required := range []string{
		"context_current", "context_resolve", "report_annotate",
		"report_backfill", "report_store", "stack_active", "stack_stop",
		"trail_export", "trail_import", "trail_purge",
	} {
		idx := sort.SearchStrings(names, required)
		if idx >= len(names) || names[idx] != required {
			t.Errorf("tool %q missing from registry", required)
		}
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"report_store", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	unknown := ValidateDisabledTypes([]string{"report", "protocol"})
	if len(unknown) != 1 || unknown[0] != "protocol" {
		t.Errorf("unknown = %v, want [protocol]", unknown)
	}
}

func TestGetTypeForTool(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"report_store", "report"},
		{"stack_active", "stack"},
		{"context_current", "context"},
		{"trail_purge", "trail"},
		{"noseparator", ""},
	}
	for _, tt := range tests {
		if got := GetTypeForTool(tt.tool); got != tt.want {
			t.Errorf("GetTypeForTool(%q) = %q, want %q", tt.tool, got, tt.want)
		}
	}
}

func TestExpandTypesToTools(t *testing.T) {
	tools := ExpandTypesToTools([]string{"trail"})
	if len(tools) != 3 {
		t.Errorf("trail type has %d tools, want 3", len(tools))
	}
	if tools := ExpandTypesToTools(nil); tools != nil {
		t.Errorf("ExpandTypesToTools(nil) = %v, want nil", tools)
	}
}

func TestNewServerSkipsDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"trail_purge"}
	cfg.DisabledTypes = []string{"stack"}

	s := NewServer(database, cfg, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
