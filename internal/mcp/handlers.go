package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/ops"
	"github.com/labtrail/labtrail/internal/stack"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// ReportStoreRequest represents the arguments for report_store.
type ReportStoreRequest struct {
	TestDate      string          `json:"test_date"`
	Lab           *string         `json:"lab,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	AnchorState   *string         `json:"anchor_state,omitempty"`
	StackOverride *[]stack.Period `json:"stack_override,omitempty"`
}

// ReportFetchRequest represents the arguments for report_fetch.
type ReportFetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ReportListRequest represents the arguments for report_list.
type ReportListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ReportUpdateRequest represents the arguments for report_update.
type ReportUpdateRequest struct {
	ID         string  `json:"id"`
	TestDate   *string `json:"test_date,omitempty"`
	Lab        *string `json:"lab,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	ClearLab   bool    `json:"clear_lab,omitempty"`
	ClearNotes bool    `json:"clear_notes,omitempty"`
}

// ReportAnnotateRequest represents the arguments for report_annotate.
type ReportAnnotateRequest struct {
	ID                 string          `json:"id"`
	AnchorState        *string         `json:"anchor_state,omitempty"`
	StackOverride      *[]stack.Period `json:"stack_override,omitempty"`
	ClearAnchorState   bool            `json:"clear_anchor_state,omitempty"`
	ClearStackOverride bool            `json:"clear_stack_override,omitempty"`
}

// ReportDeleteRequest represents the arguments for report_delete.
type ReportDeleteRequest struct {
	ID string `json:"id"`
}

// ReportBackfillRequest represents the arguments for report_backfill.
type ReportBackfillRequest struct {
	Limit int `json:"limit,omitempty"`
}

// StackAddRequest represents the arguments for stack_add.
type StackAddRequest struct {
	Name      string  `json:"name"`
	Dose      string  `json:"dose,omitempty"`
	Frequency string  `json:"frequency,omitempty"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

// StackListRequest represents the arguments for stack_list.
type StackListRequest struct {
	IncludeDeleted bool `json:"include_deleted,omitempty"`
}

// StackActiveRequest represents the arguments for stack_active.
type StackActiveRequest struct {
	Date string `json:"date,omitempty"`
}

// StackUpdateRequest represents the arguments for stack_update.
type StackUpdateRequest struct {
	ID           string  `json:"id"`
	Name         *string `json:"name,omitempty"`
	Dose         *string `json:"dose,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	ClearEndDate bool    `json:"clear_end_date,omitempty"`
}

// StackStopRequest represents the arguments for stack_stop.
type StackStopRequest struct {
	ID      string  `json:"id"`
	EndDate *string `json:"end_date,omitempty"`
}

// StackDeleteRequest represents the arguments for stack_delete.
type StackDeleteRequest struct {
	ID string `json:"id"`
}

// ContextResolveRequest represents the arguments for context_resolve.
type ContextResolveRequest struct {
	ID   *string `json:"id,omitempty"`
	Date *string `json:"date,omitempty"`
}

// TrailExportRequest represents the arguments for trail_export.
type TrailExportRequest struct {
	Path           string `json:"path,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// TrailImportRequest represents the arguments for trail_import.
type TrailImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// TrailPurgeRequest represents the arguments for trail_purge.
type TrailPurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// Handler implementations

// HandleReportStore handles the report_store tool call.
func (h *Handlers) HandleReportStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportStoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Store(h.db, h.cfg, ops.StoreInput{
		TestDate:      input.TestDate,
		Lab:           input.Lab,
		Notes:         input.Notes,
		AnchorState:   input.AnchorState,
		StackOverride: input.StackOverride,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportFetch handles the report_fetch tool call.
func (h *Handlers) HandleReportFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.db, h.cfg, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportList handles the report_list tool call.
func (h *Handlers) HandleReportList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, h.cfg, ops.ListInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportUpdate handles the report_update tool call.
func (h *Handlers) HandleReportUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(h.db, h.cfg, ops.UpdateInput{
		ID:         input.ID,
		TestDate:   input.TestDate,
		Lab:        input.Lab,
		Notes:      input.Notes,
		ClearLab:   input.ClearLab,
		ClearNotes: input.ClearNotes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportAnnotate handles the report_annotate tool call.
func (h *Handlers) HandleReportAnnotate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportAnnotateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Annotate(h.db, h.cfg, ops.AnnotateInput{
		ID:                 input.ID,
		AnchorState:        input.AnchorState,
		StackOverride:      input.StackOverride,
		ClearAnchorState:   input.ClearAnchorState,
		ClearStackOverride: input.ClearStackOverride,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportDelete handles the report_delete tool call.
func (h *Handlers) HandleReportDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(h.db, h.cfg, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportBackfill handles the report_backfill tool call.
func (h *Handlers) HandleReportBackfill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportBackfillRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Backfill(h.db, h.cfg, ops.BackfillInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackAdd handles the stack_add tool call.
func (h *Handlers) HandleStackAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackAdd(h.db, h.cfg, ops.StackAddInput{
		Name:      input.Name,
		Dose:      input.Dose,
		Frequency: input.Frequency,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackList handles the stack_list tool call.
func (h *Handlers) HandleStackList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackList(h.db, h.cfg, ops.StackListInput{
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackActive handles the stack_active tool call.
func (h *Handlers) HandleStackActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackActiveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackActive(h.db, h.cfg, ops.StackActiveInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackUpdate handles the stack_update tool call.
func (h *Handlers) HandleStackUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackUpdate(h.db, h.cfg, ops.StackUpdateInput{
		ID:           input.ID,
		Name:         input.Name,
		Dose:         input.Dose,
		Frequency:    input.Frequency,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		ClearEndDate: input.ClearEndDate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackStop handles the stack_stop tool call.
func (h *Handlers) HandleStackStop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackStopRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackStop(h.db, h.cfg, ops.StackStopInput{
		ID:      input.ID,
		EndDate: input.EndDate,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStackDelete handles the stack_delete tool call.
func (h *Handlers) HandleStackDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StackDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.StackDelete(h.db, h.cfg, ops.StackDeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextResolve handles the context_resolve tool call.
func (h *Handlers) HandleContextResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContextResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ContextResolve(h.db, h.cfg, ops.ContextResolveInput{ID: input.ID, Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContextCurrent handles the context_current tool call.
func (h *Handlers) HandleContextCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ContextCurrent(h.db, h.cfg, ops.ContextCurrentInput{})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTrailExport handles the trail_export tool call.
func (h *Handlers) HandleTrailExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TrailExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTrailImport handles the trail_import tool call.
func (h *Handlers) HandleTrailImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TrailImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode := ops.ImportModeError
	switch input.Mode {
	case "replace":
		mode = ops.ImportModeReplace
	case "skip":
		mode = ops.ImportModeSkip
	}

	result, err := ops.Import(h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTrailPurge handles the trail_purge tool call.
func (h *Handlers) HandleTrailPurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TrailPurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(h.db, h.cfg, ops.PurgeInput{
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to avoid leaking file paths or
// SQL errors.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if trailErr, ok := err.(*errors.TrailError); ok {
		errorObj := map[string]any{
			"code":    trailErr.Code,
			"message": trailErr.Message,
			"status":  trailErr.Status,
		}
		if trailErr.Code != errors.ErrInternal && trailErr.Details != nil {
			errorObj["details"] = trailErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
