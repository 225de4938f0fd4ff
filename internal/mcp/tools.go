package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// periodItemSchema describes one supplement entry inside a stack_override.
var periodItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":       map[string]any{"type": "string", "description": "Supplement name"},
		"dose":       map[string]any{"type": "string", "description": "Dose, e.g. '5000 IU'"},
		"frequency":  map[string]any{"type": "string", "description": "Frequency, e.g. 'daily'; 'unknown' is suppressed in display text"},
		"start_date": map[string]any{"type": "string", "description": "Optional start date (YYYY-MM-DD)"},
		"end_date":   map[string]any{"type": "string", "description": "Optional end date (YYYY-MM-DD)"},
	},
	"required": []string{"name"},
}

var reportStoreToolDef = mcp.NewTool("report_store",
	mcp.WithDescription("Log a lab-test report. Optionally annotate the supplement context at creation time."),
	mcp.WithString("test_date", mcp.Required(), mcp.Description("Day the sample was drawn (YYYY-MM-DD)")),
	mcp.WithString("lab", mcp.Description("Issuing laboratory")),
	mcp.WithString("notes", mcp.Description("Free-form markdown notes")),
	mcp.WithString("anchor_state", mcp.Description("Supplement-context state: inherit, anchor, none, or unknown"),
		mcp.Enum("inherit", "anchor", "none", "unknown")),
	mcp.WithArray("stack_override", mcp.Description("Explicit supplement list for this report"),
		mcp.Items(periodItemSchema)),
)

var reportFetchToolDef = mcp.NewTool("report_fetch",
	mcp.WithDescription("Fetch a report by ID together with its resolved supplement context."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Report ULID")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted reports")),
)

var reportListToolDef = mcp.NewTool("report_list",
	mcp.WithDescription("List reports in trail order with resolved context summaries."),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Pagination offset")),
)

var reportUpdateToolDef = mcp.NewTool("report_update",
	mcp.WithDescription("Edit a report's test date, lab, or notes. Use report_annotate for context annotations."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Report ULID")),
	mcp.WithString("test_date", mcp.Description("New test date (YYYY-MM-DD)")),
	mcp.WithString("lab", mcp.Description("New lab name")),
	mcp.WithString("notes", mcp.Description("New notes")),
	mcp.WithBoolean("clear_lab", mcp.Description("Remove the lab field")),
	mcp.WithBoolean("clear_notes", mcp.Description("Remove the notes field")),
)

var reportAnnotateToolDef = mcp.NewTool("report_annotate",
	mcp.WithDescription("Record what the supplement stack was at a report's point in the trail. Annotating a past report retroactively changes later inherit reports."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Report ULID")),
	mcp.WithString("anchor_state", mcp.Description("Supplement-context state: inherit, anchor, none, or unknown"),
		mcp.Enum("inherit", "anchor", "none", "unknown")),
	mcp.WithArray("stack_override", mcp.Description("Explicit supplement list for this report"),
		mcp.Items(periodItemSchema)),
	mcp.WithBoolean("clear_anchor_state", mcp.Description("Remove the anchor_state annotation")),
	mcp.WithBoolean("clear_stack_override", mcp.Description("Remove the stack_override annotation")),
)

var reportDeleteToolDef = mcp.NewTool("report_delete",
	mcp.WithDescription("Soft-delete a report. Deleted reports no longer participate in resolution; trail_purge removes them for good."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Report ULID")),
)

var reportBackfillToolDef = mcp.NewTool("report_backfill",
	mcp.WithDescription("List reports whose effective supplement context is unknown, oldest first. The worklist for retroactive annotation."),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
)

var stackAddToolDef = mcp.NewTool("stack_add",
	mcp.WithDescription("Open a new supplement period on the timeline. Omit end_date while still taking it."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Supplement name")),
	mcp.WithString("dose", mcp.Description("Dose, e.g. '5000 IU'")),
	mcp.WithString("frequency", mcp.Description("Frequency, e.g. 'daily'")),
	mcp.WithString("start_date", mcp.Required(), mcp.Description("First day taken (YYYY-MM-DD)")),
	mcp.WithString("end_date", mcp.Description("Last day taken (YYYY-MM-DD), inclusive")),
)

var stackListToolDef = mcp.NewTool("stack_list",
	mcp.WithDescription("List every supplement period, open and closed, in canonical order."),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted periods")),
)

var stackActiveToolDef = mcp.NewTool("stack_active",
	mcp.WithDescription("List supplements active on a calendar date (both period boundaries inclusive)."),
	mcp.WithString("date", mcp.Description("Date to check (YYYY-MM-DD); defaults to today")),
)

var stackUpdateToolDef = mcp.NewTool("stack_update",
	mcp.WithDescription("Edit a supplement period in place. Edits apply retroactively to resolved contexts."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Period ULID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("dose", mcp.Description("New dose")),
	mcp.WithString("frequency", mcp.Description("New frequency")),
	mcp.WithString("start_date", mcp.Description("New start date (YYYY-MM-DD)")),
	mcp.WithString("end_date", mcp.Description("New end date (YYYY-MM-DD)")),
	mcp.WithBoolean("clear_end_date", mcp.Description("Reopen a closed period")),
)

var stackStopToolDef = mcp.NewTool("stack_stop",
	mcp.WithDescription("Close an open supplement period. Fails if the period is already closed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Period ULID")),
	mcp.WithString("end_date", mcp.Description("Last day taken (YYYY-MM-DD); defaults to today")),
)

var stackDeleteToolDef = mcp.NewTool("stack_delete",
	mcp.WithDescription("Soft-delete a supplement period. It drops out of the timeline immediately."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Period ULID")),
)

var contextResolveToolDef = mcp.NewTool("context_resolve",
	mcp.WithDescription("Resolve the effective supplement context of one report, of a hypothetical report on a date, or of every report in trail order."),
	mcp.WithString("id", mcp.Description("Report ULID; mutually exclusive with date")),
	mcp.WithString("date", mcp.Description("Resolve a draft report on this date (YYYY-MM-DD) without storing anything; mutually exclusive with id")),
)

var contextCurrentToolDef = mcp.NewTool("context_current",
	mcp.WithDescription("The supplement context a report logged right now would inherit."),
)

var trailExportToolDef = mcp.NewTool("trail_export",
	mcp.WithDescription("Export all reports and supplement periods to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination path (.jsonl, must be in an allowed directory); defaults to ~/.labtrail/exports")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted records")),
)

var trailImportToolDef = mcp.NewTool("trail_import",
	mcp.WithDescription("Import reports and supplement periods from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source path (.jsonl, must be in an allowed directory)")),
	mcp.WithString("mode", mcp.Description("Collision behavior: error (atomic, default), replace, or skip"),
		mcp.Enum("error", "replace", "skip")),
)

var trailPurgeToolDef = mcp.NewTool("trail_purge",
	mcp.WithDescription("Permanently delete soft-deleted reports and supplement periods."),
	mcp.WithNumber("older_than_days", mcp.Description("Only purge records deleted more than N days ago")),
)
