package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/ops"
	"github.com/labtrail/labtrail/internal/stack"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleReportList handles GET /reports: list reports with their resolved
// context summaries.
func (h *Handlers) HandleReportList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Reports",
			Version: h.renderer.version,
			Nav:     "reports",
		},
		Reports:    result.Reports,
		Pagination: result.Pagination,
	})
}

// HandleReportDetail handles GET /reports/{id}: view a single report with
// its resolved supplement context and rendered notes.
func (h *Handlers) HandleReportDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("report ID is required"))
		return
	}

	input := ops.FetchInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.Fetch(h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var rendered template.HTML
	hasNotes := result.Report.Notes != nil && *result.Report.Notes != ""
	if hasNotes {
		rendered = renderMarkdown(*result.Report.Notes)
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   result.Report.TestDate,
			Version: h.renderer.version,
			Nav:     "reports",
		},
		Report:        result,
		RenderedNotes: rendered,
		HasNotes:      hasNotes,
	})
}

// HandleStack handles GET /stack: the supplement timeline with today's
// active stack.
func (h *Handlers) HandleStack(w http.ResponseWriter, r *http.Request) {
	listResult, err := ops.StackList(h.db, h.cfg, ops.StackListInput{
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = stack.Today()
	}

	activeResult, err := ops.StackActive(h.db, h.cfg, ops.StackActiveInput{Date: date})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "stack", StackPageData{
		PageData: PageData{
			Title:   "Stack",
			Version: h.renderer.version,
			Nav:     "stack",
		},
		Periods:    listResult.Periods,
		ActiveDate: activeResult.Date,
		ActiveText: activeResult.DisplayText,
	})
}

// HandleBackfill handles GET /backfill: reports whose supplement context is
// still unknown, oldest first.
func (h *Handlers) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Backfill(h.db, h.cfg, ops.BackfillInput{
		Limit: parseIntParam(r, "limit", 20),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "backfill", BackfillPageData{
		PageData: PageData{
			Title:   "Backfill",
			Version: h.renderer.version,
			Nav:     "backfill",
		},
		Items: result.Items,
		Total: result.Total,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
