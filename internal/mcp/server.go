package mcp

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/labtrail/labtrail/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"report", "stack", "context", "trail"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"report_store": {
		def:     reportStoreToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportStore },
	},
	"report_fetch": {
		def:     reportFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportFetch },
	},
	"report_list": {
		def:     reportListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportList },
	},
	"report_update": {
		def:     reportUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportUpdate },
	},
	"report_annotate": {
		def:     reportAnnotateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportAnnotate },
	},
	"report_delete": {
		def:     reportDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportDelete },
	},
	"report_backfill": {
		def:     reportBackfillToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportBackfill },
	},
	"stack_add": {
		def:     stackAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackAdd },
	},
	"stack_list": {
		def:     stackListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackList },
	},
	"stack_active": {
		def:     stackActiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackActive },
	},
	"stack_update": {
		def:     stackUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackUpdate },
	},
	"stack_stop": {
		def:     stackStopToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackStop },
	},
	"stack_delete": {
		def:     stackDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStackDelete },
	},
	"context_resolve": {
		def:     contextResolveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextResolve },
	},
	"context_current": {
		def:     contextCurrentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextCurrent },
	},
	"trail_export": {
		def:     trailExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTrailExport },
	},
	"trail_import": {
		def:     trailImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTrailImport },
	},
	"trail_purge": {
		def:     trailPurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTrailPurge },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g. "report_store" has type
// "report").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		typ := GetTypeForTool(name)
		if typeSet[typ] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with labtrail tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"labtrail",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	// Warnings go to stderr; stdout carries the stdio protocol.
	for _, name := range ValidateDisabledTools(cfg.DisabledTools) {
		log.Printf("warning: unknown tool in disabled_tools: %q", name)
	}
	for _, name := range ValidateDisabledTypes(cfg.DisabledTypes) {
		log.Printf("warning: unknown type in disabled_types: %q", name)
	}

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
