package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/labtrail/labtrail/internal/config"
	"github.com/labtrail/labtrail/internal/errors"
	"github.com/labtrail/labtrail/internal/ops"
	"github.com/labtrail/labtrail/internal/stack"
	"github.com/labtrail/labtrail/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "labtrail",
		Usage:   "Lab reports with their supplement context",
		Version: Version,
		Commands: []*cli.Command{
			reportAddCmd(db, cfg),
			reportGetCmd(db, cfg),
			reportListCmd(db, cfg),
			reportUpdateCmd(db, cfg),
			reportAnnotateCmd(db, cfg),
			reportDeleteCmd(db, cfg),
			stackAddCmd(db, cfg),
			stackListCmd(db, cfg),
			stackUpdateCmd(db, cfg),
			stackStopCmd(db, cfg),
			stackDeleteCmd(db, cfg),
			contextCmd(db, cfg),
			currentCmd(db, cfg),
			activeCmd(db, cfg),
			backfillCmd(db, cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			purgeCmd(db, cfg),
			webCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// reportAddCmd creates the report-add command.
func reportAddCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report-add",
		Usage: "Store a new lab report (notes may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Required: true, Usage: "Test date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "lab", Aliases: []string{"l"}, Usage: "Issuing laboratory"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Markdown notes (or pipe via stdin)"},
			&cli.StringFlag{Name: "anchor-state", Aliases: []string{"a"}, Usage: "Annotation state: inherit|anchor|none|unknown"},
			&cli.StringFlag{Name: "override", Usage: "Supplement override as a JSON array of periods"},
		},
		Action: func(c *cli.Context) error {
			input := ops.StoreInput{
				TestDate: c.String("date"),
			}

			if lab := c.String("lab"); lab != "" {
				input.Lab = &lab
			}

			if notes := c.String("notes"); notes != "" {
				input.Notes = &notes
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.Notes = &text
				}
			}

			if state := c.String("anchor-state"); state != "" {
				input.AnchorState = &state
			}
			if c.IsSet("override") {
				periods, err := parseOverride(c.String("override"))
				if err != nil {
					return outputError(err)
				}
				input.StackOverride = &periods
			}

			output, err := ops.Store(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportGetCmd creates the report-get command.
func reportGetCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "report-get",
		Usage:     "Fetch a report with its resolved supplement context",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted reports"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			}

			output, err := ops.Fetch(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportListCmd creates the report-list command.
func reportListCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report-list",
		Usage: "List reports with resolved context summaries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}

			output, err := ops.List(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportUpdateCmd creates the report-update command.
func reportUpdateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "report-update",
		Usage:     "Edit a report's own fields (date, lab, notes)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "New test date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "lab", Aliases: []string{"l"}, Usage: "New laboratory"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "New markdown notes (or pipe via stdin)"},
			&cli.BoolFlag{Name: "clear-lab", Usage: "Remove the laboratory field"},
			&cli.BoolFlag{Name: "clear-notes", Usage: "Remove the notes field"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{
				ID:         c.Args().First(),
				ClearLab:   c.Bool("clear-lab"),
				ClearNotes: c.Bool("clear-notes"),
			}

			if date := c.String("date"); date != "" {
				input.TestDate = &date
			}
			if lab := c.String("lab"); lab != "" {
				input.Lab = &lab
			}
			if notes := c.String("notes"); notes != "" {
				input.Notes = &notes
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.Notes = &text
				}
			}

			output, err := ops.Update(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportAnnotateCmd creates the report-annotate command.
func reportAnnotateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "report-annotate",
		Usage:     "Set or clear a report's supplement-context annotations",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "anchor-state", Aliases: []string{"a"}, Usage: "Annotation state: inherit|anchor|none|unknown"},
			&cli.StringFlag{Name: "override", Usage: "Supplement override as a JSON array of periods ([] = explicitly nothing)"},
			&cli.BoolFlag{Name: "clear-anchor-state", Usage: "Remove the anchor state annotation"},
			&cli.BoolFlag{Name: "clear-override", Usage: "Remove the supplement override"},
		},
		Action: func(c *cli.Context) error {
			input := ops.AnnotateInput{
				ID:                 c.Args().First(),
				ClearAnchorState:   c.Bool("clear-anchor-state"),
				ClearStackOverride: c.Bool("clear-override"),
			}

			if state := c.String("anchor-state"); state != "" {
				input.AnchorState = &state
			}
			if c.IsSet("override") {
				periods, err := parseOverride(c.String("override"))
				if err != nil {
					return outputError(err)
				}
				input.StackOverride = &periods
			}

			output, err := ops.Annotate(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportDeleteCmd creates the report-delete command.
func reportDeleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "report-delete",
		Usage:     "Soft-delete a report",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(db, cfg, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// stackAddCmd creates the stack-add command.
func stackAddCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stack-add",
		Usage: "Open a new supplement period on the timeline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Supplement name"},
			&cli.StringFlag{Name: "dose", Aliases: []string{"d"}, Usage: "Dose, e.g. \"5000 IU\""},
			&cli.StringFlag{Name: "freq", Aliases: []string{"f"}, Usage: "Frequency, e.g. \"daily\""},
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "Start date (YYYY-MM-DD, default: today)"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "End date (YYYY-MM-DD, omit to leave open)"},
		},
		Action: func(c *cli.Context) error {
			start := c.String("start")
			if start == "" {
				start = stack.Today()
			}

			input := ops.StackAddInput{
				Name:      c.String("name"),
				Dose:      c.String("dose"),
				Frequency: c.String("freq"),
				StartDate: start,
			}

			if end := c.String("end"); end != "" {
				input.EndDate = &end
			}

			output, err := ops.StackAdd(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// stackListCmd creates the stack-list command.
func stackListCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stack-list",
		Usage: "List all supplement periods, open and closed",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted periods"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.StackList(db, cfg, ops.StackListInput{
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// stackUpdateCmd creates the stack-update command.
func stackUpdateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "stack-update",
		Usage:     "Edit a supplement period (retroactively changes resolved contexts)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New supplement name"},
			&cli.StringFlag{Name: "dose", Aliases: []string{"d"}, Usage: "New dose"},
			&cli.StringFlag{Name: "freq", Aliases: []string{"f"}, Usage: "New frequency"},
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "New start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "New end date (YYYY-MM-DD)"},
			&cli.BoolFlag{Name: "clear-end", Usage: "Reopen the period by removing its end date"},
		},
		Action: func(c *cli.Context) error {
			input := ops.StackUpdateInput{
				ID:           c.Args().First(),
				ClearEndDate: c.Bool("clear-end"),
			}

			if name := c.String("name"); name != "" {
				input.Name = &name
			}
			if dose := c.String("dose"); dose != "" {
				input.Dose = &dose
			}
			if freq := c.String("freq"); freq != "" {
				input.Frequency = &freq
			}
			if start := c.String("start"); start != "" {
				input.StartDate = &start
			}
			if end := c.String("end"); end != "" {
				input.EndDate = &end
			}

			output, err := ops.StackUpdate(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// stackStopCmd creates the stack-stop command.
func stackStopCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "stack-stop",
		Usage:     "Close an open supplement period",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "End date (YYYY-MM-DD, default: today)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.StackStopInput{
				ID: c.Args().First(),
			}

			if end := c.String("end"); end != "" {
				input.EndDate = &end
			}

			output, err := ops.StackStop(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// stackDeleteCmd creates the stack-delete command.
func stackDeleteCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "stack-delete",
		Usage:     "Soft-delete a supplement period",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.StackDelete(db, cfg, ops.StackDeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// contextCmd creates the context command.
func contextCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Resolve supplement contexts for the whole trail, one report, or a date",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Resolve a draft report on this date (YYYY-MM-DD) instead of a stored one"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ContextResolveInput{}

			if c.NArg() > 0 {
				id := c.Args().First()
				input.ID = &id
			}
			if date := c.String("date"); date != "" {
				input.Date = &date
			}

			output, err := ops.ContextResolve(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// currentCmd creates the current command.
func currentCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the context a report logged right now would inherit",
		Action: func(c *cli.Context) error {
			output, err := ops.ContextCurrent(db, cfg, ops.ContextCurrentInput{})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// activeCmd creates the active command.
func activeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "active",
		Usage: "Show the supplements active on a date",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Date (YYYY-MM-DD, default: today)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.StackActive(db, cfg, ops.StackActiveInput{
				Date: c.String("date"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// backfillCmd creates the backfill command.
func backfillCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "backfill",
		Usage: "List reports with unresolved supplement context, oldest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Backfill(db, cfg, ops.BackfillInput{
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export reports and periods to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.labtrail/exports/trail-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted records"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(db, cfg, ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import reports and periods from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted reports and periods",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}

			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8713, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if trailErr, ok := err.(*errors.TrailError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", trailErr.Code, trailErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseOverride parses a JSON array of supplement periods.
// "[]" is a valid override meaning explicitly nothing.
func parseOverride(s string) ([]stack.Period, error) {
	periods := []stack.Period{}
	if err := json.Unmarshal([]byte(s), &periods); err != nil {
		return nil, errors.NewInvalidRequest("override must be a JSON array of periods: " + err.Error())
	}
	return periods, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
