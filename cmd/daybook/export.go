// Package main is the entry point for the daybook application.
// This file contains the export subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"daybook/internal/dates"
	"daybook/internal/fsutil"
	"daybook/internal/report"
)

// exportHelpText is the help message for the export subcommand.
const exportHelpText = `daybook export - Generate reports and calendar exports

USAGE:
    daybook export [OPTIONS] [DATE]

OPTIONS:
    -d, --daily        Generate daily report (default)
    -w, --weekly       Generate weekly report
    -i, --ics          Export tasks and time blocks as an ICS calendar
    -f, --format FMT   Report format: markdown (default) or json
    -o, --output FILE  Write to file instead of stdout
    -h, --help         Show this help message

ARGUMENTS:
    DATE               Date for the report (YYYY-MM-DD). Defaults to today.
                       Weekly reports cover the week containing this date.

DESCRIPTION:
    Reports summarize due tasks, completions, scheduled blocks, and streaks.
    The ICS export emits one VEVENT per recurring task pattern and time
    block, suitable for subscribing from a calendar app.

EXAMPLES:
    # Today's report in Markdown
    daybook export

    # Weekly report as JSON to a file
    daybook export --weekly --format json --output weekly.json

    # Calendar export
    daybook export --ics --output daybook.ics
`

// runExport handles the "daybook export" subcommand.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	dailyFlag := fs.Bool("daily", false, "generate daily report")
	fs.BoolVar(dailyFlag, "d", false, "generate daily report (shorthand)")

	weeklyFlag := fs.Bool("weekly", false, "generate weekly report")
	fs.BoolVar(weeklyFlag, "w", false, "generate weekly report (shorthand)")

	icsFlag := fs.Bool("ics", false, "export as ICS calendar")
	fs.BoolVar(icsFlag, "i", false, "export as ICS calendar (shorthand)")

	formatFlag := fs.String("format", "markdown", "output format: markdown or json")
	fs.StringVar(formatFlag, "f", "markdown", "output format (shorthand)")

	outputFlag := fs.String("output", "", "write to file instead of stdout")
	fs.StringVar(outputFlag, "o", "", "write to file (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, exportHelpText)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *helpFlag {
		fmt.Print(exportHelpText)
		os.Exit(0)
	}

	format := *formatFlag
	if format == "md" {
		format = "markdown"
	}
	if format != "markdown" && format != "json" {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q. Use 'markdown' or 'json'.\n", *formatFlag)
		os.Exit(1)
	}

	_, eng := mustOpen()
	defer eng.Close()

	dateKey := dates.Key(eng.Store().Now())
	if fs.NArg() > 0 {
		if !dates.Valid(fs.Arg(0)) {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q. Use YYYY-MM-DD format.\n", fs.Arg(0))
			os.Exit(1)
		}
		dateKey = fs.Arg(0)
	}

	var output string
	switch {
	case *icsFlag:
		var b strings.Builder
		if err := eng.ExportCalendar(&b); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting calendar: %v\n", err)
			os.Exit(1)
		}
		output = b.String()
	case *weeklyFlag:
		gen := report.NewGenerator(eng.Store().Doc())
		gen.SetNowFunc(func() time.Time { return eng.Store().Now() })
		r := gen.GenerateWeekly(dateKey)
		if format == "json" {
			data, err := report.FormatWeeklyJSON(r)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
				os.Exit(1)
			}
			output = string(data)
		} else {
			output = report.FormatWeeklyMarkdown(r)
		}
	default:
		gen := report.NewGenerator(eng.Store().Doc())
		gen.SetNowFunc(func() time.Time { return eng.Store().Now() })
		r := gen.GenerateDaily(dateKey)
		if format == "json" {
			data, err := report.FormatDailyJSON(r)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting JSON: %v\n", err)
				os.Exit(1)
			}
			output = string(data)
		} else {
			output = report.FormatDailyMarkdown(r)
		}
	}

	if *outputFlag != "" {
		if dir := filepath.Dir(*outputFlag); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
				os.Exit(1)
			}
		}
		if err := fsutil.WriteFileAtomic(*outputFlag, []byte(output), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Written to %s\n", *outputFlag)
	} else {
		fmt.Print(output)
	}
}
