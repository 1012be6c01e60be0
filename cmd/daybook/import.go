// Package main is the entry point for the daybook application.
// This file contains the import subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
)

// importHelpText is the help message for the import subcommand.
const importHelpText = `daybook import - Import time blocks from a calendar file

USAGE:
    daybook import [OPTIONS] FILE

OPTIONS:
    -h, --help     Show this help message

ARGUMENTS:
    FILE           Path to an ICS (iCalendar) file

DESCRIPTION:
    Merges VEVENT entries from the file into the time-block planner. Events
    are matched by UID (or by a content fingerprint when the UID is missing),
    so re-importing the same file updates blocks in place instead of
    duplicating them. Blocks from earlier imports that are absent from the
    file are removed; manually created blocks are never touched.

    Supported recurrence rules: FREQ=DAILY and FREQ=WEEKLY with BYDAY,
    optionally bounded by UNTIL. Other rules import as one-off blocks.

EXAMPLES:
    # Import a semester timetable
    daybook import timetable.ics

    # Re-import after edits; moved events shift in place
    daybook import timetable.ics
`

// runImport handles the "daybook import" subcommand.
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, importHelpText)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *helpFlag {
		fmt.Print(importHelpText)
		os.Exit(0)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ICS file is required")
		fs.Usage()
		os.Exit(1)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	_, eng := mustOpen()
	defer eng.Close()

	res, err := eng.ImportCalendar(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing calendar: %v\n", err)
		os.Exit(1)
	}
	if !res.Changed() {
		fmt.Println("Already up to date.")
		return
	}
	fmt.Printf("Imported: %d added, %d updated, %d removed\n", res.Added, res.Updated, res.Removed)
}
