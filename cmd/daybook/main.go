// Package main is the entry point for the daybook application.
// It loads configuration, opens the workspace, and renders the today view.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"daybook/internal/config"
	"daybook/internal/dates"
	"daybook/internal/engine"
	"daybook/internal/reconcile"
	"daybook/internal/workspace"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// homeworkFile is the legacy record store picked up from the data directory
// when present.
const homeworkFile = "homework.json"

const helpText = `daybook - recurring tasks, streaks, and a day planner in your terminal

USAGE:
    daybook [OPTIONS]
    daybook <command> [ARGS]

COMMANDS:
    add TITLE        Add a quick task (see 'daybook add --help')
    done TASK        Toggle today's completion by task id prefix or title
    commit TASK      Toggle today's commitment
    freeze           Spend a streak freeze on yesterday
    sync             Sync the remote calendar once
    sync --watch     Keep syncing on the configured interval
    import FILE      Import time blocks from an ICS calendar file
    export           Generate a daily report (Markdown)
    export --weekly  Generate a weekly report
    export --ics     Export tasks and blocks as an ICS calendar
    backup           Create a backup of the workspace
    backup --list    List available backups
    restore NAME     Restore from a specific backup
    restore --latest Restore from the most recent backup

OPTIONS:
    -h, --help       Show this help message
    -v, --version    Show version information

DESCRIPTION:
    Running daybook with no command prints the today view: due tasks in
    priority order, scheduled time blocks, and the streak line.

DATA STORAGE:
    All data lives in ~/.daybook/workspace.json as a single versioned JSON
    document. A homework.json file in the same directory is treated as a
    legacy task store and reconciled into the task list.

CONFIGURATION:
    Optional config file: ~/.config/daybook/config.yaml
`

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "add":
			runAdd(os.Args[2:])
			return
		case "done":
			runToggle(os.Args[2:], "done")
			return
		case "commit":
			runToggle(os.Args[2:], "commit")
			return
		case "freeze":
			runFreeze(os.Args[2:])
			return
		case "sync":
			runSync(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "export":
			runExport(os.Args[2:])
			return
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		}
	}

	showVersion := flag.Bool("version", false, "show version information")
	flag.BoolVar(showVersion, "v", false, "show version information (shorthand)")

	showHelp := flag.Bool("help", false, "show help message")
	flag.BoolVar(showHelp, "h", false, "show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpText)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("daybook version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}
	if *showHelp {
		fmt.Print(helpText)
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown arguments: %v\n\n", flag.Args())
		flag.Usage()
		os.Exit(1)
	}

	cfg, eng := mustOpen()
	defer eng.Close()
	printToday(cfg, eng)
}

// mustOpen loads config and wires an engine, exiting on config errors. The
// workspace itself never fails to open; storage faults degrade to an
// in-memory session.
func mustOpen() (*config.Config, *engine.Engine) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	store := workspace.Open(cfg.DataDir)
	store.SetSaveDebounce(cfg.AutosaveDebounce())

	var sources []reconcile.Source
	hwPath := filepath.Join(cfg.DataDir, homeworkFile)
	if _, err := os.Stat(hwPath); err == nil {
		sources = append(sources, reconcile.NewFileSource("homework", hwPath))
	}

	// Config drives the default ordering strategy.
	store.Doc().Settings.OrderStrategy = workspace.ParseOrderStrategy(cfg.OrderStrategy)

	return cfg, engine.New(store, sources...)
}

// printToday renders the due list, the day's schedule, and the streak line.
func printToday(cfg *config.Config, eng *engine.Engine) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cfg.Theme.Primary))
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Accent))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Muted))

	store := eng.Store()
	today := dates.Key(store.Now())
	fmt.Println(title.Render("daybook " + today))
	if store.InMemory() {
		fmt.Println(muted.Render("(storage unavailable, changes will not persist)"))
	}
	fmt.Println()

	due := eng.DueTasks()
	ds := store.Doc().DayState(today)
	if len(due) == 0 {
		fmt.Println(muted.Render("Nothing due today."))
	}
	for _, t := range due {
		mark := "[ ]"
		if ds.Completed(t.ID) {
			mark = accent.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", mark, t.Title)
		if t.Category != "" {
			line += " " + muted.Render("("+t.Category+")")
		}
		if t.Priority == workspace.PriorityHigh {
			line += " " + accent.Render("!")
		}
		if ds.Committed(t.ID) {
			line += " " + muted.Render("committed")
		}
		fmt.Println(line)
	}
	fmt.Println()

	blocks := eng.TodayBlocks()
	if len(blocks) > 0 {
		fmt.Println(title.Render("Schedule"))
		for _, b := range blocks {
			fmt.Printf("  %s %s\n", muted.Render(b.Start+"-"+b.End), b.Name)
		}
		fmt.Println()
	}

	snap := eng.StreakSnapshot()
	streakLine := fmt.Sprintf("Streak: %s  Best: %d  Freezes left: %d",
		accent.Render(fmt.Sprintf("%d", snap.Current)), snap.Best, snap.FreezesLeft)
	fmt.Println(streakLine)

	if err := store.LastError(); err != nil {
		fmt.Fprintln(os.Stderr, muted.Render("save warning: "+err.Error()))
	}
}

// findTask resolves a task id prefix or exact title match.
func findTask(eng *engine.Engine, arg string) (*workspace.Task, error) {
	doc := eng.Store().Doc()
	var match *workspace.Task
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if t.ID == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID, arg) || strings.EqualFold(t.Title, arg) {
			if match != nil {
				return nil, fmt.Errorf("%q is ambiguous", arg)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no task matches %q", arg)
	}
	return match, nil
}

// runAdd handles the "daybook add" subcommand.
func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	schedFlag := fs.String("schedule", "once", "once, daily, or weekly")
	priFlag := fs.String("priority", "medium", "low, medium, or high")
	diffFlag := fs.String("difficulty", "medium", "easy, medium, or hard")
	dueFlag := fs.String("due", "", "due date (YYYY-MM-DD), once tasks only")
	catFlag := fs.String("category", "", "category label")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a task title is required")
		os.Exit(1)
	}

	_, eng := mustOpen()
	defer eng.Close()

	task, err := eng.CreateTask(workspace.Task{
		Title:      strings.Join(fs.Args(), " "),
		Schedule:   workspace.ScheduleType(*schedFlag),
		Priority:   workspace.Priority(*priFlag),
		Difficulty: workspace.Difficulty(*diffFlag),
		DueDate:    *dueFlag,
		Category:   *catFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding task: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %q (%s)\n", task.Title, task.ID[:8])
}

// runToggle handles "daybook done" and "daybook commit".
func runToggle(args []string, mode string) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: a task id or title is required\n")
		os.Exit(1)
	}

	_, eng := mustOpen()
	defer eng.Close()

	task, err := findTask(eng, strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if mode == "commit" {
		err = eng.ToggleCommit(task.ID)
	} else {
		err = eng.ToggleComplete(task.ID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	today := dates.Key(eng.Store().Now())
	ds := eng.Store().Doc().DayState(today)
	switch {
	case mode == "commit" && ds.Committed(task.ID):
		fmt.Printf("Committed to %q today\n", task.Title)
	case mode == "commit":
		fmt.Printf("Withdrew commitment to %q\n", task.Title)
	case ds.Completed(task.ID):
		fmt.Printf("Completed %q\n", task.Title)
	default:
		fmt.Printf("Reopened %q\n", task.Title)
	}
}

// runFreeze handles the "daybook freeze" subcommand.
func runFreeze(args []string) {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Error: freeze takes no arguments\n")
		os.Exit(1)
	}

	_, eng := mustOpen()
	defer eng.Close()

	if err := eng.UseFreeze(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	snap := eng.StreakSnapshot()
	fmt.Printf("Froze yesterday. Streak: %d, freezes left this week: %d\n",
		snap.Current, snap.FreezesLeft)
}
