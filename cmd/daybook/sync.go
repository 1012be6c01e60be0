// Package main is the entry point for the daybook application.
// This file contains the sync subcommand handler.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// syncHelpText is the help message for the sync subcommand.
const syncHelpText = `daybook sync - Sync the remote calendar

USAGE:
    daybook sync [OPTIONS]

OPTIONS:
    -w, --watch    Keep syncing on the configured interval until interrupted
    -h, --help     Show this help message

DESCRIPTION:
    Fetches the configured remote ICS feed and merges its events into the
    time-block planner. Remote blocks are read-only; events that vanish from
    the feed are removed on the next sync. Requires remote.enabled and
    remote.url in ~/.config/daybook/config.yaml.

EXAMPLES:
    # One sync pass
    daybook sync

    # Sync every remote.refresh_minutes until Ctrl+C
    daybook sync --watch
`

// runSync handles the "daybook sync" subcommand.
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	watchFlag := fs.Bool("watch", false, "keep syncing on the configured interval")
	fs.BoolVar(watchFlag, "w", false, "keep syncing (shorthand)")

	helpFlag := fs.Bool("help", false, "show help message")
	fs.BoolVar(helpFlag, "h", false, "show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, syncHelpText)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *helpFlag {
		fmt.Print(syncHelpText)
		os.Exit(0)
	}

	cfg, eng := mustOpen()
	defer eng.Close()

	if !cfg.Remote.Enabled || cfg.Remote.URL == "" {
		fmt.Fprintln(os.Stderr, "Error: remote sync is not configured. Set remote.enabled and remote.url.")
		os.Exit(1)
	}

	if *watchFlag {
		eng.EnableRemoteSync(cfg.Remote.URL, cfg.RefreshInterval())
		fmt.Printf("Syncing %s every %s. Ctrl+C to stop.\n", cfg.Remote.URL, cfg.RefreshInterval())

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		eng.DisableRemoteSync()
		fmt.Println("\nStopped:", eng.RemoteStatus())
		return
	}

	res, err := eng.SyncRemoteOnce(cfg.Remote.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing calendar: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Synced: %d added, %d updated, %d removed\n", res.Added, res.Updated, res.Removed)
}
