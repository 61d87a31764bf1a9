package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vthunder/taskly/internal/config"
	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/state"
	"github.com/vthunder/taskly/internal/store"
	"github.com/vthunder/taskly/internal/task"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	kv, err := store.Open(cfg.Store, cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	inspector := state.NewInspector(cfg.StatePath, kv, cfg.Timezone)
	current := identity.Namespace(identity.StoreProvider{Store: kv}.CurrentIdentity().Email)

	switch cmd {
	case "summary", "":
		handleSummary(inspector)
	case "health":
		handleHealth(inspector, cfg)
	case "tasks":
		handleTasks(inspector, current, os.Args[2:], false)
	case "archive":
		handleTasks(inspector, current, os.Args[2:], true)
	case "reminders":
		handleReminders(inspector, cfg, current, os.Args[2:])
	case "rebuild-reminders":
		handleRebuild(kv, cfg, current, os.Args[2:])
	case "change-email":
		handleChangeEmail(kv, os.Args[2:])
	case "purge-archive":
		handlePurge(kv, cfg, current, os.Args[2:])
	case "logs":
		handleLogs(inspector, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`taskly-state - Inspect and manage Taskly's stored task data

Usage: taskly-state <command> [options]

Commands:
  summary              Per-namespace counts (default)
  health               Check for unreadable data, stale reminder indexes,
                       and archived tasks past retention

  tasks                List the Active list of the current user
  tasks --ns=<ns>      List another namespace (e.g. guest, jo_example_com)
  tasks --json         Print stored JSON

  archive              List the Archive, newest first
  archive --ns=<ns>    List another namespace

  reminders            Show the stored Reminder index
  rebuild-reminders    Recompute the Reminder index from the Active list

  change-email <old> <new>
                       Move a user's tasks, archive, and reminders to a new email

  purge-archive        Delete archived tasks older than the retention setting
  purge-archive --older-than=168h

  logs                 Tail recent activity entries
  logs --truncate=100  Keep only the last N entries

Environment:
  STATE_PATH           State directory (default: "state")
  TASKLY_STORE         file (default), sqlite, sqlite-pure, or memory
  TASKLY_SETTINGS      Settings file (default: $STATE_PATH/settings.yaml)`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// namespaceProvider pins a repository to ns. Sanitized namespaces map to
// themselves under identity.Namespace, so ns can stand in for the email.
func namespaceProvider(ns string) identity.Provider {
	return identity.Static{Email: ns}
}

func handleSummary(inspector *state.Inspector) {
	summary, err := inspector.Summary()
	if err != nil {
		fail(err)
	}

	fmt.Println("State Summary")
	fmt.Println("=============")
	fmt.Printf("Current:   %s\n", summary.Current)
	fmt.Printf("Activity:  %d entries\n", summary.Activity)
	for _, ns := range summary.Namespaces {
		fmt.Printf("\n%s\n", ns.Namespace)
		fmt.Printf("  Active:    %d (%d pending, %d completed)\n", ns.Active, ns.Pending, ns.Completed)
		fmt.Printf("  Archive:   %d (%s)\n", ns.Archived, humanize.Bytes(uint64(ns.ArchiveBytes)))
		fmt.Printf("  Reminders: %d\n", ns.Reminders)
		for _, key := range ns.Corrupt {
			fmt.Printf("  CORRUPT:   %s\n", key)
		}
	}
}

func handleHealth(inspector *state.Inspector, cfg *config.Config) {
	health, err := inspector.Health(cfg.Settings.Archive.Retention, time.Now())
	if err != nil {
		fail(err)
	}

	fmt.Printf("Health Status: %s\n", health.Status)
	if len(health.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range health.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(health.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range health.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}

func handleTasks(inspector *state.Inspector, current string, args []string, archived bool) {
	name := "tasks"
	if archived {
		name = "archive"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	ns := fs.String("ns", current, "Namespace to list")
	asJSON := fs.Bool("json", false, "Print stored JSON")
	fs.Parse(args)

	active, archive := inspector.Tasks(*ns)
	list := active
	title := "Active"
	if archived {
		list = task.SortNewestFirst(archive)
		title = "Archive"
	}

	if *asJSON {
		data, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s (%s, %d tasks)\n", title, *ns, len(list))
	fmt.Println("=================")
	for i, t := range list {
		mark := "[ ]"
		if t.Status == task.StatusCompleted {
			mark = "[x]"
		}
		fmt.Printf("%2d %s %s (%s, %s) due %s %s\n", i, mark, t.Title, t.Priority, t.Category, t.Date, t.Time)
		fmt.Printf("   id=%s\n", t.ID)
		if at, ok := t.State.ArchivedAt(); ok {
			fmt.Printf("   archived %s\n", humanize.Time(at))
		}
	}
}

func handleReminders(inspector *state.Inspector, cfg *config.Config, current string, args []string) {
	fs := flag.NewFlagSet("reminders", flag.ExitOnError)
	ns := fs.String("ns", current, "Namespace to show")
	fs.Parse(args)

	index := inspector.Reminders(*ns)
	fmt.Printf("Reminders (%s, %d entries)\n", *ns, len(index))
	fmt.Println("=================")
	for _, e := range index {
		at := e.Time().In(cfg.Timezone)
		fmt.Printf("#%d %s at %s (%s)\n", e.Index, e.Title, at.Format("Mon Jan 2 2006 15:04"), humanize.Time(at))
	}
}

func handleRebuild(kv store.Store, cfg *config.Config, current string, args []string) {
	fs := flag.NewFlagSet("rebuild-reminders", flag.ExitOnError)
	ns := fs.String("ns", current, "Namespace to rebuild")
	fs.Parse(args)

	provider := namespaceProvider(*ns)
	sched := reminder.NewScheduler(reminder.Config{
		Store:    kv,
		Identity: provider,
		Location: cfg.Timezone,
	})
	defer sched.Stop()

	repo := task.NewRepository(kv, provider,
		task.WithLocation(cfg.Timezone),
		task.WithResyncer(sched),
	)
	if err := repo.Sync(); err != nil {
		fail(err)
	}
	fmt.Printf("Rebuilt reminder index for %s: %d entries, %d still ahead\n",
		*ns, len(sched.Index()), len(sched.Pending()))
}

func handleChangeEmail(kv store.Store, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: taskly-state change-email <old> <new>")
		os.Exit(1)
	}
	if err := identity.ChangeEmail(kv, args[0], args[1]); err != nil {
		fail(err)
	}
	fmt.Printf("Moved %s to %s\n", identity.Namespace(args[0]), identity.Namespace(args[1]))
}

func handlePurge(kv store.Store, cfg *config.Config, current string, args []string) {
	fs := flag.NewFlagSet("purge-archive", flag.ExitOnError)
	ns := fs.String("ns", current, "Namespace to purge")
	olderThan := fs.String("older-than", "", "Delete archived tasks older than duration (default: archive.retention)")
	fs.Parse(args)

	retention := cfg.Settings.Archive.Retention
	if *olderThan != "" {
		var err error
		retention, err = time.ParseDuration(*olderThan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid duration: %v\n", err)
			os.Exit(1)
		}
	}
	if retention <= 0 {
		fmt.Println("Retention is disabled; nothing purged")
		return
	}

	repo := task.NewRepository(kv, namespaceProvider(*ns), task.WithLocation(cfg.Timezone))
	n, err := repo.PurgeArchive(retention)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Purged %d archived tasks older than %s from %s\n", n, retention, *ns)
}

func handleLogs(inspector *state.Inspector, args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	truncate := fs.Int("truncate", 0, "Keep only last N entries")
	count := fs.Int("n", 20, "Number of entries to show")
	fs.Parse(args)

	if *truncate > 0 {
		if err := inspector.TruncateLogs(*truncate); err != nil {
			fail(err)
		}
		fmt.Printf("Truncated activity log to %d entries\n", *truncate)
		return
	}

	entries, err := inspector.TailLogs(*count)
	if err != nil {
		fail(err)
	}
	for _, e := range entries {
		fmt.Printf("%v  %-16v %v\n", e["ts"], e["type"], e["summary"])
	}
}
