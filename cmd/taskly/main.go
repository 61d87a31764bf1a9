package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/taskly/internal/activity"
	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/config"
	"github.com/vthunder/taskly/internal/gesture"
	"github.com/vthunder/taskly/internal/health"
	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/mcp/tools"
	"github.com/vthunder/taskly/internal/notify"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/store"
	"github.com/vthunder/taskly/internal/task"
)

const version = "0.1.0"

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.Println("taskly - task lifecycle and reminder daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	// Ensure state directory exists
	os.MkdirAll(cfg.StatePath, 0755)

	kv, err := store.Open(cfg.Store, cfg.StatePath)
	if err != nil {
		log.Fatalf("[store] Failed to open %s store: %v", cfg.Store, err)
	}
	logging.Info("store", "Using %s backend under %s", cfg.Store, cfg.StatePath)

	ident := identity.StoreProvider{Store: kv}
	if cfg.UserEmail != "" {
		if err := ident.SetCurrent(cfg.UserEmail); err != nil {
			log.Fatalf("[identity] Failed to set current user: %v", err)
		}
	}
	current := ident.CurrentIdentity()
	logging.Info("identity", "Signed in as %s", identity.Namespace(current.Email))

	activityLog := activity.New(cfg.StatePath).WithIdentity(identity.Namespace(current.Email))

	// Notification sinks
	panel := notify.NewPanel(cfg.Settings.Panel.Size)
	sinks := notify.Multi{notify.LogSink{}, panel}
	var discord *notify.Discord
	if cfg.DiscordToken != "" {
		discord, err = notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			logging.Warn("notify", "Discord disabled: %v", err)
		} else {
			sinks = append(sinks, discord)
		}
	}

	sched := reminder.NewScheduler(reminder.Config{
		Clock:    clock.Real{},
		Store:    kv,
		Identity: ident,
		Location: cfg.Timezone,
		Sink:     sinks,
		OnFire: func(n notify.Notification) {
			panel.Open()
			if err := activityLog.LogReminderFired(n.TaskID, n.Title, n.FiresAt); err != nil {
				logging.Warn("activity", "reminder_fired: %v", err)
			}
		},
	})

	repo := task.NewRepository(kv, ident,
		task.WithLocation(cfg.Timezone),
		task.WithResyncer(sched),
		task.WithRecorder(activityLog),
	)

	// Repair stored lists and arm reminders for everything still ahead
	if err := repo.Sync(); err != nil {
		logging.Warn("main", "Initial sync failed: %v", err)
	}
	logging.Info("main", "Loaded %d active, %d archived; %d reminders armed",
		len(repo.ListActive()), len(repo.ListArchive()), len(sched.Pending()))

	gestures := gesture.New(cfg.Settings.Gesture, gesture.Deps{
		Clock: clock.Real{},
		Repo:  repo,
		OpenEdit: func(taskID string) {
			logging.Debug("gesture", "edit form opened for %s", taskID)
		},
		OnCommitted: func(taskID string, action gesture.Action, err error) {
			if err != nil {
				activityLog.LogError("gesture "+action.String(), err, map[string]any{"task_id": taskID})
			}
		},
	})

	watcher, err := health.NewWatcher(30 * time.Second)
	if err != nil {
		logging.Warn("health", "Process stats unavailable: %v", err)
	} else {
		watcher.Start()
	}

	stopPurge := startPurge(repo, cfg.Settings.Archive)

	s := server.NewMCPServer(
		"taskly",
		version,
		server.WithToolCapabilities(true),
	)
	tools.RegisterAll(s, &tools.Dependencies{
		Repo:        repo,
		Scheduler:   sched,
		Panel:       panel,
		Gestures:    gestures,
		ActivityLog: activityLog,
		Health:      watcher,
		Presets:     cfg.Settings.Reminder.Presets,
		OnMCPToolCall: func(name string) {
			logging.Debug("mcp", "tool called: %s", name)
		},
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ServeStdio(s)
	}()

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	// Wait for shutdown signal or the client closing stdin
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-serveErr:
		if err != nil {
			logging.Warn("mcp", "Server stopped: %v", err)
		}
	}

	log.Println("[main] Shutting down...")

	close(stopPurge)
	sched.Stop()
	if watcher != nil {
		watcher.Stop()
	}
	if discord != nil {
		discord.Close()
	}
	if err := kv.Close(); err != nil {
		log.Printf("Warning: failed to close store: %v", err)
	}

	log.Println("[main] Goodbye!")
}

// startPurge runs the archive retention sweep until the returned channel is
// closed. A zero retention disables it.
func startPurge(repo *task.Repository, settings config.ArchiveSettings) chan struct{} {
	stop := make(chan struct{})
	if settings.Retention <= 0 || settings.PurgeInterval <= 0 {
		return stop
	}

	purge := func() {
		n, err := repo.PurgeArchive(settings.Retention)
		if err != nil {
			logging.Warn("archive", "Purge failed: %v", err)
			return
		}
		if n > 0 {
			logging.Info("archive", "Purged %d tasks archived more than %v ago", n, settings.Retention)
		}
	}

	go func() {
		purge()
		ticker := time.NewTicker(settings.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				purge()
			}
		}
	}()
	return stop
}
