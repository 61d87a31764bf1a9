package reminder

import (
	"sync"
	"time"

	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/notify"
	"github.com/vthunder/taskly/internal/store"
	"github.com/vthunder/taskly/internal/task"
)

// Config wires a Scheduler.
type Config struct {
	Clock    clock.Clock
	Store    store.Store
	Identity identity.Provider
	Location *time.Location
	Sink     notify.Sink
	// OnFire runs after the sink, e.g. to open the notification panel.
	OnFire func(n notify.Notification)
}

type pending struct {
	entry Entry
	timer clock.Timer
}

// Scheduler owns the pending reminder timers. Each Resync replaces the whole
// timer set and bumps the generation, so a callback left over from an older
// set never fires.
type Scheduler struct {
	clock    clock.Clock
	store    store.Store
	identity identity.Provider
	loc      *time.Location
	sink     notify.Sink
	onFire   func(n notify.Notification)

	mu         sync.Mutex
	generation uint64
	timers     map[string]pending
	index      []Entry
}

func NewScheduler(cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Sink == nil {
		cfg.Sink = notify.LogSink{}
	}
	if cfg.Identity == nil {
		cfg.Identity = identity.Static{}
	}
	return &Scheduler{
		clock:    cfg.Clock,
		store:    cfg.Store,
		identity: cfg.Identity,
		loc:      cfg.Location,
		sink:     cfg.Sink,
		onFire:   cfg.OnFire,
		timers:   make(map[string]pending),
		index:    []Entry{},
	}
}

// Resync cancels every pending timer, rebuilds and persists the Reminder
// index from active, and arms a timer for each entry strictly in the future.
// Reminders whose instant has already passed are dropped without firing.
func (s *Scheduler) Resync(active []task.Task) {
	index := RebuildIndex(active, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.timers {
		p.timer.Stop()
	}

	s.generation++
	gen := s.generation
	now := s.clock.Now()
	timers := make(map[string]pending, len(index))
	for _, e := range index {
		delay := e.Time().Sub(now)
		if delay <= 0 {
			continue
		}
		id := e.TaskID
		timers[id] = pending{
			entry: e,
			timer: s.clock.AfterFunc(delay, func() { s.fire(gen, id) }),
		}
	}
	s.timers = timers
	s.index = index

	if s.store != nil {
		key := identity.KeysFor(s.identity.CurrentIdentity()).Reminders
		if err := store.SetJSON(s.store, key, index); err != nil {
			logging.Warn("reminder", "failed to persist index: %v", err)
		}
	}
	logging.Debug("reminder", "resync gen=%d: %d reminders, %d pending", gen, len(index), len(timers))
}

func (s *Scheduler) fire(gen uint64, taskID string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	p, ok := s.timers[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, taskID)
	s.mu.Unlock()

	n := notify.Notification{
		TaskID:  p.entry.TaskID,
		Title:   p.entry.Title,
		FiresAt: p.entry.Time().In(s.loc),
	}
	if err := s.sink.Notify(n); err != nil {
		logging.Warn("reminder", "notify %s: %v", logging.Truncate(n.Title, 40), err)
	}
	if s.onFire != nil {
		s.onFire(n)
	}
}

// Pending returns the armed reminders in fire order.
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.timers))
	for _, p := range s.timers {
		out = append(out, p.entry)
	}
	sortByFireTime(out)
	return out
}

// Index returns the Reminder index built by the last Resync.
func (s *Scheduler) Index() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.index))
	copy(out, s.index)
	return out
}

// StoredIndex reads the persisted Reminder index of the current identity.
func (s *Scheduler) StoredIndex() []Entry {
	index := []Entry{}
	if s.store != nil {
		store.GetJSON(s.store, identity.KeysFor(s.identity.CurrentIdentity()).Reminders, &index)
	}
	return index
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.timers {
		p.timer.Stop()
	}
	s.generation++
	s.timers = make(map[string]pending)
}
