package task

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/store"
)

// Resyncer is told about the Active list after every mutation.
type Resyncer interface {
	Resync(active []Task)
}

// Recorder receives lifecycle events for the activity log.
type Recorder interface {
	Record(kind, taskID, title string)
}

// Event kinds passed to Recorder.
const (
	EventCreated        = "task_created"
	EventUpdated        = "task_updated"
	EventToggled        = "task_toggled"
	EventArchived       = "task_archived"
	EventDeleted        = "task_deleted"
	EventRestored       = "task_restored"
	EventArchiveDeleted = "archive_deleted"
	EventArchiveEmptied = "archive_emptied"
)

// Repository owns the Active and Archive lists of the current identity.
// It is the only writer of both lists.
type Repository struct {
	store    store.Store
	identity identity.Provider
	clock    clock.Clock
	loc      *time.Location
	resync   Resyncer
	recorder Recorder

	mu sync.Mutex
}

type Option func(*Repository)

func WithClock(c clock.Clock) Option { return func(r *Repository) { r.clock = c } }

// WithLocation sets the zone used to interpret task dates and times.
func WithLocation(loc *time.Location) Option { return func(r *Repository) { r.loc = loc } }

func WithResyncer(rs Resyncer) Option { return func(r *Repository) { r.resync = rs } }

func WithRecorder(rec Recorder) Option { return func(r *Repository) { r.recorder = rec } }

// NewRepository creates a repository over s, namespaced by id.
func NewRepository(s store.Store, id identity.Provider, opts ...Option) *Repository {
	r := &Repository{
		store:    s,
		identity: id,
		clock:    clock.Real{},
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetResyncer wires the scheduler after construction (the scheduler itself
// needs the repository's location and store).
func (r *Repository) SetResyncer(rs Resyncer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resync = rs
}

// Location is the zone task dates and times are interpreted in.
func (r *Repository) Location() *time.Location { return r.loc }

// Keys returns the store keys of the current identity.
func (r *Repository) Keys() identity.Keys {
	return identity.KeysFor(r.identity.CurrentIdentity())
}

type lists struct {
	active  []Task
	archive []Task
	// activeFirst orders the two writes so a task moving into Active is
	// written there before it is removed from Archive.
	activeFirst bool
}

func (r *Repository) loadList(key string, archived bool) ([]Task, bool) {
	var tasks []Task
	if !store.GetJSON(r.store, key, &tasks) {
		return []Task{}, false
	}
	if tasks == nil {
		tasks = []Task{}
	}

	repaired := false
	now := r.clock.Now()
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = newID()
			repaired = true
		}
		if tasks[i].Status == "" {
			tasks[i].Status = StatusPending
			repaired = true
		}
		if archived && !tasks[i].State.IsArchived() {
			tasks[i].State = Archived(now)
			repaired = true
		}
		if !archived && tasks[i].State.IsArchived() {
			tasks[i].State = Active()
			repaired = true
		}
	}
	return tasks, repaired
}

func (r *Repository) load(keys identity.Keys) (*lists, bool) {
	active, ra := r.loadList(keys.Tasks, false)
	archive, rb := r.loadList(keys.Archive, true)
	return &lists{active: active, archive: archive}, ra || rb
}

func (r *Repository) save(keys identity.Keys, l *lists) error {
	writes := []struct {
		key   string
		tasks []Task
	}{
		{keys.Archive, l.archive},
		{keys.Tasks, l.active},
	}
	if l.activeFirst {
		writes[0], writes[1] = writes[1], writes[0]
	}
	for _, w := range writes {
		if err := store.SetJSON(r.store, w.key, w.tasks); err != nil {
			return fmt.Errorf("failed to save %s: %w", w.key, err)
		}
	}
	return nil
}

// mutate runs fn against freshly loaded lists, persists them if fn reports a
// change, and resynchronizes reminders before returning.
func (r *Repository) mutate(fn func(l *lists) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.Keys()
	l, _ := r.load(keys)
	changed, err := fn(l)
	if err != nil || !changed {
		return err
	}
	if err := r.save(keys, l); err != nil {
		return err
	}
	if r.resync != nil {
		r.resync.Resync(cloneTasks(l.active))
	}
	return nil
}

func (r *Repository) record(kind string, t Task) {
	if r.recorder != nil {
		r.recorder.Record(kind, t.ID, t.Title)
	}
	logging.Debug("repo", "%s %s %q", kind, t.ID, logging.Truncate(t.Title, 40))
}

// Sync loads the current identity's lists, repairs any records written by an
// older layout, and resynchronizes reminders. Call it at startup and after
// the identity changes.
func (r *Repository) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := r.Keys()
	l, repaired := r.load(keys)
	if repaired {
		logging.Info("repo", "repaired stored task records for %s", keys.Tasks)
		if err := r.save(keys, l); err != nil {
			return err
		}
	}
	if r.resync != nil {
		r.resync.Resync(cloneTasks(l.active))
	}
	return nil
}

// ListActive returns a snapshot of the Active list in display order.
func (r *Repository) ListActive() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, _ := r.load(r.Keys())
	return l.active
}

// ListArchive returns a snapshot of the Archive list in archive order.
func (r *Repository) ListArchive() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, _ := r.load(r.Keys())
	return l.archive
}

// ArchiveNewestFirst is the Archive sorted by archive time, newest first.
func (r *Repository) ArchiveNewestFirst() []Task {
	return SortNewestFirst(r.ListArchive())
}

// SortNewestFirst orders archived tasks by archive time, newest first, in
// place. Ties keep their stored order.
func SortNewestFirst(archive []Task) []Task {
	sort.SliceStable(archive, func(i, j int) bool {
		a, _ := archive[i].State.ArchivedAt()
		b, _ := archive[j].State.ArchivedAt()
		return a.After(b)
	})
	return archive
}

// Get looks up an Active task by ID.
func (r *Repository) Get(id string) (Task, bool) {
	for _, t := range r.ListActive() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// ActiveAt returns the task displayed at position i of the Active list.
func (r *Repository) ActiveAt(i int) (Task, bool) {
	active := r.ListActive()
	if i < 0 || i >= len(active) {
		return Task{}, false
	}
	return active[i], true
}

// ArchiveAt returns the task at position i of the Archive list.
func (r *Repository) ArchiveAt(i int) (Task, bool) {
	archive := r.ListArchive()
	if i < 0 || i >= len(archive) {
		return Task{}, false
	}
	return archive[i], true
}

// Create validates f and appends a new pending task to the Active list.
func (r *Repository) Create(f Fields) (Task, error) {
	if err := f.Validate(); err != nil {
		return Task{}, err
	}
	f.normalize()

	t := Task{
		ID:        newID(),
		Status:    StatusPending,
		State:     Active(),
		CreatedAt: r.clock.Now(),
	}
	if f.Status != "" {
		t.Status = f.Status
	}
	if err := r.apply(&t, f); err != nil {
		return Task{}, err
	}

	err := r.mutate(func(l *lists) (bool, error) {
		l.active = append(l.active, t)
		return true, nil
	})
	if err != nil {
		return Task{}, err
	}
	r.record(EventCreated, t)
	return t, nil
}

// Update replaces the editable fields of the Active task id in place.
// Status is preserved unless f.Status is set.
func (r *Repository) Update(id string, f Fields) (Task, error) {
	if err := f.Validate(); err != nil {
		return Task{}, err
	}
	f.normalize()

	var updated Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.active, id)
		if i < 0 {
			return false, &NotFoundError{ID: id}
		}
		t := l.active[i]
		if f.Status != "" {
			t.Status = f.Status
		}
		if err := r.apply(&t, f); err != nil {
			return false, err
		}
		l.active[i] = t
		updated = t
		return true, nil
	})
	if err != nil {
		return Task{}, err
	}
	r.record(EventUpdated, updated)
	return updated, nil
}

// apply copies validated fields onto t and derives its reminder.
func (r *Repository) apply(t *Task, f Fields) error {
	due, err := ParseDue(f.Date, f.Time, r.loc)
	if err != nil {
		return &ValidationError{Field: "date", Reason: "and time do not form a valid instant"}
	}
	t.Title = f.Title
	t.Description = f.Description
	t.Date = f.Date
	t.Time = f.Time
	t.Priority = f.Priority
	t.Category = f.Category
	t.Reminder = NoReminder()
	if f.ReminderOffset != nil {
		off := *f.ReminderOffset
		t.Reminder = ReminderAt(off, due.Add(-time.Duration(off)*time.Minute))
	}
	return nil
}

// ToggleStatus flips pending/completed. Unknown IDs are ignored.
func (r *Repository) ToggleStatus(id string) error {
	var toggled Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.active, id)
		if i < 0 {
			return false, nil
		}
		l.active[i].Status = l.active[i].Status.Toggle()
		toggled = l.active[i]
		return true, nil
	})
	if err == nil && toggled.ID != "" {
		r.record(EventToggled, toggled)
	}
	return err
}

// Archive moves the Active task id to the end of the Archive, stamped with
// the current time. Unknown IDs are ignored.
func (r *Repository) Archive(id string) error {
	var archived Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.active, id)
		if i < 0 {
			return false, nil
		}
		archived = l.active[i]
		archived.State = Archived(r.clock.Now())
		l.active = removeAt(l.active, i)
		l.archive = append(l.archive, archived)
		return true, nil
	})
	if err == nil && archived.ID != "" {
		r.record(EventArchived, archived)
	}
	return err
}

// DeleteActive removes the Active task id irreversibly. Unknown IDs are ignored.
func (r *Repository) DeleteActive(id string) error {
	var deleted Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.active, id)
		if i < 0 {
			return false, nil
		}
		deleted = l.active[i]
		l.active = removeAt(l.active, i)
		return true, nil
	})
	if err == nil && deleted.ID != "" {
		r.record(EventDeleted, deleted)
	}
	return err
}

// RestoreFromArchive moves the archived task id back to the end of the
// Active list with its archive stamp cleared. Unknown IDs are ignored.
func (r *Repository) RestoreFromArchive(id string) error {
	var restored Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.archive, id)
		if i < 0 {
			return false, nil
		}
		restored = l.archive[i]
		restored.State = Active()
		l.archive = removeAt(l.archive, i)
		l.active = append(l.active, restored)
		l.activeFirst = true
		return true, nil
	})
	if err == nil && restored.ID != "" {
		r.record(EventRestored, restored)
	}
	return err
}

// DeletePermanently removes the archived task id. Unknown IDs are ignored.
func (r *Repository) DeletePermanently(id string) error {
	var deleted Task
	err := r.mutate(func(l *lists) (bool, error) {
		i := indexOf(l.archive, id)
		if i < 0 {
			return false, nil
		}
		deleted = l.archive[i]
		l.archive = removeAt(l.archive, i)
		return true, nil
	})
	if err == nil && deleted.ID != "" {
		r.record(EventArchiveDeleted, deleted)
	}
	return err
}

// RestoreAll moves every archived task to the end of the Active list, in
// archive order, and clears the Archive. It returns how many were restored.
func (r *Repository) RestoreAll() (int, error) {
	var restored []Task
	err := r.mutate(func(l *lists) (bool, error) {
		if len(l.archive) == 0 {
			return false, nil
		}
		for _, t := range l.archive {
			t.State = Active()
			l.active = append(l.active, t)
			restored = append(restored, t)
		}
		l.archive = []Task{}
		l.activeFirst = true
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	for _, t := range restored {
		r.record(EventRestored, t)
	}
	return len(restored), nil
}

// EmptyArchive discards every archived task. It returns how many were removed.
func (r *Repository) EmptyArchive() (int, error) {
	n := 0
	err := r.mutate(func(l *lists) (bool, error) {
		n = len(l.archive)
		if n == 0 {
			return false, nil
		}
		l.archive = []Task{}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 && r.recorder != nil {
		r.recorder.Record(EventArchiveEmptied, "", fmt.Sprintf("%d tasks", n))
	}
	return n, nil
}

// PurgeArchive permanently deletes archived tasks stamped more than
// retention ago. Tasks with no archive stamp are kept.
func (r *Repository) PurgeArchive(retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := r.clock.Now().Add(-retention)
	var purged []Task
	err := r.mutate(func(l *lists) (bool, error) {
		kept := l.archive[:0]
		for _, t := range l.archive {
			at, _ := t.State.ArchivedAt()
			if !at.IsZero() && at.Before(cutoff) {
				purged = append(purged, t)
				continue
			}
			kept = append(kept, t)
		}
		l.archive = kept
		return len(purged) > 0, nil
	})
	if err != nil {
		return 0, err
	}
	for _, t := range purged {
		r.record(EventArchiveDeleted, t)
	}
	if len(purged) > 0 {
		logging.Info("repo", "purged %d archived tasks older than %v", len(purged), retention)
	}
	return len(purged), nil
}

// ArchiveStats summarizes the Archive for the archive page.
type ArchiveStats struct {
	Count int
	// Bytes is the size of the serialized Archive list.
	Bytes int
}

func (r *Repository) ArchiveStats() ArchiveStats {
	archive := r.ListArchive()
	data, _ := json.Marshal(archive)
	return ArchiveStats{Count: len(archive), Bytes: len(data)}
}

func newID() string {
	return uuid.NewString()
}

func indexOf(tasks []Task, id string) int {
	if id == "" {
		return -1
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(tasks []Task, i int) []Task {
	out := make([]Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
