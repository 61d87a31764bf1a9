// Package gesture interprets swipes, taps and button presses on a task row
// and turns them into repository commands.
package gesture

import (
	"math"
	"sync"
	"time"

	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/logging"
)

type Action int

const (
	ActionNone Action = iota
	ActionArchive
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionArchive:
		return "archive"
	case ActionDelete:
		return "delete"
	}
	return "none"
}

type State int

const (
	Idle State = iota
	Tracking
	Committed
)

func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Committed:
		return "committed"
	}
	return "idle"
}

// Config holds the swipe geometry, in the same units as pointer coordinates.
type Config struct {
	// CommitThreshold is the displacement a release must exceed to commit.
	CommitThreshold float64 `yaml:"commit_threshold"`
	// Clamp bounds how far the row visually follows the pointer.
	Clamp float64 `yaml:"clamp"`
	// DeadZone is the displacement below which no action is shown.
	DeadZone float64 `yaml:"dead_zone"`
	// TapSlop is the largest displacement still treated as a tap.
	TapSlop float64 `yaml:"tap_slop"`
	// CommitDelay lets the dismissal animation play before the command runs.
	CommitDelay time.Duration `yaml:"commit_delay"`
}

func DefaultConfig() Config {
	return Config{
		CommitThreshold: 80,
		Clamp:           120,
		DeadZone:        20,
		TapSlop:         10,
		CommitDelay:     300 * time.Millisecond,
	}
}

// Repository is the subset of the task repository a row drives.
type Repository interface {
	Archive(id string) error
	DeleteActive(id string) error
	ToggleStatus(id string) error
}

// Deps are shared by every row of an Interpreter.
type Deps struct {
	Clock clock.Clock
	Repo  Repository
	// OpenEdit opens the edit form for a task. Optional.
	OpenEdit func(taskID string)
	// OnCommitted runs after a committed command has been applied. Optional.
	OnCommitted func(taskID string, action Action, err error)
}

// Affordance is what the row shows while tracking.
type Affordance struct {
	// Offset is the clamped horizontal translation of the row.
	Offset float64
	// Ratio is how visible the action background is, 0..1.
	Ratio     float64
	Direction Action
	// Armed is set once the displacement passes half the commit threshold.
	Armed bool
}

// Outcome reports what a release did.
type Outcome struct {
	Action Action
	Tap    bool
	// Done is closed once a committed command has been applied. It is nil
	// when nothing was committed.
	Done <-chan struct{}
}

// Row tracks one gesture on one task row.
type Row struct {
	taskID string
	cfg    Config
	deps   Deps
	done   func()

	mu     sync.Mutex
	state  State
	startX float64
	dx     float64
}

func newRow(taskID string, cfg Config, deps Deps, done func()) *Row {
	return &Row{taskID: taskID, cfg: cfg, deps: deps, done: done}
}

func (r *Row) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Down captures the start coordinate.
func (r *Row) Down(x float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Committed {
		return
	}
	r.state = Tracking
	r.startX = x
	r.dx = 0
}

// Move updates the displacement and returns the visual affordance.
func (r *Row) Move(x float64) Affordance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Tracking {
		return Affordance{}
	}
	r.dx = x - r.startX
	return r.affordance()
}

// affordance maps the current displacement (must hold lock)
func (r *Row) affordance() Affordance {
	dx := r.dx
	switch {
	case dx < -r.cfg.DeadZone:
		off := math.Max(dx, -r.cfg.Clamp)
		return Affordance{
			Offset:    off,
			Ratio:     math.Min(math.Abs(off)/r.cfg.CommitThreshold, 1),
			Direction: ActionArchive,
			Armed:     math.Abs(dx) > r.cfg.CommitThreshold/2,
		}
	case dx > r.cfg.DeadZone:
		off := math.Min(dx, r.cfg.Clamp)
		return Affordance{
			Offset:    off,
			Ratio:     math.Min(math.Abs(off)/r.cfg.CommitThreshold, 1),
			Direction: ActionDelete,
			Armed:     math.Abs(dx) > r.cfg.CommitThreshold/2,
		}
	}
	return Affordance{}
}

// Up ends the gesture. Past the threshold it commits: leftward archives,
// rightward deletes, after CommitDelay. A release with almost no movement is
// a tap and opens the edit form. Anything else resets the row.
func (r *Row) Up() Outcome {
	r.mu.Lock()
	if r.state != Tracking {
		r.mu.Unlock()
		return Outcome{}
	}
	dx := r.dx

	if math.Abs(dx) > r.cfg.CommitThreshold {
		action := ActionArchive
		if dx > 0 {
			action = ActionDelete
		}
		r.state = Committed
		r.mu.Unlock()
		return Outcome{Action: action, Done: r.commitAfter(action, r.cfg.CommitDelay)}
	}

	r.state = Idle
	r.dx = 0
	r.mu.Unlock()

	if math.Abs(dx) <= r.cfg.TapSlop {
		if r.deps.OpenEdit != nil {
			r.deps.OpenEdit(r.taskID)
		}
		return Outcome{Tap: true}
	}
	return Outcome{}
}

// Cancel handles the pointer leaving the row mid-gesture; it is treated as
// a release at the last position.
func (r *Row) Cancel() Outcome {
	return r.Up()
}

// TapCheckbox toggles the task status. It never opens the edit form.
func (r *Row) TapCheckbox() error {
	r.mu.Lock()
	committed := r.state == Committed
	r.mu.Unlock()
	if committed {
		return nil
	}
	return r.deps.Repo.ToggleStatus(r.taskID)
}

// PressArchive is the archive button: it commits without tracking.
func (r *Row) PressArchive() error {
	return r.press(ActionArchive)
}

// PressDelete is the delete button: it commits without tracking.
func (r *Row) PressDelete() error {
	return r.press(ActionDelete)
}

func (r *Row) press(action Action) error {
	r.mu.Lock()
	if r.state == Committed {
		r.mu.Unlock()
		return nil
	}
	r.state = Committed
	r.mu.Unlock()
	return r.apply(action)
}

func (r *Row) commitAfter(action Action, delay time.Duration) <-chan struct{} {
	done := make(chan struct{})
	r.deps.Clock.AfterFunc(delay, func() {
		defer close(done)
		r.apply(action)
	})
	return done
}

func (r *Row) apply(action Action) error {
	var err error
	switch action {
	case ActionArchive:
		err = r.deps.Repo.Archive(r.taskID)
	case ActionDelete:
		err = r.deps.Repo.DeleteActive(r.taskID)
	}
	if err != nil {
		logging.Warn("gesture", "%s %s: %v", action, r.taskID, err)
	} else {
		logging.Debug("gesture", "%s committed for %s", action, r.taskID)
	}
	if r.deps.OnCommitted != nil {
		r.deps.OnCommitted(r.taskID, action, err)
	}
	if r.done != nil {
		r.done()
	}
	return err
}

// Interpreter hands out one Row per task ID.
type Interpreter struct {
	cfg  Config
	deps Deps

	mu   sync.Mutex
	rows map[string]*Row
}

func New(cfg Config, deps Deps) *Interpreter {
	def := DefaultConfig()
	if cfg.CommitThreshold <= 0 {
		cfg.CommitThreshold = def.CommitThreshold
	}
	if cfg.Clamp <= 0 {
		cfg.Clamp = def.Clamp
	}
	if cfg.DeadZone < 0 {
		cfg.DeadZone = def.DeadZone
	}
	if cfg.TapSlop < 0 {
		cfg.TapSlop = def.TapSlop
	}
	if cfg.CommitDelay < 0 {
		cfg.CommitDelay = def.CommitDelay
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	return &Interpreter{cfg: cfg, deps: deps, rows: make(map[string]*Row)}
}

func (in *Interpreter) Config() Config { return in.cfg }

// Row returns the gesture tracker for taskID, creating it if needed. A row
// is discarded once its committed command has been applied.
func (in *Interpreter) Row(taskID string) *Row {
	in.mu.Lock()
	defer in.mu.Unlock()
	if r, ok := in.rows[taskID]; ok {
		return r
	}
	var r *Row
	r = newRow(taskID, in.cfg, in.deps, func() { in.forget(taskID, r) })
	in.rows[taskID] = r
	return r
}

func (in *Interpreter) forget(taskID string, r *Row) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.rows[taskID] == r {
		delete(in.rows, taskID)
	}
}

// Swipe runs a complete drag on taskID from startX to endX.
func (in *Interpreter) Swipe(taskID string, startX, endX float64) Outcome {
	row := in.Row(taskID)
	row.Down(startX)
	row.Move(endX)
	return row.Up()
}
