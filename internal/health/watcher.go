package health

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/taskly/internal/logging"
)

// Sample is one reading of the daemon's own resource usage.
type Sample struct {
	At         time.Time `json:"at"`
	CPUPercent float64   `json:"cpu_percent"`
	RSS        uint64    `json:"rss_bytes"`
	Threads    int32     `json:"threads"`
	Goroutines int       `json:"goroutines"`
}

// Watcher polls a process for CPU and memory so status queries can report
// a short moving average instead of a single spike.
type Watcher struct {
	proc *process.Process
	mu   sync.Mutex

	pollInterval time.Duration
	history      []Sample // last historySize readings

	stopChan chan struct{}
	running  bool
}

const historySize = 5

// NewWatcher watches the current process.
func NewWatcher(pollInterval time.Duration) (*Watcher, error) {
	return NewWatcherFor(int32(os.Getpid()), pollInterval)
}

func NewWatcherFor(pid int32, pollInterval time.Duration) (*Watcher, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &Watcher{
		proc:         proc,
		pollInterval: pollInterval,
		history:      make([]Sample, 0, historySize),
		stopChan:     make(chan struct{}),
	}, nil
}

// Start begins polling in the background
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop()
	logging.Debug("health", "started (poll=%v)", w.pollInterval)
}

// Stop stops polling
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopChan)
		w.running = false
	}
}

func (w *Watcher) watchLoop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := w.Poll(); err != nil {
				logging.Debug("health", "poll: %v", err)
			}
		}
	}
}

// Poll takes a reading now and adds it to the history.
func (w *Watcher) Poll() (Sample, error) {
	s := Sample{At: time.Now(), Goroutines: runtime.NumGoroutine()}

	cpu, err := w.proc.CPUPercent()
	if err != nil {
		return s, err
	}
	s.CPUPercent = cpu

	mem, err := w.proc.MemoryInfo()
	if err != nil {
		return s, err
	}
	s.RSS = mem.RSS

	// Thread count is unavailable on some platforms; leave it zero.
	if n, err := w.proc.NumThreads(); err == nil {
		s.Threads = n
	}

	w.mu.Lock()
	w.history = append(w.history, s)
	if len(w.history) > historySize {
		w.history = w.history[1:]
	}
	w.mu.Unlock()
	return s, nil
}

// Latest returns the most recent reading, polling once if none exists yet.
func (w *Watcher) Latest() (Sample, error) {
	w.mu.Lock()
	if n := len(w.history); n > 0 {
		s := w.history[n-1]
		w.mu.Unlock()
		return s, nil
	}
	w.mu.Unlock()
	return w.Poll()
}

// AvgCPU averages CPU over the retained history.
func (w *Watcher) AvgCPU() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return avgCPU(w.history)
}

func avgCPU(history []Sample) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, s := range history {
		sum += s.CPUPercent
	}
	return sum / float64(len(history))
}
