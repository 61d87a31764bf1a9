package health

import (
	"testing"
	"time"
)

func TestWatcher_PollSelf(t *testing.T) {
	w, err := NewWatcher(time.Second)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	s, err := w.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if s.RSS == 0 {
		t.Error("expected non-zero RSS for the test process")
	}
	if s.Goroutines < 1 {
		t.Errorf("goroutines: got %d", s.Goroutines)
	}

	latest, err := w.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if !latest.At.Equal(s.At) {
		t.Errorf("Latest returned a different sample: %v vs %v", latest.At, s.At)
	}
}

func TestWatcher_HistoryIsBounded(t *testing.T) {
	w, err := NewWatcher(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < historySize+3; i++ {
		if _, err := w.Poll(); err != nil {
			t.Fatal(err)
		}
	}
	w.mu.Lock()
	n := len(w.history)
	w.mu.Unlock()
	if n != historySize {
		t.Errorf("history length: got %d, want %d", n, historySize)
	}
}

func TestAvgCPU(t *testing.T) {
	if got := avgCPU(nil); got != 0 {
		t.Errorf("empty average: got %v", got)
	}
	got := avgCPU([]Sample{{CPUPercent: 2}, {CPUPercent: 4}, {CPUPercent: 6}})
	if got != 4 {
		t.Errorf("average: got %v, want 4", got)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(5 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Start() // second start is a no-op
	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()

	if _, err := w.Latest(); err != nil {
		t.Fatalf("Latest after stop: %v", err)
	}
}
