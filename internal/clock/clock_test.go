package clock

import (
	"testing"
	"time"
)

func TestFake_FiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var order []string
	c.AfterFunc(30*time.Minute, func() { order = append(order, "b") })
	c.AfterFunc(10*time.Minute, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Hour, func() { order = append(order, "c") })

	c.Advance(time.Hour)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected fire order: %v", order)
	}
	if c.Pending() != 1 {
		t.Errorf("expected 1 pending timer, got %d", c.Pending())
	}
	if !c.Now().Equal(start.Add(time.Hour)) {
		t.Errorf("clock not advanced: %v", c.Now())
	}
}

func TestFake_StoppedTimerDoesNotFire(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Fatal("expected Stop to report true on an armed timer")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFake_CallbackCanSchedule(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	count := 0
	c.AfterFunc(time.Second, func() {
		count++
		c.AfterFunc(time.Second, func() { count++ })
	})
	c.Advance(5 * time.Second)
	if count != 2 {
		t.Errorf("expected chained timers to fire, count=%d", count)
	}
}
