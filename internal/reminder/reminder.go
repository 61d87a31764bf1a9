// Package reminder turns task reminder offsets into fire instants and keeps
// one pending timer per upcoming reminder of the Active list.
package reminder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vthunder/taskly/internal/task"
)

// Entry is one row of the Reminder index. The index is derived from the
// Active list and can be discarded and rebuilt at any time.
type Entry struct {
	Index   int    `json:"index"`
	TaskID  string `json:"taskId"`
	Title   string `json:"title"`
	FiresAt int64  `json:"firesAt"` // epoch milliseconds
}

func (e Entry) Time() time.Time { return time.UnixMilli(e.FiresAt) }

// ComputeFireInstant is date+time minus offsetMinutes. It reports false when
// there is no offset or the date and time do not parse.
func ComputeFireInstant(date, tm string, offsetMinutes *int, loc *time.Location) (time.Time, bool) {
	if offsetMinutes == nil {
		return time.Time{}, false
	}
	due, err := task.ParseDue(date, tm, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due.Add(-time.Duration(*offsetMinutes) * time.Minute), true
}

// RebuildIndex returns one entry per Active task that carries a reminder, in
// list order.
func RebuildIndex(active []task.Task, loc *time.Location) []Entry {
	index := []Entry{}
	for i, t := range active {
		off, ok := t.Reminder.OffsetMinutes()
		if !ok {
			continue
		}
		at, ok := ComputeFireInstant(t.Date, t.Time, &off, loc)
		if !ok {
			// Fall back to the instant captured when the task was saved.
			at, _ = t.Reminder.FiresAt()
		}
		index = append(index, Entry{
			Index:   i,
			TaskID:  t.ID,
			Title:   t.Title,
			FiresAt: at.UnixMilli(),
		})
	}
	return index
}

// sortByFireTime orders entries by fire instant, then list position.
func sortByFireTime(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].FiresAt != entries[j].FiresAt {
			return entries[i].FiresAt < entries[j].FiresAt
		}
		return entries[i].Index < entries[j].Index
	})
}

// DefaultPresets are the offsets offered on the task form, in minutes.
var DefaultPresets = []int{5, 10, 30}

// ParseOffset reads a reminder choice from the task form: "" or "none" for
// no reminder, a preset such as "10", or "custom:45" for any other
// non-negative number of minutes.
func ParseOffset(choice string, presets []int) (*int, error) {
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice == "" || choice == "none" {
		return nil, nil
	}

	if rest, ok := strings.CutPrefix(choice, "custom:"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid custom reminder %q: must be a non-negative number of minutes", rest)
		}
		return &n, nil
	}

	n, err := strconv.Atoi(choice)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder %q: use none, a preset, or custom:<minutes>", choice)
	}
	if len(presets) == 0 {
		presets = DefaultPresets
	}
	for _, p := range presets {
		if p == n {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("reminder %d is not a preset (%v); use custom:%d", n, presets, n)
}
