package task

import "strings"

// Filter narrows a snapshot for display. It never changes stored order.
// Empty fields (or "all") match everything.
type Filter struct {
	Status   Status
	Priority Priority
	Category string
	// Query matches title, description, or category, case-insensitively.
	Query string
}

func (f Filter) matches(t Task) bool {
	if f.Status != "" && f.Status != "all" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && f.Priority != "all" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && f.Category != "all" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(t.Title + "\n" + t.Description + "\n" + t.Category)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Apply returns the tasks that match, in their original order.
func (f Filter) Apply(tasks []Task) []Task {
	result := []Task{}
	for _, t := range tasks {
		if f.matches(t) {
			result = append(result, t)
		}
	}
	return result
}

// Stats are the dashboard counters.
type Stats struct {
	Total     int
	Pending   int
	Completed int
}

func CountStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s
}

// Stats counts the Active list.
func (r *Repository) Stats() Stats {
	return CountStats(r.ListActive())
}
