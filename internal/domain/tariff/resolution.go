package tariff

import "sort"

// ResolveCurrent picks the assignment that governs billing when a subscriber
// holds several, possibly overlapping, assignments: the most recently started
// wins, and among assignments starting on the same date the one ending
// soonest wins (an open-ended assignment sorts after any dated one).
// Returns nil when the slice is empty.
func ResolveCurrent(assignments []Assignment) *Assignment {
	if len(assignments) == 0 {
		return nil
	}

	ranked := make([]Assignment, len(assignments))
	copy(ranked, assignments)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.After(b.StartDate)
		}
		switch {
		case a.EndDate == nil && b.EndDate == nil:
			return false
		case a.EndDate == nil:
			return false
		case b.EndDate == nil:
			return true
		default:
			return a.EndDate.Before(*b.EndDate)
		}
	})

	return &ranked[0]
}
