package aggregate

import "joetracker-engine/internal/domain"

// TruncateAtLastIncrease drops the trailing flat weeks of a series so an
// in-progress year does not flatline into the future. The cut is made after
// the last index whose running total is strictly greater than the previous
// one. Index 0 compares against zero, so a series whose only increase is in
// its first week keeps just that week. A series that never increases is
// returned unchanged. Total and Postings are kept as they are.
func TruncateAtLastIncrease(s domain.WeeklySeries) domain.WeeklySeries {
	n := len(s.Cumulative)
	if len(s.Weeks) < n {
		n = len(s.Weeks)
	}

	out := s
	for i := n - 1; i >= 0; i-- {
		prev := 0
		if i > 0 {
			prev = s.Cumulative[i-1]
		}
		if s.Cumulative[i] > prev {
			out.Weeks = clone(s.Weeks[:i+1])
			out.Cumulative = clone(s.Cumulative[:i+1])
			return out
		}
	}

	out.Weeks = clone(s.Weeks)
	out.Cumulative = clone(s.Cumulative)
	return out
}

func clone(v []int) []int {
	if v == nil {
		return nil
	}
	out := make([]int, len(v))
	copy(out, v)
	return out
}

// CumulativeAt returns the running total at an ISO week. Weeks before the
// window give 0, weeks after it give the final value.
func CumulativeAt(s domain.WeeklySeries, week int) int {
	v := 0
	for i, w := range s.Weeks {
		if i >= len(s.Cumulative) || w > week {
			break
		}
		v = s.Cumulative[i]
	}
	return v
}
