package aggregate

import "time"

// The plotted window of ISO weeks. Weeks past 53 never occur in the data;
// they extend the curve flat into the next calendar year.
const (
	WindowStart = 30
	WindowEnd   = 57
)

// AcademicYearStartMonth opens the academic year: August of Y through July of Y+1 is year Y.
const AcademicYearStartMonth = time.August

func AcademicYear(t time.Time) int {
	if t.Month() >= AcademicYearStartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// InWindow reports whether an ISO week is part of the plotted window.
func InWindow(week int) bool {
	return week >= WindowStart && week <= WindowEnd
}

// WindowWeeks returns WindowStart..WindowEnd in order.
func WindowWeeks() []int {
	weeks := make([]int, 0, WindowEnd-WindowStart+1)
	for w := WindowStart; w <= WindowEnd; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}
