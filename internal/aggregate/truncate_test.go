package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"joetracker-engine/internal/domain"
)

func series(weeks, cum []int) domain.WeeklySeries {
	total := 0
	if len(cum) > 0 {
		total = cum[len(cum)-1]
	}
	return domain.WeeklySeries{Weeks: weeks, Cumulative: cum, Total: total, Postings: 9}
}

func TestTruncateAtLastIncrease(t *testing.T) {
	tests := []struct {
		name     string
		in       []int
		wantCum  []int
		wantWeek []int
	}{
		{"trailing flat", []int{0, 1, 3, 3, 3}, []int{0, 1, 3}, []int{30, 31, 32}},
		{"increase at end", []int{0, 2, 2, 5}, []int{0, 2, 2, 5}, []int{30, 31, 32, 33}},
		{"first only", []int{4, 4, 4}, []int{4}, []int{30}},
		{"increase only in week 30", []int{2, 2, 2, 2, 2, 2}, []int{2}, []int{30}},
		{"never increases", []int{0, 0, 0}, []int{0, 0, 0}, []int{30, 31, 32}},
		{"empty", []int{}, []int{}, []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			weeks := make([]int, len(tc.in))
			for i := range weeks {
				weeks[i] = WindowStart + i
			}
			in := series(weeks, tc.in)
			got := TruncateAtLastIncrease(in)

			assert.Equal(t, tc.wantCum, got.Cumulative)
			assert.Equal(t, tc.wantWeek, got.Weeks)
			assert.Equal(t, in.Total, got.Total)
			assert.Equal(t, 9, got.Postings)
		})
	}
}

func TestTruncateAtLastIncrease_DoesNotAlias(t *testing.T) {
	in := series([]int{30, 31, 32}, []int{1, 2, 2})
	got := TruncateAtLastIncrease(in)
	got.Cumulative[0] = 99
	assert.Equal(t, 1, in.Cumulative[0])
}

func TestCumulativeAt(t *testing.T) {
	s := series([]int{30, 31, 32, 33}, []int{0, 2, 5, 5})
	assert.Equal(t, 0, CumulativeAt(s, 12))
	assert.Equal(t, 0, CumulativeAt(s, 30))
	assert.Equal(t, 2, CumulativeAt(s, 31))
	assert.Equal(t, 5, CumulativeAt(s, 32))
	assert.Equal(t, 5, CumulativeAt(s, 57))

	short := TruncateAtLastIncrease(series([]int{30, 31, 32}, []int{1, 3, 3}))
	assert.Equal(t, 3, CumulativeAt(short, 45))
}
