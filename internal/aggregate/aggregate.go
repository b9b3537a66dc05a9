// Package aggregate turns annotated postings into weekly cumulative opening
// curves, one per academic year.
package aggregate

import (
	"sort"
	"strings"

	"joetracker-engine/internal/domain"
)

// Result is the output of one aggregation pass.
type Result struct {
	Series  map[int]domain.WeeklySeries
	Skipped int // records dropped for a missing date
}

// Years returns the academic years present in r, ascending.
func (r Result) Years() []int {
	years := make([]int, 0, len(r.Series))
	for y := range r.Series {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

type yearBucket struct {
	postings int
	byWeek   map[int]int
}

// Aggregate groups postings by academic year and builds the cumulative
// opening series over the ISO week window. Records outside the window still
// count toward Postings but not toward Cumulative or Total.
func Aggregate(records []domain.Posting) Result {
	res := Result{Series: map[int]domain.WeeklySeries{}}

	buckets := map[int]*yearBucket{}
	for _, rec := range records {
		if rec.DateActive == nil || rec.DateActive.IsZero() {
			res.Skipped++
			continue
		}
		d := *rec.DateActive
		year := AcademicYear(d)

		b, ok := buckets[year]
		if !ok {
			b = &yearBucket{byWeek: map[int]int{}}
			buckets[year] = b
		}
		b.postings++
		b.byWeek[ISOWeek(d)] += rec.OpeningCount
	}

	for year, b := range buckets {
		res.Series[year] = cumulate(b)
	}
	return res
}

func cumulate(b *yearBucket) domain.WeeklySeries {
	weeks := WindowWeeks()
	cum := make([]int, 0, len(weeks))
	total := 0
	for _, w := range weeks {
		total += b.byWeek[w]
		cum = append(cum, total)
	}
	return domain.WeeklySeries{
		Weeks:      weeks,
		Cumulative: cum,
		Total:      total,
		Postings:   b.postings,
	}
}

// FilterSection keeps records whose section contains filter, ignoring case.
// An empty filter keeps everything.
func FilterSection(records []domain.Posting, filter string) []domain.Posting {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return records
	}
	out := make([]domain.Posting, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Section), f) {
			out = append(out, rec)
		}
	}
	return out
}

func AggregateSection(records []domain.Posting, filter string) Result {
	return Aggregate(FilterSection(records, filter))
}
