// Package report assembles the section-by-year dataset served by the
// dashboard and written by the site generator.
package report

import (
	"sort"
	"strconv"
	"time"

	"joetracker-engine/internal/aggregate"
	"joetracker-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// Build aggregates postings once per section. The series of the academic
// year containing now is cut at its last increase in every section.
func Build(postings []domain.Posting, sections []domain.Section, now time.Time) domain.Dataset {
	current := aggregate.AcademicYear(now)

	ds := domain.Dataset{
		Metadata: domain.Metadata{
			LastUpdate:    now.UTC(),
			TotalPostings: len(postings),
			DateRange:     dateRange(postings),
		},
		SectionLabels: make(map[string]string, len(sections)),
		Sections:      make(map[string]map[string]domain.WeeklySeries, len(sections)),
	}

	for _, sec := range sections {
		res := aggregate.AggregateSection(postings, sec.Filter)
		years := make(map[string]domain.WeeklySeries, len(res.Series))
		for year, s := range res.Series {
			if year == current {
				s = aggregate.TruncateAtLastIncrease(s)
			}
			years[strconv.Itoa(year)] = s
		}
		ds.Sections[sec.Key] = years
		ds.SectionLabels[sec.Key] = sec.Label
	}
	return ds
}

func dateRange(postings []domain.Posting) domain.DateRange {
	var lo, hi *time.Time
	for _, p := range postings {
		if p.DateActive == nil {
			continue
		}
		if lo == nil || p.DateActive.Before(*lo) {
			lo = p.DateActive
		}
		if hi == nil || p.DateActive.After(*hi) {
			hi = p.DateActive
		}
	}

	var r domain.DateRange
	if lo != nil {
		s := lo.Format(dateLayout)
		r.Start = &s
	}
	if hi != nil {
		s := hi.Format(dateLayout)
		r.End = &s
	}
	return r
}

// Years returns the academic years of one section, ascending.
func Years(ds domain.Dataset, section string) []int {
	var years []int
	for k := range ds.Sections[section] {
		if y, err := strconv.Atoi(k); err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// YearTotal is one bar of the year-over-year comparison.
type YearTotal struct {
	Year     int `json:"year"`
	Openings int `json:"openings"`
	Total    int `json:"total"`
}

// Comparison reports, for each academic year of a section, the openings
// posted by the given ISO week.
func Comparison(ds domain.Dataset, section string, week int) []YearTotal {
	years := Years(ds, section)
	out := make([]YearTotal, 0, len(years))
	for _, y := range years {
		s := ds.Sections[section][strconv.Itoa(y)]
		out = append(out, YearTotal{
			Year:     y,
			Openings: aggregate.CumulativeAt(s, week),
			Total:    s.Total,
		})
	}
	return out
}

// ComparisonWeek maps a date onto the plotted window. Weeks before the
// window (January through July, and the ISO week 1 that can start in late
// December) compare at its end.
func ComparisonWeek(now time.Time) int {
	w := aggregate.ISOWeek(now)
	if w < aggregate.WindowStart {
		return aggregate.WindowEnd
	}
	return w
}

// MergeCurrentYear keeps the historical years of existing and replaces year
// in every section with the series from fresh. Sections only present in
// fresh are added. Metadata comes from fresh, which is built from every
// stored posting, so TotalPostings matches a full Build of the same table.
func MergeCurrentYear(existing, fresh domain.Dataset, year int) domain.Dataset {
	key := strconv.Itoa(year)

	out := domain.Dataset{
		Metadata:      fresh.Metadata,
		SectionLabels: map[string]string{},
		Sections:      map[string]map[string]domain.WeeklySeries{},
	}
	for k, v := range existing.SectionLabels {
		out.SectionLabels[k] = v
	}
	for k, v := range fresh.SectionLabels {
		out.SectionLabels[k] = v
	}

	for sec, years := range existing.Sections {
		m := make(map[string]domain.WeeklySeries, len(years))
		for y, s := range years {
			if y != key {
				m[y] = s
			}
		}
		out.Sections[sec] = m
	}
	for sec, years := range fresh.Sections {
		s, ok := years[key]
		if !ok {
			continue
		}
		if out.Sections[sec] == nil {
			out.Sections[sec] = map[string]domain.WeeklySeries{}
		}
		out.Sections[sec][key] = s
	}
	return out
}
