package scrape

import (
	"joetracker-engine/internal/config"
	"joetracker-engine/internal/scrape/joe"
)

func MapJOESections(in []config.FetchSection) []joe.Section {
	out := make([]joe.Section, 0, len(in))
	for _, s := range in {
		out = append(out, joe.Section{
			ID:   s.ID,
			Name: s.Name,
		})
	}
	return out
}
