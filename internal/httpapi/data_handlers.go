package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"joetracker-engine/internal/aggregate"
	"joetracker-engine/internal/domain"
	"joetracker-engine/internal/report"
	"joetracker-engine/internal/sitegen"
	"joetracker-engine/internal/store"
)

type DataHandler struct {
	Deps
}

// dataset returns the cached dataset for the current table contents.
func (h DataHandler) dataset(ctx context.Context) (domain.Dataset, error) {
	cfg := currentConfig(h.CfgVal)
	now := h.now()

	fp, err := store.Fingerprint(ctx, h.DB)
	if err != nil {
		return domain.Dataset{}, err
	}
	key := fmt.Sprintf("%s|%d", fp, aggregate.AcademicYear(now))

	return h.Datasets.Get(key, func() (domain.Dataset, error) {
		postings, err := store.ListPostings(ctx, h.DB)
		if err != nil {
			return domain.Dataset{}, err
		}
		return report.Build(postings, cfg.DomainSections(), now), nil
	})
}

func (h DataHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such page")
		return
	}
	cfg := currentConfig(h.CfgVal)
	page := sitegen.PageFor(sitegen.Options{
		Title:    cfg.Site.Title,
		Sections: cfg.DomainSections(),
	}, "/api/data")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sitegen.RenderIndex(w, page); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "render_failed", err.Error())
	}
}

func (h DataHandler) Data(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "dataset_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, ds)
}

type sectionInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Years []int  `json:"years"`
}

func (h DataHandler) Sections(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "dataset_failed", err.Error())
		return
	}
	cfg := currentConfig(h.CfgVal)
	out := make([]sectionInfo, 0, len(cfg.Sections))
	for _, s := range cfg.Sections {
		years := report.Years(ds, s.Key)
		if years == nil {
			years = []int{}
		}
		out = append(out, sectionInfo{Key: s.Key, Label: s.Label, Years: years})
	}
	WriteJSON(w, http.StatusOK, out)
}

type seriesResponse struct {
	Section string                         `json:"section"`
	Label   string                         `json:"label"`
	Series  map[string]domain.WeeklySeries `json:"series"`
}

func (h DataHandler) Series(w http.ResponseWriter, r *http.Request) {
	ds, section, ok := h.sectionFromQuery(w, r)
	if !ok {
		return
	}

	want, err := parseYearsParam(r.URL.Query().Get("years"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_years", err.Error())
		return
	}

	all := ds.Sections[section]
	out := make(map[string]domain.WeeklySeries, len(all))
	for y, s := range all {
		if len(want) == 0 || want[y] {
			out[y] = s
		}
	}
	WriteJSON(w, http.StatusOK, seriesResponse{
		Section: section,
		Label:   ds.SectionLabels[section],
		Series:  out,
	})
}

type comparisonResponse struct {
	Section string             `json:"section"`
	Week    int                `json:"week"`
	Years   []report.YearTotal `json:"years"`
}

func (h DataHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	ds, section, ok := h.sectionFromQuery(w, r)
	if !ok {
		return
	}

	week := report.ComparisonWeek(h.now())
	if s := r.URL.Query().Get("week"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > aggregate.WindowEnd {
			WriteError(w, r, http.StatusBadRequest, "invalid_week",
				fmt.Sprintf("week must be 1..%d", aggregate.WindowEnd))
			return
		}
		week = n
	}

	WriteJSON(w, http.StatusOK, comparisonResponse{
		Section: section,
		Week:    week,
		Years:   report.Comparison(ds, section, week),
	})
}

func (h DataHandler) sectionFromQuery(w http.ResponseWriter, r *http.Request) (domain.Dataset, string, bool) {
	section := strings.TrimSpace(r.URL.Query().Get("section"))
	if section == "" {
		if secs := currentConfig(h.CfgVal).Sections; len(secs) > 0 {
			section = secs[0].Key
		}
	}
	ds, err := h.dataset(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "dataset_failed", err.Error())
		return ds, "", false
	}
	if _, ok := ds.Sections[section]; !ok {
		WriteError(w, r, http.StatusNotFound, "unknown_section", fmt.Sprintf("unknown section %q", section))
		return ds, "", false
	}
	return ds, section, true
}

func parseYearsParam(s string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := strconv.Atoi(part); err != nil {
			return nil, fmt.Errorf("bad year %q", part)
		}
		out[part] = true
	}
	return out, nil
}
