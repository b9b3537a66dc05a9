package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

const (
	minYear = 1990
	maxYear = 2100
)

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.DataDir = strings.TrimSpace(out.App.DataDir)
	out.App.DBFile = strings.TrimSpace(out.App.DBFile)
	out.Fetch.BaseURL = strings.TrimRight(strings.TrimSpace(out.Fetch.BaseURL), "/")
	out.Fetch.UserAgent = strings.TrimSpace(out.Fetch.UserAgent)
	out.Site.OutDir = strings.TrimSpace(out.Site.OutDir)
	out.Site.Title = strings.TrimSpace(out.Site.Title)

	out.Sections = normalizeSections(out.Sections)
	out.Fetch.Sections = normalizeFetchSections(out.Fetch.Sections)
	out.Fetch.Years = normalizeYears(out.Fetch.Years)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}
	if out.App.DBFile == "" {
		res.addErr("app.db_file is required")
	}

	if len(out.Sections) == 0 {
		res.addErr("sections must list at least one section")
	}
	seen := map[string]bool{}
	for i, s := range out.Sections {
		if s.Key == "" {
			res.addErr("sections[%d].key is required", i)
			continue
		}
		if seen[s.Key] {
			res.addErr("sections[%d].key %q is duplicated", i, s.Key)
		}
		seen[s.Key] = true
		if s.Label == "" {
			res.addWarn("sections[%d] (%s) has no label", i, s.Key)
		}
	}

	if out.Fetch.Enabled {
		u, err := url.Parse(out.Fetch.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			res.addErr("fetch.base_url must be an http(s) URL when fetch.enabled=true")
		}
		if !strings.HasPrefix(out.Fetch.ExportPath, "/") {
			res.addErr("fetch.export_path must start with /")
		}
		if len(out.Fetch.Sections) == 0 {
			res.addErr("fetch.sections must list at least one section when fetch.enabled=true")
		}
		if len(out.Fetch.Years) == 0 {
			res.addWarn("fetch.years is empty; only the current academic year will be fetched.")
		}
	}
	for _, y := range out.Fetch.Years {
		if y < minYear || y > maxYear {
			res.addErr("fetch.years: %d is out of range %d..%d", y, minYear, maxYear)
		}
	}
	for i, s := range out.Fetch.Sections {
		if s.ID == "" || s.Name == "" {
			res.addErr("fetch.sections[%d] needs both id and name", i)
		}
		if strings.ContainsAny(s.Name, `/\`) {
			res.addErr("fetch.sections[%d].name cannot contain path separators", i)
		}
	}

	if out.Fetch.RequestsPerSecond <= 0 {
		res.addErr("fetch.requests_per_second must be > 0")
	} else if out.Fetch.RequestsPerSecond > 2 {
		res.addWarn("fetch.requests_per_second is high (%.1f) for a public site.", out.Fetch.RequestsPerSecond)
	}
	if out.Fetch.Burst < 1 {
		res.addErr("fetch.burst must be >= 1")
	}
	if out.Fetch.TimeoutSeconds <= 0 {
		res.addErr("fetch.timeout_seconds must be > 0")
	}
	if !out.Fetch.RespectRobots {
		res.addWarn("fetch.respect_robots is false; robots.txt will be ignored.")
	}

	if out.Site.OutDir == "" {
		res.addErr("site.out_dir is required")
	}
	if out.Cache.TTLSeconds < 0 {
		res.addErr("cache.ttl_seconds must be >= 0")
	}

	return out, res
}

func normalizeSections(in []SectionConfig) []SectionConfig {
	out := make([]SectionConfig, 0, len(in))
	for _, s := range in {
		s.Key = strings.ToLower(strings.TrimSpace(s.Key))
		s.Label = strings.TrimSpace(s.Label)
		s.Filter = strings.TrimSpace(s.Filter)
		if s.Key == "" && s.Label == "" && s.Filter == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeFetchSections(in []FetchSection) []FetchSection {
	seen := map[string]bool{}
	out := make([]FetchSection, 0, len(in))
	for _, s := range in {
		s.ID = strings.TrimSpace(s.ID)
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		if s.ID == "" && s.Name == "" {
			continue
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

func normalizeYears(in []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, y := range in {
		if seen[y] {
			continue
		}
		seen[y] = true
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
