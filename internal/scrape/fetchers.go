// Package scrape builds the configured fetchers.
package scrape

import (
	"time"

	"joetracker-engine/internal/aggregate"
	"joetracker-engine/internal/config"
	"joetracker-engine/internal/scrape/joe"
	"joetracker-engine/internal/scrape/types"
	"joetracker-engine/internal/scrape/util"
)

// Fetchers returns the fetchers enabled in cfg. Without configured years
// only the academic year containing now is fetched.
func Fetchers(cfg config.Config, now time.Time) []types.Fetcher {
	if !cfg.Fetch.Enabled {
		return nil
	}

	years := cfg.Fetch.Years
	if len(years) == 0 {
		years = []int{aggregate.AcademicYear(now)}
	}
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second

	limiter := util.NewHostLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst)
	var robots *util.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = util.NewRobotsChecker(cfg.Fetch.UserAgent, timeout)
	}

	j := joe.New(joe.Config{
		BaseURL:      cfg.Fetch.BaseURL,
		ListingsPath: cfg.Fetch.ListingsPath,
		ExportPath:   cfg.Fetch.ExportPath,
		UserAgent:    cfg.Fetch.UserAgent,
		Years:        years,
		Sections:     MapJOESections(cfg.Fetch.Sections),
		OutDir:       cfg.ScrapedDir(),
		Timeout:      timeout,
	}, limiter, robots)

	return []types.Fetcher{j}
}
