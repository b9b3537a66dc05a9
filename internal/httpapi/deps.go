package httpapi

import (
	"database/sql"
	"sync/atomic"
	"time"

	"joetracker-engine/internal/cache"
	"joetracker-engine/internal/config"
	"joetracker-engine/internal/events"
	"joetracker-engine/internal/refresh"
	"joetracker-engine/internal/scrape/types"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Datasets  *cache.Datasets
	Refresher *refresh.Service

	// Builds fetchers from the live config for each refresh.
	Fetchers func(cfg config.Config, now time.Time) []types.Fetcher

	Now func() time.Time // defaults to time.Now
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
