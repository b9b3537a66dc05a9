// Package refresh pulls new exports, ingests the data dir and invalidates
// the dataset cache. Runs are triggered explicitly.
package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"joetracker-engine/internal/cache"
	"joetracker-engine/internal/events"
	"joetracker-engine/internal/ingest"
	"joetracker-engine/internal/scrape/types"
	"joetracker-engine/internal/store"
)

var ErrAlreadyRunning = errors.New("refresh already running")

const fetchTimeout = 10 * time.Minute

type Status struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
}

type Summary struct {
	RunID       string `json:"run_id"`
	Fetched     int    `json:"fetched"`
	FetchFailed int    `json:"fetch_failed"`
	Files       int    `json:"files"`
	Rows        int    `json:"rows"`
	Postings    int    `json:"postings"`
	Added       int    `json:"added"`
	Skipped     int    `json:"skipped"`
	Untitled    int    `json:"untitled"`
}

type Options struct {
	Fetch    bool            // download before ingesting
	Fetchers []types.Fetcher // overrides Service.Fetchers when set
}

type Service struct {
	DB       *sql.DB
	DataDir  string
	Fetchers []types.Fetcher
	Cache    *cache.Datasets  // optional
	Events   events.Publisher // optional

	running atomic.Bool
	status  atomic.Value // Status
}

func (s *Service) Status() Status {
	if v := s.status.Load(); v != nil {
		return v.(Status)
	}
	return Status{}
}

func (s *Service) update(fn func(*Status)) {
	st := s.Status()
	fn(&st)
	s.status.Store(st)
}

func (s *Service) publish(typ string, data any) {
	if s.Events != nil {
		s.Events.Publish(events.MakeEvent("", typ, data))
	}
}

// RunOnce performs one refresh. Concurrent calls get ErrAlreadyRunning.
func (s *Service) RunOnce(ctx context.Context, opts Options) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	started := time.Now().UTC()
	s.update(func(st *Status) {
		st.Running = true
		st.LastRunAt = started.Format(time.RFC3339)
	})
	s.publish(events.TypeRefreshStarted, map[string]bool{"fetch": opts.Fetch})

	sum, err := s.run(ctx, opts, started)

	s.update(func(st *Status) {
		st.Running = false
		st.LastAdded = sum.Added
		if err != nil {
			st.LastError = err.Error()
			return
		}
		st.LastError = ""
		st.LastOkAt = time.Now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		log.Printf("[refresh] error: %v", err)
		s.publish(events.TypeRefreshFailed, map[string]string{"error": err.Error()})
		return sum, err
	}
	log.Printf("[refresh] ok run=%s files=%d postings=%d added=%d skipped=%d",
		sum.RunID, sum.Files, sum.Postings, sum.Added, sum.Skipped)
	s.publish(events.TypeDataRefreshed, sum)
	return sum, nil
}

func (s *Service) run(ctx context.Context, opts Options, started time.Time) (Summary, error) {
	var sum Summary

	unlock, err := store.LockDataDir(ctx, s.DataDir)
	if err != nil {
		return sum, err
	}
	defer unlock()

	kind := "ingest"
	if opts.Fetch {
		kind = "refresh"
		fetchers := opts.Fetchers
		if fetchers == nil {
			fetchers = s.Fetchers
		}
		sum.Fetched, sum.FetchFailed = fetch(ctx, fetchers)
	}

	batch, err := ingest.LoadDir(ctx, s.DataDir)
	if err != nil {
		return sum, fmt.Errorf("load data dir: %w", err)
	}
	sum.Files = len(batch.Files)
	sum.Postings = len(batch.Postings)
	for _, f := range batch.Files {
		sum.Rows += f.Rows
		sum.Skipped += f.MissingDates
		sum.Untitled += f.Untitled
	}

	sum.Added, err = store.SavePostings(ctx, s.DB, batch.Postings)
	if err != nil {
		return sum, fmt.Errorf("save postings: %w", err)
	}

	run, err := store.RecordRun(ctx, s.DB, store.Run{
		Kind:      kind,
		StartedAt: started,
		Files:     sum.Files,
		Rows:      sum.Rows,
		Added:     sum.Added,
		Skipped:   sum.Skipped,
	})
	if err != nil {
		return sum, err
	}
	sum.RunID = run.ID

	if s.Cache != nil {
		s.Cache.Invalidate()
	}
	return sum, nil
}

// fetch runs every fetcher concurrently. Failures are logged, never fatal.
func fetch(ctx context.Context, fetchers []types.Fetcher) (files, failed int) {
	var g errgroup.Group
	results := make(chan types.ScrapeResult, len(fetchers))

	for _, f := range fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			log.Printf("[fetch:%s] running", f.Name())
			res, err := f.Fetch(fctx)
			if err != nil {
				log.Printf("[fetch:%s] error: %v", f.Name(), err)
			}
			results <- res
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for res := range results {
		files += len(res.Files)
		failed += res.Failed
	}
	return files, failed
}
