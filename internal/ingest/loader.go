package ingest

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"joetracker-engine/internal/domain"
)

// ScrapedDir is where the downloader drops exports inside the data dir.
const ScrapedDir = "scraped"

const readConcurrency = 4

// Batch is the result of loading a directory.
type Batch struct {
	Postings []domain.Posting
	Files    []FileStats
	Failed   []string
}

// ListFiles returns the supported exports in dir and dir/scraped, sorted.
func ListFiles(dir string) ([]string, error) {
	var files []string
	for _, d := range []string{dir, filepath.Join(dir, ScrapedDir)} {
		entries, err := os.ReadDir(d)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
				continue
			}
			if Supported(name) {
				files = append(files, filepath.Join(d, name))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir reads every export in dir concurrently. A file that fails to read
// is logged and listed in Failed; the rest still load. Postings are ordered
// by file name, then row.
func LoadDir(ctx context.Context, dir string) (Batch, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return Batch{}, err
	}

	type fileResult struct {
		postings []domain.Posting
		stats    FileStats
		err      error
	}
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, st, err := ReadFile(path)
			results[i] = fileResult{postings: p, stats: st, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	var b Batch
	for i, r := range results {
		if r.err != nil {
			log.Printf("[ingest] file=%s err=%v", filepath.Base(files[i]), r.err)
			b.Failed = append(b.Failed, files[i])
			continue
		}
		log.Printf("[ingest] file=%s sheets=%d rows=%d postings=%d missing_dates=%d untitled=%d",
			filepath.Base(files[i]), r.stats.Sheets, r.stats.Rows, r.stats.Postings, r.stats.MissingDates, r.stats.Untitled)
		b.Files = append(b.Files, r.stats)
		b.Postings = append(b.Postings, r.postings...)
	}
	return b, nil
}
