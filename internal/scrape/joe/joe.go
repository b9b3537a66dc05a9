// Package joe downloads spreadsheet exports of the job board's listings,
// one file per academic year and section.
package joe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"joetracker-engine/internal/scrape/types"
	"joetracker-engine/internal/scrape/util"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// xlsx files are zip archives.
var zipMagic = []byte("PK\x03\x04")

type Config struct {
	BaseURL      string // https://www.aeaweb.org
	ListingsPath string // /joe/listings.php
	ExportPath   string // /joe/resultset_xls_output.php
	UserAgent    string
	Years        []int
	Sections     []Section
	OutDir       string
	Timeout      time.Duration
}

// Section is a job-board section id and the name used in file names.
type Section struct {
	ID   string
	Name string
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	robots  *util.RobotsChecker // nil skips robots.txt
}

func New(cfg Config, limiter *util.HostLimiter, robots *util.RobotsChecker) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if limiter == nil {
		limiter = util.NewHostLimiter(1, 1)
	}
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		robots:  robots,
	}
}

func (s *Scraper) Name() string { return "joe" }

// PeriodLabel is the board's name for the posting period of academic year y.
func PeriodLabel(year int) string {
	return fmt.Sprintf("August 1, %d - January 31, %d", year, year+1)
}

// FileName is where the export for (year, section) is stored.
func FileName(year int, section string) string {
	return fmt.Sprintf("joe_%d_%s.xlsx", year, section)
}

type job struct {
	year    int
	section Section
}

// Fetch downloads every configured (year, section) pair. A failed download
// is logged and counted; Fetch only errors when every download failed.
func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Source: s.Name()}
	if err := os.MkdirAll(s.cfg.OutDir, 0o755); err != nil {
		return res, err
	}

	var jobs []job
	for _, y := range s.cfg.Years {
		for _, sec := range s.cfg.Sections {
			jobs = append(jobs, job{year: y, section: sec})
		}
	}
	if len(jobs) == 0 {
		return res, nil
	}

	files := make([]string, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, j := range jobs {
		g.Go(func() error {
			path, err := s.download(gctx, j)
			if err != nil {
				log.Printf("[fetch:joe] year=%d section=%s err=%v", j.year, j.section.Name, err)
				errs[i] = err
				return nil // best-effort: don't cancel siblings
			}
			log.Printf("[fetch:joe] year=%d section=%s file=%s", j.year, j.section.Name, filepath.Base(path))
			files[i] = path
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	for i := range jobs {
		if errs[i] != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		res.Files = append(res.Files, files[i])
	}
	if len(res.Files) == 0 && firstErr != nil {
		return res, fmt.Errorf("joe: all %d downloads failed: %w", res.Failed, firstErr)
	}
	return res, nil
}

func (s *Scraper) listingsURL(j job) string {
	q := url.Values{}
	q.Set("section", j.section.ID)
	q.Set("period", PeriodLabel(j.year))
	return strings.TrimRight(s.cfg.BaseURL, "/") + s.cfg.ListingsPath + "?" + q.Encode()
}

func (s *Scraper) fallbackExportURL(j job) string {
	q := url.Values{}
	q.Set("section", j.section.ID)
	q.Set("period", PeriodLabel(j.year))
	return strings.TrimRight(s.cfg.BaseURL, "/") + s.cfg.ExportPath + "?" + q.Encode()
}

func (s *Scraper) download(ctx context.Context, j job) (string, error) {
	pageURL := s.listingsURL(j)

	exportURL, err := s.findExportLink(ctx, pageURL)
	if err != nil {
		log.Printf("[fetch:joe] listings page unavailable, using direct export: %v", err)
	}
	if exportURL == "" {
		exportURL = s.fallbackExportURL(j)
	}

	body, err := s.get(ctx, exportURL)
	if err != nil {
		return "", err
	}
	if !bytes.HasPrefix(body, zipMagic) {
		return "", fmt.Errorf("export %s is not a spreadsheet (%d bytes)", exportURL, len(body))
	}

	dst := filepath.Join(s.cfg.OutDir, FileName(j.year, j.section.Name))
	if err := writeAtomic(dst, body); err != nil {
		return "", err
	}
	return dst, nil
}

// findExportLink returns the absolute spreadsheet export link on the
// listings page, or "" when the page has none.
func (s *Scraper) findExportLink(ctx context.Context, pageURL string) (string, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse listings html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		low := strings.ToLower(href)
		if !strings.Contains(low, "resultset_xls_output.php") && !strings.Contains(low, "resultset_output.php?mode=xls") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		found = base.ResolveReference(ref).String()
		return false
	})
	return found, nil
}

func (s *Scraper) get(ctx context.Context, raw string) ([]byte, error) {
	if s.robots != nil {
		ok, delay, err := s.robots.CanFetch(ctx, raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", raw, ErrDisallowed)
		}
		s.limiter.SlowDown(raw, delay)
	}
	if err := s.limiter.WaitURL(ctx, raw); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", raw, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("get %s: status %d", raw, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
