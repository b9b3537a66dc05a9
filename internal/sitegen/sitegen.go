// Package sitegen writes the static dashboard: a data file plus a page
// that charts it in the browser.
package sitegen

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"joetracker-engine/internal/domain"
)

const (
	DataFile  = "joe_data.json"
	IndexFile = "index.html"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html.tmpl"))

// Page is the data behind index.html.
type Page struct {
	Title            string
	DataURL          string
	SourceURL        string
	Sections         []domain.Section
	DefaultSection   string
	DefaultYearCount int
	GeneratedAt      time.Time
}

type Options struct {
	Title     string
	Sections  []domain.Section
	SourceURL string
}

func (o Options) page(dataURL string, now time.Time) Page {
	p := Page{
		Title:            o.Title,
		DataURL:          dataURL,
		SourceURL:        o.SourceURL,
		Sections:         o.Sections,
		DefaultYearCount: 3,
		GeneratedAt:      now,
	}
	if p.Title == "" {
		p.Title = "JOE Market Tracker"
	}
	if p.SourceURL == "" {
		p.SourceURL = "https://www.aeaweb.org/joe/listings"
	}
	for _, s := range o.Sections {
		if s.Key == "all_sections" {
			p.DefaultSection = s.Key
		}
	}
	if p.DefaultSection == "" && len(o.Sections) > 0 {
		p.DefaultSection = o.Sections[0].Key
	}
	return p
}

// PageFor builds the page served next to a data file at dataURL.
func PageFor(opts Options, dataURL string) Page {
	return opts.page(dataURL, time.Now().UTC())
}

func RenderIndex(w io.Writer, p Page) error {
	return indexTmpl.Execute(w, p)
}

// Generate writes joe_data.json and index.html into outDir.
func Generate(outDir string, ds domain.Dataset, opts Options) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	b, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := writeAtomic(filepath.Join(outDir, DataFile), func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}); err != nil {
		return err
	}

	p := opts.page(DataFile, ds.Metadata.LastUpdate)
	if err := writeAtomic(filepath.Join(outDir, IndexFile), func(w io.Writer) error {
		return RenderIndex(w, p)
	}); err != nil {
		return err
	}

	log.Printf("[site] out=%s sections=%d postings=%d", outDir, len(ds.Sections), ds.Metadata.TotalPostings)
	return nil
}

// LoadDataset reads a previously generated data file. ok is false when the
// file does not exist.
func LoadDataset(outDir string) (ds domain.Dataset, ok bool, err error) {
	b, err := os.ReadFile(filepath.Join(outDir, DataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Dataset{}, false, nil
	}
	if err != nil {
		return domain.Dataset{}, false, err
	}
	if err := json.Unmarshal(b, &ds); err != nil {
		return domain.Dataset{}, false, fmt.Errorf("decode %s: %w", DataFile, err)
	}
	return ds, true, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
