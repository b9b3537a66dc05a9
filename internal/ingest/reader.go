// Package ingest reads job-board spreadsheet exports into annotated postings.
package ingest

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"joetracker-engine/internal/domain"
	"joetracker-engine/internal/openings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
)

// FileStats summarizes one file read.
type FileStats struct {
	Path         string `json:"path"`
	Sheets       int    `json:"sheets"`
	Rows         int    `json:"rows"`
	Postings     int    `json:"postings"`
	MissingDates int    `json:"missing_dates"`
	Untitled     int    `json:"untitled"` // kept with an empty title
}

// Supported reports whether ReadFile understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// ReadFile parses one export. Empty rows are dropped; rows without a title
// or with an unreadable date are kept and counted in FileStats.
func ReadFile(path string) ([]domain.Posting, FileStats, error) {
	st := FileStats{Path: path}

	var sheets [][][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		sheets, err = readXLSX(path)
	case ".csv":
		var rows [][]string
		rows, err = readCSV(path)
		sheets = [][][]string{rows}
	default:
		return nil, st, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, st, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var out []domain.Posting
	var colErr error
	for i, rows := range sheets {
		if len(rows) == 0 {
			continue
		}
		cols, err := mapColumns(rows[0])
		if err != nil {
			colErr = err
			log.Printf("[ingest] file=%s sheet=%d skipped err=%v", filepath.Base(path), i, err)
			continue
		}
		st.Sheets++
		for _, row := range rows[1:] {
			st.Rows++
			p, ok := toPosting(cols, row)
			if !ok {
				continue
			}
			p.SourceFile = filepath.Base(path)
			if p.DateActive == nil {
				st.MissingDates++
			}
			if p.Title == "" {
				st.Untitled++
			}
			out = append(out, p)
		}
	}
	if st.Sheets == 0 && colErr != nil {
		return nil, st, fmt.Errorf("%s: %w", filepath.Base(path), colErr)
	}

	st.Postings = len(out)
	return out, st, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// toPosting maps one data row. Only rows with no content at all are
// dropped; an untitled listing still counts as one opening unless its body
// says otherwise.
func toPosting(cols columns, row []string) (domain.Posting, bool) {
	if blankRow(row) {
		return domain.Posting{}, false
	}
	title := CleanText(cols.get(row, fieldTitle))
	body := CleanText(StripMarkup(cols.get(row, fieldBody)))

	p := domain.Posting{
		JPID:        normalizeID(cols.get(row, fieldID)),
		Title:       title,
		Body:        body,
		Section:     CleanText(cols.get(row, fieldSection)),
		Institution: CleanText(cols.get(row, fieldInstitution)),
		DateActive:  ParseDateActive(cols.get(row, fieldDate)),
	}
	p.OpeningCount = openings.Count(p.Title, p.Body)
	p.SourceID = SourceID(p)
	return p, true
}

// Numeric ids sometimes come back from spreadsheets as "12345.0".
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".0")
}

// SourceID is the stable identity used to dedupe postings that appear in
// more than one export.
func SourceID(p domain.Posting) string {
	if p.JPID != "" {
		return "joe:" + p.JPID
	}
	date := ""
	if p.DateActive != nil {
		date = p.DateActive.Format("2006-01-02")
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(
		[]string{p.Section, p.Title, p.Institution, date}, "\x1f"))))
	return "sha256:" + hex.EncodeToString(sum[:16])
}

func readXLSX(path string) ([][][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets [][][]string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, rows)
	}
	return sheets, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
