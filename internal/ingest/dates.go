package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Serial day numbers outside this range are read as text dates instead.
// 20000 is 1954-10-03, 80000 is 2119-01-10.
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// ParseDateActive reads a Date_Active cell. Spreadsheet serial numbers and
// textual dates are both accepted. The result is the calendar date at UTC
// midnight, or nil when the value is blank or unparseable.
func ParseDateActive(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= minExcelSerial && f <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return dateOnly(t)
		}
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return nil
	}
	return dateOnly(t)
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
