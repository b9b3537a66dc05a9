package ingest

import (
	"fmt"
	"strings"
)

type field int

const (
	fieldID field = iota
	fieldTitle
	fieldSection
	fieldInstitution
	fieldBody
	fieldDate
)

var headerAliases = map[string]field{
	"jp_id":          fieldID,
	"jp_title":       fieldTitle,
	"jp_section":     fieldSection,
	"jp_institution": fieldInstitution,
	"jp_full_text":   fieldBody,
	"date_active":    fieldDate,
	"date active":    fieldDate,
	"dateactive":     fieldDate,
}

// columns maps each known field to its cell index, -1 when absent.
type columns [6]int

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func mapColumns(header []string) (columns, error) {
	var c columns
	for i := range c {
		c[i] = -1
	}
	for i, h := range header {
		f, ok := headerAliases[normalizeHeader(h)]
		if ok && c[f] < 0 {
			c[f] = i
		}
	}
	if c[fieldTitle] < 0 {
		return c, fmt.Errorf("%w: jp_title", ErrMissingColumn)
	}
	if c[fieldDate] < 0 {
		return c, fmt.Errorf("%w: Date_Active", ErrMissingColumn)
	}
	return c, nil
}

func (c columns) get(row []string, f field) string {
	i := c[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
