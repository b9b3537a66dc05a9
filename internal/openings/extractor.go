// Package openings estimates how many hireable openings a posting represents.
package openings

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxOpenings caps a single posting so one odd match cannot inflate totals.
	MaxOpenings = 10
	// BodyScanLimit is how many characters of the body text are searched.
	BodyScanLimit = 1000
)

// Rule is one entry of an ordered rule set. Value is the fixed count the rule
// implies; a zero Value means the count is read from the first capture group.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Value   int
}

func (r Rule) resolve(text string) (count int, ok bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if r.Value > 0 {
		return r.Value, true
	}
	if len(m) < 2 {
		return 1, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1, true
	}
	return n, true
}

func rule(name, pattern string, value int) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern), Value: value}
}

// TitleRules are tried against the lowercased title, first match wins.
var TitleRules = []Rule{
	rule("paren_positions", `\((\d+) positions?\)`, 0),
	rule("n_tenure_track", `(\d+) tenure[- ]?track position`, 0),
	rule("n_positions", `(\d+) position`, 0),
	rule("word_two", `\btwo\b`, 2),
	rule("word_three", `\bthree\b`, 3),
	rule("word_four", `\bfour\b`, 4),
	rule("word_five", `\bfive\b`, 5),
	rule("word_six", `\bsix\b`, 6),
	rule("word_several", `\bseveral\b`, 3),
	rule("word_multiple", `\bmultiple\b`, 2),
}

// BodyRules are tried against the first BodyScanLimit characters of the
// lowercased body when the title left the count at 1.
var BodyRules = []Rule{
	rule("we_have_n", `we (?:are|have) (\d+) (?:openings|positions|vacancies)`, 0),
	rule("n_tenure_track", `(\d+) tenure[- ]?track positions?`, 0),
	rule("hiring_n", `hiring (\d+) (?:assistant|associate|full)`, 0),
	rule("invites_n", `invites applications for (\d+)`, 0),
	rule("we_seek_n", `we seek (\d+)`, 0),
	rule("recruiting_n", `recruiting (\d+)`, 0),
	rule("we_have_two", `we (?:are|have) two`, 2),
	rule("we_have_three", `we (?:are|have) three`, 3),
	rule("we_have_four", `we (?:are|have) four`, 4),
	rule("we_have_five", `we (?:are|have) five`, 5),
}

// Count returns the estimated number of openings, always within [1, MaxOpenings].
func Count(title, body string) int {
	n, _ := Explain(title, body)
	return n
}

// Explain is Count plus the name of the rule that decided it ("" for the default).
func Explain(title, body string) (count int, ruleName string) {
	count = 1

	if n, name, ok := firstMatch(TitleRules, strings.ToLower(title)); ok {
		count, ruleName = n, name
	}

	if count == 1 {
		if n, name, ok := firstMatch(BodyRules, head(strings.ToLower(body), BodyScanLimit)); ok {
			count, ruleName = n, name
		}
	}

	if count > MaxOpenings {
		count = MaxOpenings
	}
	if count < 1 {
		count = 1
	}
	return count, ruleName
}

func firstMatch(rules []Rule, text string) (int, string, bool) {
	if text == "" {
		return 0, "", false
	}
	for _, r := range rules {
		if n, ok := r.resolve(text); ok {
			return n, r.Name, true
		}
	}
	return 0, "", false
}

// head returns the first n characters (not bytes) of s.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
