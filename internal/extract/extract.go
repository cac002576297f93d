// Package extract finds employee names in an arbitrary spreadsheet layout.
//
// Layouts are recognised by an ordered list of strategies; the first one
// that matches the header row decides which columns are read.
package extract

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minNameLength = 2
	maxNameLength = 100
)

var sentinels = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"nan":  true,
}

// SkippedRow is a non-empty data row that produced no candidate.
// Row is the 1-based sheet row number, the header being row 1.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type Result struct {
	Candidates      []string     `json:"candidates"`
	DetectedColumns []string     `json:"detected_columns"`
	TotalRows       int          `json:"total_rows"`
	Skipped         []SkippedRow `json:"skipped,omitempty"`
}

// plan says which columns a strategy reads and how a row becomes a name.
// pick returns either a name or a non-empty skip reason.
type plan struct {
	detected []string
	pick     func(Row) (name string, reason string)
}

type strategy func(headers []string) (plan, bool)

var strategies = []strategy{
	splitNameColumns,
	combinedNameColumn,
	genericNameColumn,
	firstColumnFallback,
}

// Extract never fails: a sheet with nothing usable yields an empty result.
func Extract(t Table) Result {
	headers := normalizeHeaders(t.Header)

	var p plan
	for _, s := range strategies {
		if got, ok := s(headers); ok {
			p = got
			break
		}
	}

	res := Result{
		Candidates:      []string{},
		DetectedColumns: p.detected,
		TotalRows:       len(t.Rows),
	}

	seen := make(map[string]struct{})
	for i, row := range t.Rows {
		if row.blank() {
			continue
		}
		name, reason := p.pick(row)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedRow{Row: i + 2, Reason: reason})
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		res.Candidates = append(res.Candidates, name)
	}
	sort.Strings(res.Candidates)

	return res
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}

type columnRoles struct {
	first, last, full int
}

// classify assigns first, last and combined roles. A header can take only
// one role and the last qualifying header wins.
func classify(headers []string) columnRoles {
	roles := columnRoles{first: -1, last: -1, full: -1}
	for i, h := range headers {
		if !strings.Contains(h, "name") {
			continue
		}
		switch {
		case strings.Contains(h, "first"):
			roles.first = i
		case strings.Contains(h, "last"):
			roles.last = i
		case containsAny(h, "full", "employee", "caregiver", "staff"):
			roles.full = i
		}
	}
	return roles
}

func splitNameColumns(headers []string) (plan, bool) {
	roles := classify(headers)
	if roles.first < 0 || roles.last < 0 {
		return plan{}, false
	}

	return plan{
		detected: []string{
			fmt.Sprintf("First Name (Column %d)", roles.first+1),
			fmt.Sprintf("Last Name (Column %d)", roles.last+1),
		},
		pick: func(row Row) (string, string) {
			first := row.At(roles.first).String()
			last := row.At(roles.last).String()
			switch {
			case isSentinel(first) && isSentinel(last):
				return "", "missing first and last name"
			case isSentinel(first):
				return "", "missing first name"
			case isSentinel(last):
				return "", "missing last name"
			}
			return first + " " + last, ""
		},
	}, true
}

func combinedNameColumn(headers []string) (plan, bool) {
	roles := classify(headers)
	if roles.full < 0 {
		return plan{}, false
	}
	return singleColumn(roles.full, fmt.Sprintf("Full Name (Column %d)", roles.full+1)), true
}

func genericNameColumn(headers []string) (plan, bool) {
	for i, h := range headers {
		if containsAny(h, "name", "caregiver", "employee", "staff") {
			return singleColumn(i, fmt.Sprintf("Name (Column %d: %s)", i+1, h)), true
		}
	}
	return plan{}, false
}

func firstColumnFallback([]string) (plan, bool) {
	return singleColumn(0, "First Column (assumed names)"), true
}

func singleColumn(col int, label string) plan {
	return plan{
		detected: []string{label},
		pick: func(row Row) (string, string) {
			value := row.At(col).String()
			if isSentinel(value) {
				return "", "empty name"
			}
			if !IsCandidateName(value) {
				return "", fmt.Sprintf("%q does not look like a name", value)
			}
			return value, ""
		},
	}
}

// IsCandidateName applies the single-column name filter to a trimmed value.
func IsCandidateName(s string) bool {
	n := utf8.RuneCountInString(s)
	if n <= minNameLength || n >= maxNameLength {
		return false
	}
	if isSentinel(s) {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func isSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
