package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// commentPrefix marks instruction lines in templates.
const commentPrefix = "#"

// line is one non-blank, non-comment input line with its 1-based position.
type line struct {
	no   int
	text string
}

// contentLines splits text into lines, dropping blank and comment lines.
func contentLines(text string) []line {
	text = strings.ReplaceAll(StripBOM(text), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []line
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}
		out = append(out, line{no: i + 1, text: raw})
	}
	return out
}

// tokenize splits a single line on delim, honouring double quotes.
// Malformed quoting falls back to a plain split.
func tokenize(s string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rec, err := r.Read()
	if err != nil {
		return strings.Split(s, string(delim))
	}
	return rec
}

// cell returns the trimmed value at idx, or "" when the row is short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// cleanName normalises a person's name to NFC with single spaces.
func cleanName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Month is a calendar month selected for an import.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w %q: use YYYY-MM", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns the first day of the month (UTC midnight).
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last day of the month (UTC midnight).
func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.Last().Day()
}

// Date returns the given day of the month.
func (m Month) Date(day int) time.Time {
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
