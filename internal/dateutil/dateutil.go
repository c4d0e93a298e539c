// Package dateutil parses and formats the heterogeneous date representations
// found in portfolio records: ISO strings, and "DD MMM YYYY" with Indonesian
// or English month names. Parse failures never error; they produce the zero
// time.Time, which sorts last and formats as "-".
package dateutil

import (
	"strconv"
	"strings"
	"time"
)

// monthsByName maps abbreviated and full month names, Indonesian and English,
// to their calendar month. Lookup is case-sensitive.
var monthsByName = map[string]time.Month{
	// Indonesian, abbreviated
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "Mei": time.May, "Jun": time.June,
	"Jul": time.July, "Agu": time.August, "Sep": time.September,
	"Okt": time.October, "Nov": time.November, "Des": time.December,

	// Indonesian, full
	"Januari": time.January, "Februari": time.February, "Maret": time.March,
	"April": time.April, "Juni": time.June, "Juli": time.July,
	"Agustus": time.August, "September": time.September,
	"Oktober": time.October, "November": time.November, "Desember": time.December,

	// English where it differs from the Indonesian spelling
	"May": time.May, "Aug": time.August, "Oct": time.October, "Dec": time.December,
	"January": time.January, "February": time.February, "March": time.March,
	"June": time.June, "July": time.July, "August": time.August,
	"October": time.October, "December": time.December,
}

// displayMonths are the Indonesian abbreviations used for rendering
var displayMonths = [12]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

// isoLayouts are tried in order before the day-month-year form
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse converts a date string into a time.Time. It accepts ISO/RFC3339
// strings and "DD MMM YYYY" / "DD MMMM YYYY" with Indonesian or English
// month names. Anything unparseable yields the zero time.
func Parse(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}

	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}
	}

	month, ok := monthsByName[fields[1]]
	if !ok {
		return time.Time{}
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil || year < 1 {
		return time.Time{}
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDisplay renders a time as "DD MMM YYYY" with Indonesian month
// abbreviations, or "-" for the zero time.
func FormatDisplay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	var b strings.Builder
	if t.Day() < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(t.Day()))
	b.WriteByte(' ')
	b.WriteString(displayMonths[int(t.Month())-1])
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(t.Year()))
	return b.String()
}

// Less orders two instants for display sorting. Unknown (zero) instants
// sort after every known instant.
func Less(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}
