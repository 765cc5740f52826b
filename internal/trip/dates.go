// README: Date normalization chain: literal formats, free-text phrases, oracle fallback.
package trip

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"atlas/internal/ai"
)

// ErrInvalidDate is returned when no step of the chain could resolve the
// expression. Callers must not write it into a Context and should re-prompt.
var ErrInvalidDate = errors.New("unrecognized date expression")

// literalFormats is the closed list of common literal layouts, tried in order.
var literalFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"2006.01.02",
	"02.01.2006",
	"01.02.2006",
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Season starts (month, day), northern hemisphere.
var seasonStarts = map[string][2]int{
	"spring": {3, 20},
	"summer": {6, 21},
	"autumn": {9, 22},
	"fall":   {9, 22},
	"winter": {12, 21},
}

var inRelativeRe = regexp.MustCompile(`^in (\d+) (day|days|week|weeks|month|months)$`)

// DateNormalizer resolves arbitrary date expressions to canonical YYYY-MM-DD.
// The oracle is consulted only after the deterministic steps fail; it may be
// nil, in which case the chain ends early.
type DateNormalizer struct {
	oracle ai.LLMProvider
}

func NewDateNormalizer(oracle ai.LLMProvider) *DateNormalizer {
	return &DateNormalizer{oracle: oracle}
}

// Normalize resolves raw against reference. First success wins:
// exact literal formats, then the free-text parser, then the oracle.
// For relative or year-less phrases the result is never before reference;
// past dates roll forward a year rather than silently booking "last year".
func (n *DateNormalizer) Normalize(ctx context.Context, raw string, reference time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDate
	}

	for _, layout := range literalFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	if t, ok := parseFreeform(raw, reference); ok {
		return t.Format(DateLayout), nil
	}

	if n.oracle != nil {
		reply, err := n.oracle.NormalizeDate(ctx, raw, reference)
		if err == nil && reply != "invalid" {
			if t, perr := time.Parse(DateLayout, strings.TrimSpace(reply)); perr == nil {
				return t.Format(DateLayout), nil
			}
		}
	}

	return "", ErrInvalidDate
}

// ClampProviderDate bounds a date for provider queries that reject far-future
// input: anything more than 365 days past reference becomes reference+30d.
// The stored context value is never altered, only the outbound query.
func ClampProviderDate(date string, reference time.Time) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	if t.After(reference.AddDate(1, 0, 0)) {
		return reference.AddDate(0, 0, 30).Format(DateLayout)
	}
	return date
}

var numericDateRe = regexp.MustCompile(`\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)

// LooksLikeDate reports whether the utterance contains a month token or a
// numeric date and is therefore worth routing through the normalizer before
// the oracle guesses which slot it fills.
func LooksLikeDate(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return numericDateRe.MatchString(s)
}

// parseFreeform handles relative terms, weekday phrases, seasons, and
// month-day expressions without a year.
func parseFreeform(raw string, reference time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "on ")
	s = strings.TrimPrefix(s, "departing ")
	s = strings.TrimPrefix(s, "leaving ")
	s = strings.TrimSpace(s)

	today := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, time.UTC)

	// A literal date embedded in a longer phrase ("departing 2025-09-10").
	for _, f := range strings.Fields(s) {
		for _, layout := range literalFormats {
			if t, err := time.Parse(layout, f); err == nil {
				return t, true
			}
		}
	}

	switch s {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "day after tomorrow":
		return today.AddDate(0, 0, 2), true
	case "next week":
		return today.AddDate(0, 0, 7), true
	case "next month":
		return today.AddDate(0, 1, 0), true
	case "next year":
		return today.AddDate(1, 0, 0), true
	}

	if m := inRelativeRe.FindStringSubmatch(s); m != nil {
		nUnits, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "day"):
			return today.AddDate(0, 0, nUnits), true
		case strings.HasPrefix(m[2], "week"):
			return today.AddDate(0, 0, 7*nUnits), true
		default:
			return today.AddDate(0, nUnits, 0), true
		}
	}

	// Weekday phrases: "friday", "next friday", "this saturday".
	wdPhrase := strings.TrimPrefix(strings.TrimPrefix(s, "next "), "this ")
	if wd, ok := weekdaysByName[wdPhrase]; ok {
		days := (int(wd) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), true
	}

	// Season phrases: "summer", "end of summer", "start of winter".
	if t, ok := parseSeason(s, today); ok {
		return t, true
	}

	// Month-day phrases: "28 aug", "aug 28", "28th august", "august 28 2026".
	if t, ok := parseMonthDay(s, today); ok {
		return t, true
	}

	return time.Time{}, false
}

func parseSeason(s string, today time.Time) (time.Time, bool) {
	atEnd := false
	switch {
	case strings.HasPrefix(s, "end of "):
		s, atEnd = strings.TrimPrefix(s, "end of "), true
	case strings.HasPrefix(s, "late "):
		s, atEnd = strings.TrimPrefix(s, "late "), true
	case strings.HasPrefix(s, "start of "):
		s = strings.TrimPrefix(s, "start of ")
	case strings.HasPrefix(s, "beginning of "):
		s = strings.TrimPrefix(s, "beginning of ")
	case strings.HasPrefix(s, "early "):
		s = strings.TrimPrefix(s, "early ")
	}

	md, ok := seasonStarts[s]
	if !ok {
		return time.Time{}, false
	}
	t := time.Date(today.Year(), time.Month(md[0]), md[1], 0, 0, 0, 0, time.UTC)
	if atEnd {
		// End of a season is roughly the start of the next, less a week.
		t = t.AddDate(0, 3, -7)
	}
	if t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

var dayOrdinalRe = regexp.MustCompile(`^(\d{1,2})(st|nd|rd|th)?$`)

func parseMonthDay(s string, today time.Time) (time.Time, bool) {
	fields := strings.Fields(strings.NewReplacer(",", " ", "of", " ").Replace(s))
	var (
		month time.Month
		day   int
		year  int
	)
	for _, f := range fields {
		if m, ok := monthsByName[f]; ok {
			month = m
			continue
		}
		if m := dayOrdinalRe.FindStringSubmatch(f); m != nil {
			v, _ := strconv.Atoi(m[1])
			if v >= 1 && v <= 31 && day == 0 {
				day = v
				continue
			}
		}
		if len(f) == 4 {
			if v, err := strconv.Atoi(f); err == nil && v >= today.Year() {
				year = v
				continue
			}
		}
	}
	if month == 0 {
		return time.Time{}, false
	}
	if day == 0 {
		day = 1
	}

	if year != 0 {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}
	t := time.Date(today.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Before(today) {
		// Year-less dates in the past roll forward to the next occurrence.
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

// CalculateReturnDate derives the return date from a canonical departure date
// and a day count.
func CalculateReturnDate(departure string, durationDays int) (string, error) {
	dep, err := time.Parse(DateLayout, departure)
	if err != nil {
		return "", fmt.Errorf("invalid departure date %q: %w", departure, err)
	}
	return dep.AddDate(0, 0, durationDays).Format(DateLayout), nil
}
