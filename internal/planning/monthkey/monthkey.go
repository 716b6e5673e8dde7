// Package monthkey works with normalized "YYYY-MM" month keys. Normalized
// keys sort chronologically as plain strings, so they can be used directly
// as map keys and in lexicographic comparisons.
package monthkey

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	keyPattern    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	legacyPattern = regexp.MustCompile(`^(\d{2})-(\d{4})$`)
)

// Parse validates a month key and returns its normalized form. The legacy
// swapped "MM-YYYY" variant is accepted and normalized on read.
func Parse(key string) (string, error) {
	var yearStr, monthStr string
	if m := keyPattern.FindStringSubmatch(key); m != nil {
		yearStr, monthStr = m[1], m[2]
	} else if m := legacyPattern.FindStringSubmatch(key); m != nil {
		yearStr, monthStr = m[2], m[1]
	} else {
		return "", fmt.Errorf("invalid month key %q", key)
	}

	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month key %q", key)
	}

	return yearStr + "-" + monthStr, nil
}

// Format builds a normalized key from a year and month.
func Format(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// FromTime returns the key of the month containing t.
func FromTime(t time.Time) string {
	return Format(t.Year(), t.Month())
}

// FirstDay returns midnight UTC on the first day of the keyed month.
func FirstDay(key string) (time.Time, error) {
	normalized, err := Parse(key)
	if err != nil {
		return time.Time{}, err
	}
	year, _ := strconv.Atoi(normalized[:4])
	month, _ := strconv.Atoi(normalized[5:])
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// Add shifts a key by n months (n may be negative). Invalid keys yield "".
func Add(key string, n int) string {
	t, err := FirstDay(key)
	if err != nil {
		return ""
	}
	return FromTime(t.AddDate(0, n, 0))
}

// Prev returns the month before key.
func Prev(key string) string { return Add(key, -1) }

// Next returns the month after key.
func Next(key string) string { return Add(key, 1) }

// Range returns count contiguous keys starting at start. An invalid start or
// non-positive count yields nil.
func Range(start string, count int) []string {
	if count <= 0 {
		return nil
	}
	t, err := FirstDay(start)
	if err != nil {
		return nil
	}
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = FromTime(t.AddDate(0, i, 0))
	}
	return out
}

// Between returns the keys from first to last inclusive, empty when last
// precedes first.
func Between(first, last string) []string {
	a, errA := Parse(first)
	b, errB := Parse(last)
	if errA != nil || errB != nil || a > b {
		return nil
	}
	var out []string
	for key := a; key <= b; key = Next(key) {
		out = append(out, key)
	}
	return out
}

// Compare orders two normalized keys chronologically: -1, 0 or 1.
func Compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DaysIn returns the number of calendar days in the keyed month, 0 for an
// invalid key.
func DaysIn(key string) int {
	t, err := FirstDay(key)
	if err != nil {
		return 0
	}
	return t.AddDate(0, 1, -1).Day()
}
