package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekday is a three-letter lowercase day token.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var weekOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Weekdays returns the tokens Monday first.
func Weekdays() []Weekday {
	return append([]Weekday(nil), weekOrder...)
}

// Valid reports whether d is a known token.
func (d Weekday) Valid() bool {
	return d.index() >= 0
}

// Title is the capitalised token ("Mon").
func (d Weekday) Title() string {
	if d == "" {
		return ""
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (d Weekday) index() int {
	for i, day := range weekOrder {
		if day == d {
			return i
		}
	}
	return -1
}

// WeekdayOf maps a time.Weekday onto a token.
func WeekdayOf(day time.Weekday) Weekday {
	// time.Weekday counts from Sunday.
	return weekOrder[(int(day)+6)%7]
}

// ParseWeekday accepts tokens and full English names, case-insensitively.
func ParseWeekday(value string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if len(v) >= 3 {
		candidate := Weekday(v[:3])
		if candidate.Valid() && strings.HasPrefix(candidate.fullName(), v) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, value)
}

// ParseWeekdays parses a list, dropping duplicates and ordering Monday first.
// Comma-separated entries are split.
func ParseWeekdays(values []string) ([]Weekday, error) {
	var days []Weekday
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			day, err := ParseWeekday(part)
			if err != nil {
				return nil, err
			}
			days = append(days, day)
		}
	}
	return SortWeekdays(days), nil
}

// SortWeekdays returns a deduplicated copy ordered Monday first. Invalid
// tokens sort last.
func SortWeekdays(days []Weekday) []Weekday {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[Weekday]struct{}, len(days))
	out := make([]Weekday, 0, len(days))
	for _, day := range days {
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].index(), out[j].index()
		if a < 0 {
			a = len(weekOrder)
		}
		if b < 0 {
			b = len(weekOrder)
		}
		return a < b
	})
	return out
}

func (d Weekday) fullName() string {
	switch d {
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	case Sunday:
		return "sunday"
	}
	return ""
}
