package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Weekdays is the set of weekdays a loan collects on. Stored as a CSV of
// time.Weekday integers (0 = Sunday) so it round-trips through a plain text
// column; rendered as lowercase day names in JSON.
type Weekdays []time.Weekday

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdays converts lowercase day names into a deduplicated, sorted set.
// An empty input is an error, never an empty set.
func ParseWeekdays(names []string) (Weekdays, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one weekday is required")
	}
	seen := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		seen[day] = true
	}
	days := make(Weekdays, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

// Contains reports whether day is in the set.
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer.
func (w Weekdays) Value() (driver.Value, error) {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner.
func (w *Weekdays) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*w = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", src)
	}
	if raw == "" {
		*w = nil
		return nil
	}
	parts := strings.Split(raw, ",")
	days := make(Weekdays, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return fmt.Errorf("invalid weekday value %q", p)
		}
		days = append(days, time.Weekday(n))
	}
	*w = days
	return nil
}

// MarshalJSON renders the set as lowercase day names.
func (w Weekdays) MarshalJSON() ([]byte, error) {
	names := make([]string, len(w))
	for i, d := range w {
		names[i] = strings.ToLower(d.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON accepts an array of day names.
func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	days, err := ParseWeekdays(names)
	if err != nil {
		return err
	}
	*w = days
	return nil
}
