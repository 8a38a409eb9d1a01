package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const timeOfDayLayout = "15:04"

// DateLayout is the YYYY-MM-DD form of calendar days, read in the clinic
// time zone.
const DateLayout = "2006-01-02"

// SlotLabels is an ordered list of daily slot labels stored as a Postgres
// text[] column.
type SlotLabels []string

// Value implements driver.Valuer
func (s SlotLabels) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return pq.StringArray(s).Value()
}

// Scan implements sql.Scanner
func (s *SlotLabels) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*s = SlotLabels(arr)
	return nil
}

// TimeOfDay formats t as the HH:MM key used to match slot labels.
func TimeOfDay(t time.Time) string {
	return t.Format(timeOfDayLayout)
}

// SlotStart returns the normalised HH:MM key of a label's leading time.
// Labels whose leading part does not parse are keyed by the trimmed text.
func SlotStart(label string) string {
	head, _, _ := strings.Cut(label, "-")
	head = strings.TrimSpace(head)
	t, err := time.Parse(timeOfDayLayout, head)
	if err != nil {
		return head
	}
	return TimeOfDay(t)
}

// ParseSlotLabel validates an "HH:MM-HH:MM" label and returns it normalised.
func ParseSlotLabel(label string) (string, error) {
	head, tail, ok := strings.Cut(label, "-")
	if !ok {
		return "", fmt.Errorf("slot %q: expected HH:MM-HH:MM", label)
	}
	start, err := time.Parse(timeOfDayLayout, strings.TrimSpace(head))
	if err != nil {
		return "", fmt.Errorf("slot %q: invalid start time", label)
	}
	end, err := time.Parse(timeOfDayLayout, strings.TrimSpace(tail))
	if err != nil {
		return "", fmt.Errorf("slot %q: invalid end time", label)
	}
	if !end.After(start) {
		return "", fmt.Errorf("slot %q: end must be after start", label)
	}
	return TimeOfDay(start) + "-" + TimeOfDay(end), nil
}

// Free returns the labels whose start is not in booked. Duplicate labels are
// collapsed and the configured order is kept.
func (s SlotLabels) Free(booked map[string]struct{}) []string {
	free := make([]string, 0, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, label := range s {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		if _, taken := booked[SlotStart(label)]; taken {
			continue
		}
		free = append(free, label)
	}
	return free
}

// HasSlotIn reports whether any slot starts in the given half of the day.
// Period is "AM" (before noon) or "PM" (noon or later).
func (s SlotLabels) HasSlotIn(period string) bool {
	for _, label := range s {
		t, err := time.Parse(timeOfDayLayout, SlotStart(label))
		if err != nil {
			continue
		}
		if (period == PeriodAM) == (t.Hour() < 12) {
			return true
		}
	}
	return false
}

const (
	PeriodAM = "AM"
	PeriodPM = "PM"
)
