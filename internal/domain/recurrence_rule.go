package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Frequency selects how often a recurring task repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is a supported frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// RecurrenceRule describes a single time slot repeating daily, weekly or
// monthly. Time is "HH:MM" in 24-hour form. DayOfWeek (0 = Sunday) is
// required for weekly rules, DayOfMonth (1-31) for monthly ones.
type RecurrenceRule struct {
	Frequency  Frequency `json:"frequency"`
	Time       string    `json:"time"`
	DayOfWeek  *int      `json:"day_of_week,omitempty"`
	DayOfMonth *int      `json:"day_of_month,omitempty"`
}

// Validate checks the rule against its frequency-specific requirements.
func (r *RecurrenceRule) Validate() error {
	if r == nil {
		return NewValidationError("recurrence", "is required", ErrInvalidRecurrence)
	}
	if r.Frequency == "" {
		return NewValidationError("recurrence.frequency", "is required", ErrInvalidRecurrence)
	}
	if !r.Frequency.IsValid() {
		return NewValidationError("recurrence.frequency",
			"must be one of: daily weekly monthly", ErrInvalidRecurrence)
	}
	if _, _, err := r.Clock(); err != nil {
		return err
	}

	switch r.Frequency {
	case FrequencyWeekly:
		if r.DayOfWeek == nil {
			return NewValidationError("recurrence.day_of_week",
				"is required for weekly rules", ErrInvalidRecurrence)
		}
		if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return NewValidationError("recurrence.day_of_week",
				"must be between 0 and 6", ErrInvalidRecurrence)
		}
	case FrequencyMonthly:
		if r.DayOfMonth == nil {
			return NewValidationError("recurrence.day_of_month",
				"is required for monthly rules", ErrInvalidRecurrence)
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return NewValidationError("recurrence.day_of_month",
				"must be between 1 and 31", ErrInvalidRecurrence)
		}
	}
	return nil
}

// Clock parses the rule's time of day into hour and minute.
func (r *RecurrenceRule) Clock() (hour, minute int, err error) {
	if r.Time == "" {
		return 0, 0, NewValidationError("recurrence.time", "is required", ErrInvalidRecurrence)
	}

	hh, mm, ok := strings.Cut(r.Time, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, 0, NewValidationError("recurrence.time",
			fmt.Sprintf("must be HH:MM, got %q", r.Time), ErrInvalidRecurrence)
	}

	hour, errH := strconv.Atoi(hh)
	minute, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, NewValidationError("recurrence.time",
			fmt.Sprintf("must be between 00:00 and 23:59, got %q", r.Time), ErrInvalidRecurrence)
	}
	return hour, minute, nil
}

// Clone returns a deep copy of r.
func (r *RecurrenceRule) Clone() *RecurrenceRule {
	if r == nil {
		return nil
	}
	c := *r
	if r.DayOfWeek != nil {
		v := *r.DayOfWeek
		c.DayOfWeek = &v
	}
	if r.DayOfMonth != nil {
		v := *r.DayOfMonth
		c.DayOfMonth = &v
	}
	return &c
}
