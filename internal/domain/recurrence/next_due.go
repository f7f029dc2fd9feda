package recurrence

import (
	"time"

	"github.com/phrazzld/taskshare/internal/domain"
)

// ComputeNextDueDate returns the first instant strictly after reference that
// matches rule.
//
// Algorithm behavior:
//   - A candidate is built on reference's calendar day at the rule's HH:MM,
//     in reference's location.
//   - Daily: the candidate, or the same time on the following day when the
//     candidate is not after reference.
//   - Weekly: the next occurrence of DayOfWeek at HH:MM. Today only counts
//     when the candidate is still ahead of reference.
//   - Monthly: DayOfMonth in the current month, clamped to the month length
//     (31 in February becomes the 28th or 29th). When that is not after
//     reference, the next month is used and clamped again.
//
// An invalid rule returns a *domain.ValidationError.
func ComputeNextDueDate(rule *domain.RecurrenceRule, reference time.Time) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}

	hour, minute, err := rule.Clock()
	if err != nil {
		return time.Time{}, err
	}

	loc := reference.Location()
	year, month, day := reference.Date()
	candidate := time.Date(year, month, day, hour, minute, 0, 0, loc)

	switch rule.Frequency {
	case domain.FrequencyDaily:
		if !candidate.After(reference) {
			candidate = time.Date(year, month, day+1, hour, minute, 0, 0, loc)
		}
		return candidate, nil

	case domain.FrequencyWeekly:
		delta := *rule.DayOfWeek - int(candidate.Weekday())
		if delta < 0 || (delta == 0 && !candidate.After(reference)) {
			delta += 7
		}
		return time.Date(year, month, day+delta, hour, minute, 0, 0, loc), nil

	case domain.FrequencyMonthly:
		target := *rule.DayOfMonth
		candidate = time.Date(year, month, clampDay(year, month, target), hour, minute, 0, 0, loc)
		if !candidate.After(reference) {
			// Day 1 of next month avoids time.Date normalizing e.g. Jan 31 + 1 month into March.
			next := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
			ny, nm, _ := next.Date()
			candidate = time.Date(ny, nm, clampDay(ny, nm, target), hour, minute, 0, 0, loc)
		}
		return candidate, nil
	}

	// Validate rejects every other frequency.
	return time.Time{}, domain.NewValidationError("recurrence.frequency", "is not supported", domain.ErrInvalidRecurrence)
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampDay(year int, month time.Month, day int) int {
	if last := DaysIn(year, month); day > last {
		return last
	}
	return day
}
