package recurrence

import (
	"fmt"
	"testing"
	"time"

	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func intPtr(v int) *int { return &v }

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestComputeNextDueDate(t *testing.T) {
	t.Parallel()

	daily := &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Time: "09:00"}
	monday := &domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Time: "09:00", DayOfWeek: intPtr(1)}
	sunday := &domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Time: "09:00", DayOfWeek: intPtr(0)}
	monthly31 := &domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Time: "09:00", DayOfMonth: intPtr(31)}
	monthly15 := &domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Time: "09:00", DayOfMonth: intPtr(15)}

	tests := []struct {
		name      string
		rule      *domain.RecurrenceRule
		reference time.Time
		expected  time.Time
	}{
		{
			name:      "daily later today",
			rule:      daily,
			reference: at(2024, time.January, 15, 8, 0),
			expected:  at(2024, time.January, 15, 9, 0),
		},
		{
			name:      "daily exactly at slot moves to tomorrow",
			rule:      daily,
			reference: at(2024, time.January, 15, 9, 0),
			expected:  at(2024, time.January, 16, 9, 0),
		},
		{
			name:      "daily crosses year boundary",
			rule:      daily,
			reference: at(2024, time.December, 31, 10, 0),
			expected:  at(2025, time.January, 1, 9, 0),
		},
		{
			name:      "weekly same weekday before slot",
			rule:      monday,
			reference: at(2024, time.January, 15, 8, 0), // Monday
			expected:  at(2024, time.January, 15, 9, 0),
		},
		{
			name:      "weekly same weekday after slot waits a week",
			rule:      monday,
			reference: at(2024, time.January, 15, 10, 0),
			expected:  at(2024, time.January, 22, 9, 0),
		},
		{
			name:      "weekly target earlier in week",
			rule:      monday,
			reference: at(2024, time.January, 17, 12, 0), // Wednesday
			expected:  at(2024, time.January, 22, 9, 0),
		},
		{
			name:      "weekly target later in week",
			rule:      sunday,
			reference: at(2024, time.January, 13, 12, 0), // Saturday
			expected:  at(2024, time.January, 14, 9, 0),
		},
		{
			name:      "monthly clamps to leap February",
			rule:      monthly31,
			reference: at(2024, time.February, 10, 0, 0),
			expected:  at(2024, time.February, 29, 9, 0),
		},
		{
			name:      "monthly clamps to non-leap February",
			rule:      monthly31,
			reference: at(2023, time.February, 10, 0, 0),
			expected:  at(2023, time.February, 28, 9, 0),
		},
		{
			name:      "monthly same day before slot",
			rule:      monthly31,
			reference: at(2024, time.January, 31, 8, 0),
			expected:  at(2024, time.January, 31, 9, 0),
		},
		{
			name:      "monthly past slot on the 31st rolls into clamped February",
			rule:      monthly31,
			reference: at(2024, time.January, 31, 10, 0),
			expected:  at(2024, time.February, 29, 9, 0),
		},
		{
			name:      "monthly rolls into next year",
			rule:      monthly15,
			reference: at(2024, time.December, 20, 0, 0),
			expected:  at(2025, time.January, 15, 9, 0),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ComputeNextDueDate(tc.rule, tc.reference)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
		})
	}
}

func TestComputeNextDueDate_UsesReferenceLocation(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC-5", -5*60*60)
	rule := &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Time: "09:00"}

	// 13:00 UTC is 08:00 in the reference zone, so today's slot is still ahead.
	reference := time.Date(2024, time.March, 1, 8, 0, 0, 0, zone)
	got, err := ComputeNextDueDate(rule, reference)
	require.NoError(t, err)

	assert.Equal(t, zone, got.Location())
	assert.Equal(t, 9, got.Hour())
	assert.True(t, time.Date(2024, time.March, 1, 14, 0, 0, 0, time.UTC).Equal(got))
}

func TestComputeNextDueDate_InvalidRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule *domain.RecurrenceRule
	}{
		{name: "nil rule", rule: nil},
		{name: "missing frequency", rule: &domain.RecurrenceRule{Time: "09:00"}},
		{name: "unknown frequency", rule: &domain.RecurrenceRule{Frequency: "yearly", Time: "09:00"}},
		{name: "missing time", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyDaily}},
		{name: "hour out of range", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Time: "24:00"}},
		{name: "minute out of range", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Time: "12:60"}},
		{name: "single digit hour", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Time: "9:00"}},
		{name: "weekly without weekday", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Time: "09:00"}},
		{
			name: "weekday out of range",
			rule: &domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Time: "09:00", DayOfWeek: intPtr(7)},
		},
		{name: "monthly without day", rule: &domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Time: "09:00"}},
		{
			name: "day of month zero",
			rule: &domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Time: "09:00", DayOfMonth: intPtr(0)},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ComputeNextDueDate(tc.rule, at(2024, time.January, 1, 0, 0))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestDaysIn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 31, DaysIn(2024, time.January))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 30, DaysIn(2024, time.April))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func genRule(t *rapid.T) *domain.RecurrenceRule {
	freq := rapid.SampledFrom([]domain.Frequency{
		domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly,
	}).Draw(t, "frequency")

	rule := &domain.RecurrenceRule{
		Frequency: freq,
		Time: fmt.Sprintf("%02d:%02d",
			rapid.IntRange(0, 23).Draw(t, "hour"),
			rapid.IntRange(0, 59).Draw(t, "minute")),
	}
	switch freq {
	case domain.FrequencyWeekly:
		rule.DayOfWeek = intPtr(rapid.IntRange(0, 6).Draw(t, "day_of_week"))
	case domain.FrequencyMonthly:
		rule.DayOfMonth = intPtr(rapid.IntRange(1, 31).Draw(t, "day_of_month"))
	}
	return rule
}

func genReference(t *rapid.T) time.Time {
	// 2000-01-01 through 2099-12-31 UTC, second granularity.
	secs := rapid.Int64Range(946684800, 4102444799).Draw(t, "reference")
	return time.Unix(secs, 0).UTC()
}

func TestComputeNextDueDate_Properties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		rule := genRule(t)
		reference := genReference(t)

		got, err := ComputeNextDueDate(rule, reference)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !got.After(reference) {
			t.Fatalf("next due %s is not after reference %s", got, reference)
		}

		hour, minute, _ := rule.Clock()
		if got.Hour() != hour || got.Minute() != minute || got.Second() != 0 {
			t.Fatalf("next due %s does not match slot %s", got, rule.Time)
		}

		switch rule.Frequency {
		case domain.FrequencyDaily:
			if got.Sub(reference) > 24*time.Hour {
				t.Fatalf("daily next due %s is more than a day after %s", got, reference)
			}
		case domain.FrequencyWeekly:
			if int(got.Weekday()) != *rule.DayOfWeek {
				t.Fatalf("weekly next due %s is not on weekday %d", got, *rule.DayOfWeek)
			}
			if got.Sub(reference) > 7*24*time.Hour {
				t.Fatalf("weekly next due %s is more than a week after %s", got, reference)
			}
		case domain.FrequencyMonthly:
			want := min(*rule.DayOfMonth, DaysIn(got.Year(), got.Month()))
			if got.Day() != want {
				t.Fatalf("monthly next due %s is not on clamped day %d", got, want)
			}
			if got.Sub(reference) > 62*24*time.Hour {
				t.Fatalf("monthly next due %s skipped a month after %s", got, reference)
			}
		}

		// Regenerating from the result must move strictly forward.
		again, err := ComputeNextDueDate(rule, got)
		if err != nil {
			t.Fatalf("unexpected error on regeneration: %v", err)
		}
		if !again.After(got) {
			t.Fatalf("regenerated due %s is not after %s", again, got)
		}
	})
}
