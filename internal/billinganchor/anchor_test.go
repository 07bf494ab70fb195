package billinganchor

import (
	"testing"
	"time"

	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	calendar    = subscriptiondomain.BillingTimeCalendar
	anniversary = subscriptiondomain.BillingTimeAnniversary
)

func planWith(interval plandomain.Interval) *plandomain.Plan {
	return &plandomain.Plan{ID: "plan_1", Name: "Plan", Code: "plan", Interval: interval}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestCompute_NoPlan(t *testing.T) {
	got := Compute(nil, anniversary, date(2021, time.January, 31))
	assert.False(t, got.Defined())
	assert.Equal(t, Descriptor{}, got)
}

func TestCompute_UnknownMode(t *testing.T) {
	got := Compute(planWith(plandomain.IntervalMonthly), subscriptiondomain.BillingTimeMode("weekly"), date(2021, time.January, 5))
	assert.False(t, got.Defined())
}

func TestCompute_MonthlyCalendarIgnoresDate(t *testing.T) {
	plan := planWith(plandomain.IntervalMonthly)
	want := Compute(plan, calendar, date(2021, time.January, 1))
	assert.Equal(t, KindFirstOfMonth, want.Kind)
	assert.False(t, want.Clamped)

	for day := date(2020, time.January, 1); day.Year() < 2022; day = day.AddDate(0, 0, 1) {
		assert.Equal(t, want, Compute(plan, calendar, day), day.Format(time.DateOnly))
	}
}

func TestCompute_MonthlyAnniversary(t *testing.T) {
	plan := planWith(plandomain.IntervalMonthly)

	tests := []struct {
		name    string
		now     time.Time
		kind    Kind
		day     int
		clamped bool
	}{
		{name: "first", now: date(2021, time.March, 1), kind: KindDayOfMonth, day: 1},
		{name: "28th", now: date(2021, time.March, 28), kind: KindDayOfMonth, day: 28},
		{name: "29th", now: date(2021, time.March, 29), kind: KindDay29, day: 29, clamped: true},
		{name: "30th", now: date(2021, time.March, 30), kind: KindDay30, day: 30, clamped: true},
		{name: "31st", now: date(2021, time.January, 31), kind: KindLastDayOfMonth, day: 31, clamped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(plan, anniversary, tt.now)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.day, got.DayOfMonth)
			assert.Equal(t, tt.clamped, got.Clamped)
			assert.False(t, got.IsLeapDayCase)
		})
	}
}

func TestCompute_MonthlyAnniversaryClampedForLateDays(t *testing.T) {
	plan := planWith(plandomain.IntervalMonthly)
	for day := date(2019, time.January, 1); day.Year() < 2026; day = day.AddDate(0, 0, 1) {
		got := Compute(plan, anniversary, day)
		assert.Equal(t, day.Day() >= 29, got.Clamped, day.Format(time.DateOnly))
	}
}

func TestCompute_YearlyCalendar(t *testing.T) {
	got := Compute(planWith(plandomain.IntervalYearly), calendar, date(2020, time.February, 29))
	assert.Equal(t, KindFirstOfYear, got.Kind)
	assert.Equal(t, time.January, got.Month)
	assert.Equal(t, 1, got.DayOfMonth)
	assert.False(t, got.IsLeapDayCase)
}

func TestCompute_YearlyAnniversaryLeapDay(t *testing.T) {
	plan := planWith(plandomain.IntervalYearly)
	for _, year := range []int{2020, 2024, 2000, 2400} {
		got := Compute(plan, anniversary, date(year, time.February, 29))
		assert.Equal(t, KindLeapDay, got.Kind, year)
		assert.True(t, got.IsLeapDayCase, year)
	}
}

func TestCompute_YearlyAnniversaryLeapFlagOnlyOnFeb29(t *testing.T) {
	plan := planWith(plandomain.IntervalYearly)
	for day := date(2019, time.January, 1); day.Year() < 2026; day = day.AddDate(0, 0, 1) {
		got := Compute(plan, anniversary, day)
		leap := day.Month() == time.February && day.Day() == 29
		assert.Equal(t, leap, got.IsLeapDayCase, day.Format(time.DateOnly))
		if !leap {
			assert.Equal(t, KindSameDate, got.Kind)
			assert.Equal(t, day.Month(), got.Month)
			assert.Equal(t, day.Day(), got.DayOfMonth)
		}
	}
}

func TestCompute_Weekly(t *testing.T) {
	plan := planWith(plandomain.IntervalWeekly)

	got := Compute(plan, calendar, date(2024, time.January, 17))
	assert.Equal(t, KindStartOfWeek, got.Kind)
	require.NotNil(t, got.Weekday)
	assert.Equal(t, time.Monday, *got.Weekday)

	got = Compute(plan, anniversary, date(2024, time.January, 17))
	assert.Equal(t, KindSameWeekday, got.Kind)
	require.NotNil(t, got.Weekday)
	assert.Equal(t, time.Wednesday, *got.Weekday)
}

func TestCompute_UnknownIntervalFallsBackToWeekly(t *testing.T) {
	got := Compute(planWith(plandomain.Interval("quarterly")), anniversary, date(2021, time.January, 31))
	assert.Equal(t, KindSameWeekday, got.Kind)
	assert.Equal(t, plandomain.IntervalWeekly, got.Interval)
	require.NotNil(t, got.Weekday)
	assert.Equal(t, time.Sunday, *got.Weekday)
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		interval plandomain.Interval
		mode     subscriptiondomain.BillingTimeMode
		now      time.Time
		want     time.Time
	}{
		{"monthly calendar", plandomain.IntervalMonthly, calendar, date(2024, time.December, 10), time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"monthly day 15", plandomain.IntervalMonthly, anniversary, date(2024, time.March, 15), time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)},
		{"monthly 31st clamps to february", plandomain.IntervalMonthly, anniversary, date(2021, time.January, 31), time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"monthly 30th clamps to leap february", plandomain.IntervalMonthly, anniversary, date(2024, time.January, 30), time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{"monthly 29th clamps to february", plandomain.IntervalMonthly, anniversary, date(2023, time.January, 29), time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"yearly calendar", plandomain.IntervalYearly, calendar, date(2023, time.July, 4), time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"yearly same date", plandomain.IntervalYearly, anniversary, date(2023, time.July, 4), time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)},
		{"yearly leap day", plandomain.IntervalYearly, anniversary, date(2020, time.February, 29), time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{"weekly calendar from wednesday", plandomain.IntervalWeekly, calendar, date(2024, time.January, 17), time.Date(2024, time.January, 22, 0, 0, 0, 0, time.UTC)},
		{"weekly calendar from monday", plandomain.IntervalWeekly, calendar, date(2024, time.January, 15), time.Date(2024, time.January, 22, 0, 0, 0, 0, time.UTC)},
		{"weekly anniversary", plandomain.IntervalWeekly, anniversary, date(2024, time.January, 17), time.Date(2024, time.January, 24, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Compute(planWith(tt.interval), tt.mode, tt.now)
			got, ok := Next(d, tt.now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_Undefined(t *testing.T) {
	_, ok := Next(Descriptor{}, date(2024, time.January, 1))
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Billed on the first day of every month.",
		Describe(Compute(planWith(plandomain.IntervalMonthly), calendar, date(2024, time.May, 3))))
	assert.Equal(t, "Billed on the 3rd of every month.",
		Describe(Compute(planWith(plandomain.IntervalMonthly), anniversary, date(2024, time.May, 3))))
	assert.Equal(t, "Billed on the 12th of every month.",
		Describe(Compute(planWith(plandomain.IntervalMonthly), anniversary, date(2024, time.May, 12))))
	assert.Equal(t, "Billed every year on Jul. 04.",
		Describe(Compute(planWith(plandomain.IntervalYearly), anniversary, date(2023, time.July, 4))))
	assert.Contains(t, Describe(Compute(planWith(plandomain.IntervalYearly), anniversary, date(2020, time.February, 29))), "leap years")
	assert.Equal(t, "Billed every Wednesday.",
		Describe(Compute(planWith(plandomain.IntervalWeekly), anniversary, date(2024, time.January, 17))))
	assert.Equal(t, "Billed on Monday, the first day of every week.",
		Describe(Compute(planWith(plandomain.IntervalWeekly), calendar, date(2024, time.January, 17))))
	assert.Equal(t, "", Describe(Descriptor{}))
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 23: "23rd", 28: "28th"}
	for n, want := range cases {
		assert.Equal(t, want, ordinal(n))
	}
}
