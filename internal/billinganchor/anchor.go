// Package billinganchor decides when a subscription's billing period starts.
//
// Compute is pure: the same plan, mode and date always give the same
// Descriptor. Rendering a Descriptor for people is a separate step (Describe).
package billinganchor

import (
	"time"

	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
)

type Kind string

const (
	KindUndefined Kind = ""

	KindFirstOfMonth   Kind = "first_of_month"
	KindDayOfMonth     Kind = "day_of_month"
	KindDay29          Kind = "day_29_or_month_end"
	KindDay30          Kind = "day_30_or_month_end"
	KindLastDayOfMonth Kind = "last_day_of_month"

	KindFirstOfYear Kind = "first_of_year"
	KindSameDate    Kind = "same_date_every_year"
	KindLeapDay     Kind = "leap_day"

	KindStartOfWeek Kind = "start_of_week"
	KindSameWeekday Kind = "same_weekday"
)

// WeekStart is the first day of a calendar billing week.
const WeekStart = time.Monday

// safeDay is the last day-of-month present in every month.
const safeDay = 28

type Descriptor struct {
	Kind       Kind                `json:"kind"`
	Interval   plandomain.Interval `json:"interval,omitempty"`
	DayOfMonth int                 `json:"day_of_month,omitempty"`
	Month      time.Month          `json:"month,omitempty"`
	Weekday    *time.Weekday       `json:"weekday,omitempty"`

	// Clamped is set when the anchor day is missing from some months and
	// rolls to their last day.
	Clamped bool `json:"clamped"`

	// IsLeapDayCase is set for a yearly anniversary on February 29.
	IsLeapDayCase bool `json:"is_leap_day_case"`
}

func (d Descriptor) Defined() bool {
	return d.Kind != KindUndefined
}

// Compute returns the anchor for plan under mode as of now. A nil plan
// or an unknown mode yields an undefined Descriptor. Intervals other than
// monthly and yearly follow the weekly rules.
func Compute(plan *plandomain.Plan, mode subscriptiondomain.BillingTimeMode, now time.Time) Descriptor {
	if plan == nil {
		return Descriptor{}
	}
	if mode != subscriptiondomain.BillingTimeCalendar && mode != subscriptiondomain.BillingTimeAnniversary {
		return Descriptor{}
	}
	calendar := mode == subscriptiondomain.BillingTimeCalendar

	switch plan.Interval {
	case plandomain.IntervalMonthly:
		return monthly(calendar, now)
	case plandomain.IntervalYearly:
		return yearly(calendar, now)
	default:
		return weekly(calendar, now)
	}
}

func monthly(calendar bool, now time.Time) Descriptor {
	d := Descriptor{Interval: plandomain.IntervalMonthly}
	if calendar {
		d.Kind = KindFirstOfMonth
		d.DayOfMonth = 1
		return d
	}

	day := now.Day()
	d.DayOfMonth = day
	switch {
	case day <= safeDay:
		d.Kind = KindDayOfMonth
	case day == 29:
		d.Kind = KindDay29
		d.Clamped = true
	case day == 30:
		d.Kind = KindDay30
		d.Clamped = true
	default:
		d.Kind = KindLastDayOfMonth
		d.Clamped = true
	}
	return d
}

func yearly(calendar bool, now time.Time) Descriptor {
	d := Descriptor{Interval: plandomain.IntervalYearly}
	if calendar {
		d.Kind = KindFirstOfYear
		d.Month = time.January
		d.DayOfMonth = 1
		return d
	}

	d.Month = now.Month()
	d.DayOfMonth = now.Day()
	if isLeapDay(now) {
		d.Kind = KindLeapDay
		d.IsLeapDayCase = true
		return d
	}
	d.Kind = KindSameDate
	return d
}

func weekly(calendar bool, now time.Time) Descriptor {
	d := Descriptor{Interval: plandomain.IntervalWeekly}
	if calendar {
		start := WeekStart
		d.Kind = KindStartOfWeek
		d.Weekday = &start
		return d
	}

	weekday := now.Weekday()
	d.Kind = KindSameWeekday
	d.Weekday = &weekday
	return d
}

func isLeapDay(t time.Time) bool {
	return t.Month() == time.February && t.Day() == 29
}
