package billinganchor

import "time"

// Next returns the first anchor date strictly after now's calendar day,
// at midnight in now's location. Days missing from a month clamp to its
// last day, so a 30th anchor bills on February 28 (29 in leap years) and
// a February 29 yearly anchor bills on February 28 in common years.
func Next(d Descriptor, now time.Time) (time.Time, bool) {
	loc := now.Location()
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, loc)

	switch d.Kind {
	case KindFirstOfMonth:
		return time.Date(y, m+1, 1, 0, 0, 0, 0, loc), true

	case KindDayOfMonth, KindDay29, KindDay30, KindLastDayOfMonth:
		target := d.DayOfMonth
		if d.Kind == KindLastDayOfMonth {
			target = 31
		}
		candidate := clampedDate(y, m, target, loc)
		if !candidate.After(today) {
			candidate = clampedDate(y, m+1, target, loc)
		}
		return candidate, true

	case KindFirstOfYear:
		return time.Date(y+1, time.January, 1, 0, 0, 0, 0, loc), true

	case KindSameDate, KindLeapDay:
		candidate := clampedDate(y, d.Month, d.DayOfMonth, loc)
		if !candidate.After(today) {
			candidate = clampedDate(y+1, d.Month, d.DayOfMonth, loc)
		}
		return candidate, true

	case KindStartOfWeek, KindSameWeekday:
		if d.Weekday == nil {
			return time.Time{}, false
		}
		ahead := (int(*d.Weekday) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), true

	default:
		return time.Time{}, false
	}
}

// clampedDate builds year/month/day, rolling a missing day back to the
// month's last day. Month overflow is normalised first.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
