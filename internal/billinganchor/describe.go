package billinganchor

import (
	"fmt"
	"time"
)

// Describe renders d as an English sentence. It returns "" for an
// undefined descriptor.
func Describe(d Descriptor) string {
	switch d.Kind {
	case KindFirstOfMonth:
		return "Billed on the first day of every month."
	case KindDayOfMonth:
		return fmt.Sprintf("Billed on the %s of every month.", ordinal(d.DayOfMonth))
	case KindDay29:
		return "Billed on the 29th of every month, or on the last day of months without a 29th."
	case KindDay30:
		return "Billed on the 30th of every month, or on the last day of February."
	case KindLastDayOfMonth:
		return "Billed on the last day of every month."
	case KindFirstOfYear:
		return "Billed on January 1st of every year."
	case KindSameDate:
		return fmt.Sprintf("Billed every year on %s.", formatMonthDay(d.Month, d.DayOfMonth))
	case KindLeapDay:
		return "Billed every year on Feb. 29. This date only exists in leap years; other years bill on Feb. 28."
	case KindStartOfWeek:
		return fmt.Sprintf("Billed on %s, the first day of every week.", weekdayName(d.Weekday))
	case KindSameWeekday:
		return fmt.Sprintf("Billed every %s.", weekdayName(d.Weekday))
	default:
		return ""
	}
}

// formatMonthDay matches the "Jan. 02" layout used for yearly anchors.
func formatMonthDay(month time.Month, day int) string {
	return time.Date(2000, month, day, 0, 0, 0, 0, time.UTC).Format("Jan. 02")
}

func weekdayName(weekday *time.Weekday) string {
	if weekday == nil {
		return WeekStart.String()
	}
	return weekday.String()
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
