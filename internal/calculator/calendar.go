package calculator

import "time"

// CalendarFields splits a date into year, month and day.
func CalendarFields(t time.Time) (year, month, day int) {
	return t.Year(), int(t.Month()), t.Day()
}

// IsQuarterEnd returns 1 when the month closes a quarter (month mod 3 == 0), else 0.
func IsQuarterEnd(month int) int {
	if month%3 == 0 {
		return 1
	}
	return 0
}
