// Package calendar provides the proleptic Gregorian arithmetic the TIMEX resolver builds on:
// month lengths, leap years, ISO-8601 week numbering, week-of-month, quarter and season
// boundaries, and month addition that clamps to the last valid day instead of overflowing.
//
// All functions are pure and operate on wall-clock fields in the location of their input.
package calendar

import (
	"time"
)

const daysPerWeek = 7

// Season is a meteorological season of the northern hemisphere.
type Season int

const (
	Spring Season = iota + 1
	Summer
	Fall
	Winter
)

// String returns the TIMEX token of the season.
func (s Season) String() string {
	switch s {
	case Spring:
		return "SP"
	case Summer:
		return "SU"
	case Fall:
		return "FA"
	case Winter:
		return "WI"
	}
	return ""
}

// ParseSeason maps a TIMEX season token to a Season.
func ParseSeason(token string) (Season, bool) {
	switch token {
	case "SP":
		return Spring, true
	case "SU":
		return Summer, true
	case "FA":
		return Fall, true
	case "WI":
		return Winter, true
	}
	return 0, false
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	if year%4 != 0 {
		return false
	}
	if year%100 != 0 {
		return true
	}
	return year%400 == 0
}

// DaysInMonth returns the number of days of month in year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.January, time.March, time.May, time.July, time.August, time.October, time.December:
		return 31
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

// MaxDaysInMonth returns the largest day number month can have in any year.
func MaxDaysInMonth(month time.Month) int {
	if month == time.February {
		return 29
	}
	return DaysInMonth(2001, month)
}

// MaxWeeksInMonth returns the largest n for which week n of month starts inside
// month in some year. Weeks start on Monday.
func MaxWeeksInMonth(month time.Month) int {
	// the worst case is a month starting on a Sunday
	return (daysPerWeek - 1 + MaxDaysInMonth(month) + daysPerWeek - 1) / daysPerWeek
}

// ValidDate reports whether year-month-day exists on the calendar.
func ValidDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	return day <= DaysInMonth(year, month)
}

// Date is time.Date at midnight.
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day(), t.Location())
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1, t.Location())
}

// StartOfYear returns midnight of January 1st of t's year.
func StartOfYear(t time.Time) time.Time {
	return Date(t.Year(), time.January, 1, t.Location())
}

// ISOWeekday converts a time.Weekday to its ISO-8601 number (Monday = 1 ... Sunday = 7).
func ISOWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// WeekdayFromISO is the inverse of ISOWeekday. ok is false outside 1..7.
func WeekdayFromISO(n int) (time.Weekday, bool) {
	if n < 1 || n > 7 {
		return 0, false
	}
	return time.Weekday(n % 7), true
}

// StartOfWeek returns midnight of the Monday of t's ISO week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -(ISOWeekday(day.Weekday()) - 1))
}

// ISOWeeksInYear returns 52 or 53, the number of ISO weeks in isoYear.
func ISOWeeksInYear(isoYear int) int {
	// December 28th always falls in the last ISO week of its year.
	_, week := time.Date(isoYear, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// ISOWeekStart returns the Monday that starts week of isoYear.
// ok is false when the year has no such week.
func ISOWeekStart(isoYear, week int, loc *time.Location) (time.Time, bool) {
	if week < 1 || week > ISOWeeksInYear(isoYear) {
		return time.Time{}, false
	}
	// January 4th is always in week 1.
	jan4 := Date(isoYear, time.January, 4, loc)
	monday := jan4.AddDate(0, 0, -(ISOWeekday(jan4.Weekday()) - 1))
	return monday.AddDate(0, 0, (week-1)*daysPerWeek), true
}

// WeekOfMonthStart returns the Monday that starts week n (1-based) of month.
// Week 1 is the Monday-start week containing the 1st. ok is false when that week
// starts after the month has ended.
func WeekOfMonthStart(year int, month time.Month, n int, loc *time.Location) (time.Time, bool) {
	if n < 1 {
		return time.Time{}, false
	}
	first := Date(year, month, 1, loc)
	start := StartOfWeek(first).AddDate(0, 0, (n-1)*daysPerWeek)
	if !start.Before(first.AddDate(0, 1, 0)) {
		return time.Time{}, false
	}
	return start, true
}

// WeekendStart returns midnight of the Saturday of the ISO week starting at monday.
func WeekendStart(monday time.Time) time.Time {
	return monday.AddDate(0, 0, 5)
}

// QuarterStart returns midnight of the first day of quarter q (1..4) of year.
func QuarterStart(year, q int, loc *time.Location) time.Time {
	return Date(year, time.Month(3*(q-1)+1), 1, loc)
}

// QuarterOf returns the quarter (1..4) containing month.
func QuarterOf(month time.Month) int {
	return (int(month)-1)/3 + 1
}

// SeasonBounds returns the half-open [start, end) of season s in year.
// Winter of year Y starts in December of Y.
func SeasonBounds(year int, s Season, loc *time.Location) (time.Time, time.Time) {
	var startMonth time.Month
	switch s {
	case Spring:
		startMonth = time.March
	case Summer:
		startMonth = time.June
	case Fall:
		startMonth = time.September
	default:
		startMonth = time.December
	}
	start := Date(year, startMonth, 1, loc)
	return start, start.AddDate(0, 3, 0)
}

// SeasonOf returns the season containing t and the year that season belongs to.
// January and February belong to the previous year's winter.
func SeasonOf(t time.Time) (Season, int) {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring, t.Year()
	case time.June, time.July, time.August:
		return Summer, t.Year()
	case time.September, time.October, time.November:
		return Fall, t.Year()
	case time.December:
		return Winter, t.Year()
	}
	return Winter, t.Year() - 1
}
