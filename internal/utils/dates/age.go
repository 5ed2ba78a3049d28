// Package dates holds calendar helpers shared by the feed and profile code.
// All values are civil dates at UTC midnight.
package dates

import "time"

// Date truncates t to its civil date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearsAgo returns the same calendar day n years before today.
// Feb 29 is anchored to Feb 28 when the target year is not a leap year.
func YearsAgo(today time.Time, n int) time.Time {
	y, m, d := today.Date()
	y -= n
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Age returns full years between birth and today.
func Age(birth, today time.Time) int {
	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}

// AgePtr is Age for an optional birth date.
func AgePtr(birth *time.Time, today time.Time) *int {
	if birth == nil {
		return nil
	}
	a := Age(*birth, today)
	return &a
}

// BirthRange converts inclusive age bounds into a birth-date range.
//
// Behavior:
//   - minAge → latest allowed birth date: today − minAge years.
//   - maxAge → earliest allowed birth date: (today − (maxAge+1) years) + 1 day.
//   - nil bounds yield nil.
func BirthRange(today time.Time, minAge, maxAge *int) (earliest, latest *time.Time) {
	today = Date(today)
	if minAge != nil {
		l := YearsAgo(today, *minAge)
		latest = &l
	}
	if maxAge != nil {
		e := YearsAgo(today, *maxAge+1).AddDate(0, 0, 1)
		earliest = &e
	}
	return earliest, latest
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
