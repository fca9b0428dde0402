package timecalc

import (
	"fmt"
	"time"
)

// ClockLayout is the wall-clock time format ("HH:mm") of entry start and end times.
const ClockLayout = "15:04"

// MinutesPerDay is the wraparound applied to intervals that cross midnight.
const MinutesPerDay = 24 * 60

// ParseClock parses a zero-padded "HH:mm" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, invalid("time", s, "want HH:mm")
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM {
		return 0, invalid("time", s, "want HH:mm")
	}
	if h > 23 || m > 59 {
		return 0, invalid("time", s, "out of range")
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// ParseDate parses a YYYY-MM-DD calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, invalid("date", s, "want YYYY-MM-DD")
	}
	return t, nil
}

// FormatClock12h renders "HH:mm" for display, e.g. "13:30" -> "1:30 PM".
// Malformed input is returned unchanged.
func FormatClock12h(s string) string {
	mins, err := ParseClock(s)
	if err != nil {
		return s
	}
	h, m := mins/60, mins%60
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	dh := h % 12
	if dh == 0 {
		dh = 12
	}
	return fmt.Sprintf("%d:%02d %s", dh, m, period)
}

// FormatDateShort renders a YYYY-MM-DD date as "Jan 15, 2024".
// Malformed input is returned unchanged.
func FormatDateShort(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateLong renders a YYYY-MM-DD date as "Monday, January 15, 2024".
// Malformed input is returned unchanged.
func FormatDateLong(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
