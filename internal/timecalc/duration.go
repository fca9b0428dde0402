package timecalc

import "fmt"

// InProgress is how an open interval is displayed in place of an end time or duration.
const InProgress = "In Progress"

// Duration is the elapsed time of an entry, or the Open state when the
// entry has no end time yet.
type Duration struct {
	minutes int
	open    bool
}

// OpenDuration is the Duration of an entry without an end time.
func OpenDuration() Duration {
	return Duration{open: true}
}

// Open reports whether the interval is still in progress.
func (d Duration) Open() bool {
	return d.open
}

// Minutes returns the elapsed minutes; an open duration counts as 0.
func (d Duration) Minutes() int {
	return d.minutes
}

// String renders the duration with FormatMinutes, or InProgress when open.
func (d Duration) String() string {
	if d.open {
		return InProgress
	}
	return FormatMinutes(d.minutes)
}

// CalculateDuration returns the time between two "HH:mm" clock values.
// An end earlier than start is taken to cross midnight once. A nil end
// yields the Open state.
func CalculateDuration(start string, end *string) (Duration, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Duration{}, err
	}
	if end == nil {
		return OpenDuration(), nil
	}
	e, err := ParseClock(*end)
	if err != nil {
		return Duration{}, err
	}
	total := e - s
	if total < 0 {
		total += MinutesPerDay
	}
	return Duration{minutes: total}, nil
}

// FormatMinutes renders a minute count as "45m", "2h" or "1h 30m".
func FormatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
