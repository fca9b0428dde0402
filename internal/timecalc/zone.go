package timecalc

import (
	"strings"
	"time"
	_ "time/tzdata" // conversions must not depend on the host's zoneinfo
)

// LoadZone resolves an IANA timezone identifier. The empty string and
// "Local" are rejected: callers pass the zone explicitly.
func LoadZone(zone string) (*time.Location, error) {
	if zone == "" || zone == "Local" {
		return nil, invalid("timezone", zone, "an explicit IANA identifier is required")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, invalid("timezone", zone, "unknown IANA identifier")
	}
	return loc, nil
}

// ToCanonical interprets (date, localTime) as wall-clock time in zone and
// returns the UTC time of day. The UTC calendar date may differ from date
// near midnight; only the clock portion is kept.
func ToCanonical(date, localTime, zone string) (string, error) {
	return convert(date, localTime, zone, true)
}

// ToLocal is the inverse of ToCanonical: it interprets (date, canonicalTime)
// as UTC and returns the wall-clock time of day in zone.
func ToLocal(date, canonicalTime, zone string) (string, error) {
	return convert(date, canonicalTime, zone, false)
}

func convert(date, clock, zone string, toUTC bool) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}
	day, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	mins, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	if toUTC {
		t := time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, loc)
		return t.UTC().Format(ClockLayout), nil
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, time.UTC)
	return t.In(loc).Format(ClockLayout), nil
}

// ZoneAbbreviation returns the abbreviation in effect in zone at the given
// instant, e.g. "CET" or "EST". Zones without one yield an offset like "+03".
func ZoneAbbreviation(zone string, at time.Time) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}
	return at.In(loc).Format("MST"), nil
}

// ZoneName returns the identifier in display form ("America/New_York" -> "America/New York").
func ZoneName(zone string) string {
	return strings.ReplaceAll(zone, "_", " ")
}

// LocalDate returns the calendar date of now in zone.
func LocalDate(now time.Time, zone string) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format(DateLayout), nil
}

// LocalClock returns the "HH:mm" wall-clock time of now in zone.
func LocalClock(now time.Time, zone string) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}
	return now.In(loc).Format(ClockLayout), nil
}
