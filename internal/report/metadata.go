package report

import (
	"fmt"
	"time"

	"github.com/Tiliavir/trivial-timesheet/internal/timecalc"
)

// GeneratedLayout is the timestamp format of Metadata.GeneratedAt.
const GeneratedLayout = "Jan 2, 2006 3:04 PM"

// Metadata describes an export for its title block and trailer lines.
type Metadata struct {
	DateRange   string
	GeneratedAt string
	Timezone    string
	Scope       string
}

// NewMetadata builds the metadata for a report over [from, to] generated at
// now, with times shown in zone.
func NewMetadata(from, to, scope, zone string, now time.Time) (Metadata, error) {
	loc, err := timecalc.LoadZone(zone)
	if err != nil {
		return Metadata{}, err
	}
	abbrev, err := timecalc.ZoneAbbreviation(zone, now)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		DateRange:   fmt.Sprintf("%s to %s", from, to),
		GeneratedAt: now.In(loc).Format(GeneratedLayout),
		Timezone:    abbrev,
		Scope:       scope,
	}, nil
}
