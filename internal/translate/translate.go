// Package translate implements the bidirectional mapping between
// RFC 5545 VEVENTs and the upstream's event model: seriesSchema versus
// RRULE, seconds-from-local-midnight versus UTC instants, and the
// series-anchor rules that tie the two together.
package translate

import (
	"time"
)

// Translator converts between iCalendar bodies and upstream events.
// loc is the upstream's local timezone; occurrenceStartTime and
// occurrenceEndTime are interpreted in it.
type Translator struct {
	loc    *time.Location
	prodID string
}

func New(loc *time.Location, prodID string) *Translator {
	if loc == nil {
		loc = time.UTC
	}
	return &Translator{loc: loc, prodID: prodID}
}

// occurrenceTimeToUTC anchors seconds-from-midnight on a calendar date
// in the upstream timezone and converts to UTC. DST transitions are the
// tz database's problem; there is no manual offset arithmetic here.
func (t *Translator) occurrenceTimeToUTC(date string, seconds int) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, t.loc)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, seconds, 0, t.loc)
	return local.UTC(), nil
}

// secondsFromLocalMidnight is the inverse: a UTC instant expressed as
// seconds from midnight of its local-timezone day.
func (t *Translator) secondsFromLocalMidnight(utc time.Time) int {
	local := utc.In(t.loc)
	return local.Hour()*3600 + local.Minute()*60 + local.Second()
}

// localDate renders the upstream calendar-date for a UTC instant.
func (t *Translator) localDate(utc time.Time) string {
	return utc.In(t.loc).Format("2006-01-02")
}
