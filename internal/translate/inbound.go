package translate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"

	"github.com/davgate/davgate/pkg/ical"

	"github.com/davgate/davgate/internal/upstream"
)

// endOfDaySeconds stands in for a missing end time on series events.
// 23:59 local keeps the occurrence inside its calendar day.
const endOfDaySeconds = 86340

// ICSToEvent parses a calendar object body and maps its single VEVENT
// onto the upstream model. An RRULE turns the event serial; everything
// else becomes a single event with concrete UTC instants.
func (t *Translator) ICSToEvent(data []byte) (*upstream.Event, error) {
	comp, err := ical.SingleEvent(data)
	if err != nil {
		return nil, err
	}

	ev := &upstream.Event{}
	if s, err := comp.Props.Text(goical.PropSummary); err == nil {
		ev.Subject = s
	}
	if s, err := comp.Props.Text(goical.PropDescription); err == nil {
		ev.Content = s
	}
	if s, err := comp.Props.Text(goical.PropLocation); err == nil {
		ev.Location = s
	}
	if p := comp.Props.Get(goical.PropCategories); p != nil {
		if list, err := p.TextList(); err == nil && len(list) > 0 {
			ev.EventCategory = list[0]
		}
	}
	if cls, err := comp.Props.Text(goical.PropClass); err == nil {
		ev.Private = strings.EqualFold(cls, "PRIVATE")
	}

	start, dateOnly, err := eventTime(comp.Props.Get(goical.PropDateTimeStart))
	if err != nil {
		return nil, fmt.Errorf("invalid DTSTART: %w", err)
	}
	end, haveEnd, err := eventEnd(comp, start)
	if err != nil {
		return nil, err
	}

	readAlarm(comp, ev)

	rruleProp := comp.Props.Get(goical.PropRecurrenceRule)
	if rruleProp == nil {
		ev.EventMode = "single"
		ev.WholeDayEvent = dateOnly
		if dateOnly && (!haveEnd || !end.After(start)) {
			end = start.AddDate(0, 0, 1)
		}
		ev.StartDateTime = upstream.FormatTime(start)
		ev.StartDateTimeEnabled = true
		ev.EndDateTime = upstream.FormatTime(end)
		ev.EndDateTimeEnabled = true
		return ev, nil
	}

	rule := strings.TrimSpace(rruleProp.Value)
	ev.EventMode = "serial"
	ev.WholeDayEvent = dateOnly

	if dateOnly {
		ev.SeriesStartDate = start.Format("2006-01-02")
		ev.OccurrenceStartTime = 0
		ev.OccurrenceEndTime = endOfDaySeconds
	} else {
		ev.SeriesStartDate = t.localDate(start)
		ev.OccurrenceStartTime = t.secondsFromLocalMidnight(start)
		ev.OccurrenceEndTime = endOfDaySeconds
		if haveEnd {
			if secs := t.secondsFromLocalMidnight(end); secs > ev.OccurrenceStartTime {
				ev.OccurrenceEndTime = secs
			}
		}
	}
	ev.OccurrenceStartTimeEnabled = true
	ev.OccurrenceEndTimeEnabled = true

	if until := parseRRuleParts(rule)["UNTIL"]; until != "" {
		if ut, _, err := ical.ParseDateTime(until); err == nil {
			ev.SeriesEndDate = ut.UTC().Format("2006-01-02")
		}
	}
	ev.SeriesSchema = RRuleToSchema(rule)
	return ev, nil
}

func eventEnd(comp *goical.Component, start time.Time) (time.Time, bool, error) {
	if p := comp.Props.Get(goical.PropDateTimeEnd); p != nil {
		end, _, err := eventTime(p)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid DTEND: %w", err)
		}
		return end, true, nil
	}
	if p := comp.Props.Get(goical.PropDuration); p != nil {
		d, err := ical.ParseDuration(p.Value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid DURATION: %w", err)
		}
		return start.Add(d), true, nil
	}
	return start.Add(defaultDurationSeconds * time.Second), false, nil
}

// eventTime resolves a DTSTART or DTEND value to UTC. TZID-qualified
// floating times are interpreted in the named zone; unqualified floating
// times count as UTC.
func eventTime(p *goical.Prop) (time.Time, bool, error) {
	if p == nil {
		return time.Time{}, false, errors.New("property missing")
	}
	val := strings.TrimSpace(p.Value)
	ts, dateOnly, err := ical.ParseDateTime(val)
	if err != nil {
		return time.Time{}, false, err
	}
	if dateOnly {
		return ts, true, nil
	}
	if tzid := p.Params.Get(goical.ParamTimezoneID); tzid != "" && !strings.HasSuffix(val, "Z") {
		if loc, lerr := time.LoadLocation(tzid); lerr == nil {
			ts = time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, loc)
		}
	}
	return ts.UTC(), false, nil
}

// readAlarm maps the first DISPLAY-style VALARM with a relative trigger
// onto the reminder fields. Positive (after-start) triggers are ignored.
func readAlarm(comp *goical.Component, ev *upstream.Event) {
	for _, child := range comp.Children {
		if child.Name != goical.CompAlarm {
			continue
		}
		p := child.Props.Get(goical.PropTrigger)
		if p == nil {
			continue
		}
		d, err := ical.ParseDuration(p.Value)
		if err != nil || d > 0 {
			continue
		}
		ev.ReminderEnabled = true
		ev.RemindBeforeStart = int(-d / time.Second)
		return
	}
}
