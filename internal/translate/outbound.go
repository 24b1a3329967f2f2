package translate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"

	"github.com/davgate/davgate/pkg/ical"

	"github.com/davgate/davgate/internal/upstream"
)

const defaultDurationSeconds = 3600

// EventToICS renders an upstream event as a complete VCALENDAR with one
// VEVENT.
func (t *Translator) EventToICS(ev *upstream.Event) ([]byte, error) {
	comp, err := t.EventComponent(ev)
	if err != nil {
		return nil, err
	}

	cal := &goical.Calendar{Component: &goical.Component{
		Name:  goical.CompCalendar,
		Props: goical.Props{},
	}}
	cal.Props.SetText(goical.PropProductID, t.prodID)
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Children = []*goical.Component{comp}

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// EventComponent builds the VEVENT for an upstream record. Occurrence
// records and single events carry their concrete instants; serial
// events get a synthesized RRULE and a DTSTART recomputed to the first
// instance the rule actually yields. DTSTAMP derives from the start
// instant, so the same record always renders to the same bytes.
func (t *Translator) EventComponent(ev *upstream.Event) (*goical.Component, error) {
	comp := &goical.Component{Name: goical.CompEvent, Props: make(goical.Props)}

	uid := ev.Key
	if ev.OccurrenceID != "" {
		uid = ev.Key + "-" + ev.OccurrenceID
	}
	comp.Props.SetText(goical.PropUID, uid)

	var start time.Time
	var err error
	if ev.EventMode == "serial" && ev.OccurrenceID == "" {
		start, err = t.setSeriesTimes(comp, ev)
	} else {
		start, err = t.setSingleTimes(comp, ev)
	}
	if err != nil {
		return nil, err
	}
	comp.Props.Set(&goical.Prop{
		Name:  goical.PropDateTimeStamp,
		Value: ical.FormatDateTimeUTC(start),
	})

	if ev.Subject != "" {
		comp.Props.SetText(goical.PropSummary, ev.Subject)
	}
	if ev.Content != "" {
		comp.Props.SetText(goical.PropDescription, ev.Content)
	}
	if ev.Location != "" {
		comp.Props.SetText(goical.PropLocation, ev.Location)
	}
	if ev.EventCategory != "" {
		comp.Props.SetText(goical.PropCategories, ev.EventCategory)
	}
	if ev.Private {
		comp.Props.SetText(goical.PropClass, "PRIVATE")
	} else {
		comp.Props.SetText(goical.PropClass, "PUBLIC")
	}

	if ev.ReminderEnabled && ev.RemindBeforeStart > 0 {
		comp.Children = append(comp.Children, buildAlarm(ev))
	}

	return comp, nil
}

func (t *Translator) setSingleTimes(comp *goical.Component, ev *upstream.Event) (time.Time, error) {
	start, err := upstream.ParseTime(ev.StartDateTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: bad startDateTime %q: %w", ev.Key, ev.StartDateTime, err)
	}
	end := start.Add(defaultDurationSeconds * time.Second)
	if ev.EndDateTime != "" {
		if e, err := upstream.ParseTime(ev.EndDateTime); err == nil {
			end = e
		}
	}

	if ev.WholeDayEvent {
		setDateProp(comp, goical.PropDateTimeStart, start)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		setDateProp(comp, goical.PropDateTimeEnd, end)
		return start, nil
	}

	setUTCProp(comp, goical.PropDateTimeStart, start)
	setUTCProp(comp, goical.PropDateTimeEnd, end)
	return start, nil
}

func (t *Translator) setSeriesTimes(comp *goical.Component, ev *upstream.Event) (time.Time, error) {
	rule, err := SchemaToRRule(ev.SeriesSchema)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: %w", ev.Key, err)
	}

	if rule != "" && ev.SeriesEndDate != "" && !strings.Contains(rule, ";UNTIL=") {
		rule += ";UNTIL=" + strings.ReplaceAll(ev.SeriesEndDate, "-", "") + "T235959Z"
	}

	anchor, err := t.occurrenceTimeToUTC(ev.SeriesStartDate, ev.OccurrenceStartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: bad seriesStartDate %q: %w", ev.Key, ev.SeriesStartDate, err)
	}

	// seriesStartDate itself need not satisfy the rule; DTSTART must be
	// a valid instance, so re-anchor on the first one the rule yields.
	first := FirstInstance(anchor, rule)

	duration := time.Duration(ev.OccurrenceEndTime-ev.OccurrenceStartTime) * time.Second
	if duration <= 0 {
		duration = defaultDurationSeconds * time.Second
	}

	if ev.WholeDayEvent {
		setDateProp(comp, goical.PropDateTimeStart, first)
		setDateProp(comp, goical.PropDateTimeEnd, first.AddDate(0, 0, 1))
	} else {
		setUTCProp(comp, goical.PropDateTimeStart, first)
		setUTCProp(comp, goical.PropDateTimeEnd, first.Add(duration))
	}

	if rule != "" {
		comp.Props.Set(&goical.Prop{Name: goical.PropRecurrenceRule, Value: rule})
	}
	return first, nil
}

func buildAlarm(ev *upstream.Event) *goical.Component {
	alarm := &goical.Component{Name: goical.CompAlarm, Props: make(goical.Props)}
	alarm.Props.SetText(goical.PropAction, "DISPLAY")
	alarm.Props.SetText(goical.PropDescription, ev.Subject)
	alarm.Props.Set(&goical.Prop{
		Name:  goical.PropTrigger,
		Value: ical.FormatDuration(-time.Duration(ev.RemindBeforeStart) * time.Second),
	})
	return alarm
}

func setUTCProp(comp *goical.Component, name string, v time.Time) {
	comp.Props.Set(&goical.Prop{Name: name, Value: ical.FormatDateTimeUTC(v)})
}

func setDateProp(comp *goical.Component, name string, v time.Time) {
	p := &goical.Prop{Name: name, Value: ical.FormatDate(v), Params: make(goical.Params)}
	p.Params.Set(goical.ParamValue, "DATE")
	comp.Props.Set(p)
}
