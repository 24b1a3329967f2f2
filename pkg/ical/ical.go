package ical

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// NormalizeICS parses and re-serializes a calendar to ensure validity
// and consistent formatting.
func NormalizeICS(data []byte) ([]byte, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := ical.NewEncoder(&buf)
	if err := enc.Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SingleEvent decodes a calendar object body and returns its one VEVENT.
// Calendar object resources must not carry METHOD, and bodies with zero
// or multiple events are rejected.
func SingleEvent(data []byte) (*ical.Component, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	if cal.Props.Get(ical.PropMethod) != nil {
		return nil, errors.New("calendar object resources must not carry METHOD")
	}

	var events []*ical.Component
	for _, child := range cal.Children {
		switch child.Name {
		case ical.CompEvent:
			events = append(events, child)
		case ical.CompTimezone:
			// VTIMEZONE alongside the event is fine
		default:
			return nil, fmt.Errorf("unsupported component %s", child.Name)
		}
	}
	if len(events) == 0 {
		return nil, errors.New("no VEVENT in calendar object")
	}
	if len(events) > 1 {
		return nil, errors.New("multiple VEVENTs in calendar object")
	}
	return events[0], nil
}

// ParseDateTime accepts the RFC 5545 DATE, UTC DATE-TIME, floating
// DATE-TIME and RFC 3339 spellings. The second return reports a
// date-only value.
func ParseDateTime(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)

	if len(s) == 8 {
		t, err := time.Parse("20060102", s)
		return t, true, err
	}
	if len(s) == 15 {
		t, err := time.ParseInLocation("20060102T150405", s, time.UTC)
		return t, false, err
	}
	if len(s) == 16 && strings.HasSuffix(s, "Z") {
		t, err := time.Parse("20060102T150405Z", s)
		return t, false, err
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

// ParseDuration parses an RFC 5545 duration, including a leading sign.
func ParseDuration(durStr string) (time.Duration, error) {
	durStr = strings.TrimSpace(durStr)

	neg := false
	switch {
	case strings.HasPrefix(durStr, "-"):
		neg = true
		durStr = durStr[1:]
	case strings.HasPrefix(durStr, "+"):
		durStr = durStr[1:]
	}
	if !strings.HasPrefix(durStr, "P") {
		return 0, fmt.Errorf("invalid duration format %q", durStr)
	}

	var days, hours, minutes, seconds int
	var inTime bool
	var current strings.Builder

	for _, r := range durStr[1:] {
		switch r {
		case 'W':
			if n, err := strconv.Atoi(current.String()); err == nil {
				days += n * 7
			}
			current.Reset()
		case 'D':
			if n, err := strconv.Atoi(current.String()); err == nil {
				days += n
			}
			current.Reset()
		case 'T':
			inTime = true
			current.Reset()
		case 'H':
			if inTime {
				if n, err := strconv.Atoi(current.String()); err == nil {
					hours = n
				}
			}
			current.Reset()
		case 'M':
			if inTime {
				if n, err := strconv.Atoi(current.String()); err == nil {
					minutes = n
				}
			}
			current.Reset()
		case 'S':
			if inTime {
				if n, err := strconv.Atoi(current.String()); err == nil {
					seconds = n
				}
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	if neg {
		d = -d
	}
	return d, nil
}

// FormatDuration renders a duration in RFC 5545 notation. Only the
// shapes the gateway emits (whole minutes or seconds) are produced.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int(d / time.Second)
	if secs%60 == 0 {
		return fmt.Sprintf("%sPT%dM", sign, secs/60)
	}
	return fmt.Sprintf("%sPT%dS", sign, secs)
}

// FormatDateTimeUTC renders a UTC DATE-TIME value.
func FormatDateTimeUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// FormatDate renders a DATE value.
func FormatDate(t time.Time) string {
	return t.Format("20060102")
}
