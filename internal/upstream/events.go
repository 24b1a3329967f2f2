package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// EventOccurrences lists every occurrence overlapping [windowStart,
// windowEnd] for the given owner. Records for the same event key repeat
// once per instance and never carry a seriesSchema.
func (c *Client) EventOccurrences(ctx context.Context, ownerKey string, windowStart, windowEnd time.Time, offset, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("ownerKey", ownerKey)
	q.Set("endDateTime.gte", FormatTime(windowStart))
	q.Set("startDateTime.lte", FormatTime(windowEnd))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", "all")

	var out eventListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/calendarEventsOccurrences", q, nil, &out); err != nil {
		return nil, err
	}
	return out.CalendarEvents, nil
}

// Event fetches the full record for a key, including the seriesSchema.
func (c *Client) Event(ctx context.Context, key string) (*Event, error) {
	q := url.Values{}
	q.Set("fields", "all")
	var out Event
	if err := c.doJSON(ctx, http.MethodGet, "/calendarEvents/"+url.PathEscape(key), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent posts a new event; the upstream assigns and returns the key.
func (c *Client) CreateEvent(ctx context.Context, ev *Event) (*Event, error) {
	var out Event
	if err := c.doJSON(ctx, http.MethodPost, "/calendarEvents", nil, ev, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvent patches an existing event in place.
func (c *Client) UpdateEvent(ctx context.Context, key string, ev *Event) error {
	return c.doJSON(ctx, http.MethodPatch, "/calendarEvents/"+url.PathEscape(key), nil, ev, nil)
}

// DeleteEvent removes the whole event, series included.
func (c *Client) DeleteEvent(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/calendarEvents/"+url.PathEscape(key), nil, nil, nil)
}

// Occurrence fetches one concrete instance of a series. The DAV surface
// rejects per-occurrence writes, but the endpoints stay callable for
// future use.
func (c *Client) Occurrence(ctx context.Context, key, occurrenceID string) (*Event, error) {
	var out Event
	p := "/calendarEvents/" + url.PathEscape(key) + "/occurrences/" + url.PathEscape(occurrenceID)
	if err := c.doJSON(ctx, http.MethodGet, p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOccurrence patches a single instance of a series.
func (c *Client) UpdateOccurrence(ctx context.Context, key, occurrenceID string, ev *Event) error {
	p := "/calendarEvents/" + url.PathEscape(key) + "/occurrences/" + url.PathEscape(occurrenceID)
	return c.doJSON(ctx, http.MethodPatch, p, nil, ev, nil)
}

// DeleteOccurrence removes a single instance of a series.
func (c *Client) DeleteOccurrence(ctx context.Context, key, occurrenceID string) error {
	p := "/calendarEvents/" + url.PathEscape(key) + "/occurrences/" + url.PathEscape(occurrenceID)
	return c.doJSON(ctx, http.MethodDelete, p, nil, nil, nil)
}
