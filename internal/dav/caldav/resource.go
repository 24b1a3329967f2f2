package caldav

import (
	"context"
	"time"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

// resource is a rendered calendar object: a stem (filename without
// extension), its serialized iCalendar body and the derived ETag.
type resource struct {
	stem string
	body []byte
	etag string
}

func (h *Handlers) render(ev *upstream.Event) (resource, error) {
	body, err := h.tr.EventToICS(ev)
	if err != nil {
		return resource{}, err
	}
	stem := ev.Key
	if ev.OccurrenceID != "" {
		stem = ev.Key + "-" + ev.OccurrenceID
	}
	return resource{stem: stem, body: body, etag: common.ETagFor(body)}, nil
}

func (h *Handlers) fetchEvent(ctx context.Context, key string) (*upstream.Event, error) {
	if ev, ok := h.events.Get(key); ok {
		return ev, nil
	}
	ev, err := h.client.Event(ctx, key)
	if err != nil {
		return nil, err
	}
	h.events.Set(key, ev)
	return ev, nil
}

// resolveObject maps a resource stem onto an upstream record. The full
// stem is tried as an event key first; only when that misses and the
// stem splits into `<key>-<occid>` is the occurrence endpoint
// consulted. Keys may themselves contain dashes, so the order matters.
func (h *Handlers) resolveObject(ctx context.Context, stem string) (*upstream.Event, error) {
	ev, err := h.client.Event(ctx, stem)
	if err == nil {
		return ev, nil
	}
	if !upstream.IsNotFound(err) {
		return nil, err
	}
	key, occID := ParseObjectStem(stem)
	if occID == "" {
		return nil, err
	}
	occ, occErr := h.client.Occurrence(ctx, key, occID)
	if occErr != nil {
		return nil, occErr
	}
	if occ.Key == "" {
		occ.Key = key
	}
	if occ.OccurrenceID == "" {
		occ.OccurrenceID = occID
	}
	return occ, nil
}

// listResources renders the occurrence window as calendar objects. In
// series mode records collapse onto their event key: the first record
// per key triggers a full-event fetch so serial events come back with
// their schema, and later instances of the same series are skipped. In
// occurrence mode every record stands alone under `<key>-<occid>.ics`.
func (h *Handlers) listResources(ctx context.Context, start, end time.Time) ([]resource, error) {
	records, err := h.client.EventOccurrences(ctx, h.cfg.Upstream.OwnerKey, start, end, 0, 0)
	if err != nil {
		return nil, err
	}

	occurrenceMode := h.cfg.DAV.ListingMode == "occurrence"
	seen := make(map[string]bool, len(records))
	out := make([]resource, 0, len(records))

	for i := range records {
		rec := records[i]
		if occurrenceMode {
			res, err := h.render(&rec)
			if err != nil {
				h.logger.Warn().Err(err).Str("key", rec.Key).Msg("skipping untranslatable occurrence")
				continue
			}
			out = append(out, res)
			continue
		}

		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true

		ev := &rec
		if rec.EventMode == "serial" || rec.OccurrenceID != "" {
			full, err := h.fetchEvent(ctx, rec.Key)
			if err != nil {
				h.logger.Warn().Err(err).Str("key", rec.Key).Msg("skipping event without full record")
				continue
			}
			ev = full
		}
		res, err := h.render(ev)
		if err != nil {
			h.logger.Warn().Err(err).Str("key", ev.Key).Msg("skipping untranslatable event")
			continue
		}
		out = append(out, res)
	}
	return out, nil
}
