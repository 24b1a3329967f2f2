// Package feed serves the whole event window as a single iCalendar
// file, for clients that subscribe to a URL instead of speaking
// CalDAV.
package feed

import (
	"bytes"
	"net/http"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/translate"
	"github.com/davgate/davgate/internal/upstream"
)

type Handler struct {
	cfg    *config.Config
	client *upstream.Client
	tr     *translate.Translator
	logger zerolog.Logger
}

func New(cfg *config.Config, client *upstream.Client, tr *translate.Translator, logger zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, client: client, tr: tr, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Feed.Enabled {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().UTC()
	span := time.Duration(h.cfg.DAV.SyncWeeks) * 7 * 24 * time.Hour
	records, err := h.client.EventOccurrences(r.Context(), h.cfg.Upstream.OwnerKey, now.Add(-span), now.Add(span), 0, 0)
	if err != nil {
		status := upstream.HTTPStatus(err)
		h.logger.Error().Err(err).Msg("feed listing failed")
		http.Error(w, http.StatusText(status), status)
		return
	}

	cal := &goical.Calendar{Component: &goical.Component{
		Name:  goical.CompCalendar,
		Props: goical.Props{},
	}}
	cal.Props.SetText(goical.PropProductID, h.cfg.ICS.BuildProdID())
	cal.Props.SetText(goical.PropVersion, "2.0")

	seen := make(map[string]bool, len(records))
	for i := range records {
		rec := records[i]
		if seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true

		ev := &rec
		if rec.EventMode == "serial" || rec.OccurrenceID != "" {
			full, err := h.client.Event(r.Context(), rec.Key)
			if err != nil {
				h.logger.Warn().Err(err).Str("key", rec.Key).Msg("skipping event without full record")
				continue
			}
			ev = full
		}
		comp, err := h.tr.EventComponent(ev)
		if err != nil {
			h.logger.Warn().Err(err).Str("key", ev.Key).Msg("skipping untranslatable event")
			continue
		}
		cal.Children = append(cal.Children, comp)
	}

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		h.logger.Error().Err(err).Msg("feed encoding failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
