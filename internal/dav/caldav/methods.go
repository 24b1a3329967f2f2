package caldav

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.serveObject(w, r, true)
}

func (h *Handlers) HandleHead(w http.ResponseWriter, r *http.Request) {
	h.serveObject(w, r, false)
}

func (h *Handlers) serveObject(w http.ResponseWriter, r *http.Request, withBody bool) {
	calURI, filename, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || calURI != DefaultCalendarURI || filename == "" || !common.SafeSegment(filename) {
		http.NotFound(w, r)
		return
	}

	ev, err := h.resolveObject(r.Context(), ObjectStem(filename))
	if err != nil {
		if upstream.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.upstreamError(w, err, "fetch event")
		return
	}
	res, err := h.render(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("key", ev.Key).Msg("translate event failed")
		http.Error(w, "translation error", http.StatusInternalServerError)
		return
	}

	if inm := strings.TrimSpace(r.Header.Get("If-None-Match")); inm != "" {
		if inm == "*" || common.ETagListMatches(inm, res.etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("ETag", res.etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.body)))
	if !withBody {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(res.body)
}

// classifyStem resolves what a PUT/DELETE target currently is upstream:
// an existing event, an occurrence of an existing series, or nothing.
// Only read calls are made here.
func (h *Handlers) classifyStem(ctx context.Context, stem string) (existing *upstream.Event, isOccurrence bool, err error) {
	ev, err := h.client.Event(ctx, stem)
	if err == nil {
		return ev, false, nil
	}
	if !upstream.IsNotFound(err) {
		return nil, false, err
	}
	key, occID := ParseObjectStem(stem)
	if occID == "" {
		return nil, false, nil
	}
	if _, kerr := h.client.Event(ctx, key); kerr == nil {
		return nil, true, nil
	} else if !upstream.IsNotFound(kerr) {
		return nil, false, kerr
	}
	return nil, false, nil
}

func (h *Handlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	calURI, filename, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || calURI != DefaultCalendarURI || filename == "" {
		http.NotFound(w, r)
		return
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".ics") || !common.SafeSegment(filename) {
		http.Error(w, "bad object name", http.StatusBadRequest)
		return
	}
	stem := ObjectStem(filename)

	maxICS := h.cfg.HTTP.MaxICSBytes
	raw, _ := io.ReadAll(io.LimitReader(r.Body, maxICS+1))
	_ = r.Body.Close()
	if len(raw) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	if maxICS > 0 && int64(len(raw)) > maxICS {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	ev, err := h.tr.ICSToEvent(raw)
	if err != nil {
		h.logger.Debug().Err(err).Msg("rejecting invalid calendar object")
		http.Error(w, "invalid calendar object", http.StatusBadRequest)
		return
	}
	ev.OwnerKey = h.cfg.Upstream.OwnerKey

	existing, isOccurrence, err := h.classifyStem(r.Context(), stem)
	if err != nil {
		h.upstreamError(w, err, "resolve object")
		return
	}
	if isOccurrence {
		http.Error(w, "per-occurrence modification not supported", http.StatusMethodNotAllowed)
		return
	}

	currentETag := ""
	if existing != nil {
		res, rerr := h.render(existing)
		if rerr == nil {
			currentETag = res.etag
		}
	}
	if !common.CheckConditional(r, existing != nil, currentETag) {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}

	if existing == nil {
		h.createEvent(w, r, ev)
		return
	}
	h.updateEvent(w, r, stem, ev)
}

func (h *Handlers) createEvent(w http.ResponseWriter, r *http.Request, ev *upstream.Event) {
	created, err := h.client.CreateEvent(r.Context(), ev)
	if err != nil {
		h.upstreamError(w, err, "create event")
		return
	}
	if created == nil || created.Key == "" {
		h.logger.Error().Msg("create response carried no event key")
		http.Error(w, "upstream error", http.StatusBadGateway)
		return
	}

	// The upstream assigned the key; the resource lives at its key path
	// from now on, not at the name the client chose.
	full, err := h.fetchFresh(r.Context(), created.Key)
	if err != nil {
		full = created
	}
	res, err := h.render(full)
	if err != nil {
		h.logger.Error().Err(err).Str("key", created.Key).Msg("translate created event failed")
		http.Error(w, "translation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", res.etag)
	w.Header().Set("Location", objectPath(h.basePath, DefaultCalendarURI, res.stem))
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) updateEvent(w http.ResponseWriter, r *http.Request, key string, ev *upstream.Event) {
	ev.Key = key
	if err := h.client.UpdateEvent(r.Context(), key, ev); err != nil {
		h.upstreamError(w, err, "update event")
		return
	}

	full, err := h.fetchFresh(r.Context(), key)
	if err != nil {
		h.upstreamError(w, err, "read back event")
		return
	}
	res, err := h.render(full)
	if err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("translate updated event failed")
		http.Error(w, "translation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", res.etag)
	w.WriteHeader(http.StatusNoContent)
}

// fetchFresh bypasses and repopulates the event cache after a write.
func (h *Handlers) fetchFresh(ctx context.Context, key string) (*upstream.Event, error) {
	h.events.Delete(key)
	ev, err := h.client.Event(ctx, key)
	if err != nil {
		return nil, err
	}
	h.events.Set(key, ev)
	return ev, nil
}

func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	calURI, filename, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || calURI != DefaultCalendarURI || filename == "" || !common.SafeSegment(filename) {
		http.NotFound(w, r)
		return
	}
	stem := ObjectStem(filename)

	existing, isOccurrence, err := h.classifyStem(r.Context(), stem)
	if err != nil {
		h.upstreamError(w, err, "resolve object")
		return
	}
	if isOccurrence {
		http.Error(w, "per-occurrence deletion not supported", http.StatusMethodNotAllowed)
		return
	}
	if existing == nil {
		http.NotFound(w, r)
		return
	}

	currentETag := ""
	if res, rerr := h.render(existing); rerr == nil {
		currentETag = res.etag
	}
	if !common.CheckConditional(r, true, currentETag) {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}

	if err := h.client.DeleteEvent(r.Context(), stem); err != nil {
		if upstream.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.upstreamError(w, err, "delete event")
		return
	}
	h.events.Delete(stem)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleMkcol(w http.ResponseWriter, r *http.Request) {
	h.rejectProvisioning(w, r)
}

func (h *Handlers) HandleMkcalendar(w http.ResponseWriter, r *http.Request) {
	h.rejectProvisioning(w, r)
}

// rejectProvisioning: the upstream exposes exactly one calendar, so
// collection creation can never succeed. 415 for a request body, 409
// when the parent segment does not exist, 403 otherwise.
func (h *Handlers) rejectProvisioning(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	if len(body) > 0 {
		http.Error(w, "request body not supported", http.StatusUnsupportedMediaType)
		return
	}
	calURI, object, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || (object != "" && calURI != DefaultCalendarURI) {
		http.Error(w, "parent collection missing", http.StatusConflict)
		return
	}
	http.Error(w, "calendar provisioning not supported", http.StatusForbidden)
}

func (h *Handlers) HandleProppatch(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	common.WriteProppatchRefusal(w, r.URL.Path, body)
}

func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	h.dispatchReport(w, r, body)
}
