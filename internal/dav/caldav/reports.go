package caldav

import (
	"bytes"
	"encoding/xml"
	"net/http"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

func (h *Handlers) dispatchReport(w http.ResponseWriter, r *http.Request, body []byte) {
	root, err := rootElement(body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch root.Space + " " + root.Local {
	case common.NSCalDAV + " calendar-query":
		var q common.CalendarQuery
		if err := xml.Unmarshal(body, &q); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		h.reportCalendarQuery(w, r, q)
	case common.NSCalDAV + " calendar-multiget":
		var mg common.CalendarMultiget
		if err := xml.Unmarshal(body, &mg); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		h.reportCalendarMultiget(w, r, mg)
	default:
		http.Error(w, "unsupported report", http.StatusForbidden)
	}
}

func rootElement(body []byte) (xml.Name, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.Name{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name, nil
		}
	}
}

// reportCalendarQuery serves the time-range filter when present and
// degrades every other filter to a full-window listing.
func (h *Handlers) reportCalendarQuery(w http.ResponseWriter, r *http.Request, q common.CalendarQuery) {
	calURI, _, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || (calURI != "" && calURI != DefaultCalendarURI) {
		http.NotFound(w, r)
		return
	}

	start, end := h.listingWindow()
	if tr := common.ExtractTimeRange(q.Filter); tr != nil {
		if tr.Start != "" {
			if t, err := common.ParseICalTime(tr.Start); err == nil {
				start = t
			}
		}
		if tr.End != "" {
			if t, err := common.ParseICalTime(tr.End); err == nil {
				end = t
			}
		}
	}

	resources, err := h.listResources(r.Context(), start, end)
	if err != nil {
		h.upstreamError(w, err, "list events")
		return
	}

	withData := q.Prop.Wants(common.NSCalDAV, "calendar-data")
	pf := q.Prop.AsPropFind()
	resps := make([]common.Response, 0, len(resources))
	for _, res := range resources {
		resps = append(resps, common.Response{
			Href:      objectPath(h.basePath, DefaultCalendarURI, res.stem),
			Propstats: common.FilterProps(objectProp(res, withData), pf),
		})
	}
	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

// reportCalendarMultiget resolves each href and silently omits the
// ones that do not exist.
func (h *Handlers) reportCalendarMultiget(w http.ResponseWriter, r *http.Request, mg common.CalendarMultiget) {
	withData := mg.Prop.Wants(common.NSCalDAV, "calendar-data")
	pf := mg.Prop.AsPropFind()

	var resps []common.Response
	for _, href := range mg.Hrefs {
		calURI, filename, ok := SplitResourcePath(href, h.basePath)
		if !ok || calURI != DefaultCalendarURI || filename == "" || !common.SafeSegment(filename) {
			continue
		}
		ev, err := h.resolveObject(r.Context(), ObjectStem(filename))
		if err != nil {
			if upstream.IsNotFound(err) {
				continue
			}
			h.upstreamError(w, err, "fetch event")
			return
		}
		res, err := h.render(ev)
		if err != nil {
			h.logger.Warn().Err(err).Str("key", ev.Key).Msg("skipping untranslatable event")
			continue
		}
		resps = append(resps, common.Response{
			Href:      objectPath(h.basePath, DefaultCalendarURI, res.stem),
			Propstats: common.FilterProps(objectProp(res, withData), pf),
		})
	}
	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}
