package caldav

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

func (h *Handlers) HandlePropfind(w http.ResponseWriter, r *http.Request, depth string, pf *common.PropFind) {
	collection, object, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case collection == "":
		h.propfindHome(w, r, depth, pf)
	case object == "":
		h.propfindCollection(w, r, collection, depth, pf)
	default:
		h.propfindObject(w, r, collection, object, pf)
	}
}

func (h *Handlers) propfindHome(w http.ResponseWriter, r *http.Request, depth string, pf *common.PropFind) {
	home := calendarHome(h.basePath)

	resps := []common.Response{{
		Href:      home,
		Propstats: common.FilterProps(h.homeProp(), pf),
	}}

	if depth == "1" {
		start, end := h.listingWindow()
		resources, err := h.listResources(r.Context(), start, end)
		if err != nil {
			h.upstreamError(w, err, "list events")
			return
		}
		resps = append(resps, common.Response{
			Href:      calendarPath(h.basePath, DefaultCalendarURI),
			Propstats: common.FilterProps(h.calendarProp(ctagFor(resources)), pf),
		})
	}

	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

func (h *Handlers) propfindCollection(w http.ResponseWriter, r *http.Request, calURI, depth string, pf *common.PropFind) {
	if calURI != DefaultCalendarURI {
		http.NotFound(w, r)
		return
	}

	start, end := h.listingWindow()
	resources, err := h.listResources(r.Context(), start, end)
	if err != nil {
		h.upstreamError(w, err, "list events")
		return
	}

	resps := []common.Response{{
		Href:      calendarPath(h.basePath, calURI),
		Propstats: common.FilterProps(h.calendarProp(ctagFor(resources)), pf),
	}}

	if depth == "1" {
		for _, res := range resources {
			resps = append(resps, common.Response{
				Href:      objectPath(h.basePath, calURI, res.stem),
				Propstats: common.FilterProps(objectProp(res, false), pf),
			})
		}
	}

	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

func (h *Handlers) propfindObject(w http.ResponseWriter, r *http.Request, calURI, filename string, pf *common.PropFind) {
	if calURI != DefaultCalendarURI || !common.SafeSegment(filename) {
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

	common.WriteMultiStatus(w, common.MultiStatus{Resp: []common.Response{{
		Href:      objectPath(h.basePath, calURI, res.stem),
		Propstats: common.FilterProps(objectProp(res, false), pf),
	}}})
}

func (h *Handlers) homeProp() common.Prop {
	return common.Prop{
		ResourceType:         common.MakeCollectionResourcetype(),
		DisplayName:          common.StrPtr("Calendars"),
		CurrentUserPrincipal: &common.Href{Value: common.PrincipalURL(h.basePath)},
		CalendarHomeSet:      &common.CalHomeSet{Value: calendarHome(h.basePath)},
	}
}

func (h *Handlers) calendarProp(ctag string) common.Prop {
	return common.Prop{
		ResourceType:         common.MakeCalendarResourcetype(),
		DisplayName:          common.StrPtr("Calendar"),
		CurrentUserPrincipal: &common.Href{Value: common.PrincipalURL(h.basePath)},
		CalendarHomeSet:      &common.CalHomeSet{Value: calendarHome(h.basePath)},
		SupportedCalendarComponentSet: &common.SupportedCompSet{
			Comp: []common.Comp{{Name: "VEVENT"}},
		},
		SupportedReportSet: common.CalendarReportSet(),
		GetCTag:            common.StrPtr(ctag),
	}
}

func objectProp(res resource, withData bool) common.Prop {
	p := common.Prop{
		ResourceType:  &common.ResourceType{},
		ContentType:   common.CalContentType(),
		ContentLength: common.StrPtr(strconv.Itoa(len(res.body))),
		GetETag:       res.etag,
	}
	if withData {
		p.CalendarData = string(res.body)
	}
	return p
}

// ctagFor derives a collection tag from the member ETags so clients
// polling the collection see a change whenever any member changes.
func ctagFor(resources []resource) string {
	var sb strings.Builder
	for _, res := range resources {
		sb.WriteString(res.stem)
		sb.WriteString(res.etag)
	}
	return strings.Trim(common.ETagFor([]byte(sb.String())), `"`)
}

func (h *Handlers) upstreamError(w http.ResponseWriter, err error, op string) {
	status := upstream.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error().Err(err).Msg(op + " failed")
	} else {
		h.logger.Debug().Err(err).Msg(op + " failed")
	}
	http.Error(w, http.StatusText(status), status)
}
