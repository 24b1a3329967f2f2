package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/dav"
	"github.com/davgate/davgate/internal/dav/caldav"
	"github.com/davgate/davgate/internal/dav/carddav"
)

var (
	_ DAVService = (*caldav.Handlers)(nil)
	_ DAVService = (*carddav.Handlers)(nil)
)

// New wires the DAV dispatcher, the protocol services and the feed
// endpoint into one http.Handler. Authentication is the reverse
// proxy's concern; nothing here challenges the client.
func New(cfg *config.Config, h *dav.Handlers, feed http.Handler, logger zerolog.Logger) http.Handler {
	r := &Router{
		config:   cfg,
		handlers: h,
		feed:     feed,
		logger:   logger,
		services: make(map[string]DAVService),
	}

	if cfg.DAV.EnableCalDAV {
		r.RegisterService("caldav", h.CalDAV)
	}
	if cfg.DAV.EnableCardDAV {
		r.RegisterService("carddav", h.CardDAV)
	}

	return r.setupRoutes()
}

func (r *Router) RegisterService(name string, service DAVService) {
	r.services[name] = service
}

func (r *Router) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/caldav", r.handlers.HandleWellKnown)
	mux.HandleFunc("/.well-known/carddav", r.handlers.HandleWellKnown)

	mux.HandleFunc("/healthz", r.handleHealth)

	if r.feed != nil {
		mux.Handle("/feed.ics", r.feed)
	}

	base := r.getBasePath()
	mux.HandleFunc(base, r.handleDAVRequest)
	mux.HandleFunc(strings.TrimSuffix(base, "/"), r.handleDAVRequest)

	return mux
}

func (r *Router) getBasePath() string {
	base := r.config.HTTP.BasePath
	if base == "" || base[0] != '/' {
		base = "/dav"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleDAVRequest(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("DAV", r.buildDAVCapabilities())

	if req.Method == http.MethodOptions {
		r.handlers.HandleOptions(w, req)
		return
	}

	r.routeDAVMethod(w, req)
}

func (r *Router) buildDAVCapabilities() string {
	caps := []string{"1", "3"}
	for _, name := range []string{"caldav", "carddav"} {
		if service, ok := r.services[name]; ok {
			if c := service.GetCapabilities(); c != "" {
				caps = append(caps, c)
			}
		}
	}
	return strings.Join(caps, ", ")
}

func (r *Router) routeDAVMethod(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}

	serviceName := r.determineServiceType(req)

	if req.Method == "PROPFIND" {
		r.handlers.HandlePropfind(rec, req)
		r.logRequest(req, serviceName, rec, time.Since(start))
		return
	}

	service, exists := r.services[serviceName]
	if !exists {
		http.Error(rec, "not found", http.StatusNotFound)
		r.logRequest(req, serviceName, rec, time.Since(start))
		return
	}

	switch req.Method {
	case "PROPPATCH":
		service.HandleProppatch(rec, req)
	case "REPORT":
		service.HandleReport(rec, req)
	case http.MethodGet:
		service.HandleGet(rec, req)
	case http.MethodHead:
		service.HandleHead(rec, req)
	case http.MethodPut:
		service.HandlePut(rec, req)
	case http.MethodDelete:
		service.HandleDelete(rec, req)
	case "MKCOL":
		service.HandleMkcol(rec, req)
	case "MKCALENDAR":
		service.HandleMkcalendar(rec, req)
	case "COPY", "MOVE":
		// Upstream-backed resources cannot be rearranged.
		http.Error(rec, "forbidden", http.StatusForbidden)
	default:
		http.Error(rec, "method not allowed", http.StatusMethodNotAllowed)
	}

	r.logRequest(req, serviceName, rec, time.Since(start))
}

func (r *Router) logRequest(req *http.Request, serviceName string, rec *statusRecorder, dur time.Duration) {
	var evt *zerolog.Event
	switch req.Method {
	case "PROPFIND", "REPORT", http.MethodGet, http.MethodHead:
		evt = r.logger.Debug()
	default:
		evt = r.logger.Info()
	}

	evt.
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("service", serviceName).
		Int("status", statusOrDefault(rec.status)).
		Int("bytes", rec.bytes).
		Float64("duration_ms", float64(dur.Microseconds())/1000.0).
		Str("ip", realIP(req)).
		Str("user_agent", req.Header.Get("User-Agent")).
		Msg("http request")
}

// determineServiceType picks the protocol handler from the path, and
// from the body content type on PUT when the path is ambiguous.
func (r *Router) determineServiceType(req *http.Request) string {
	if strings.Contains(req.URL.Path, "/calendars") {
		return "caldav"
	}
	if strings.Contains(req.URL.Path, "/contacts") {
		return "carddav"
	}

	if req.Method == http.MethodPut {
		ct := req.Header.Get("Content-Type")
		if strings.Contains(ct, "text/vcard") {
			return "carddav"
		}
		if strings.Contains(ct, "text/calendar") {
			return "caldav"
		}
	}

	return "caldav"
}
