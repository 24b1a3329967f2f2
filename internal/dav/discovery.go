package dav

import (
	"net/http"

	"github.com/davgate/davgate/internal/dav/common"
)

// HandleWellKnown redirects service discovery to the principal path
// per RFC 6764.
func (h *Handlers) HandleWellKnown(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, common.PrincipalURL(h.basePath), http.StatusPermanentRedirect)
}

func (h *Handlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	if h.isPrincipalPath(r.URL.Path) {
		w.Header().Set("Allow", "OPTIONS, PROPFIND, REPORT")
	} else {
		w.Header().Set("Allow", "OPTIONS, PROPFIND, PROPPATCH, REPORT, GET, HEAD, PUT, DELETE, MKCOL, MKCALENDAR")
	}
	w.WriteHeader(http.StatusOK)
}
