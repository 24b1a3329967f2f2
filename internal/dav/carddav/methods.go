package carddav

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.serveCard(w, r, true)
}

func (h *Handlers) HandleHead(w http.ResponseWriter, r *http.Request) {
	h.serveCard(w, r, false)
}

func (h *Handlers) serveCard(w http.ResponseWriter, r *http.Request, withBody bool) {
	bookURI, filename, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || filename == "" || !common.SafeSegment(filename) {
		http.NotFound(w, r)
		return
	}
	book := bookByURI(bookURI)
	if book == nil {
		http.NotFound(w, r)
		return
	}

	res, err := h.fetchCard(r.Context(), book, CardStem(filename))
	if err != nil {
		if upstream.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.upstreamError(w, err, "fetch address")
		return
	}

	if inm := strings.TrimSpace(r.Header.Get("If-None-Match")); inm != "" {
		if inm == "*" || common.ETagListMatches(inm, res.etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("ETag", res.etag)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.body)))
	if !withBody {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(res.body)
}

// The address books mirror upstream records the gateway cannot write.
func (h *Handlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "address books are read-only", http.StatusForbidden)
}

func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "address books are read-only", http.StatusForbidden)
}

func (h *Handlers) HandleMkcol(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "address book provisioning not supported", http.StatusForbidden)
}

func (h *Handlers) HandleMkcalendar(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
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
