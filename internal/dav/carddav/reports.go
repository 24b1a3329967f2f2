package carddav

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
	case common.NSCardDAV + " addressbook-query":
		var q common.AddressbookQuery
		if err := xml.Unmarshal(body, &q); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		h.reportAddressbookQuery(w, r, q)
	case common.NSCardDAV + " addressbook-multiget":
		var mg common.AddressbookMultiget
		if err := xml.Unmarshal(body, &mg); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		h.reportAddressbookMultiget(w, r, mg)
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

// reportAddressbookQuery degrades every filter to a full listing of
// the targeted book.
func (h *Handlers) reportAddressbookQuery(w http.ResponseWriter, r *http.Request, q common.AddressbookQuery) {
	bookURI, _, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok || bookURI == "" {
		http.NotFound(w, r)
		return
	}
	book := bookByURI(bookURI)
	if book == nil {
		http.NotFound(w, r)
		return
	}

	cards, err := h.listCards(r.Context(), book)
	if err != nil {
		h.upstreamError(w, err, "list addresses")
		return
	}

	withData := q.Prop.Wants(common.NSCardDAV, "address-data")
	pf := q.Prop.AsPropFind()
	resps := make([]common.Response, 0, len(cards))
	for _, res := range cards {
		resps = append(resps, common.Response{
			Href:      cardPath(h.basePath, book.URI, res.stem),
			Propstats: common.FilterProps(cardProp(res, withData), pf),
		})
	}
	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

// reportAddressbookMultiget resolves each href and silently omits the
// ones that do not exist.
func (h *Handlers) reportAddressbookMultiget(w http.ResponseWriter, r *http.Request, mg common.AddressbookMultiget) {
	withData := mg.Prop.Wants(common.NSCardDAV, "address-data")
	pf := mg.Prop.AsPropFind()

	var resps []common.Response
	for _, href := range mg.Hrefs {
		bookURI, filename, ok := SplitResourcePath(href, h.basePath)
		if !ok || filename == "" || !common.SafeSegment(filename) {
			continue
		}
		book := bookByURI(bookURI)
		if book == nil {
			continue
		}
		res, err := h.fetchCard(r.Context(), book, CardStem(filename))
		if err != nil {
			if upstream.IsNotFound(err) {
				continue
			}
			h.upstreamError(w, err, "fetch address")
			return
		}
		resps = append(resps, common.Response{
			Href:      cardPath(h.basePath, book.URI, res.stem),
			Propstats: common.FilterProps(cardProp(res, withData), pf),
		})
	}
	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}
