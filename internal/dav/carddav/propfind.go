package carddav

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

func (h *Handlers) HandlePropfind(w http.ResponseWriter, r *http.Request, depth string, pf *common.PropFind) {
	book, object, ok := SplitResourcePath(r.URL.Path, h.basePath)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case book == "":
		h.propfindHome(w, depth, pf)
	case object == "":
		h.propfindBook(w, r, book, depth, pf)
	default:
		h.propfindCard(w, r, book, object, pf)
	}
}

func (h *Handlers) propfindHome(w http.ResponseWriter, depth string, pf *common.PropFind) {
	resps := []common.Response{{
		Href:      addressbookHome(h.basePath),
		Propstats: common.FilterProps(h.homeProp(), pf),
	}}

	if depth == "1" {
		for i := range addressBooks {
			book := &addressBooks[i]
			resps = append(resps, common.Response{
				Href:      addressbookPath(h.basePath, book.URI),
				Propstats: common.FilterProps(h.bookProp(book, ""), pf),
			})
		}
	}

	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

func (h *Handlers) propfindBook(w http.ResponseWriter, r *http.Request, bookURI, depth string, pf *common.PropFind) {
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

	resps := []common.Response{{
		Href:      addressbookPath(h.basePath, book.URI),
		Propstats: common.FilterProps(h.bookProp(book, ctagFor(cards)), pf),
	}}

	if depth == "1" {
		for _, res := range cards {
			resps = append(resps, common.Response{
				Href:      cardPath(h.basePath, book.URI, res.stem),
				Propstats: common.FilterProps(cardProp(res, false), pf),
			})
		}
	}

	common.WriteMultiStatus(w, common.MultiStatus{Resp: resps})
}

func (h *Handlers) propfindCard(w http.ResponseWriter, r *http.Request, bookURI, filename string, pf *common.PropFind) {
	book := bookByURI(bookURI)
	if book == nil || !common.SafeSegment(filename) {
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

	common.WriteMultiStatus(w, common.MultiStatus{Resp: []common.Response{{
		Href:      cardPath(h.basePath, book.URI, res.stem),
		Propstats: common.FilterProps(cardProp(res, false), pf),
	}}})
}

func (h *Handlers) homeProp() common.Prop {
	return common.Prop{
		ResourceType:         common.MakeCollectionResourcetype(),
		DisplayName:          common.StrPtr("Contacts"),
		CurrentUserPrincipal: &common.Href{Value: common.PrincipalURL(h.basePath)},
		AddressbookHomeSet:   &common.CardHomeSet{Value: addressbookHome(h.basePath)},
	}
}

func (h *Handlers) bookProp(book *addressBook, ctag string) common.Prop {
	p := common.Prop{
		ResourceType:         common.MakeAddressbookResourcetype(),
		DisplayName:          common.StrPtr(book.Display),
		CurrentUserPrincipal: &common.Href{Value: common.PrincipalURL(h.basePath)},
		AddressbookHomeSet:   &common.CardHomeSet{Value: addressbookHome(h.basePath)},
		SupportedReportSet:   common.AddressbookReportSet(),
	}
	if ctag != "" {
		p.GetCTag = common.StrPtr(ctag)
	}
	return p
}

func cardProp(res cardResource, withData bool) common.Prop {
	p := common.Prop{
		ResourceType:  &common.ResourceType{},
		ContentType:   common.CardContentType(),
		ContentLength: common.StrPtr(strconv.Itoa(len(res.body))),
		GetETag:       res.etag,
	}
	if withData {
		p.AddressData = string(res.body)
	}
	return p
}

func ctagFor(cards []cardResource) string {
	var sb strings.Builder
	for _, res := range cards {
		sb.WriteString(res.stem)
		sb.WriteString(res.etag)
	}
	return strings.Trim(common.ETagFor([]byte(sb.String())), `"`)
}
