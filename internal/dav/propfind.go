package dav

import (
	"io"
	"net/http"
	"strings"

	"github.com/davgate/davgate/internal/dav/common"
)

// ResourceHandler serves PROPFIND for one subtree of the DAV namespace
// (calendars, contacts).
type ResourceHandler interface {
	HandlePropfind(w http.ResponseWriter, r *http.Request, depth string, pf *common.PropFind)
}

func (h *Handlers) determineResource(urlPath string) string {
	pp := strings.TrimPrefix(urlPath, h.basePath)
	pp = strings.TrimPrefix(pp, "/")
	return strings.ToLower(strings.SplitN(pp, "/", 2)[0])
}

func (h *Handlers) isPrincipalPath(p string) bool {
	pp := strings.TrimPrefix(p, h.basePath)
	return strings.HasPrefix(pp, "/principals")
}

func (h *Handlers) HandlePropfind(w http.ResponseWriter, r *http.Request) {
	depth, ok := common.Depth(r)
	if !ok {
		http.Error(w, "bad depth", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read PROPFIND body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_ = r.Body.Close()

	pf, err := common.ParsePropFind(body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if h.isPrincipalPath(r.URL.Path) {
		h.propfindPrincipal(w, r, pf)
		return
	}

	if handler, ok := h.resourceHandlers[h.determineResource(r.URL.Path)]; ok {
		handler.HandlePropfind(w, r, depth, pf)
		return
	}

	h.propfindRoot(w, r, pf)
}

func (h *Handlers) principalProp() common.Prop {
	self := common.PrincipalURL(h.basePath)
	p := common.Prop{
		ResourceType:         common.MakePrincipalResourcetype(),
		DisplayName:          common.StrPtr("Current User"),
		CurrentUserPrincipal: &common.Href{Value: self},
		PrincipalURL:         &common.Href{Value: self},
	}
	if h.cfg.DAV.EnableCalDAV {
		p.CalendarHomeSet = &common.CalHomeSet{Value: common.CalendarHome(h.basePath)}
	}
	if h.cfg.DAV.EnableCardDAV {
		p.AddressbookHomeSet = &common.CardHomeSet{Value: common.AddressbookHome(h.basePath)}
	}
	return p
}

func (h *Handlers) propfindPrincipal(w http.ResponseWriter, r *http.Request, pf *common.PropFind) {
	common.WriteMultiStatus(w, common.MultiStatus{Resp: []common.Response{{
		Href:      common.PrincipalURL(h.basePath),
		Propstats: common.FilterProps(h.principalProp(), pf),
	}}})
}

func (h *Handlers) propfindRoot(w http.ResponseWriter, r *http.Request, pf *common.PropFind) {
	self := common.PrincipalURL(h.basePath)
	prop := common.Prop{
		ResourceType:         common.MakeCollectionResourcetype(),
		CurrentUserPrincipal: &common.Href{Value: self},
		PrincipalURL:         &common.Href{Value: self},
		PrincipalCollectionSet: &common.Hrefs{
			Values: []string{common.JoinURL(h.basePath, "principals") + "/"},
		},
	}
	common.WriteMultiStatus(w, common.MultiStatus{Resp: []common.Response{{
		Href:      r.URL.Path,
		Propstats: common.FilterProps(prop, pf),
	}}})
}
