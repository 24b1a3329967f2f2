package common

import (
	"encoding/xml"
	"net/http"
)

func Forbidden() string { return "HTTP/1.1 403 Forbidden" }

type propertyUpdate struct {
	XMLName xml.Name       `xml:"DAV: propertyupdate"`
	Set     []propertyStmt `xml:"set"`
	Remove  []propertyStmt `xml:"remove"`
}

type propertyStmt struct {
	Prop PropList `xml:"prop"`
}

// WriteProppatchRefusal answers PROPPATCH on an immutable resource:
// a 207 whose single propstat reports 403 for every property the
// client tried to set or remove.
func WriteProppatchRefusal(w http.ResponseWriter, href string, body []byte) {
	var req propertyUpdate
	if err := xml.Unmarshal(body, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var refused Prop
	for _, stmt := range append(req.Set, req.Remove...) {
		refused.Missing = append(refused.Missing, stmt.Prop.Names...)
	}

	WriteMultiStatus(w, MultiStatus{Resp: []Response{{
		Href: href,
		Propstats: []PropStat{{
			Prop:   refused,
			Status: Forbidden(),
		}},
	}}})
}
