package common

import (
	"encoding/xml"
	"strings"
)

// PropFind is a parsed PROPFIND request body. An empty body counts as
// allprop per RFC 4918.
type PropFind struct {
	XMLName  xml.Name  `xml:"DAV: propfind"`
	AllProp  *struct{} `xml:"allprop"`
	PropName *struct{} `xml:"propname"`
	Prop     *PropList `xml:"prop"`
}

type PropList struct {
	Names []EmptyElem `xml:",any"`
}

func ParsePropFind(body []byte) (*PropFind, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return &PropFind{AllProp: &struct{}{}}, nil
	}
	var pf PropFind
	if err := xml.Unmarshal(body, &pf); err != nil {
		return nil, err
	}
	if pf.AllProp == nil && pf.PropName == nil && pf.Prop == nil {
		pf.AllProp = &struct{}{}
	}
	return &pf, nil
}

// propGetters maps a property name onto its extraction from a fully
// populated Prop. Returning false means the resource does not carry
// the property and it belongs in the 404 propstat.
var propGetters = map[xml.Name]func(src *Prop, dst *Prop) bool{
	{Space: NSDAV, Local: "resourcetype"}: func(src, dst *Prop) bool {
		dst.ResourceType = src.ResourceType
		return src.ResourceType != nil
	},
	{Space: NSDAV, Local: "displayname"}: func(src, dst *Prop) bool {
		dst.DisplayName = src.DisplayName
		return src.DisplayName != nil
	},
	{Space: NSDAV, Local: "current-user-principal"}: func(src, dst *Prop) bool {
		dst.CurrentUserPrincipal = src.CurrentUserPrincipal
		return src.CurrentUserPrincipal != nil
	},
	{Space: NSDAV, Local: "principal-URL"}: func(src, dst *Prop) bool {
		dst.PrincipalURL = src.PrincipalURL
		return src.PrincipalURL != nil
	},
	{Space: NSDAV, Local: "principal-collection-set"}: func(src, dst *Prop) bool {
		dst.PrincipalCollectionSet = src.PrincipalCollectionSet
		return src.PrincipalCollectionSet != nil
	},
	{Space: NSDAV, Local: "owner"}: func(src, dst *Prop) bool {
		dst.Owner = src.Owner
		return src.Owner != nil
	},
	{Space: NSCalDAV, Local: "calendar-home-set"}: func(src, dst *Prop) bool {
		dst.CalendarHomeSet = src.CalendarHomeSet
		return src.CalendarHomeSet != nil
	},
	{Space: NSCardDAV, Local: "addressbook-home-set"}: func(src, dst *Prop) bool {
		dst.AddressbookHomeSet = src.AddressbookHomeSet
		return src.AddressbookHomeSet != nil
	},
	{Space: NSCalDAV, Local: "supported-calendar-component-set"}: func(src, dst *Prop) bool {
		dst.SupportedCalendarComponentSet = src.SupportedCalendarComponentSet
		return src.SupportedCalendarComponentSet != nil
	},
	{Space: NSDAV, Local: "supported-report-set"}: func(src, dst *Prop) bool {
		dst.SupportedReportSet = src.SupportedReportSet
		return src.SupportedReportSet != nil
	},
	{Space: NSCS, Local: "getctag"}: func(src, dst *Prop) bool {
		dst.GetCTag = src.GetCTag
		return src.GetCTag != nil
	},
	{Space: NSDAV, Local: "getcontenttype"}: func(src, dst *Prop) bool {
		dst.ContentType = src.ContentType
		return src.ContentType != nil
	},
	{Space: NSDAV, Local: "getcontentlength"}: func(src, dst *Prop) bool {
		dst.ContentLength = src.ContentLength
		return src.ContentLength != nil
	},
	{Space: NSDAV, Local: "getetag"}: func(src, dst *Prop) bool {
		dst.GetETag = src.GetETag
		return src.GetETag != ""
	},
	{Space: NSDAV, Local: "getlastmodified"}: func(src, dst *Prop) bool {
		dst.GetLastModified = src.GetLastModified
		return src.GetLastModified != ""
	},
	{Space: NSCalDAV, Local: "calendar-data"}: func(src, dst *Prop) bool {
		dst.CalendarData = src.CalendarData
		return src.CalendarData != ""
	},
	{Space: NSCardDAV, Local: "address-data"}: func(src, dst *Prop) bool {
		dst.AddressData = src.AddressData
		return src.AddressData != ""
	},
}

// FilterProps reduces a resource's full property set to what the
// request asked for: one 200 propstat with the values we have and, for
// prop-list requests, one 404 propstat of empty elements for the rest.
func FilterProps(full Prop, pf *PropFind) []PropStat {
	if pf == nil || pf.AllProp != nil {
		return []PropStat{{Prop: full, Status: Ok()}}
	}

	if pf.PropName != nil {
		var names Prop
		for name, get := range propGetters {
			var probe Prop
			if get(&full, &probe) {
				names.Missing = append(names.Missing, EmptyElem{XMLName: name})
			}
		}
		return []PropStat{{Prop: names, Status: Ok()}}
	}

	var found Prop
	var missing Prop
	haveFound := false
	for _, req := range pf.Prop.Names {
		get, known := propGetters[req.XMLName]
		if known && get(&full, &found) {
			haveFound = true
			continue
		}
		missing.Missing = append(missing.Missing, EmptyElem{XMLName: req.XMLName})
	}

	var out []PropStat
	if haveFound {
		out = append(out, PropStat{Prop: found, Status: Ok()})
	}
	if len(missing.Missing) > 0 {
		out = append(out, PropStat{Prop: missing, Status: NotFound()})
	}
	if len(out) == 0 {
		out = append(out, PropStat{Prop: Prop{}, Status: Ok()})
	}
	return out
}
