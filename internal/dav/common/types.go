package common

import "encoding/xml"

// PropContainer records which properties a REPORT asked for.
type PropContainer struct {
	Names []EmptyElem `xml:",any"`
}

func (p PropContainer) Wants(space, local string) bool {
	for _, n := range p.Names {
		if n.XMLName.Space == space && n.XMLName.Local == local {
			return true
		}
	}
	return false
}

// AsPropFind adapts the REPORT prop element to the PROPFIND filtering
// machinery, so per-object REPORT responses carry the same propstat
// split a PROPFIND on the object would. A report without a prop list
// gets the full set.
func (p PropContainer) AsPropFind() *PropFind {
	if len(p.Names) == 0 {
		return &PropFind{AllProp: &struct{}{}}
	}
	return &PropFind{Prop: &PropList{Names: p.Names}}
}

type CalendarQuery struct {
	XMLName xml.Name       `xml:"urn:ietf:params:xml:ns:caldav calendar-query"`
	Prop    PropContainer  `xml:"DAV: prop"`
	Filter  CalendarFilter `xml:"filter"`
}

type CalendarMultiget struct {
	XMLName xml.Name      `xml:"urn:ietf:params:xml:ns:caldav calendar-multiget"`
	Prop    PropContainer `xml:"DAV: prop"`
	Hrefs   []string      `xml:"DAV: href"`
}

type AddressbookQuery struct {
	XMLName xml.Name      `xml:"urn:ietf:params:xml:ns:carddav addressbook-query"`
	Prop    PropContainer `xml:"DAV: prop"`
}

type AddressbookMultiget struct {
	XMLName xml.Name      `xml:"urn:ietf:params:xml:ns:carddav addressbook-multiget"`
	Prop    PropContainer `xml:"DAV: prop"`
	Hrefs   []string      `xml:"DAV: href"`
}

type CalendarFilter struct {
	CompFilter CompFilter `xml:"comp-filter"`
}

type CompFilter struct {
	Name       string      `xml:"name,attr"`
	CompFilter *CompFilter `xml:"comp-filter,omitempty"`
	TimeRange  *TimeRange  `xml:"time-range,omitempty"`
}

type TimeRange struct {
	Start string `xml:"start,attr,omitempty"`
	End   string `xml:"end,attr,omitempty"`
}

// ExtractTimeRange walks the comp-filter nesting for the first
// time-range. Property, parameter and text-match filters are not
// evaluated; callers fall back to returning everything in range.
func ExtractTimeRange(f CalendarFilter) *TimeRange {
	c := &f.CompFilter
	for c != nil {
		if c.TimeRange != nil {
			return c.TimeRange
		}
		c = c.CompFilter
	}
	return nil
}
