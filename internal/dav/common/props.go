package common

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
)

const (
	NSDAV     = "DAV:"
	NSCalDAV  = "urn:ietf:params:xml:ns:caldav"
	NSCardDAV = "urn:ietf:params:xml:ns:carddav"
	NSCS      = "http://calendarserver.org/ns/"
)

type MultiStatus struct {
	XMLName xml.Name   `xml:"DAV: multistatus"`
	XmlnsD  string     `xml:"xmlns:D,attr,omitempty"`
	Resp    []Response `xml:"response"`
}

type Response struct {
	Href      string     `xml:"href"`
	Propstats []PropStat `xml:"propstat"`
}

type PropStat struct {
	Prop   Prop   `xml:"prop"`
	Status string `xml:"status"`
}

// Prop is the union of every property the gateway can serve. Pointer
// and omitempty fields keep unset properties out of the serialized
// propstat.
type Prop struct {
	ResourceType                  *ResourceType     `xml:"resourcetype,omitempty"`
	DisplayName                   *string           `xml:"displayname,omitempty"`
	CurrentUserPrincipal          *Href             `xml:"current-user-principal>href,omitempty"`
	PrincipalURL                  *Href             `xml:"principal-URL>href,omitempty"`
	PrincipalCollectionSet        *Hrefs            `xml:"principal-collection-set,omitempty"`
	Owner                         *Href             `xml:"owner>href,omitempty"`
	CalendarHomeSet               *CalHomeSet       `xml:",omitempty"`
	AddressbookHomeSet            *CardHomeSet      `xml:",omitempty"`
	SupportedCalendarComponentSet *SupportedCompSet `xml:"urn:ietf:params:xml:ns:caldav supported-calendar-component-set,omitempty"`
	SupportedReportSet            *SupportedReports `xml:"supported-report-set,omitempty"`
	GetCTag                       *string           `xml:"http://calendarserver.org/ns/ getctag,omitempty"`
	ContentType                   *string           `xml:"getcontenttype,omitempty"`
	ContentLength                 *string           `xml:"getcontentlength,omitempty"`
	GetETag                       string            `xml:"getetag,omitempty"`
	GetLastModified               string            `xml:"getlastmodified,omitempty"`
	CalendarData                  string            `xml:"urn:ietf:params:xml:ns:caldav calendar-data,omitempty"`
	AddressData                   string            `xml:"urn:ietf:params:xml:ns:carddav address-data,omitempty"`

	// Empty elements for the 404 propstat; each entry's XMLName names
	// the property the client asked for and we do not have.
	Missing []EmptyElem
}

// EmptyElem marshals as a bare element named by its XMLName.
type EmptyElem struct {
	XMLName xml.Name
}

type ResourceType struct {
	Collection  *struct{} `xml:"collection,omitempty"`
	Principal   *struct{} `xml:"principal,omitempty"`
	Calendar    *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar,omitempty"`
	Addressbook *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook,omitempty"`
}

type Href struct {
	Value string `xml:",chardata"`
}

// CalHomeSet and CardHomeSet carry their namespace in XMLName because
// encoding/xml applies the namespace of an "ns outer>inner" field tag to
// the leaf element on marshal but matches it against the outer element on
// unmarshal, so a plain tagged *Href cannot round-trip.
type CalHomeSet struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:caldav calendar-home-set"`
	Value   string   `xml:"DAV: href"`
}

type CardHomeSet struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:carddav addressbook-home-set"`
	Value   string   `xml:"DAV: href"`
}

type Hrefs struct {
	Values []string `xml:"href"`
}

type SupportedCompSet struct {
	Comp []Comp `xml:"urn:ietf:params:xml:ns:caldav comp"`
}

type Comp struct {
	Name string `xml:"name,attr"`
}

type SupportedReports struct {
	Reports []SupportedReport `xml:"supported-report"`
}

type SupportedReport struct {
	Report ReportName `xml:"report"`
}

type ReportName struct {
	CalendarQuery       *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar-query,omitempty"`
	CalendarMultiget    *struct{} `xml:"urn:ietf:params:xml:ns:caldav calendar-multiget,omitempty"`
	AddressbookQuery    *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook-query,omitempty"`
	AddressbookMultiget *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook-multiget,omitempty"`
}

func WriteMultiStatus(w http.ResponseWriter, ms MultiStatus) {
	ms.XmlnsD = NSDAV

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(ms); err != nil {
		http.Error(w, fmt.Sprintf("xml encode error: %v", err), http.StatusInternalServerError)
		return
	}
	_ = enc.Flush()
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(207)
	_, _ = w.Write(buf.Bytes())
}

func Ok() string       { return "HTTP/1.1 200 OK" }
func NotFound() string { return "HTTP/1.1 404 Not Found" }

func MakeCalendarResourcetype() *ResourceType {
	return &ResourceType{
		Collection: &struct{}{},
		Calendar:   &struct{}{},
	}
}

func MakeAddressbookResourcetype() *ResourceType {
	return &ResourceType{
		Collection:  &struct{}{},
		Addressbook: &struct{}{},
	}
}

func MakeCollectionResourcetype() *ResourceType {
	return &ResourceType{
		Collection: &struct{}{},
	}
}

func MakePrincipalResourcetype() *ResourceType {
	return &ResourceType{
		Principal:  &struct{}{},
		Collection: &struct{}{},
	}
}

func CalContentType() *string {
	ct := "text/calendar; charset=utf-8"
	return &ct
}

func CardContentType() *string {
	ct := "text/vcard; charset=utf-8"
	return &ct
}

func CalendarReportSet() *SupportedReports {
	return &SupportedReports{Reports: []SupportedReport{
		{Report: ReportName{CalendarQuery: &struct{}{}}},
		{Report: ReportName{CalendarMultiget: &struct{}{}}},
	}}
}

func AddressbookReportSet() *SupportedReports {
	return &SupportedReports{Reports: []SupportedReport{
		{Report: ReportName{AddressbookQuery: &struct{}{}}},
		{Report: ReportName{AddressbookMultiget: &struct{}{}}},
	}}
}

func StrPtr(s string) *string { return &s }
