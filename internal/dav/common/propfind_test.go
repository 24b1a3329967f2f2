package common

import (
	"encoding/xml"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropFind(t *testing.T) {
	t.Run("empty body means allprop", func(t *testing.T) {
		pf, err := ParsePropFind(nil)
		require.NoError(t, err)
		assert.NotNil(t, pf.AllProp)
	})

	t.Run("explicit allprop", func(t *testing.T) {
		pf, err := ParsePropFind([]byte(`<?xml version="1.0"?>
<D:propfind xmlns:D="DAV:"><D:allprop/></D:propfind>`))
		require.NoError(t, err)
		assert.NotNil(t, pf.AllProp)
	})

	t.Run("propname", func(t *testing.T) {
		pf, err := ParsePropFind([]byte(`<?xml version="1.0"?>
<D:propfind xmlns:D="DAV:"><D:propname/></D:propfind>`))
		require.NoError(t, err)
		assert.NotNil(t, pf.PropName)
	})

	t.Run("prop list", func(t *testing.T) {
		pf, err := ParsePropFind([]byte(`<?xml version="1.0"?>
<D:propfind xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
</D:propfind>`))
		require.NoError(t, err)
		require.NotNil(t, pf.Prop)
		require.Len(t, pf.Prop.Names, 2)
		assert.Equal(t, xml.Name{Space: NSDAV, Local: "getetag"}, pf.Prop.Names[0].XMLName)
		assert.Equal(t, xml.Name{Space: NSCalDAV, Local: "calendar-data"}, pf.Prop.Names[1].XMLName)
	})

	t.Run("broken xml", func(t *testing.T) {
		_, err := ParsePropFind([]byte("<propfind"))
		assert.Error(t, err)
	})
}

func fullProp() Prop {
	return Prop{
		ResourceType: MakeCalendarResourcetype(),
		DisplayName:  StrPtr("Calendar"),
		GetETag:      `"abc"`,
		ContentType:  CalContentType(),
	}
}

func TestFilterPropsAllprop(t *testing.T) {
	pf, err := ParsePropFind(nil)
	require.NoError(t, err)

	stats := FilterProps(fullProp(), pf)
	require.Len(t, stats, 1)
	assert.Equal(t, Ok(), stats[0].Status)
	assert.Equal(t, `"abc"`, stats[0].Prop.GetETag)
	assert.NotNil(t, stats[0].Prop.DisplayName)
}

func TestFilterPropsSplitsFoundAndMissing(t *testing.T) {
	pf := &PropFind{Prop: &PropList{Names: []EmptyElem{
		{XMLName: xml.Name{Space: NSDAV, Local: "getetag"}},
		{XMLName: xml.Name{Space: NSDAV, Local: "displayname"}},
		{XMLName: xml.Name{Space: NSCS, Local: "getctag"}},
		{XMLName: xml.Name{Space: NSDAV, Local: "no-such-prop"}},
	}}}

	stats := FilterProps(fullProp(), pf)
	require.Len(t, stats, 2)

	assert.Equal(t, Ok(), stats[0].Status)
	assert.Equal(t, `"abc"`, stats[0].Prop.GetETag)
	assert.NotNil(t, stats[0].Prop.DisplayName)

	assert.Equal(t, NotFound(), stats[1].Status)
	require.Len(t, stats[1].Prop.Missing, 2)
	assert.Equal(t, "getctag", stats[1].Prop.Missing[0].XMLName.Local)
	assert.Equal(t, "no-such-prop", stats[1].Prop.Missing[1].XMLName.Local)
}

func TestFilterPropsAllMissing(t *testing.T) {
	pf := &PropFind{Prop: &PropList{Names: []EmptyElem{
		{XMLName: xml.Name{Space: NSDAV, Local: "quota-available-bytes"}},
	}}}

	stats := FilterProps(Prop{}, pf)
	require.Len(t, stats, 1)
	assert.Equal(t, NotFound(), stats[0].Status)
}

func TestWriteMultiStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMultiStatus(rec, MultiStatus{Resp: []Response{{
		Href: "/dav/calendars/default/",
		Propstats: []PropStat{{
			Prop:   Prop{DisplayName: StrPtr("Calendar")},
			Status: Ok(),
		}},
	}}})

	assert.Equal(t, 207, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, body, "multistatus")
	assert.Contains(t, body, "/dav/calendars/default/")
	assert.Contains(t, body, "HTTP/1.1 200 OK")

	var ms MultiStatus
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &ms))
	require.Len(t, ms.Resp, 1)
}
