package carddav

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

type fakeAPI struct {
	companies []string
	addresses map[string][]upstream.Address // by addressType
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"tok","expiresIn":1800}`))
	})
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		type co struct {
			CompanyName string `json:"companyName"`
		}
		cos := make([]co, 0, len(f.companies))
		for _, name := range f.companies {
			cos = append(cos, co{CompanyName: name})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"companies": cos})
	})
	mux.HandleFunc("GET /companies/{company}/addresses", func(w http.ResponseWriter, r *http.Request) {
		list := f.addresses[r.URL.Query().Get("addressType")]
		offset := atoi(r.URL.Query().Get("offset"))
		limit := atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 1000
		}
		end := offset + limit
		if offset > len(list) {
			offset = len(list)
		}
		if end > len(list) {
			end = len(list)
		}
		_ = json.NewEncoder(w).Encode(upstream.AddressPage{
			Addresses:  list[offset:end],
			Count:      end - offset,
			TotalCount: len(list),
		})
	})
	mux.HandleFunc("GET /companies/{company}/addresses/{key}", func(w http.ResponseWriter, r *http.Request) {
		for _, list := range f.addresses {
			for i := range list {
				if list[i].Key == r.PathValue("key") {
					_ = json.NewEncoder(w).Encode(list[i])
					return
				}
			}
		}
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})
	return mux
}

func atoi(s string) int {
	var n int
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}

func newTestHandlers(t *testing.T, f *fakeAPI) *Handlers {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{BasePath: "/dav"},
		Upstream: config.UpstreamConfig{
			BaseURL:      srv.URL,
			ClientID:     "cid",
			ClientSecret: "secret",
			Timeout:      5 * time.Second,
		},
		DAV: config.DAVConfig{EnableCardDAV: true, SyncWeeks: 2, ListingMode: "series"},
	}
	client := upstream.New(cfg.Upstream, zerolog.Nop())
	t.Cleanup(client.Close)
	return NewHandlers(cfg, client, zerolog.Nop())
}

func defaultFake() *fakeAPI {
	return &fakeAPI{
		companies: []string{"Acme"},
		addresses: map[string][]upstream.Address{
			"customer": {
				{Key: "c1", AddressType: "customer", Name: "First Customer"},
				{Key: "c2", AddressType: "customer", Name: "Second Customer"},
			},
			"employee": {
				{Key: "e1", AddressType: "employee", Name: "Worker"},
			},
		},
	}
}

func doPropfind(t *testing.T, h *Handlers, path, depth, body string) *httptest.ResponseRecorder {
	t.Helper()
	pf, err := common.ParsePropFind([]byte(body))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.HandlePropfind(rec, httptest.NewRequest("PROPFIND", path, nil), depth, pf)
	return rec
}

func parseMultiStatus(t *testing.T, rec *httptest.ResponseRecorder) common.MultiStatus {
	t.Helper()
	require.Equal(t, 207, rec.Code, "body: %s", rec.Body.String())
	var ms common.MultiStatus
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &ms))
	return ms
}

func TestGetCard(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/dav/contacts/customer/c1.vcf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vcard; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), "FN:First Customer")
	assert.Contains(t, rec.Body.String(), "CATEGORIES:CUSTOMER")

	t.Run("conditional revalidation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dav/contacts/customer/c1.vcf", nil)
		req.Header.Set("If-None-Match", rec.Header().Get("ETag"))
		rec2 := httptest.NewRecorder()
		h.HandleGet(rec2, req)
		assert.Equal(t, http.StatusNotModified, rec2.Code)
	})

	t.Run("etag list revalidation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dav/contacts/customer/c1.vcf", nil)
		req.Header.Set("If-None-Match", `"stale", `+rec.Header().Get("ETag"))
		rec3 := httptest.NewRecorder()
		h.HandleGet(rec3, req)
		assert.Equal(t, http.StatusNotModified, rec3.Code)
	})
}

func TestGetCardMissing(t *testing.T) {
	h := newTestHandlers(t, defaultFake())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/dav/contacts/customer/nope.vcf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCardUnknownBook(t *testing.T) {
	h := newTestHandlers(t, defaultFake())
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/dav/contacts/vendors/c1.vcf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPropfindHomeListsFourBooks(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	ms := parseMultiStatus(t, doPropfind(t, h, "/dav/contacts/", "1", ""))
	require.Len(t, ms.Resp, 5)
	assert.Equal(t, "/dav/contacts/", ms.Resp[0].Href)

	var hrefs []string
	for _, resp := range ms.Resp[1:] {
		hrefs = append(hrefs, resp.Href)
	}
	assert.ElementsMatch(t, []string{
		"/dav/contacts/customer/",
		"/dav/contacts/supplier/",
		"/dav/contacts/employee/",
		"/dav/contacts/other/",
	}, hrefs)
}

func TestPropfindBookListsCards(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	ms := parseMultiStatus(t, doPropfind(t, h, "/dav/contacts/customer/", "1", ""))
	require.Len(t, ms.Resp, 3)
	assert.Equal(t, "/dav/contacts/customer/", ms.Resp[0].Href)

	var hrefs []string
	for _, resp := range ms.Resp[1:] {
		hrefs = append(hrefs, resp.Href)
	}
	assert.ElementsMatch(t, []string{
		"/dav/contacts/customer/c1.vcf",
		"/dav/contacts/customer/c2.vcf",
	}, hrefs)
}

func TestPropfindBookPaginates(t *testing.T) {
	f := &fakeAPI{companies: []string{"Acme"}, addresses: map[string][]upstream.Address{}}
	for i := range 1500 {
		f.addresses["supplier"] = append(f.addresses["supplier"], upstream.Address{
			Key:         fmt.Sprintf("s%04d", i),
			AddressType: "supplier",
			Name:        fmt.Sprintf("Supplier %d", i),
		})
	}
	h := newTestHandlers(t, f)

	ms := parseMultiStatus(t, doPropfind(t, h, "/dav/contacts/supplier/", "1", ""))
	assert.Len(t, ms.Resp, 1501)
}

func TestNoCompany(t *testing.T) {
	h := newTestHandlers(t, &fakeAPI{companies: nil})
	rec := doPropfind(t, h, "/dav/contacts/customer/", "1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadOnlyMethods(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	rec := httptest.NewRecorder()
	h.HandlePut(rec, httptest.NewRequest(http.MethodPut, "/dav/contacts/customer/c1.vcf", strings.NewReader("BEGIN:VCARD")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleDelete(rec, httptest.NewRequest(http.MethodDelete, "/dav/contacts/customer/c1.vcf", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleMkcol(rec, httptest.NewRequest("MKCOL", "/dav/contacts/newbook/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportAddressbookMultiget(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	rec := httptest.NewRecorder()
	body := `<?xml version="1.0"?>
<C:addressbook-multiget xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:carddav">
  <D:prop><D:getetag/><C:address-data/></D:prop>
  <D:href>/dav/contacts/customer/c1.vcf</D:href>
  <D:href>/dav/contacts/customer/ghost.vcf</D:href>
</C:addressbook-multiget>`
	h.HandleReport(rec, httptest.NewRequest("REPORT", "/dav/contacts/customer/", strings.NewReader(body)))

	require.Equal(t, 207, rec.Code)
	var ms common.MultiStatus
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &ms))
	require.Len(t, ms.Resp, 1)
	assert.Equal(t, "/dav/contacts/customer/c1.vcf", ms.Resp[0].Href)
	assert.Contains(t, ms.Resp[0].Propstats[0].Prop.AddressData, "FN:First Customer")
}

func TestReportAddressbookQuery(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	rec := httptest.NewRecorder()
	body := `<?xml version="1.0"?>
<C:addressbook-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:carddav">
  <D:prop><D:getetag/></D:prop>
</C:addressbook-query>`
	h.HandleReport(rec, httptest.NewRequest("REPORT", "/dav/contacts/employee/", strings.NewReader(body)))

	require.Equal(t, 207, rec.Code)
	var ms common.MultiStatus
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &ms))
	require.Len(t, ms.Resp, 1)
	assert.Equal(t, "/dav/contacts/employee/e1.vcf", ms.Resp[0].Href)
	assert.Empty(t, ms.Resp[0].Propstats[0].Prop.AddressData)
}

func TestReportPropstatSplit(t *testing.T) {
	h := newTestHandlers(t, defaultFake())

	rec := httptest.NewRecorder()
	body := `<?xml version="1.0"?>
<C:addressbook-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:carddav">
  <D:prop><D:getetag/><D:quota-available-bytes/></D:prop>
</C:addressbook-query>`
	h.HandleReport(rec, httptest.NewRequest("REPORT", "/dav/contacts/employee/", strings.NewReader(body)))

	require.Equal(t, 207, rec.Code)
	var ms common.MultiStatus
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &ms))
	require.Len(t, ms.Resp, 1)
	require.Len(t, ms.Resp[0].Propstats, 2)

	ok := ms.Resp[0].Propstats[0]
	assert.Equal(t, common.Ok(), ok.Status)
	assert.NotEmpty(t, ok.Prop.GetETag)
	assert.Nil(t, ok.Prop.ContentType)
	assert.Nil(t, ok.Prop.ResourceType)

	missing := ms.Resp[0].Propstats[1]
	assert.Equal(t, common.NotFound(), missing.Status)
	assert.Contains(t, rec.Body.String(), "quota-available-bytes")
}

func TestCardStem(t *testing.T) {
	assert.Equal(t, "c1", CardStem("c1.vcf"))
	assert.Equal(t, "c1", CardStem("c1"))
}
