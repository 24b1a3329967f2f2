package carddav

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/dav/common"
	"github.com/davgate/davgate/internal/upstream"
)

// addressBook is one of the four fixed collections, keyed by the
// upstream address type.
type addressBook struct {
	URI     string
	Type    string
	Display string
}

var addressBooks = []addressBook{
	{URI: "customer", Type: "customer", Display: "Customers"},
	{URI: "supplier", Type: "supplier", Display: "Suppliers"},
	{URI: "employee", Type: "employee", Display: "Employees"},
	{URI: "other", Type: "other", Display: "Other Contacts"},
}

func bookByURI(uri string) *addressBook {
	for i := range addressBooks {
		if addressBooks[i].URI == uri {
			return &addressBooks[i]
		}
	}
	return nil
}

type Handlers struct {
	cfg      *config.Config
	client   *upstream.Client
	logger   zerolog.Logger
	basePath string

	mu      sync.Mutex
	company string
}

func NewHandlers(cfg *config.Config, client *upstream.Client, logger zerolog.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		basePath: cfg.HTTP.BasePath,
	}
}

func (h *Handlers) GetCapabilities() string {
	return "addressbook"
}

var errNoCompany = errors.New("upstream returned no company")

// companyName resolves the company whose addresses are served. The
// upstream scopes address records by company; the first one visible to
// the license is used and memoized for the process lifetime.
func (h *Handlers) companyName(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.company != "" {
		return h.company, nil
	}
	names, err := h.client.Companies(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errNoCompany
	}
	h.company = names[0]
	return h.company, nil
}

func (h *Handlers) upstreamError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, errNoCompany) {
		http.Error(w, "no company available", http.StatusServiceUnavailable)
		return
	}
	status := upstream.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error().Err(err).Msg(op + " failed")
	} else {
		h.logger.Debug().Err(err).Msg(op + " failed")
	}
	http.Error(w, http.StatusText(status), status)
}

func addressbookHome(basePath string) string {
	return common.AddressbookHome(basePath)
}

func addressbookPath(basePath, bookURI string) string {
	return common.AddressbookPath(basePath, bookURI)
}

func cardPath(basePath, bookURI, key string) string {
	return common.JoinURL(basePath, "contacts", bookURI, key+".vcf")
}
