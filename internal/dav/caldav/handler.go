package caldav

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/cache"
	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/translate"
	"github.com/davgate/davgate/internal/upstream"
)

// DefaultCalendarURI is the single upstream-backed calendar collection.
const DefaultCalendarURI = "default"

const eventCacheTTL = 30 * time.Second

type Handlers struct {
	cfg      *config.Config
	client   *upstream.Client
	tr       *translate.Translator
	events   *cache.Cache[string, *upstream.Event]
	logger   zerolog.Logger
	basePath string
}

func NewHandlers(cfg *config.Config, client *upstream.Client, tr *translate.Translator, logger zerolog.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		client:   client,
		tr:       tr,
		events:   cache.New[string, *upstream.Event](eventCacheTTL),
		logger:   logger,
		basePath: cfg.HTTP.BasePath,
	}
}

func (h *Handlers) GetCapabilities() string {
	return "calendar-access"
}

// listingWindow is the time range served when no explicit range is
// requested: now plus/minus the configured number of weeks.
func (h *Handlers) listingWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	span := time.Duration(h.cfg.DAV.SyncWeeks) * 7 * 24 * time.Hour
	return now.Add(-span), now.Add(span)
}
