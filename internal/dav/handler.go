package dav

import (
	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/dav/caldav"
	"github.com/davgate/davgate/internal/dav/carddav"
	"github.com/davgate/davgate/internal/translate"
	"github.com/davgate/davgate/internal/upstream"
)

type Handlers struct {
	cfg      *config.Config
	logger   zerolog.Logger
	basePath string

	CalDAV  *caldav.Handlers
	CardDAV *carddav.Handlers

	resourceHandlers map[string]ResourceHandler
}

func NewHandlers(cfg *config.Config, client *upstream.Client, tr *translate.Translator, logger zerolog.Logger) *Handlers {
	h := &Handlers{
		cfg:              cfg,
		logger:           logger,
		basePath:         cfg.HTTP.BasePath,
		CalDAV:           caldav.NewHandlers(cfg, client, tr, logger),
		CardDAV:          carddav.NewHandlers(cfg, client, logger),
		resourceHandlers: make(map[string]ResourceHandler),
	}

	if cfg.DAV.EnableCalDAV {
		h.RegisterResourceHandler("calendars", h.CalDAV)
	}
	if cfg.DAV.EnableCardDAV {
		h.RegisterResourceHandler("contacts", h.CardDAV)
	}

	return h
}

func (h *Handlers) RegisterResourceHandler(key string, handler ResourceHandler) {
	h.resourceHandlers[key] = handler
}
