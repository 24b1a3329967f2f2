package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/davgate/davgate/internal/config"
	"github.com/davgate/davgate/internal/dav"
	"github.com/davgate/davgate/internal/feed"
	"github.com/davgate/davgate/internal/router"
	"github.com/davgate/davgate/internal/translate"
	"github.com/davgate/davgate/internal/upstream"
)

type Server struct {
	http   *http.Server
	logger zerolog.Logger
}

func NewServer(cfg *config.Config, logger zerolog.Logger) (*Server, func(), error) {
	client := upstream.New(cfg.Upstream, logger)
	tr := translate.New(cfg.Upstream.Location(), cfg.ICS.BuildProdID())
	davh := dav.NewHandlers(cfg, client, tr, logger)

	var feedHandler http.Handler
	if cfg.Feed.Enabled {
		feedHandler = feed.New(cfg, client, tr, logger)
	}

	mux := router.New(cfg, davh, feedHandler, logger)

	srv := &Server{
		http: &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
	cleanup := func() {
		client.Close()
	}
	logger.Info().Msgf("listening on %s (upstream=%s)", cfg.HTTP.Addr, cfg.Upstream.BaseURL)
	return srv, cleanup, nil
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
