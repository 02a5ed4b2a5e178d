// Package server assembles the service: the echo HTTP server, the message
// bus, the WebSocket bridge, the state tracker and the command gateway.
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"

	"github.com/nimred/encounter/internal/config"
	"github.com/nimred/encounter/internal/engine"
	"github.com/nimred/encounter/internal/gateway"
	appmiddleware "github.com/nimred/encounter/internal/middleware"
	"github.com/nimred/encounter/internal/pubsub"
	"github.com/nimred/encounter/internal/session"
	"github.com/nimred/encounter/internal/storage"
	"github.com/nimred/encounter/internal/websocket"
)

// Server holds the dependencies for the running service.
type Server struct {
	E       *echo.Echo
	cfg     *config.Config
	bus     *pubsub.WatermillBridge
	bridge  *websocket.Bridge
	gateway *gateway.Gateway
	store   *storage.StateStore
	tracker *engine.Tracker
}

// New creates a fully wired server. The roster is loaded from the state file
// (or starts empty) before anything can connect.
func New(cfg *config.Config) *Server {
	bus := pubsub.NewWatermillBridge()
	store := storage.NewStateStore(afero.NewOsFs(), cfg.StateFile)

	auth := session.NewAuthorizer(cfg.GMSecret)
	sessions := session.NewRegistry()
	tracker := engine.NewTracker(store.Load(), auth)

	bridge := websocket.NewBridge(bus, cfg.AllowedOrigins)
	gw := gateway.New(tracker, auth, sessions, store, bus)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.RequestLogger)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.AllowedOrigins),
	}))

	return &Server{
		E:       e,
		cfg:     cfg,
		bus:     bus,
		bridge:  bridge,
		gateway: gw,
		store:   store,
		tracker: tracker,
	}
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// RegisterRoutes registers all HTTP routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.bridge.Handler())
	s.E.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Tracker exposes the state tracker, useful for testing.
func (s *Server) Tracker() *engine.Tracker {
	return s.tracker
}

// Bus exposes the message bus, useful for testing.
func (s *Server) Bus() *pubsub.WatermillBridge {
	return s.bus
}

// wireBackground starts the bridge loop, the gateway subscription and the
// outbound fan-out subscriptions.
func (s *Server) wireBackground(ctx context.Context) error {
	go s.bridge.Run(ctx)
	if err := s.gateway.Start(ctx, s.bus); err != nil {
		return err
	}
	return s.bridge.StartSubscribers(ctx, s.bus)
}
