// Package api exposes the query, notification, chat and streaming
// endpoints over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"mission-control/internal/config"
	"mission-control/internal/logging"
	"mission-control/internal/producer"
	"mission-control/internal/query"
	"mission-control/internal/store"
	"mission-control/internal/stream"
	"mission-control/internal/telemetry"
	"mission-control/internal/warden"
)

// Counter reports how many readings the store holds.
type Counter interface {
	Len(kind telemetry.Kind) int
}

// Deps wires the server to the rest of the process.
type Deps struct {
	Engine    *query.Engine
	Store     Counter
	Sessions  *stream.Manager
	Producers *producer.Factory
	Warden    *warden.Warden
	// Notifications is the acknowledged history served by the recent endpoint.
	Notifications []telemetry.Notification

	AllowedOrigins []string
	WS             stream.WSConfig
	Log            *slog.Logger
	Now            func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	engine        *query.Engine
	store         Counter
	sessions      *stream.Manager
	producers     *producer.Factory
	warden        *warden.Warden
	notifications []telemetry.Notification

	origins  []string
	upgrader websocket.Upgrader
	ws       stream.WSConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewServer creates a server from d. Missing optional pieces get defaults.
func NewServer(d Deps) *Server {
	s := &Server{
		engine:        d.Engine,
		store:         d.Store,
		sessions:      d.Sessions,
		producers:     d.Producers,
		warden:        d.Warden,
		notifications: slices.Clone(d.Notifications),
		origins:       d.AllowedOrigins,
		ws:            d.WS,
		log:           d.Log,
		now:           d.Now,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.store == nil {
		s.store = store.New()
	}
	if s.engine == nil {
		s.engine = query.NewEngine(store.New(), query.DefaultOptions(), s.now)
	}
	if s.sessions == nil {
		s.sessions = stream.NewManager(s.log)
	}
	if s.producers == nil {
		cfg := config.Default().Producers
		s.producers = producer.NewFactory(cfg, nil, telemetry.NewSequence(cfg.Notifications.FirstID), s.now)
	}
	if s.warden == nil {
		s.warden = warden.New()
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowOrigin(origin)
		},
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.cors)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/fire-drone/recent", s.handleRecent)
		r.Get("/fire-drone/query", s.handleQuery)
		r.Get("/notifications/recent", s.handleNotifications)
		r.Post("/fire-warden/chat", s.handleChat)
		r.Get("/sessions", s.handleSessions)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/fire-updates", s.handleStream(func() stream.Producer { return s.producers.Fire() }))
		r.Get("/drone-updates", s.handleStream(func() stream.Producer { return s.producers.Drone() }))
		r.Get("/notifications", s.handleStream(func() stream.Producer { return s.producers.Notifications() }))
	})
	return r
}
