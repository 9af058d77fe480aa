package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"mission-control/internal/api"
	"mission-control/internal/config"
	"mission-control/internal/logging"
	"mission-control/internal/producer"
	"mission-control/internal/query"
	"mission-control/internal/store"
	"mission-control/internal/stream"
	"mission-control/internal/telemetry"
	"mission-control/internal/warden"
)

// app owns the long-lived pieces shared by every connection.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	now       func() time.Time
	store     *store.Store
	engine    *query.Engine
	sessions  *stream.Manager
	producers *producer.Factory
}

// newApp wires the store, query engine, session manager and producers.
// When echo is set, produced readings are also written to echoOut.
func newApp(cfg *config.Config, log *slog.Logger, now func() time.Time, echo bool, echoOut io.Writer) (*app, error) {
	if now == nil {
		now = time.Now
	}
	st := store.New()
	if cfg.Store.Seed {
		t := now()
		if err := st.Seed(telemetry.SeedFires(t), telemetry.SeedDrones(t)); err != nil {
			return nil, err
		}
	}
	log.Info("store ready", "fires", st.Len(telemetry.KindFire), "drones", st.Len(telemetry.KindDrone))

	sink := newSink(st, echo, echoOut)
	seq := telemetry.NewSequence(cfg.Producers.Notifications.FirstID)

	return &app{
		cfg:    cfg,
		log:    log,
		now:    now,
		store:  st,
		engine: query.NewEngine(st, query.Options{
			Span:            cfg.Query.Window,
			DefaultPageSize: cfg.Query.DefaultPageSize,
			MaxPageSize:     cfg.Query.MaxPageSize,
		}, now),
		sessions:  stream.NewManager(log),
		producers: producer.NewFactory(cfg.Producers, sink, seq, now),
	}, nil
}

// newSink records readings in the store and optionally echoes them.
func newSink(a store.Appender, echo bool, out io.Writer) producer.Sink {
	ss := producer.NewStoreSink(a)
	if !echo {
		return ss
	}
	return producer.NewMultiSink(ss, producer.NewJSONStdoutSink(out))
}

func (a *app) handler() http.Handler {
	var notes []telemetry.Notification
	if a.cfg.Store.Seed {
		notes = telemetry.SeedNotifications(a.now())
	}
	return api.NewServer(api.Deps{
		Engine:         a.engine,
		Store:          a.store,
		Sessions:       a.sessions,
		Producers:      a.producers,
		Warden:         warden.New(),
		Notifications:  notes,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		WS: stream.WSConfig{
			WriteWait: a.cfg.Server.WriteWait,
			PongWait:  a.cfg.Server.PongWait,
		},
		Log: a.log,
		Now: a.now,
	}).Handler()
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts the
// server down and waits for every streaming session to end.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return logging.NewContext(ctx, a.log)
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down", "sessions", a.sessions.Len())

		sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		httpErr := srv.Shutdown(sctx)
		sessErr := a.sessions.Shutdown(sctx)
		return errors.Join(httpErr, sessErr)
	})

	err := g.Wait()
	a.log.Info("stopped",
		"fires", a.store.Len(telemetry.KindFire),
		"drones", a.store.Len(telemetry.KindDrone))
	return err
}
