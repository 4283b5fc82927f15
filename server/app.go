package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault/config"
	"vault/internal/access"
	"vault/internal/api"
	"vault/internal/health"
	"vault/internal/invites"
	"vault/internal/logs"
	"vault/internal/middleware"
	"vault/internal/notify"
	"vault/internal/resources"
	"vault/internal/sharing"
	"vault/internal/store"
	"vault/internal/teams"

	"github.com/gorilla/mux"
)

type App struct {
	cfg        *config.Config
	store      store.Store
	publisher  *notify.RedisPublisher
	closers    []func() error
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Logs and Sentry */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})
	if err := logs.InitSentry(a.cfg.Sentry.DSN, a.cfg.Sentry.Environment); err != nil {
		logs.Logger.Warnf("sentry disabled: %v", err)
	}

	/* 2) Store */
	s, closeStore, err := openStore(a.cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	a.store = s
	a.closers = append(a.closers, closeStore)

	/* 3) Notification delivery (optional) */
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pub, err := openPublisher(ctx, a.cfg)
	cancel()
	if err != nil {
		log.Fatalf("notifications: %v", err)
	}
	var publisher notify.Publisher = notify.NopPublisher{}
	if pub != nil {
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
		publisher = pub
	}

	/* 4) Services */
	resolver := access.NewResolver(a.store)
	notifications := notify.NewService(a.store, publisher, time.Now)
	h := &api.Handler{
		Teams:         teams.NewService(a.store, resolver, time.Now),
		Invites:       invites.NewService(a.store, resolver, notifications, invites.Options{DefaultTTL: a.cfg.Invites.DefaultTTL}),
		Resources:     resources.NewService(a.store, resolver, time.Now),
		Sharing:       sharing.NewService(a.store, resolver, time.Now),
		Notifications: notifications,
		PublicOrigin:  a.cfg.Server.PublicOrigin,
	}

	/* 5) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 6) Health */
	deps := map[string]health.Pinger{"store": a.store}
	if a.publisher != nil {
		deps["redis"] = a.publisher
	}
	health.RegisterRoutes(a.Router, deps)

	/* 7) API */
	api.RegisterRoutes(a.Router, h, middleware.Identity(middleware.IdentityOptions{
		Secret: []byte(a.cfg.Auth.JWTSecret),
		Issuer: a.cfg.Auth.Issuer,
	}))

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}
	defer a.close()

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}

// close releases resources in reverse order and flushes Sentry.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logs.Logger.Warnf("close: %v", err)
		}
	}
	logs.Flush()
}
