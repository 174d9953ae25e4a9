package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/siteconf/internal/api"
	"github.com/eugenenazirov/siteconf/internal/config"
	"github.com/eugenenazirov/siteconf/internal/document"
	"github.com/eugenenazirov/siteconf/internal/siteconf"
	"github.com/eugenenazirov/siteconf/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	resolver *siteconf.Resolver
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// Site holds the outcome of loading and resolving the configured documents.
type Site struct {
	Source   siteconf.Document
	Resolved *siteconf.Resolved
}

// NewResolver builds a resolver honouring the configured unknown-key policy.
func NewResolver(cfg config.Config) *siteconf.Resolver {
	if cfg.IgnoreUnknown {
		return siteconf.New(siteconf.WithIgnoreUnknown())
	}
	return siteconf.New()
}

// ResolveSite loads the base document and overlays and resolves them.
func ResolveSite(cfg config.Config, logger *zap.Logger) (Site, error) {
	loader := document.NewLoader(cfg.MaxDocumentSize)
	docs, err := loader.LoadAll(cfg.SiteConfig, cfg.Overlays...)
	if err != nil {
		return Site{}, fmt.Errorf("load site documents: %w", err)
	}

	resolved, err := NewResolver(cfg).Resolve(docs...)
	if err != nil {
		return Site{}, fmt.Errorf("resolve site configuration: %w", err)
	}

	for _, key := range resolved.Ignored() {
		logger.Warn("ignored unknown option", zap.String("option", key))
	}

	var source siteconf.Document
	for _, doc := range docs {
		source = siteconf.Merge(source, doc)
	}

	logger.Info("site configuration resolved",
		zap.String("site_config", cfg.SiteConfig),
		zap.Strings("overlays", cfg.Overlays),
		zap.String("output", string(resolved.Output())),
		zap.Int("integrations", len(resolved.Integrations())),
	)

	return Site{Source: source, Resolved: resolved}, nil
}

// New initializes the application with all dependencies from the provided configuration.
// The site configuration is resolved and published before the server is built.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	site, err := ResolveSite(cfg, logger)
	if err != nil {
		return nil, err
	}

	store := storage.NewMemoryStorage()
	if err := store.Publish(storage.Snapshot{Source: site.Source, Resolved: site.Resolved}); err != nil {
		return nil, fmt.Errorf("failed to publish site configuration: %w", err)
	}

	resolver := NewResolver(cfg)
	handler := api.NewHandler(store, resolver, document.NewLoader(cfg.MaxDocumentSize))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage:  store,
		resolver: resolver,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, apiRouter),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
