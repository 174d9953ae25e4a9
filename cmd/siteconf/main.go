package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/siteconf/internal/application"
	"github.com/eugenenazirov/siteconf/internal/config"
	"github.com/eugenenazirov/siteconf/internal/logging"
	"github.com/eugenenazirov/siteconf/internal/siteconf"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("siteconf", "Site configuration resolver - validates and merges site documents for the build framework")
	configFile := kingpinApp.Flag("config", "Path to YAML runtime configuration file").String()
	siteConfig := kingpinApp.Flag("site-config", "Path to the base site document (YAML, TOML or JSON)").String()
	overlays := kingpinApp.Flag("overlay", "Site document applied on top of the base; repeatable, applied in order").Strings()
	var ignoreSet bool
	ignoreUnknown := kingpinApp.Flag("ignore-unknown", "Drop unknown options instead of failing").IsSetByUser(&ignoreSet).Bool()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	resolveCmd := kingpinApp.Command("resolve", "Print the resolved site configuration")
	format := resolveCmd.Flag("format", "Output format").Default("json").Enum("json", "yaml")

	checkCmd := kingpinApp.Command("check", "Validate the site documents without printing them")

	serveCmd := kingpinApp.Command("serve", "Publish the resolved configuration over the inspection API")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		Overlays:   *overlays,
	}

	if *siteConfig != "" {
		overrides.SiteConfig = siteConfig
	}

	if ignoreSet {
		overrides.IgnoreUnknown = ignoreUnknown
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *port != "" {
		overrides.Port = port
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case resolveCmd.FullCommand():
		site, err := application.ResolveSite(cfg, logger)
		if err != nil {
			logger.Fatal("invalid site configuration", zap.Error(err))
		}
		if err := printResolved(os.Stdout, site.Resolved, *format); err != nil {
			logger.Fatal("failed to print configuration", zap.Error(err))
		}

	case checkCmd.FullCommand():
		if _, err := application.ResolveSite(cfg, logger); err != nil {
			logger.Fatal("invalid site configuration", zap.Error(err))
		}

	case serveCmd.FullCommand():
		app, err := application.New(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}
}

func printResolved(w io.Writer, resolved *siteconf.Resolved, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resolved); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resolved); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
