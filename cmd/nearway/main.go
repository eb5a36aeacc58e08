package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/osmtools/nearway/pkg/monitoring"
	"github.com/osmtools/nearway/pkg/osm"
	"github.com/osmtools/nearway/pkg/server"
	"github.com/osmtools/nearway/pkg/tracing"
	ver "github.com/osmtools/nearway/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	userAgent       string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// OSM API flags
	osmRPS      float64
	osmBurst    int
	documentTTL time.Duration
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&userAgent, "user-agent", osm.UserAgent, "User-Agent string for OSM API requests")

	// Monitoring flags
	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	// OSM API rate limits and caching
	flag.Float64Var(&osmRPS, "osm-rps", 1.0, "OSM API rate limit in requests per second")
	flag.IntVar(&osmBurst, "osm-burst", 1, "OSM API rate limit burst size")
	flag.DurationVar(&documentTTL, "document-ttl", 15*time.Minute, "How long fetched map documents are cached")
}

func main() {
	flag.Parse()

	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if showVersionFlag {
		showVersion()
		return
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()

		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	if userAgent != osm.UserAgent {
		osm.SetUserAgent(userAgent)
	}
	osm.UpdateAPIRateLimits(osmRPS, osmBurst)

	// Feed OSM client activity into the Prometheus metrics.
	osm.SetMonitoringHooks(&osm.MonitoringHooks{
		OnFetch: monitoring.RecordMapFetch,
		OnRateLimit: func(wait time.Duration) {
			monitoring.RateLimitWaitTime.Observe(wait.Seconds())
		},
		OnCache: func(hit bool) {
			monitoring.RecordCacheLookup(tracing.CacheTypeDocument, hit)
		},
	})
	monitoring.InitSystemInfo()

	client := osm.NewClient(
		osm.WithLogger(logger),
		osm.WithDocumentTTL(documentTTL),
	)

	srv, err := server.NewServer(client)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	var monitoringSrv *http.Server
	if enableMonitoring {
		monitoringSrv = newMonitoringServer(logger)
		g.Go(func() error {
			logger.Info("starting monitoring server", "addr", monitoringAddr)
			if err := monitoringSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("monitoring server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return monitoringSrv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		logger.Info("starting MCP server on stdio")
		return srv.RunWithContext(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// newMonitoringServer builds the HTTP server exposing metrics and health.
func newMonitoringServer(logger *slog.Logger) *http.Server {
	health := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", health.HealthHandler())
	mux.HandleFunc("/livez", health.LivenessHandler())

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			monitoring.UpdateRuntimeMetrics()
		}
	}()

	return &http.Server{
		Addr:              monitoringAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func showVersion() {
	fmt.Printf("nearway %s (commit %s, built %s)\n", ver.BuildVersion, ver.BuildCommit, ver.BuildDate)
}
