// Package main provides the orchestrator server implementation.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ultrai-project/orchestrator/api/handlers"
	"github.com/ultrai-project/orchestrator/config"
	"github.com/ultrai-project/orchestrator/health"
	"github.com/ultrai-project/orchestrator/internal/metrics"
	"github.com/ultrai-project/orchestrator/internal/server"
	"github.com/ultrai-project/orchestrator/internal/telemetry"
	"github.com/ultrai-project/orchestrator/pipeline"
	"github.com/ultrai-project/orchestrator/progress"
	"github.com/ultrai-project/orchestrator/provider"
	"github.com/ultrai-project/orchestrator/registry"
)

// defaultOutboundRPS and defaultOutboundBurst bound how fast the
// orchestrator calls out to any one vendor, proactively backing off ahead
// of a 429 rather than reacting to one.
const (
	defaultOutboundRPS   = 5
	defaultOutboundBurst = 10
)

// Server owns the orchestrator's HTTP and metrics listeners, the background
// health prober, and the config hot-reload manager, and coordinates their
// graceful shutdown.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	otel       *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	reg         *registry.Registry
	adapters    map[string]provider.Adapter
	prober      *health.Prober
	bus         progress.EventBus
	redisClient *redis.Client
	engine      *pipeline.Engine

	healthHandler    *handlers.HealthHandler
	analyzeHandler   *handlers.AnalyzeHandler
	streamHandler    *handlers.StreamHandler
	modelsHandler    *handlers.ModelsHandler
	readinessHandler *handlers.ReadinessHandler

	metricsCollector *metrics.Collector
	hotReloadManager *config.HotReloadManager

	wg sync.WaitGroup
}

// NewServer builds a Server from cfg. configPath, if non-empty, is also
// watched for hot reload.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		otel:       otel,
	}
}

// Start brings up every subsystem: Registry, Provider adapters, Health
// Prober, Progress Bus, Pipeline Engine, HTTP handlers, hot reload, then the
// HTTP and metrics listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("ultrai", s.logger)

	s.initDomain()

	if err := s.initHotReloadManager(); err != nil {
		return fmt.Errorf("failed to init hot reload manager: %w", err)
	}

	s.prober.Start(context.Background())

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("models_registered", len(s.reg.All())),
		zap.Bool("hot_reload_enabled", s.configPath != ""),
	)

	return nil
}

// initDomain wires the Registry, Provider adapters (one per distinct
// provider named in models.enabled, credentialed from the environment
// variable named by requires_credential), Health Prober, Progress Bus,
// Pipeline Engine, and HTTP handlers.
func (s *Server) initDomain() {
	descriptors := make([]registry.ModelDescriptor, 0, len(s.cfg.Models.Enabled))
	baseURLByProvider := make(map[string]string)
	credentialByProvider := make(map[string]string)
	for _, m := range s.cfg.Models.Enabled {
		descriptors = append(descriptors, registry.ModelDescriptor{
			ID:                 m.ID,
			Provider:           m.Provider,
			VendorModelName:    m.VendorModelName,
			RequiresCredential: m.RequiresCredential,
		})
		if m.BaseURL != "" {
			baseURLByProvider[m.Provider] = m.BaseURL
		}
		if m.RequiresCredential != "" {
			credentialByProvider[m.Provider] = m.RequiresCredential
		}
	}
	s.reg = registry.New(descriptors)

	s.adapters = make(map[string]provider.Adapter, len(credentialByProvider))
	for _, d := range s.reg.All() {
		if _, ok := s.adapters[d.Provider]; ok {
			continue
		}
		pcfg := provider.Config{
			APIKey:      os.Getenv(credentialByProvider[d.Provider]),
			BaseURL:     baseURLByProvider[d.Provider],
			OutboundRPS: defaultOutboundRPS,
			BurstSize:   defaultOutboundBurst,
			MaxRetries:  s.cfg.Orchestrator.PerRequestAdapterRetries,
		}
		s.adapters[d.Provider] = newAdapter(d.Provider, pcfg)
	}

	s.prober = health.NewProber(s.adapters, s.logger)
	if s.cfg.Orchestrator.HealthProbeInterval > 0 {
		s.prober = s.prober.WithInterval(s.cfg.Orchestrator.HealthProbeInterval)
	}

	s.bus = s.newEventBus()
	s.engine = pipeline.NewEngine(s.adapters, s.reg, s.bus, s.prober.Snapshot, pipeline.Deadlines{
		Initial: s.cfg.Orchestrator.InitialStageTimeout,
		Meta:    s.cfg.Orchestrator.MetaStageTimeout,
		Ultra:   s.cfg.Orchestrator.UltraStageTimeout,
		Overall: s.cfg.Orchestrator.OverallTimeout,
	})

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.redisClient != nil {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}))
	}
	s.analyzeHandler = handlers.NewAnalyzeHandler(s.engine, s.reg, s.prober.Snapshot, s.logger, s.cfg.Orchestrator.MaxSelectedModels)
	s.streamHandler = handlers.NewStreamHandler(s.bus, s.logger)
	s.modelsHandler = handlers.NewModelsHandler(s.reg)
	s.readinessHandler = handlers.NewReadinessHandler(s.reg, s.prober.Snapshot)

	s.logger.Info("domain wired", zap.Int("providers", len(s.adapters)))
}

// newEventBus picks the Redis-backed progress bus when Redis is configured
// and enabled, so the streaming endpoint can be served from a different
// process than the Pipeline Engine; otherwise it falls back to the
// in-process bus, which needs no external dependency.
func (s *Server) newEventBus() progress.EventBus {
	if !s.cfg.Redis.Enabled || s.cfg.Redis.Addr == "" {
		return progress.NewBus()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	s.redisClient = client

	s.logger.Info("using redis-backed progress bus", zap.String("addr", s.cfg.Redis.Addr))
	return progress.NewRedisBus(client, s.logger)
}

// newAdapter builds the concrete vendor adapter for providerName. An
// unrecognized provider name falls back to the OpenAI-compatible adapter,
// since many self-hosted and proxy backends speak that wire format.
func newAdapter(providerName string, cfg provider.Config) provider.Adapter {
	switch providerName {
	case "anthropic":
		return provider.NewAnthropicAdapter(cfg)
	case "google":
		return provider.NewGoogleAdapter(cfg)
	default:
		return provider.NewOpenAIAdapter(cfg)
	}
}

func (s *Server) initHotReloadManager() error {
	opts := []config.HotReloadOption{
		config.WithHotReloadLogger(s.logger),
	}

	if s.configPath != "" {
		opts = append(opts, config.WithConfigPath(s.configPath))
	}

	s.hotReloadManager = config.NewHotReloadManager(s.cfg, opts...)

	s.hotReloadManager.OnChange(func(change config.ConfigChange) {
		s.logger.Info("configuration changed",
			zap.String("path", change.Path),
			zap.String("source", change.Source),
			zap.Bool("requires_restart", change.RequiresRestart),
		)
	})

	s.hotReloadManager.OnReload(func(oldConfig, newConfig *config.Config) {
		s.logger.Info("configuration reloaded")
		s.cfg = newConfig
	})

	return s.hotReloadManager.Start(context.Background())
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/api/orchestrator/analyze", s.analyzeHandler.Handle)
	mux.HandleFunc("/api/orchestrator/stream", s.streamHandler.HandleSSE)
	mux.HandleFunc("/api/orchestrator/stream/ws", s.streamHandler.HandleWS)
	mux.HandleFunc("/api/orchestrator/models", s.modelsHandler.Handle)
	mux.HandleFunc("/api/orchestrator/readiness", s.readinessHandler.Handle)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CallerIdentity(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(context.Background(), s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a shutdown signal arrives, then tears down
// every subsystem.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown tears down every subsystem in reverse dependency order.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx := context.Background()

	if s.hotReloadManager != nil {
		if err := s.hotReloadManager.Stop(); err != nil {
			s.logger.Error("hot reload manager shutdown error", zap.Error(err))
		}
	}

	if s.prober != nil {
		s.prober.Stop()
	}

	if closer, ok := s.bus.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("progress bus shutdown error", zap.Error(err))
		}
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()

	s.logger.Info("graceful shutdown completed")
}
