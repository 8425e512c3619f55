// =============================================================================
// Orchestrator default configuration
// =============================================================================
// Provides sensible defaults for every configuration section.
// =============================================================================
package config

import "time"

// DefaultConfig returns the base configuration layer.
func DefaultConfig() *Config {
	return &Config{
		Server:       DefaultServerConfig(),
		Orchestrator: DefaultOrchestratorConfig(),
		Models:       DefaultModelsConfig(),
		Redis:        DefaultRedisConfig(),
		Log:          DefaultLogConfig(),
		Telemetry:    DefaultTelemetryConfig(),
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultOrchestratorConfig matches the spec's stage and overall deadlines:
// 60s for Initial and Meta, 45s for Ultra, 180s for the whole pipeline,
// probed every 60s.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		InitialStageTimeout:      60 * time.Second,
		MetaStageTimeout:         60 * time.Second,
		UltraStageTimeout:        45 * time.Second,
		OverallTimeout:           180 * time.Second,
		HealthProbeInterval:      60 * time.Second,
		MaxSelectedModels:        10,
		PerRequestAdapterRetries: 2,
	}
}

func DefaultModelsConfig() ModelsConfig {
	return ModelsConfig{Enabled: []ModelDescriptorConfig{}}
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:    "localhost:6379",
		DB:      0,
		Enabled: false,
	}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "ultrai-orchestrator",
		SampleRate:   0.1,
	}
}
