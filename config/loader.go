// =============================================================================
// Orchestrator configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("ULTRAI").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables.
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the orchestrator's complete configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" env:"SERVER"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" env:"ORCHESTRATOR"`
	Models      ModelsConfig      `yaml:"models" env:"MODELS"`
	Redis       RedisConfig       `yaml:"redis" env:"REDIS"`
	Log         LogConfig         `yaml:"log" env:"LOG"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	HTTPPort           int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort        int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	RateLimitRPS       float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// OrchestratorConfig tunes the pipeline engine's per-stage deadlines and
// request limits.
type OrchestratorConfig struct {
	InitialStageTimeout      time.Duration `yaml:"initial_stage_timeout" env:"INITIAL_STAGE_TIMEOUT"`
	MetaStageTimeout         time.Duration `yaml:"meta_stage_timeout" env:"META_STAGE_TIMEOUT"`
	UltraStageTimeout        time.Duration `yaml:"ultra_stage_timeout" env:"ULTRA_STAGE_TIMEOUT"`
	OverallTimeout           time.Duration `yaml:"overall_timeout" env:"OVERALL_TIMEOUT"`
	HealthProbeInterval      time.Duration `yaml:"health_probe_interval" env:"HEALTH_PROBE_INTERVAL"`
	MaxSelectedModels        int           `yaml:"max_selected_models" env:"MAX_SELECTED_MODELS"`
	PerRequestAdapterRetries int           `yaml:"per_request_adapter_retries" env:"PER_REQUEST_ADAPTER_RETRIES"`
}

// ModelDescriptorConfig is one entry in the models.enabled list.
type ModelDescriptorConfig struct {
	ID                 string `yaml:"id"`
	Provider           string `yaml:"provider"`
	VendorModelName    string `yaml:"vendor_model_name"`
	RequiresCredential string `yaml:"requires_credential"`
	BaseURL            string `yaml:"base_url"`
}

// ModelsConfig lists the models the Registry is built from at process start.
type ModelsConfig struct {
	Enabled []ModelDescriptorConfig `yaml:"enabled"`
}

// RedisConfig configures the optional distributed progress bus.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader loads a Config via a builder: defaults, then an optional YAML
// file, then environment variable overrides.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a Loader with the orchestrator's default env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "ULTRAI",
		validators: make([]func(*Config) error, 0),
	}
}

func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves a Config following the documented precedence.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads a Config from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads a Config from defaults plus environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the loaded Config for internally inconsistent values.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Orchestrator.InitialStageTimeout <= 0 || c.Orchestrator.MetaStageTimeout <= 0 || c.Orchestrator.UltraStageTimeout <= 0 {
		errs = append(errs, "stage timeouts must be positive")
	}
	longestStage := c.Orchestrator.InitialStageTimeout
	if c.Orchestrator.MetaStageTimeout > longestStage {
		longestStage = c.Orchestrator.MetaStageTimeout
	}
	if c.Orchestrator.UltraStageTimeout > longestStage {
		longestStage = c.Orchestrator.UltraStageTimeout
	}
	if c.Orchestrator.OverallTimeout <= longestStage {
		errs = append(errs, "overall_timeout must exceed every stage timeout")
	}
	if c.Orchestrator.MaxSelectedModels <= 0 {
		errs = append(errs, "max_selected_models must be positive")
	}
	if c.Orchestrator.PerRequestAdapterRetries < 0 {
		errs = append(errs, "per_request_adapter_retries must not be negative")
	}
	if len(c.Models.Enabled) == 0 {
		errs = append(errs, "models.enabled must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
