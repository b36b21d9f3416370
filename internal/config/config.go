// Package config loads service settings from defaults, an optional config
// file and ANALYSIS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ANALYSIS"

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Log       LogConfig
	PDF       PDFConfig
	Generator GeneratorConfig
	Anthropic AnthropicConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// PDFConfig selects the PDF engine. Engine is "native" or "chromium".
type PDFConfig struct {
	Engine     string        `mapstructure:"engine"`
	ChromePath string        `mapstructure:"chrome_path"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// GeneratorConfig lists models in fallback order.
type GeneratorConfig struct {
	Models      []string `mapstructure:"models"`
	MaxTokens   int64    `mapstructure:"max_tokens"`
	Temperature float64  `mapstructure:"temperature"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

const (
	EngineNative   = "native"
	EngineChromium = "chromium"
)

func defaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("store.path", "analysis.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("pdf.engine", EngineNative)
	v.SetDefault("pdf.chrome_path", "")
	v.SetDefault("pdf.cache_ttl", "10m")

	v.SetDefault("generator.models", "claude-sonnet-4-20250514")
	v.SetDefault("generator.max_tokens", 16000)
	v.SetDefault("generator.temperature", 0.2)

	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "analysis-views")
}

// Load reads configuration. path may be empty; a missing explicit path is
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("anthropic.api_key", envPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Store: StoreConfig{Path: v.GetString("store.path")},
		Log: LogConfig{
			Level:       strings.ToLower(v.GetString("log.level")),
			Development: v.GetBool("log.development"),
		},
		PDF: PDFConfig{
			Engine:     strings.ToLower(strings.TrimSpace(v.GetString("pdf.engine"))),
			ChromePath: v.GetString("pdf.chrome_path"),
			CacheTTL:   v.GetDuration("pdf.cache_ttl"),
		},
		Generator: GeneratorConfig{
			Models:      splitList(v.GetStringSlice("generator.models")),
			MaxTokens:   v.GetInt64("generator.max_tokens"),
			Temperature: v.GetFloat64("generator.temperature"),
		},
		Anthropic: AnthropicConfig{APIKey: strings.TrimSpace(v.GetString("anthropic.api_key"))},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			ServiceName:  v.GetString("telemetry.service_name"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.PDF.Engine {
	case EngineNative, EngineChromium:
	default:
		errs = append(errs, fmt.Errorf("pdf.engine %q is not one of native, chromium", c.PDF.Engine))
	}
	if c.PDF.CacheTTL <= 0 {
		errs = append(errs, errors.New("pdf.cache_ttl must be positive"))
	}
	if c.Generator.MaxTokens <= 0 {
		errs = append(errs, errors.New("generator.max_tokens must be positive"))
	}
	if c.Generator.Temperature < 0 || c.Generator.Temperature > 1 {
		errs = append(errs, errors.New("generator.temperature must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// GenerationEnabled reports whether an API key and at least one model are set.
func (c *Config) GenerationEnabled() bool {
	return c.Anthropic.APIKey != "" && len(c.Generator.Models) > 0
}
