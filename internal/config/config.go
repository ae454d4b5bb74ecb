package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search     SearchConfig              `yaml:"search" mapstructure:"search"`
	Strategies map[string]StrategyConfig `yaml:"strategies" mapstructure:"strategies"`
	Ranker     RankerConfig              `yaml:"ranker" mapstructure:"ranker"`
	Proxy      ProxyConfig               `yaml:"proxy" mapstructure:"proxy"`
	Server     ServerConfig              `yaml:"server" mapstructure:"server"`
	Log        LogConfig                 `yaml:"log" mapstructure:"log"`
}

// SearchConfig holds the orchestrator score thresholds. The cutoffs
// encode empirically tuned behavior, so they are tunables rather than
// constants.
type SearchConfig struct {
	ConfidentScore  int `yaml:"confident_score" mapstructure:"confident_score"`
	MinScore        int `yaml:"min_score" mapstructure:"min_score"`
	MaxAlternatives int `yaml:"max_alternatives" mapstructure:"max_alternatives"`
}

// StrategyConfig configures one search strategy's quota and pacing.
type StrategyConfig struct {
	SessionCap      int `yaml:"session_cap" mapstructure:"session_cap"`
	PacingMinMs     int `yaml:"pacing_min_ms" mapstructure:"pacing_min_ms"`
	PacingMaxMs     int `yaml:"pacing_max_ms" mapstructure:"pacing_max_ms"`
	CooldownMinutes int `yaml:"cooldown_minutes" mapstructure:"cooldown_minutes"`
	FailureTrip     int `yaml:"failure_trip" mapstructure:"failure_trip"`
	TimeoutSecs     int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Cooldown returns the breaker cooldown as a duration.
func (s StrategyConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownMinutes) * time.Minute
}

// PacingWindow returns the inter-request pacing bounds.
func (s StrategyConfig) PacingWindow() (min, max time.Duration) {
	return time.Duration(s.PacingMinMs) * time.Millisecond,
		time.Duration(s.PacingMaxMs) * time.Millisecond
}

// RankerConfig configures candidate filtering and scoring.
type RankerConfig struct {
	Blacklist     []string `yaml:"blacklist" mapstructure:"blacklist"`
	PreferredTLDs []string `yaml:"preferred_tlds" mapstructure:"preferred_tlds"`
}

// ProxyConfig configures the rotating proxy pool.
type ProxyConfig struct {
	Seeds             []string `yaml:"seeds" mapstructure:"seeds"`
	ListURL           string   `yaml:"list_url" mapstructure:"list_url"`
	ReferenceURL      string   `yaml:"reference_url" mapstructure:"reference_url"`
	RetryBudget       int      `yaml:"retry_budget" mapstructure:"retry_budget"`
	HealthTimeoutSecs int      `yaml:"health_timeout_secs" mapstructure:"health_timeout_secs"`
	MinBodyBytes      int      `yaml:"min_body_bytes" mapstructure:"min_body_bytes"`
	MaxTestSample     int      `yaml:"max_test_sample" mapstructure:"max_test_sample"`
	FetchTimeoutSecs  int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Strategy returns the named strategy config, filling defaults for
// anything the file leaves unset.
func (c *Config) Strategy(id string) StrategyConfig {
	sc := c.Strategies[id]
	if sc.SessionCap <= 0 {
		sc.SessionCap = 50
	}
	if sc.PacingMinMs <= 0 {
		sc.PacingMinMs = 2000
	}
	if sc.PacingMaxMs <= sc.PacingMinMs {
		sc.PacingMaxMs = sc.PacingMinMs + 3000
	}
	if sc.CooldownMinutes <= 0 {
		sc.CooldownMinutes = 5
	}
	if sc.FailureTrip <= 0 {
		sc.FailureTrip = 3
	}
	if sc.TimeoutSecs <= 0 {
		sc.TimeoutSecs = 15
	}
	return sc
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EMPLIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.confident_score", 15)
	v.SetDefault("search.min_score", 8)
	v.SetDefault("search.max_alternatives", 5)
	v.SetDefault("ranker.blacklist", DefaultBlacklist)
	v.SetDefault("ranker.preferred_tlds", []string{".pe", ".com.pe", ".gob.pe", ".org.pe"})
	v.SetDefault("proxy.seeds", []string{
		"http://45.70.236.194:999",
		"http://190.61.88.147:8080",
		"http://181.209.82.154:999",
	})
	v.SetDefault("proxy.list_url", "https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt")
	v.SetDefault("proxy.reference_url", "https://www.datosperu.org/")
	v.SetDefault("proxy.retry_budget", 3)
	v.SetDefault("proxy.health_timeout_secs", 8)
	v.SetDefault("proxy.min_body_bytes", 5000)
	v.SetDefault("proxy.max_test_sample", 30)
	v.SetDefault("proxy.fetch_timeout_secs", 20)
	v.SetDefault("strategies.duckduckgo.session_cap", 80)
	v.SetDefault("strategies.duckduckgo.pacing_min_ms", 2000)
	v.SetDefault("strategies.duckduckgo.pacing_max_ms", 5000)
	v.SetDefault("strategies.bing.session_cap", 60)
	v.SetDefault("strategies.bing.pacing_min_ms", 3000)
	v.SetDefault("strategies.bing.pacing_max_ms", 7000)
	v.SetDefault("strategies.datosperu.session_cap", 40)
	v.SetDefault("strategies.datosperu.pacing_min_ms", 4000)
	v.SetDefault("strategies.datosperu.pacing_max_ms", 9000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// DefaultBlacklist lists domains that are never a company's own
// official site: search engines, social networks, job boards,
// marketplaces, government portals, news outlets and business
// directories.
var DefaultBlacklist = []string{
	"google.com", "bing.com", "yahoo.com", "duckduckgo.com",
	"facebook.com", "instagram.com", "linkedin.com", "twitter.com",
	"x.com", "youtube.com", "tiktok.com", "wikipedia.org",
	"computrabajo.com", "bumeran.com.pe", "indeed.com", "glassdoor.com",
	"mercadolibre.com", "olx.com",
	"datosperu.org", "universidadperu.com", "peru-info.net",
	"paginasamarillas.com.pe", "infoempresa.pe", "empresaspe.com",
	"sunat.gob.pe", "gob.pe", "elcomercio.pe", "gestion.pe",
	"larepublica.pe", "rpp.pe", "andina.pe",
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
