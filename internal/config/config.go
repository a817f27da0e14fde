package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dataplor/dataplor-cli/internal/schema"
)

// Config holds the full application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Quality QualityConfig `yaml:"quality" mapstructure:"quality"`
	CPG     CPGConfig     `yaml:"cpg" mapstructure:"cpg"`
	Schema  schema.Config `yaml:"schema" mapstructure:"schema"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the analytical data source backend.
type SourceConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QualityConfig holds classifier thresholds and the scorer strategy.
// Thresholds are percentages; a metric strictly above a threshold lands
// in that tier.
type QualityConfig struct {
	Scorer                  string  `yaml:"scorer" mapstructure:"scorer"`
	MissingCriticalPct      float64 `yaml:"missing_critical_pct" mapstructure:"missing_critical_pct"`
	MissingWarningPct       float64 `yaml:"missing_warning_pct" mapstructure:"missing_warning_pct"`
	DuplicateCriticalPct    float64 `yaml:"duplicate_critical_pct" mapstructure:"duplicate_critical_pct"`
	DuplicateWarningPct     float64 `yaml:"duplicate_warning_pct" mapstructure:"duplicate_warning_pct"`
	InvalidCoordCriticalPct float64 `yaml:"invalid_coord_critical_pct" mapstructure:"invalid_coord_critical_pct"`
	MissingNameCriticalPct  float64 `yaml:"missing_name_critical_pct" mapstructure:"missing_name_critical_pct"`
	MissingCategoryCritPct  float64 `yaml:"missing_category_critical_pct" mapstructure:"missing_category_critical_pct"`
	ShortAddressWarningPct  float64 `yaml:"short_address_warning_pct" mapstructure:"short_address_warning_pct"`
	InvalidPhoneWarningPct  float64 `yaml:"invalid_phone_warning_pct" mapstructure:"invalid_phone_warning_pct"`
	MinAddressLength        int     `yaml:"min_address_length" mapstructure:"min_address_length"`
	CategoricalMaxDistinct  int     `yaml:"categorical_max_distinct" mapstructure:"categorical_max_distinct"`
}

// CPGConfig holds defaults for the domain query library.
type CPGConfig struct {
	MinChainLocations      int     `yaml:"min_chain_locations" mapstructure:"min_chain_locations"`
	GapMinLocations        int     `yaml:"gap_min_locations" mapstructure:"gap_min_locations"`
	DensityTopN            int     `yaml:"density_top_n" mapstructure:"density_top_n"`
	MinClusterSize         int     `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
	EngagementMinLocations int     `yaml:"engagement_min_locations" mapstructure:"engagement_min_locations"`
	ChainQualityMinStores  int     `yaml:"chain_quality_min_stores" mapstructure:"chain_quality_min_stores"`
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold" mapstructure:"low_confidence_threshold"`
	DefaultOpenTime        string  `yaml:"default_open_time" mapstructure:"default_open_time"`
	DefaultCloseTime       string  `yaml:"default_close_time" mapstructure:"default_close_time"`
	DefaultWindowHours     int     `yaml:"default_window_hours" mapstructure:"default_window_hours"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DATAPLOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.driver", "sqlite")
	v.SetDefault("source.database_url", "dataplor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("quality.scorer", "weighted")
	v.SetDefault("quality.missing_critical_pct", 20.0)
	v.SetDefault("quality.missing_warning_pct", 5.0)
	v.SetDefault("quality.duplicate_critical_pct", 5.0)
	v.SetDefault("quality.duplicate_warning_pct", 1.0)
	v.SetDefault("quality.invalid_coord_critical_pct", 10.0)
	v.SetDefault("quality.missing_name_critical_pct", 10.0)
	v.SetDefault("quality.missing_category_critical_pct", 15.0)
	v.SetDefault("quality.short_address_warning_pct", 5.0)
	v.SetDefault("quality.invalid_phone_warning_pct", 5.0)
	v.SetDefault("quality.min_address_length", 10)
	v.SetDefault("quality.categorical_max_distinct", 15)
	v.SetDefault("cpg.min_chain_locations", 2)
	v.SetDefault("cpg.gap_min_locations", 20)
	v.SetDefault("cpg.density_top_n", 10)
	v.SetDefault("cpg.min_cluster_size", 3)
	v.SetDefault("cpg.engagement_min_locations", 5)
	v.SetDefault("cpg.chain_quality_min_stores", 3)
	v.SetDefault("cpg.low_confidence_threshold", 0.7)
	v.SetDefault("cpg.default_open_time", "09:00:00")
	v.SetDefault("cpg.default_close_time", "17:00:00")
	v.SetDefault("cpg.default_window_hours", 8)

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

	// Schema role patterns are a nested map; viper defaults don't merge
	// into those cleanly, so fall back field-by-field.
	def := schema.DefaultConfig()
	if len(cfg.Schema.Roles) == 0 {
		cfg.Schema.Roles = def.Roles
	}
	if len(cfg.Schema.DateTerms) == 0 {
		cfg.Schema.DateTerms = def.DateTerms
	}
	if len(cfg.Schema.IDTerms) == 0 {
		cfg.Schema.IDTerms = def.IDTerms
	}

	return &cfg, nil
}

// Validate checks config consistency before a command runs.
func (c *Config) Validate() error {
	switch c.Source.Driver {
	case "sqlite", "postgres":
	default:
		return eris.Errorf("config: unsupported source driver %q (sqlite or postgres)", c.Source.Driver)
	}
	if c.Source.DatabaseURL == "" {
		return eris.New("config: source.database_url is required")
	}
	switch c.Quality.Scorer {
	case "weighted", "issue":
	default:
		return eris.Errorf("config: unknown scorer strategy %q (weighted or issue)", c.Quality.Scorer)
	}
	return nil
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
