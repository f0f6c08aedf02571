package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Inputs
	BaselineDir   string   `mapstructure:"baseline_dir" yaml:"baseline_dir"`
	AssetFile     string   `mapstructure:"asset_file" yaml:"asset_file"`
	XLSXSheet     string   `mapstructure:"xlsx_sheet" yaml:"xlsx_sheet"`
	ExcludedUsers []string `mapstructure:"excluded_users" yaml:"excluded_users"`

	// Metrics
	AcceptanceTolerance float64 `mapstructure:"acceptance_tolerance" yaml:"acceptance_tolerance"`
	UnitGroupMinCount   int     `mapstructure:"unit_group_min_count" yaml:"unit_group_min_count"`
	PropertyMinCount    int     `mapstructure:"property_min_count" yaml:"property_min_count"`
	SignificanceLevel   float64 `mapstructure:"significance_level" yaml:"significance_level"`
	LowAcceptanceLimit  int     `mapstructure:"low_acceptance_limit" yaml:"low_acceptance_limit"`
	RollingWindow       int     `mapstructure:"rolling_window" yaml:"rolling_window"`

	// Output
	FiguresDir    string  `mapstructure:"figures_dir" yaml:"figures_dir"`
	ExportXLSX    bool    `mapstructure:"export_xlsx" yaml:"export_xlsx"`
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	TrendStart    string  `mapstructure:"trend_start" yaml:"trend_start"`
	TrendYMin     float64 `mapstructure:"trend_y_min" yaml:"trend_y_min"`
	TrendYMax     float64 `mapstructure:"trend_y_max" yaml:"trend_y_max"`

	// Entities rendered by `figures` and highlighted by the dashboard
	BatchAssets      []string `mapstructure:"batch_assets" yaml:"batch_assets"`
	BatchMarkets     []string `mapstructure:"batch_markets" yaml:"batch_markets"`
	FeaturedMarkets  []string `mapstructure:"featured_markets" yaml:"featured_markets"`
	AnnotatedMarkets []string `mapstructure:"annotated_markets" yaml:"annotated_markets"`

	DashboardAddr string    `mapstructure:"dashboard_addr" yaml:"dashboard_addr"`
	Log           LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultPath returns ~/.rentlens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: resolve home dir")
	}
	return filepath.Join(home, ".rentlens", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.rentlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "config: mkdir config dir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "config: marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrap(err, "config: write file")
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RENTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("baseline_dir", "rm_edits/baseline_merged")
	v.SetDefault("asset_file", "rm_edits/data/vw_AssetDetailActive.csv")
	v.SetDefault("xlsx_sheet", "")
	v.SetDefault("excluded_users", []string{})
	v.SetDefault("acceptance_tolerance", 1.0)
	v.SetDefault("unit_group_min_count", 50)
	v.SetDefault("property_min_count", 20)
	v.SetDefault("significance_level", 0.05)
	v.SetDefault("low_acceptance_limit", 10)
	v.SetDefault("rolling_window", 60)
	v.SetDefault("figures_dir", "rm_edits/figures")
	v.SetDefault("export_xlsx", false)
	v.SetDefault("chart_width_in", 10.0)
	v.SetDefault("chart_height_in", 6.0)
	v.SetDefault("trend_start", "2024-06-01")
	v.SetDefault("trend_y_min", 0.4)
	v.SetDefault("trend_y_max", 0.8)
	v.SetDefault("batch_assets", []string{"Cortland Northlake"})
	v.SetDefault("batch_markets", []string{"Denver-Aurora-Lakewood, CO"})
	v.SetDefault("featured_markets", []string{
		"Phoenix-Mesa-Scottsdale, AZ",
		"West Palm Beach-Boca Raton-Delray Beach, FL",
	})
	v.SetDefault("annotated_markets", []string{"Phoenix-Mesa-Scottsdale, AZ"})
	v.SetDefault("dashboard_addr", ":8501")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, eris.Wrap(err, "config: resolve home dir")
		}
		v.AddConfigPath(filepath.Join(home, ".rentlens"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// An explicit --config path must exist; the default location is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &c, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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
