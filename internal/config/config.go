package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/smpss92118/stock/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Grid     GridConfig     `mapstructure:"grid"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Analyst  AnalystConfig  `mapstructure:"analyst"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// BacktestConfig holds the run parameters of one simulation.
type BacktestConfig struct {
	InitialCapital  float64    `mapstructure:"initial_capital"`
	MaxPositions    int        `mapstructure:"max_positions"`
	PositionSizePct float64    `mapstructure:"position_size_pct"`
	RiskFreeRate    float64    `mapstructure:"risk_free_rate"`
	EntryWindowDays int        `mapstructure:"entry_window_days"`
	Workers         int        `mapstructure:"workers"`
	Unlimited       bool       `mapstructure:"unlimited"`
	Costs           CostConfig `mapstructure:"costs"`
	Exit            ExitConfig `mapstructure:"exit"`
}

// CostConfig selects the trade cost model.
type CostConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	FeeRate float64 `mapstructure:"fee_rate"`
	TaxRate float64 `mapstructure:"tax_rate"`
}

// ExitConfig selects and parameterizes the exit policy.
type ExitConfig struct {
	Mode         string  `mapstructure:"mode"` // "fixed" or "trailing"
	RMultiple    float64 `mapstructure:"r_multiple"`
	TimeExitDays int     `mapstructure:"time_exit_days"`
	TriggerR     float64 `mapstructure:"trigger_r"`
	TrailMA      string  `mapstructure:"trail_ma"`
	Ladder       bool    `mapstructure:"ladder"`
}

// GridConfig spans the parameter sweep of the grid command.
type GridConfig struct {
	RMultiples  []float64 `mapstructure:"r_multiples"`
	TimeExits   []int     `mapstructure:"time_exits"` // 0 means no time limit
	TriggerRs   []float64 `mapstructure:"trigger_rs"`
	TrailMAs    []string  `mapstructure:"trail_mas"`
	Ladder      bool      `mapstructure:"ladder"`
	Parallelism int       `mapstructure:"parallelism"`
}

// StorageConfig selects where run reports are archived.
type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // for localfs
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// AnalystConfig enables optional LLM commentary on run reports.
type AnalystConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with the research defaults.
func Defaults() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCapital:  1_000_000,
			MaxPositions:    10,
			PositionSizePct: 0.10,
			RiskFreeRate:    0.02,
			EntryWindowDays: 30,
			Costs: CostConfig{
				Enabled: true,
				FeeRate: 0.001,
				TaxRate: 0.003,
			},
			Exit: ExitConfig{
				Mode:         "fixed",
				RMultiple:    2.0,
				TimeExitDays: 20,
				TriggerR:     1.5,
				TrailMA:      "ma20",
			},
		},
		Grid: GridConfig{
			RMultiples: []float64{2.0, 3.0, 4.0},
			TimeExits:  []int{10, 20, 30, 0},
			TriggerRs:  []float64{1.5, 2.0},
			TrailMAs:   []string{"ma20", "ma50"},
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "./reports",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	b := c.Backtest
	if b.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %v", b.InitialCapital))
	}
	if b.MaxPositions <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_positions must be positive, got %d", b.MaxPositions))
	}
	if b.PositionSizePct <= 0 || b.PositionSizePct > 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size_pct must be in (0,1], got %v", b.PositionSizePct))
	}
	if b.RiskFreeRate < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("risk_free_rate cannot be negative, got %v", b.RiskFreeRate))
	}
	if b.EntryWindowDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("entry_window_days must be positive, got %d", b.EntryWindowDays))
	}

	switch b.Exit.Mode {
	case "fixed":
		if b.Exit.RMultiple <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("r_multiple must be positive, got %v", b.Exit.RMultiple))
		}
	case "trailing":
		if b.Exit.TriggerR <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("trigger_r must be positive, got %v", b.Exit.TriggerR))
		}
		if b.Exit.TrailMA == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("trail_ma required for trailing exit"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("exit mode must be fixed or trailing, got %q", b.Exit.Mode))
	}

	switch c.Storage.Type {
	case "localfs", "":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage type must be localfs or s3, got %q", c.Storage.Type))
	}

	if c.Analyst.Enabled {
		switch c.Analyst.Provider {
		case "claude":
			if c.Analyst.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.Analyst.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown analyst provider: %s", c.Analyst.Provider))
		}
	}

	return nil
}
