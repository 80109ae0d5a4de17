package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Keywords   KeywordsConfig   `yaml:"keywords" mapstructure:"keywords"`
	Screen     StageConfig      `yaml:"screen" mapstructure:"screen"`
	Categorize StageConfig      `yaml:"categorize" mapstructure:"categorize"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// KeywordsConfig configures the lexical pre-filter.
type KeywordsConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// StageConfig configures one model-backed classification stage. Screen
// and categorize carry independent copies so their batch sizes and
// pacing can diverge.
type StageConfig struct {
	Model            string  `yaml:"model" mapstructure:"model"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	SleepSecs        float64 `yaml:"sleep_secs" mapstructure:"sleep_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffSecs      float64 `yaml:"backoff_secs" mapstructure:"backoff_secs"`
	AbstractMaxChars int     `yaml:"abstract_max_chars" mapstructure:"abstract_max_chars"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	// Driver is "file" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Dir is where the file driver keeps its artifacts.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// DSN is the sqlite driver's database path.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the fields a given command depends on. mode is the
// command name: "keywords", "screen", "categorize", or "stats".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "keywords", "stats":
		// Purely local commands; nothing credentialed to check.
	case "screen":
		problems = append(problems, c.validateStage("screen", c.Screen)...)
	case "categorize":
		problems = append(problems, c.validateStage("categorize", c.Categorize)...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateStage(name string, stage StageConfig) []string {
	var problems []string
	if c.Anthropic.Key == "" {
		problems = append(problems, "anthropic.key is required")
	}
	if stage.Model == "" {
		problems = append(problems, name+".model is required")
	}
	if stage.BatchSize < 1 {
		problems = append(problems, name+".batch_size must be >= 1")
	}
	if stage.MaxRetries < 0 {
		problems = append(problems, name+".max_retries must be >= 0")
	}
	if stage.SleepSecs < 0 {
		problems = append(problems, name+".sleep_secs must be >= 0")
	}
	switch c.Checkpoint.Driver {
	case "file", "sqlite":
	default:
		problems = append(problems, "checkpoint.driver must be file or sqlite")
	}
	return problems
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("keywords.workers", 0)
	v.SetDefault("screen.model", "claude-haiku-4-5-20251001")
	v.SetDefault("screen.batch_size", 10)
	v.SetDefault("screen.sleep_secs", 1.0)
	v.SetDefault("screen.max_retries", 3)
	v.SetDefault("screen.backoff_secs", 2.0)
	v.SetDefault("screen.abstract_max_chars", 1600)
	v.SetDefault("categorize.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("categorize.batch_size", 10)
	v.SetDefault("categorize.sleep_secs", 1.0)
	v.SetDefault("categorize.max_retries", 3)
	v.SetDefault("categorize.backoff_secs", 2.0)
	v.SetDefault("categorize.abstract_max_chars", 1600)
	v.SetDefault("checkpoint.driver", "file")
	v.SetDefault("checkpoint.dir", ".")
	v.SetDefault("checkpoint.dsn", "checkpoints.db")

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
