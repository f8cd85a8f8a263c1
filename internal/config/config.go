package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/CodeRoom/internal/assist"
	"github.com/dkeye/CodeRoom/internal/history"
	"github.com/dkeye/CodeRoom/internal/sandbox"
)

const (
	envPrefix = "CODEROOM"
	// DevSecret signs session cookies in debug mode only.
	DevSecret = "coderoom-dev-secret"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Secret         string        `mapstructure:"secret"`

	Rate       RateConfig          `mapstructure:"rate"`
	Database   history.DBConfig    `mapstructure:"database"`
	Redis      history.RedisConfig `mapstructure:"redis"`
	AI         assist.Config       `mapstructure:"ai"`
	Exec       ExecConfig          `mapstructure:"exec"`
	ICEServers []ICEServer         `mapstructure:"ice_servers"`
	Log        LogConfig           `mapstructure:"log"`
}

// RateConfig bounds inbound events per connection; Limit <= 0 disables it.
type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type ExecConfig struct {
	Timeout   time.Duration     `mapstructure:"timeout"`
	MaxOutput int               `mapstructure:"max_output"`
	WorkDir   string            `mapstructure:"workdir"`
	Toolchain sandbox.Toolchain `mapstructure:",squash"`
}

func (e ExecConfig) Sandbox() sandbox.Config {
	return sandbox.Config{
		Toolchain: e.Toolchain,
		Timeout:   e.Timeout,
		MaxOutput: e.MaxOutput,
		WorkDir:   e.WorkDir,
	}
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName if it exists; defaults and CODEROOM_* variables
// apply either way.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Strs("origins", cfg.AllowedOrigins).Str("db", cfg.Database.Driver).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "debug")
	v.SetDefault("port", 5000)
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("static_path", "")
	v.SetDefault("secret", DevSecret)
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)

	v.SetDefault("rate.limit", 200)
	v.SetDefault("rate.interval", "1s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/coderoom.db")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1m")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.endpoint", assist.DefaultEndpoint)
	v.SetDefault("ai.model", assist.DefaultModel)
	v.SetDefault("ai.timeout", assist.DefaultTimeout)

	tc := sandbox.DefaultToolchain()
	v.SetDefault("exec.timeout", sandbox.DefaultTimeout)
	v.SetDefault("exec.max_output", sandbox.DefaultMaxOutput)
	v.SetDefault("exec.workdir", "")
	v.SetDefault("exec.python", tc.Python)
	v.SetDefault("exec.node", tc.Node)
	v.SetDefault("exec.cxx", tc.Cxx)
	v.SetDefault("exec.javac", tc.Javac)
	v.SetDefault("exec.java", tc.Java)

	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive, got %s", c.PingPeriod)
	}
	if c.Mode == "release" && (c.Secret == "" || c.Secret == DevSecret) {
		return fmt.Errorf("release mode needs its own secret (set %s_SECRET)", envPrefix)
	}
	return nil
}
