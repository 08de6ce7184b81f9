package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	BackendSupabase = "supabase"
	BackendLocal    = "local"

	EnvPrefix = "SYNCSOUND"
)

type Config struct {
	SupabaseURL       string        `mapstructure:"supabase_url" json:"supabase_url"`
	SupabaseAnonKey   string        `mapstructure:"supabase_anon_key" json:"supabase_anon_key"`
	BackendURL        string        `mapstructure:"backend_url" json:"backend_url"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts" json:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay" json:"reconnect_delay"`
	Development       bool          `mapstructure:"development" json:"development"`
	Transports        []string      `mapstructure:"transports" json:"transports"`
	Timeout           time.Duration `mapstructure:"timeout" json:"timeout"`
	PingPeriod        time.Duration `mapstructure:"ping_period" json:"ping_period"`
	DatabaseURL       string        `mapstructure:"database_url" json:"database_url"`
	Backend           string        `mapstructure:"backend" json:"backend"`
	DebugAddr         string        `mapstructure:"debug_addr" json:"debug_addr"`
	Verbose           bool          `mapstructure:"verbose" json:"verbose"`
}

// New returns a viper instance that reads SYNCSOUND_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("backend_url", "http://localhost:3001")
	v.SetDefault("reconnect_attempts", 5)
	v.SetDefault("reconnect_delay", "2s")
	v.SetDefault("development", false)
	v.SetDefault("transports", []string{"websocket", "polling"})
	v.SetDefault("timeout", "20s")
	v.SetDefault("ping_period", "25s")
	v.SetDefault("database_url", "")
	v.SetDefault("backend", BackendSupabase)
	v.SetDefault("debug_addr", "127.0.0.1:6060")
	v.SetDefault("verbose", false)
}

// Load merges the optional YAML file into v and decodes the result. The file
// is "config" if set, else config/config.<CONFIG_ENV>.yaml. A missing file is
// not an error.
func Load(v *viper.Viper) (*Config, error) {
	fileName := v.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not loaded, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return &cfg, nil
}

// Warnings lists settings that will likely keep the client from working.
// None of them stops startup.
func (c *Config) Warnings() []string {
	var out []string
	check := func(key, val string) {
		switch {
		case strings.TrimSpace(val) == "":
			out = append(out, key+" is not set")
		case strings.Contains(val, "your-"):
			out = append(out, key+" still holds a placeholder value")
		}
	}
	if c.Backend != BackendLocal {
		check("supabase_url", c.SupabaseURL)
		check("supabase_anon_key", c.SupabaseAnonKey)
	}
	check("backend_url", c.BackendURL)

	if c.ReconnectAttempts <= 0 {
		out = append(out, "reconnect_attempts should be positive")
	}
	if c.ReconnectDelay <= 0 {
		out = append(out, "reconnect_delay should be positive")
	}
	if c.Backend != BackendSupabase && c.Backend != BackendLocal {
		out = append(out, fmt.Sprintf("unknown backend %q, using %s", c.Backend, BackendSupabase))
	}
	return out
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.SupabaseAnonKey != "" {
		c.SupabaseAnonKey = "***"
	}
	if c.DatabaseURL != "" {
		c.DatabaseURL = "***"
	}
	c.Transports = append([]string(nil), c.Transports...)
	return c
}
