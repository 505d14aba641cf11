package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Cron      CronConfig      `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr     string        `mapstructure:"http_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// AllowedOrigins are host patterns accepted for the chat websocket.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// WarehouseConfig names the star schema and bounds every query.
type WarehouseConfig struct {
	Schema       string        `mapstructure:"schema"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// ReportingTimezone decides what "today" means for snapshot queries.
	ReportingTimezone string `mapstructure:"reporting_timezone"`
	TopDealsLimit     int    `mapstructure:"top_deals_limit"`
}

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	ResultTTL time.Duration `mapstructure:"result_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	Secret   string        `mapstructure:"secret"`
	IdleTTL  time.Duration `mapstructure:"idle_ttl"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type AgentConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Account    string        `mapstructure:"account"`
	Region     string        `mapstructure:"region"`
	Database   string        `mapstructure:"database"`
	Schema     string        `mapstructure:"schema"`
	Name       string        `mapstructure:"name"`
	Token      string        `mapstructure:"token"`
	AuthScheme string        `mapstructure:"auth_scheme"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	CacheSweep     string `mapstructure:"cache_sweep"`
	FreshnessProbe string `mapstructure:"freshness_probe"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	// Chat streams can stay open for the whole agent timeout.
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("warehouse.schema", "sfe_analytics_credit")
	v.SetDefault("warehouse.query_timeout", "30s")
	v.SetDefault("warehouse.reporting_timezone", "UTC")
	v.SetDefault("warehouse.top_deals_limit", 10)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.result_ttl", "15m")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.idle_ttl", "8h")
	v.SetDefault("session.token_ttl", "24h")

	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.account", "")
	v.SetDefault("agent.region", "")
	v.SetDefault("agent.database", "SNOWFLAKE_INTELLIGENCE")
	v.SetDefault("agent.schema", "AGENTS")
	v.SetDefault("agent.name", "CREDIT_PORTFOLIO_ANALYST")
	v.SetDefault("agent.token", "")
	v.SetDefault("agent.auth_scheme", "snowflake")
	v.SetDefault("agent.timeout", "60s")
	v.SetDefault("agent.retry_count", 2)
	v.SetDefault("agent.retry_wait", "500ms")

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.cache_sweep", "@every 5m")
	v.SetDefault("cron.freshness_probe", "0 15 6 * * *")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Location resolves the reporting timezone, falling back to UTC.
func (w WarehouseConfig) Location() *time.Location {
	name := strings.TrimSpace(w.ReportingTimezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
