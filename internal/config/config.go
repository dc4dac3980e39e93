package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cron   CronConfig   `mapstructure:"cron"`
	Arb    ArbConfig    `mapstructure:"arb"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Kick   KickConfig   `mapstructure:"kick"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
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

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CronConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SweepSpec       string `mapstructure:"sweep_spec"`
	SweepSports     string `mapstructure:"sweep_sports"`
	SweepMarket     string `mapstructure:"sweep_market"`
	SettlementSweep bool   `mapstructure:"settlement_sweep"`
	SettlementSpec  string `mapstructure:"settlement_spec"`
}

// ArbConfig holds the detection thresholds. The flat env names
// (ARB_ODDS_STALENESS_SEC and friends) are bound explicitly in Load so
// deployments predating the yaml config keep working.
type ArbConfig struct {
	OddsStalenessSec int           `mapstructure:"odds_staleness_sec"`
	MinEdge          float64       `mapstructure:"min_edge"`
	Bank             float64       `mapstructure:"bank"`
	OddsFormat       string        `mapstructure:"odds_format"`
	EventTTL         time.Duration `mapstructure:"event_ttl"`
}

type ScanConfig struct {
	PageSize     int           `mapstructure:"page_size"`
	MaxPages     int           `mapstructure:"max_pages"`
	FutureWindow time.Duration `mapstructure:"future_window"`
	Lookback     time.Duration `mapstructure:"lookback"`
	Deadline     time.Duration `mapstructure:"deadline"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type KickConfig struct {
	Stream   string `mapstructure:"stream"`
	Group    string `mapstructure:"group"`
	Consumer string `mapstructure:"consumer"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sweep_spec", "@every 2m")
	v.SetDefault("cron.sweep_sports", "")
	v.SetDefault("cron.sweep_market", "h2h")
	v.SetDefault("cron.settlement_sweep", false)
	v.SetDefault("cron.settlement_spec", "@every 10m")

	v.SetDefault("arb.odds_staleness_sec", 90)
	v.SetDefault("arb.min_edge", 0.004)
	v.SetDefault("arb.bank", 100)
	v.SetDefault("arb.odds_format", "decimal")
	v.SetDefault("arb.event_ttl", "72h")
	v.SetDefault("scan.page_size", 25)
	v.SetDefault("scan.max_pages", 4)
	v.SetDefault("scan.future_window", "48h")
	v.SetDefault("scan.lookback", "5m")
	v.SetDefault("scan.deadline", "55s")
	v.SetDefault("scan.batch_size", 500)
	v.SetDefault("kick.stream", "arb.scan.kick")
	v.SetDefault("kick.group", "arbd")
	v.SetDefault("kick.consumer", "arbd-1")

	_ = v.BindEnv("arb.odds_staleness_sec", "ARBD_ARB_ODDS_STALENESS_SEC", "ARB_ODDS_STALENESS_SEC")
	_ = v.BindEnv("arb.min_edge", "ARBD_ARB_MIN_EDGE", "ARB_MIN_EDGE")
	_ = v.BindEnv("arb.bank", "ARBD_ARB_BANK", "ARB_BANK")
	_ = v.BindEnv("scan.page_size", "ARBD_SCAN_PAGE_SIZE", "PAGE_SIZE", "EVENT_LIMIT")
	_ = v.BindEnv("scan.max_pages", "ARBD_SCAN_MAX_PAGES", "MAX_PAGES")
	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	// FUTURE_WINDOW_MS is a bare millisecond count, not a duration string.
	if raw := strings.TrimSpace(os.Getenv("FUTURE_WINDOW_MS")); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
			cfg.Scan.FutureWindow = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg, nil
}

// Staleness returns the quote max age as a duration.
func (c ArbConfig) Staleness() time.Duration {
	return time.Duration(c.OddsStalenessSec) * time.Second
}

// SweepSportKeys splits the comma-separated sweep sport list.
func (c CronConfig) SweepSportKeys() []string {
	var out []string
	for _, s := range strings.Split(c.SweepSports, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
