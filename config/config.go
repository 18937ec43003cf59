package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env              string           `yaml:"env" env-default:"development"`
	DbConfig         DbConfig         `yaml:"db" env-required:"true"`
	HttpServerConfig HttpServerConfig `yaml:"http_server" env-required:"true"`
	CacheConfig      CacheConfig      `yaml:"cache" env-required:"true"`
	SMTPConfig       SMTPConfig       `yaml:"smtp"`
	JWTConfig        JWTConfig        `yaml:"jwt" env-required:"true"`
	FCMConfig        FCMConfig        `yaml:"fcm_config"`
	SchedulerConfig  SchedulerConfig  `yaml:"scheduler"`
}

type DbConfig struct {
	Username string `yaml:"username"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DbName   string `yaml:"dbname"`
	SSLMode  string `yaml:"ssl_mode"`
}

type CacheConfig struct {
	Address                    string        `yaml:"address" env-required:"true"`
	Db                         int           `yaml:"db"`
	DefaultPreferencesCacheTtl time.Duration `yaml:"default_preferences_cache_ttl" env-default:"10m"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type HttpServerConfig struct {
	Address        string        `yaml:"address" env-required:"true"`
	Timeout        time.Duration `yaml:"timeout" env-required:"true"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-required:"true"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	TLS            TLSConfig     `yaml:"tls"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
}

type FCMConfig struct {
	ProjectID                 string `yaml:"project_id"`
	ServiceAccountKeyJSONPath string `yaml:"service_account_key_json_path"`
}

var JwtConfig JWTConfig

type JWTConfig struct {
	AccessExpire  time.Duration `yaml:"access_expire" env-required:"true"`
	RefreshExpire time.Duration `yaml:"refresh_expire" env-required:"true"`
	CookieDomain  string        `yaml:"cookie_domain"`
	SecureCookie  bool          `yaml:"secure_cookie" env-default:"true"`
}

// SchedulerConfig holds the sweep cadences for the background reminder engine.
// Defaults mirror production behavior; tests override them freely.
type SchedulerConfig struct {
	DispatchInterval       time.Duration `yaml:"dispatch_interval" env-default:"1m"`
	EnergyAnalysisInterval time.Duration `yaml:"energy_analysis_interval" env-default:"15m"`
	DailyOptimizationCron  string        `yaml:"daily_optimization_cron" env-default:"0 0 * * *"`
	DeadlineWatchInterval  time.Duration `yaml:"deadline_watch_interval" env-default:"5m"`
	HyperfocusInterval     time.Duration `yaml:"hyperfocus_interval" env-default:"30m"`

	// EscalationCheckDelay is how long after a send the reminder is
	// re-examined for escalation if still unanswered.
	EscalationCheckDelay time.Duration `yaml:"escalation_check_delay" env-default:"15m"`
	// DispatchDelay is applied when a due reminder must wait (active focus
	// session, rate cap, quiet hours).
	DispatchDelay time.Duration `yaml:"dispatch_delay" env-default:"10m"`
	// HyperfocusThreshold is how long a focus session may run before a break
	// reminder is generated.
	HyperfocusThreshold time.Duration `yaml:"hyperfocus_threshold" env-default:"90m"`
	// DeadlineHorizon is how far ahead the deadline watch looks for tasks.
	DeadlineHorizon time.Duration `yaml:"deadline_horizon" env-default:"48h"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/dev.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config file: %s. Error: %v", configPath, err)
	}

	JwtConfig = cfg.JWTConfig

	return &cfg
}
