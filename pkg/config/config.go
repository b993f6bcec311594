package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for colorwarm
type Config struct {
	// Service configuration
	ServiceName string `yaml:"service_name"`
	Hostname    string `yaml:"hostname"`
	LogLevel    string `yaml:"log_level"`
	Verbose     bool   `yaml:"verbose"`
	Daemon      bool   `yaml:"daemon"`
	ConfigFile  string `yaml:"-"`

	// Location configuration. Latitude/Longitude take precedence over the
	// timezone lookup when both are set.
	Timezone  string   `yaml:"timezone"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`

	// Solar / schedule configuration
	SolarSource      string `yaml:"solar_source"`
	MorningWindowMin int    `yaml:"morning_window_minutes"`
	EveningWindowMin int    `yaml:"evening_window_minutes"`
	NightKelvin      int    `yaml:"night_kelvin"`
	DayKelvin        int    `yaml:"day_kelvin"`
	Curve            string `yaml:"curve"`

	// Loop configuration
	IntervalSec      int  `yaml:"interval_seconds"`
	Hysteresis       int  `yaml:"hysteresis"`
	OverrideMinutes  int  `yaml:"override_minutes"`
	MaxBackoffSec    int  `yaml:"max_backoff_seconds"`
	StartupRetries   int  `yaml:"startup_retries"`
	DisplayTimeoutMs int  `yaml:"display_timeout_ms"`
	KeyboardControls bool `yaml:"keyboard"`

	// Display configuration
	Driver  string `yaml:"driver"`
	Display string `yaml:"display"`
	Screen  int    `yaml:"screen"`
	CRTC    int    `yaml:"crtc"`
	Output  string `yaml:"output"`

	// Control API configuration
	APIAddr        string `yaml:"api_addr"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	// Daemon configuration
	PIDFile string `yaml:"pid_file"`
	LogFile string `yaml:"log_file"`

	// MQTT configuration (optional status sink and command topic)
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration (optional status sink)
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration (optional history sink)
	PostgresDSN                string        `yaml:"postgres_dsn"`
	PostgresMaxConnections     int           `yaml:"postgres_max_connections"`
	PostgresMaxIdleConnections int           `yaml:"postgres_max_idle_connections"`
	PostgresConnMaxLifetime    time.Duration `yaml:"postgres_conn_max_lifetime"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}

	return &Config{
		ServiceName: "colorwarm",
		Hostname:    hostname,
		LogLevel:    "info",
		ConfigFile:  DefaultConfigFile(),
		// Solar defaults
		SolarSource: "suncalc",
		// Schedule defaults
		MorningWindowMin: 60,
		EveningWindowMin: 60,
		NightKelvin:      4500,
		DayKelvin:        6500,
		Curve:            "ease-in-out",
		// Loop defaults
		IntervalSec:      30,
		Hysteresis:       64,
		OverrideMinutes:  0,
		MaxBackoffSec:    300,
		StartupRetries:   5,
		DisplayTimeoutMs: 2000,
		KeyboardControls: true,
		// Display defaults
		Driver: "randr",
		Screen: -1,
		CRTC:   -1,
		// Control API defaults
		APIAddr: "127.0.0.1:7575",
		// Daemon defaults
		PIDFile: filepath.Join(runtimeDir, "colorwarm.pid"),
		LogFile: filepath.Join(runtimeDir, "colorwarm.log"),
		// Optional sinks
		MQTTPort:                   1883,
		RedisPort:                  6379,
		PostgresMaxConnections:     4,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
	}
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/colorwarm/config.yaml
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "colorwarm", "config.yaml")
}

// Load builds the configuration in order of precedence: defaults, YAML file,
// environment, then the flags set on the command line. changed may be nil.
func Load(changed *pflag.FlagSet) (*Config, error) {
	cfg := NewConfig()

	path := cfg.ConfigFile
	if v := os.Getenv("COLORWARM_CONFIG"); v != "" {
		path = v
	}
	if changed != nil {
		if f := changed.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	cfg.LoadFromEnv()

	if changed != nil {
		if err := cfg.ApplyFlags(changed); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyFlags copies the flags changed in fs onto c. Flags that are not
// configuration values are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	own := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.BindFlags(own)
	c.BindRunFlags(own)

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil || own.Lookup(f.Name) == nil {
			return
		}
		if setErr := own.Set(f.Name, f.Value.String()); setErr != nil {
			err = fmt.Errorf("invalid value for --%s: %w", f.Name, setErr)
		}
	})
	return err
}

// LoadFromFile loads the YAML config file if it exists. A missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

// LoadFromEnv loads configuration from environment variables with COLORWARM_ prefix
func (c *Config) LoadFromEnv() {
	// Service configuration
	if v := os.Getenv("COLORWARM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("COLORWARM_HOSTNAME"); v != "" {
		c.Hostname = v
	}
	if v := os.Getenv("COLORWARM_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}

	// Location configuration
	if v := os.Getenv("COLORWARM_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("COLORWARM_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = &lat
		}
	}
	if v := os.Getenv("COLORWARM_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = &lon
		}
	}

	// Schedule configuration
	if v := os.Getenv("COLORWARM_SOLAR_SOURCE"); v != "" {
		c.SolarSource = v
	}
	if v := os.Getenv("COLORWARM_CURVE"); v != "" {
		c.Curve = v
	}
	if v := os.Getenv("COLORWARM_MORNING_WINDOW_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			c.MorningWindowMin = m
		}
	}
	if v := os.Getenv("COLORWARM_EVENING_WINDOW_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			c.EveningWindowMin = m
		}
	}

	// Loop configuration
	if v := os.Getenv("COLORWARM_INTERVAL_SECONDS"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.IntervalSec = interval
		}
	}
	if v := os.Getenv("COLORWARM_OVERRIDE_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.OverrideMinutes = minutes
		}
	}

	// Display configuration
	if v := os.Getenv("COLORWARM_DRIVER"); v != "" {
		c.Driver = v
	}
	if v := os.Getenv("COLORWARM_DISPLAY"); v != "" {
		c.Display = v
	}

	// Control API
	if v, ok := os.LookupEnv("COLORWARM_API_ADDR"); ok {
		c.APIAddr = v
	}

	// MQTT configuration
	if v := os.Getenv("COLORWARM_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("COLORWARM_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("COLORWARM_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("COLORWARM_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}

	// Redis configuration
	if v := os.Getenv("COLORWARM_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("COLORWARM_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("COLORWARM_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}

	// Postgres configuration
	if v := os.Getenv("COLORWARM_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
}

// BindFlags registers the persistent flags on fs. Values already loaded from
// file and environment become the flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to YAML config file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Report computed values on every tick")

	// Display flags
	fs.StringVar(&c.Driver, "driver", c.Driver, "Display driver (randr, memory)")
	fs.StringVar(&c.Display, "display", c.Display, "X display to connect to (default $DISPLAY)")
	fs.IntVarP(&c.Screen, "screen", "s", c.Screen, "Only select screen specified by zero-based index")
	fs.IntVarP(&c.CRTC, "crtc", "c", c.CRTC, "Only select CRTC specified by zero-based index")
	fs.StringVar(&c.Output, "output", c.Output, "Only select the output with this name")
	fs.IntVar(&c.DisplayTimeoutMs, "display-timeout-ms", c.DisplayTimeoutMs, "Timeout for display server round trips (ms)")

	// Control API
	fs.StringVar(&c.APIAddr, "api-addr", c.APIAddr, "Control API listen address (empty disables)")
}

// BindRunFlags registers the flags of the automatic mode.
func (c *Config) BindRunFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.Daemon, "daemon", "d", c.Daemon, "Run in background (daemon mode)")
	fs.StringVar(&c.PIDFile, "pid-file", c.PIDFile, "Daemon PID file")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Daemon log file")

	c.BindScheduleFlags(fs)

	// Loop flags
	fs.IntVar(&c.IntervalSec, "interval", c.IntervalSec, "Loop interval in seconds")
	fs.IntVar(&c.Hysteresis, "hysteresis", c.Hysteresis, "Minimum ramp entry change that triggers a write")
	fs.IntVar(&c.OverrideMinutes, "override-minutes", c.OverrideMinutes, "Manual override duration in minutes (0 = until 'auto')")
	fs.IntVar(&c.StartupRetries, "startup-retries", c.StartupRetries, "Display connection attempts at startup")
	fs.BoolVar(&c.KeyboardControls, "keyboard", c.KeyboardControls, "Enable interactive key controls")
	fs.BoolVar(&c.MetricsEnabled, "metrics", c.MetricsEnabled, "Expose Prometheus metrics on the control API")

	// Sink flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname (empty disables)")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname (empty disables)")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "Postgres DSN for the history sink (empty disables)")
}

// BindScheduleFlags registers the location and schedule flags shared by the
// automatic mode and the informational commands.
func (c *Config) BindScheduleFlags(fs *pflag.FlagSet) {
	// Location flags
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "Timezone identifier used to guess the location (default: system timezone)")
	fs.Var(newFloatPtrValue(&c.Latitude), "latitude", "Geographic latitude (overrides timezone lookup)")
	fs.Var(newFloatPtrValue(&c.Longitude), "longitude", "Geographic longitude (overrides timezone lookup)")

	// Schedule flags
	fs.StringVar(&c.SolarSource, "solar-source", c.SolarSource, "Sunrise/sunset reference source (suncalc, sunrise, table)")
	fs.StringVar(&c.Curve, "curve", c.Curve, "Transition curve (linear, ease-in-out, cosine)")
	fs.IntVar(&c.MorningWindowMin, "morning-window", c.MorningWindowMin, "Half-width of the sunrise transition (minutes)")
	fs.IntVar(&c.EveningWindowMin, "evening-window", c.EveningWindowMin, "Half-width of the sunset transition (minutes)")
	fs.IntVar(&c.NightKelvin, "night-kelvin", c.NightKelvin, "Night temperature (K)")
	fs.IntVar(&c.DayKelvin, "day-kelvin", c.DayKelvin, "Day temperature (K)")
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.Driver {
	case "randr", "memory":
	default:
		return fmt.Errorf("invalid driver: %s (must be randr or memory)", c.Driver)
	}
	switch c.SolarSource {
	case "suncalc", "sunrise", "table":
	default:
		return fmt.Errorf("invalid solar source: %s (must be suncalc, sunrise or table)", c.SolarSource)
	}
	switch c.Curve {
	case "linear", "ease-in-out", "cosine":
	default:
		return fmt.Errorf("invalid curve: %s (must be linear, ease-in-out or cosine)", c.Curve)
	}

	if (c.Latitude == nil) != (c.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be given together")
	}
	if c.IntervalSec <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.MorningWindowMin < 1 || c.EveningWindowMin < 1 {
		return fmt.Errorf("transition windows must be at least 1 minute")
	}
	if c.NightKelvin < 1000 || c.DayKelvin > 10000 || c.NightKelvin > c.DayKelvin {
		return fmt.Errorf("night/day temperatures must satisfy 1000 <= night <= day <= 10000")
	}
	if c.OverrideMinutes < 0 {
		return fmt.Errorf("override minutes must not be negative")
	}
	if c.Hysteresis < 0 {
		return fmt.Errorf("hysteresis must not be negative")
	}
	if c.StartupRetries < 1 {
		return fmt.Errorf("startup retries must be at least 1")
	}
	if c.DisplayTimeoutMs <= 0 {
		return fmt.Errorf("display timeout must be positive")
	}
	if c.MaxBackoffSec <= 0 {
		return fmt.Errorf("max backoff must be positive")
	}
	if c.Hostname == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if c.MQTTBroker != "" && (c.MQTTPort <= 0 || c.MQTTPort > 65535) {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost != "" && (c.RedisPort <= 0 || c.RedisPort > 65535) {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}

	return nil
}

// Interval returns the loop interval
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// DisplayTimeout returns the per round trip display timeout
func (c *Config) DisplayTimeout() time.Duration {
	return time.Duration(c.DisplayTimeoutMs) * time.Millisecond
}

// OverrideDuration returns how long a manual override lasts; 0 means until
// automatic mode is re-enabled
func (c *Config) OverrideDuration() time.Duration {
	return time.Duration(c.OverrideMinutes) * time.Minute
}

// MaxBackoff returns the longest pause between retries of a failing output
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSec) * time.Second
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// floatPtrValue is a pflag.Value for optional float flags
type floatPtrValue struct {
	p **float64
}

func newFloatPtrValue(p **float64) *floatPtrValue {
	return &floatPtrValue{p: p}
}

func (f *floatPtrValue) String() string {
	if f.p == nil || *f.p == nil {
		return ""
	}
	return strconv.FormatFloat(**f.p, 'f', -1, 64)
}

func (f *floatPtrValue) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f.p = &v
	return nil
}

func (f *floatPtrValue) Type() string {
	return "float"
}
