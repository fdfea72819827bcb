package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port pair the HTTP listener binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ConsoleLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// FileLogConfig controls the daily-rolling log file. Files are written to
// Dir and named <NamePrefix>.<YYYY-MM-DD>.
type FileLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	NamePrefix string `yaml:"namePrefix"`
}

type LogConfig struct {
	Console ConsoleLogConfig `yaml:"console"`
	File    FileLogConfig    `yaml:"file"`
}

// SpeedTestConfig describes the external latency-measurement tool and the
// two artifacts it communicates through. InputFile and OutputFile are
// resolved relative to WorkDir.
type SpeedTestConfig struct {
	Binary     string `yaml:"binary"`
	WorkDir    string `yaml:"workDir"`
	InputFile  string `yaml:"inputFile"`
	OutputFile string `yaml:"outputFile"`
}

type NamesiloConfig struct {
	URL       string `yaml:"url"`
	Key       string `yaml:"key"`
	Domain    string `yaml:"domain"`
	RRHost    string `yaml:"rrhost"`
	RRTTL     string `yaml:"rrttl"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// RateLimitConfig limits mutating API calls per client IP. Zero disables
// the limiter; it also stays off when no redis URL is configured.
type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute"`
}

// AssetsConfig points at a directory holding the web UI. When Dir is empty
// the embedded default UI is served.
type AssetsConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	SpeedTest SpeedTestConfig `yaml:"speedTest"`
	Namesilo  NamesiloConfig  `yaml:"namesilo"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// Default returns a Config with every field set to its default value and
// console logging enabled.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Console.Enabled = true
	cfg.ApplyDefaults()
	return cfg
}

// Load reads the YAML file at path, applies APP_* environment overrides and
// fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Log.Console.Level == "" {
		c.Log.Console.Level = "info"
	}
	if c.Log.Console.Format == "" {
		c.Log.Console.Format = "text"
	}
	if c.Log.File.Level == "" {
		c.Log.File.Level = "info"
	}
	if c.Log.File.Dir == "" {
		c.Log.File.Dir = "logs"
	}
	if c.Log.File.NamePrefix == "" {
		c.Log.File.NamePrefix = "ipsync.log"
	}

	if c.SpeedTest.Binary == "" {
		c.SpeedTest.Binary = "CloudflareSpeedTest"
	}
	if c.SpeedTest.WorkDir == "" {
		c.SpeedTest.WorkDir = "."
	}
	if c.SpeedTest.InputFile == "" {
		c.SpeedTest.InputFile = "ip.txt"
	}
	if c.SpeedTest.OutputFile == "" {
		c.SpeedTest.OutputFile = "result.csv"
	}

	if c.Namesilo.URL == "" {
		c.Namesilo.URL = "https://www.namesilo.com"
	}
	if c.Namesilo.RRTTL == "" {
		c.Namesilo.RRTTL = "3600"
	}
	if c.Namesilo.TimeoutMs <= 0 {
		c.Namesilo.TimeoutMs = 10000
	}
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides file values with APP_<SECTION>_<FIELD> variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"APP_SERVER_HOST":          &c.Server.Host,
		"APP_LOG_CONSOLE_LEVEL":    &c.Log.Console.Level,
		"APP_LOG_CONSOLE_FORMAT":   &c.Log.Console.Format,
		"APP_LOG_FILE_LEVEL":       &c.Log.File.Level,
		"APP_LOG_FILE_DIR":         &c.Log.File.Dir,
		"APP_SPEEDTEST_BINARY":     &c.SpeedTest.Binary,
		"APP_SPEEDTEST_WORKDIR":    &c.SpeedTest.WorkDir,
		"APP_SPEEDTEST_INPUTFILE":  &c.SpeedTest.InputFile,
		"APP_SPEEDTEST_OUTPUTFILE": &c.SpeedTest.OutputFile,
		"APP_NAMESILO_URL":         &c.Namesilo.URL,
		"APP_NAMESILO_KEY":         &c.Namesilo.Key,
		"APP_NAMESILO_DOMAIN":      &c.Namesilo.Domain,
		"APP_NAMESILO_RRHOST":      &c.Namesilo.RRHost,
		"APP_NAMESILO_RRTTL":       &c.Namesilo.RRTTL,
		"APP_REDIS_URL":            &c.Redis.URL,
		"APP_ASSETS_DIR":           &c.Assets.Dir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"APP_SERVER_PORT":         &c.Server.Port,
		"APP_NAMESILO_TIMEOUTMS":  &c.Namesilo.TimeoutMs,
		"APP_RATELIMIT_PERMINUTE": &c.RateLimit.PerMinute,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"APP_LOG_CONSOLE_ENABLED": &c.Log.Console.Enabled,
		"APP_LOG_FILE_ENABLED":    &c.Log.File.Enabled,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}

	return nil
}
