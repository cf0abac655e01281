// Package config loads the kmeanslabd configuration file.
//
// The file is TOML. Every key is optional; missing keys keep the values from
// Default. Unknown keys are rejected so typos do not go unnoticed.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the daemon configuration.
type Config struct {
	Server     Server     `toml:"server"`
	Clustering Clustering `toml:"clustering"`
	Log        Log        `toml:"log"`
	Limits     Limits     `toml:"limits"`
	Export     Export     `toml:"export"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Clustering configures the session.
type Clustering struct {
	DatasetSize   int     `toml:"dataset_size"`
	Seed          int64   `toml:"seed"` // 0 seeds from the clock
	AbsTolerance  float64 `toml:"abs_tolerance"`
	RelTolerance  float64 `toml:"rel_tolerance"`
	MaxIterations int     `toml:"max_iterations"`
	Parallelism   int     `toml:"parallelism"`
}

// Log configures logging. An empty Filename logs to stderr.
type Log struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Limits configures request admission.
type Limits struct {
	RequestsPerSecond     float64  `toml:"requests_per_second"`
	Burst                 int      `toml:"burst"`
	MaxConcurrentConverge int64    `toml:"max_concurrent_converge"`
	ConvergeTimeout       Duration `toml:"converge_timeout"`
}

// Export configures where snapshots go. An empty Backend disables export.
type Export struct {
	Backend     string `toml:"backend"` // local, memory, s3, minio
	Compression string `toml:"compression"`
	Dir         string `toml:"dir"`
	Bucket      string `toml:"bucket"`
	Prefix      string `toml:"prefix"`
	Region      string `toml:"region"`
	Endpoint    string `toml:"endpoint"`
	AccessKey   string `toml:"access_key"`
	SecretKey   string `toml:"secret_key"`
	UseSSL      bool   `toml:"use_ssl"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":5000",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{2 * time.Minute},
			ShutdownTimeout: Duration{15 * time.Second},
		},
		Clustering: Clustering{
			DatasetSize:   200,
			AbsTolerance:  1e-8,
			RelTolerance:  1e-5,
			MaxIterations: 1000,
			Parallelism:   1,
		},
		Log: Log{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Limits: Limits{
			RequestsPerSecond:     50,
			Burst:                 100,
			MaxConcurrentConverge: 1,
			ConvergeTimeout:       Duration{time.Minute},
		},
		Export: Export{
			Compression: "zstd",
			Dir:         "./runs",
			Prefix:      "kmeanslab/",
		},
	}
}

// Load reads and validates the file at path. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML from r on top of Default and validates the result.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend requirements.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Server.Addr == "" {
		invalid("server.addr is empty")
	}
	if c.Clustering.DatasetSize < 1 {
		invalid("clustering.dataset_size must be positive, got %d", c.Clustering.DatasetSize)
	}
	if c.Clustering.AbsTolerance < 0 || c.Clustering.RelTolerance < 0 {
		invalid("clustering tolerances must not be negative")
	}
	if c.Clustering.Parallelism < 1 {
		invalid("clustering.parallelism must be at least 1, got %d", c.Clustering.Parallelism)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		invalid("log.level: %v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Limits.RequestsPerSecond < 0 {
		invalid("limits.requests_per_second must not be negative")
	}

	switch c.Export.Backend {
	case "", "memory":
	case "local":
		if c.Export.Dir == "" {
			invalid("export.dir is required for the local backend")
		}
	case "s3", "minio":
		if c.Export.Bucket == "" {
			invalid("export.bucket is required for the %s backend", c.Export.Backend)
		}
		if c.Export.Backend == "minio" && c.Export.Endpoint == "" {
			invalid("export.endpoint is required for the minio backend")
		}
	default:
		invalid("unknown export.backend %q", c.Export.Backend)
	}
	switch strings.ToLower(c.Export.Compression) {
	case "", "none", "lz4", "zstd":
	default:
		invalid("unknown export.compression %q", c.Export.Compression)
	}

	return errors.Join(errs...)
}

// SlogLevel maps Level to a slog.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}
