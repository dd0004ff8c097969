package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lazyhydrate/pkg/diag"
)

const (
	// FileName is the JSON configuration file.
	FileName = "lazyhydrate.json"

	// YAMLFileName is the YAML configuration file.
	YAMLFileName = "lazyhydrate.yaml"

	// DefaultPort is the default service port.
	DefaultPort = 7331

	// DefaultHost is the default service host.
	DefaultHost = "localhost"

	// DefaultOutput is the default compile output directory.
	DefaultOutput = "dist"

	// DefaultMaxBodySize bounds a single compile request.
	DefaultMaxBodySize = 1 << 20
)

// Config is the complete configuration.
type Config struct {
	// Compile contains compiler settings.
	Compile CompileConfig `json:"compile,omitempty" yaml:"compile,omitempty"`

	// Serve contains HTTP service settings.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// Bridge contains activation bridge settings.
	Bridge BridgeConfig `json:"bridge,omitempty" yaml:"bridge,omitempty"`

	// Publish contains S3 publishing settings.
	Publish PublishConfig `json:"publish,omitempty" yaml:"publish,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// CompileConfig contains compiler settings.
type CompileConfig struct {
	// Extensions are the template file extensions picked up from
	// directories.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// Output is the directory compiled files are written to.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Strict fails files on warnings.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// ServeConfig contains HTTP service settings.
type ServeConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// MaxBodySize is the largest accepted compile request, in bytes.
	MaxBodySize int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
}

// BridgeConfig contains activation bridge settings.
type BridgeConfig struct {
	// ReadTimeout is the idle timeout for client frames (e.g., "60s").
	ReadTimeout string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	// WriteTimeout bounds frame writes (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// MaxMessageSize is the read limit for client frames.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`
}

// PublishConfig contains S3 publishing settings.
type PublishConfig struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Compile: CompileConfig{
			Extensions: []string{".vue", ".html"},
			Output:     DefaultOutput,
		},
		Serve: ServeConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			MaxBodySize: DefaultMaxBodySize,
		},
		Bridge: BridgeConfig{
			ReadTimeout:    "60s",
			WriteTimeout:   "10s",
			MaxMessageSize: 4096,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from dir, trying lazyhydrate.json then
// lazyhydrate.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{FileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, diag.New(diag.CodeConfigNotFound).
		WithDetail("No " + FileName + " or " + YAMLFileName + " found in " + dir).
		WithSuggestion("Create one, or pass settings as flags")
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diag.New(diag.CodeConfigNotFound).
				WithDetail("No config file at " + path)
		}
		return nil, diag.New(diag.CodeInvalidConfig).WithDetail(err.Error())
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, diag.New(diag.CodeInvalidConfig).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid " + formatName(path))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return diag.New(diag.CodeInvalidConfig).WithDetail(err.Error())
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return diag.New(diag.CodeInvalidConfig).WithDetail(err.Error())
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	def := New()

	if len(c.Compile.Extensions) == 0 {
		c.Compile.Extensions = def.Compile.Extensions
	}
	if c.Compile.Output == "" {
		c.Compile.Output = def.Compile.Output
	}

	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.MaxBodySize == 0 {
		c.Serve.MaxBodySize = DefaultMaxBodySize
	}

	if c.Bridge.ReadTimeout == "" {
		c.Bridge.ReadTimeout = def.Bridge.ReadTimeout
	}
	if c.Bridge.WriteTimeout == "" {
		c.Bridge.WriteTimeout = def.Bridge.WriteTimeout
	}
	if c.Bridge.MaxMessageSize == 0 {
		c.Bridge.MaxMessageSize = def.Bridge.MaxMessageSize
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return diag.New(diag.CodeInvalidConfig).
			WithDetail("serve.port must be between 0 and 65535")
	}
	if c.Serve.MaxBodySize < 0 {
		return diag.New(diag.CodeInvalidConfig).
			WithDetail("serve.maxBodySize must not be negative")
	}
	for _, field := range []struct{ name, value string }{
		{"bridge.readTimeout", c.Bridge.ReadTimeout},
		{"bridge.writeTimeout", c.Bridge.WriteTimeout},
	} {
		if _, err := parseDuration(field.value); err != nil {
			return diag.New(diag.CodeInvalidConfig).
				WithDetailf("%s: %v", field.name, err).
				WithSuggestion(`Use a Go duration such as "30s"`)
		}
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return diag.New(diag.CodeInvalidConfig).
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return diag.New(diag.CodeInvalidConfig).
			WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	if c.Publish.Bucket == "" && (c.Publish.Prefix != "" || c.Publish.Endpoint != "") {
		return diag.New(diag.CodeInvalidConfig).
			WithDetail("publish.prefix and publish.endpoint need publish.bucket")
	}
	for _, ext := range c.Compile.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return diag.New(diag.CodeInvalidConfig).
				WithDetailf("compile.extensions entry %q must start with a dot", ext)
		}
	}
	return nil
}

// Address returns the host:port the service listens on.
func (c *Config) Address() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// OutputPath returns the compile output directory, resolved against the
// config file's directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Compile.Output) {
		return c.Compile.Output
	}
	return filepath.Join(c.Dir(), c.Compile.Output)
}

// BridgeTimeouts returns the parsed bridge timeouts. Invalid values give
// zero, which the bridge replaces with its defaults.
func (c *Config) BridgeTimeouts() (read, write time.Duration) {
	read, _ = parseDuration(c.Bridge.ReadTimeout)
	write, _ = parseDuration(c.Bridge.WriteTimeout)
	return read, write
}

// HasExtension reports whether path is a template file.
func (c *Config) HasExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Compile.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// LogLevel returns the slog level for Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(path string) string {
	if isYAML(path) {
		return "YAML"
	}
	return "JSON"
}
