package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/samajhai/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults shared by Load and the CLI help text.
const (
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	DefaultModel      = "meta-llama/llama-3-8b-instruct"
	DefaultListenAddr = ":8501"
)

// Global configuration structure.
type Global struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Referer     string  `mapstructure:"referer" yaml:"referer"`
	AppTitle    string  `mapstructure:"app_title" yaml:"app_title"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Web dashboard
	ListenAddr    string `mapstructure:"listen_addr" yaml:"listen_addr"`
	SessionSecret string `mapstructure:"session_secret" yaml:"session_secret"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	CookieSecure  bool   `mapstructure:"cookie_secure" yaml:"cookie_secure"`
	MaxUploadMB   int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Excerpts
	SummaryRows int `mapstructure:"summary_rows" yaml:"summary_rows"`
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
}

// HTTPTimeout returns the configured HTTP timeout as a duration.
func (c *Global) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// SessionTTL returns how long an idle dashboard session is kept.
func (c *Global) SessionTTL() time.Duration {
	if c.SessionTTLMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *Global) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

// Validate reports configuration problems that must stop the process
// before any UI is shown or any request is sent.
func (c *Global) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("api_key is not set (use SAMAJH_API_KEY or 'samajh config set api_key ...')"))
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is empty"))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is empty"))
	}
	if c.SummaryRows < 0 {
		errs = append(errs, fmt.Errorf("summary_rows must be >= 0, got %d", c.SummaryRows))
	}
	return errors.Join(errs...)
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.samajh/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// The file holds the API key.
	if err := utils.SafeWriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing default file is fine;
// an explicit cfgFile that cannot be read is an error.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return unmarshal(v)
}

// Defaults returns the configuration built from env and defaults only.
func Defaults() (*Global, error) {
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SAMAJH")
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("referer", "http://localhost")
	v.SetDefault("app_title", "SamajhAI")
	v.SetDefault("max_tokens", 0)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("summary_rows", 20)
	// 0 shows every row; the preview box scrolls.
	v.SetDefault("preview_rows", 0)
	return v
}

func unmarshal(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".samajh"), nil
}
