package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/manifestcheck/pkg/buildinfo"
	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/httputil"
	"github.com/matzehuels/manifestcheck/pkg/integrations"
	"github.com/matzehuels/manifestcheck/pkg/integrations/npm"
)

// Config is the on-disk configuration, read from TOML.
//
//	registry_url = "https://registry.npmjs.org"
//	web_url      = "https://www.npmjs.com"
//	timeout      = "30s"
//	max_body_bytes = 134217728
//
//	[retry]
//	attempts   = 5
//	base_delay = "3s"
//	max_delay  = "30s"
type Config struct {
	RegistryURL string        `toml:"registry_url"`
	WebURL      string        `toml:"web_url"`
	UserAgent   string        `toml:"user_agent"`
	Timeout     time.Duration `toml:"timeout"`
	MaxBody     int64         `toml:"max_body_bytes"`
	Retry       RetryConfig   `toml:"retry"`
}

// RetryConfig mirrors [httputil.Policy].
type RetryConfig struct {
	Attempts  int           `toml:"attempts"`
	BaseDelay time.Duration `toml:"base_delay"`
	MaxDelay  time.Duration `toml:"max_delay"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.RegistryURL == "" {
		c.RegistryURL = npm.DefaultRegistryURL
	}
	if c.WebURL == "" {
		c.WebURL = npm.DefaultWebURL
	}
	if c.UserAgent == "" {
		c.UserAgent = buildinfo.UserAgent(appName)
	}
	if c.Timeout <= 0 {
		c.Timeout = integrations.DefaultTimeout
	}
	if c.MaxBody <= 0 {
		c.MaxBody = integrations.DefaultMaxBodyBytes
	}
	def := httputil.DefaultPolicy()
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = def.Attempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = def.BaseDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = def.MaxDelay
	}
	return c
}

// Validate checks the endpoint URLs.
func (c Config) Validate() error {
	if err := apperrors.ValidateURL(c.RegistryURL); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "registry_url")
	}
	if err := apperrors.ValidateURL(c.WebURL); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "web_url")
	}
	return nil
}

// npmConfig builds the registry client configuration.
func (c Config) npmConfig(logger *log.Logger) npm.Config {
	return npm.Config{
		RegistryURL: c.RegistryURL,
		WebURL:      c.WebURL,
		Options: integrations.Options{
			Timeout:      c.Timeout,
			UserAgent:    c.UserAgent,
			Logger:       logger,
			MaxBodyBytes: c.MaxBody,
			Retry: httputil.Policy{
				Attempts:  c.Retry.Attempts,
				BaseDelay: c.Retry.BaseDelay,
				MaxDelay:  c.Retry.MaxDelay,
				Jitter:    httputil.DefaultPolicy().Jitter,
			},
		},
	}
}

// configPath returns the default config location using the XDG standard
// (~/.config/manifestcheck/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads path, or the default location when path is empty.
// A missing default file yields the defaults; a missing explicit file is
// an error. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return Config{}.WithDefaults(), nil
		}
		path = p
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Config{}.WithDefaults(), nil
	case err != nil:
		return Config{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, apperrors.New(apperrors.ErrCodeInvalidInput,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
