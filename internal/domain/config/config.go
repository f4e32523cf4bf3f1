// Package config loads the site configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	domainerr "geoblog/internal/domain/errors"
	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	AppName     = "geoblog"
	DefaultFile = "site.yaml"
)

type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Geo     GeoConfig     `yaml:"geo"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

type SiteConfig struct {
	Title string `yaml:"title" env:"SITE_TITLE" env-default:"geoblog"`
	URL   string `yaml:"url" env:"SITE_URL" env-default:"http://localhost:8080"`
}

// StorageConfig names the two article roots.
type StorageConfig struct {
	PublishedDir string `yaml:"published_dir" env:"PUBLISHED_DIR" env-default:"raw_articles"`
	DraftsDir    string `yaml:"drafts_dir" env:"DRAFTS_DIR" env-default:"drafts"`
}

type AuthConfig struct {
	AdminTeamID string        `yaml:"admin_team_id" env:"SITE_ADMIN_TEAM_ID" env-required:"true"`
	JWTSecret   string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer      string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"geoblog"`
	TokenTTL    time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
}

type GeoConfig struct {
	// IndexPath defaults to a file under the XDG data directory.
	IndexPath string `yaml:"index_path" env:"GEO_INDEX_PATH"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"10s"`
	TrustForwardedFor bool          `yaml:"trust_forwarded_for" env:"HTTP_TRUST_FORWARDED_FOR" env-default:"true"`
	Watch             bool          `yaml:"watch" env:"HTTP_WATCH" env-default:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

func DefaultIndexPath() string {
	return filepath.Join(xdg.DataHome, AppName, "geo.db")
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if !isValidAbsURL(c.Site.URL) {
		ve.Add("site.url", "must be a valid absolute URL")
	}

	pub := strings.TrimSpace(c.Storage.PublishedDir)
	drafts := strings.TrimSpace(c.Storage.DraftsDir)
	if pub == "" {
		ve.Add("storage.published_dir", "must not be empty")
	}
	if drafts == "" {
		ve.Add("storage.drafts_dir", "must not be empty")
	}
	if pub != "" && filepath.Clean(pub) == filepath.Clean(drafts) {
		ve.Add("storage.drafts_dir", "must differ from published_dir")
	}

	if strings.TrimSpace(c.Auth.AdminTeamID) == "" {
		ve.Add("auth.admin_team_id", "must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		ve.Add("auth.jwt_secret", "must be at least 16 bytes")
	}
	if c.Auth.TokenTTL <= 0 {
		ve.Add("auth.token_ttl", "must be positive")
	}

	if strings.TrimSpace(c.Geo.IndexPath) == "" {
		ve.Add("geo.index_path", "must not be empty")
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		ve.Add("http.addr", "must not be empty")
	}
	if c.HTTP.RequestTimeout <= 0 {
		ve.Add("http.request_timeout", "must be positive")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil || c.Log.Level == "" {
		ve.Add("log.level", "must be one of trace, debug, info, warn, error")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		ve.Add("log.format", "must be 'json' or 'console'")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads the configuration. Sources, highest priority first: the
// explicit path, CONFIG_PATH, ./site.yaml, then the environment alone.
// Environment variables always override values read from a file.
func Load(path string) (Config, error) {
	var cfg Config

	file := path
	if file == "" {
		file = os.Getenv("CONFIG_PATH")
	}
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return cfg, fmt.Errorf("config file %q: %w", file, err)
		}
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %q: %w", file, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("config not found: provide --config, CONFIG_PATH, %s or env vars: %w", DefaultFile, err)
	}

	if strings.TrimSpace(cfg.Geo.IndexPath) == "" {
		cfg.Geo.IndexPath = DefaultIndexPath()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Usage describes every environment variable the config understands.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return desc
}
