package config

import (
	"time"

	"github.com/dmitrijs2005/storefront/internal/envx"
)

// Config holds runtime settings for the storefront client.
type Config struct {
	APIURL         string
	DBPath         string
	RequestTimeout time.Duration
	ViewportWidth  int
	LogLevel       string
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:1337"
	c.DBPath = "storefront.db"
	c.RequestTimeout = 0
	c.ViewportWidth = 120
	c.LogLevel = "warn"
}

func parseEnv(c *Config) {
	envx.LoadDotEnv()

	envx.String("STOREFRONT_CLIENT_API_URL", &c.APIURL)
	envx.String("STOREFRONT_CLIENT_DB_PATH", &c.DBPath)
	envx.Duration("STOREFRONT_CLIENT_REQUEST_TIMEOUT", &c.RequestTimeout)
	envx.Int("STOREFRONT_CLIENT_VIEWPORT_WIDTH", &c.ViewportWidth)
	envx.String("STOREFRONT_CLIENT_LOG_LEVEL", &c.LogLevel)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
