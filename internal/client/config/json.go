package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// RequestTimeout accepts strings like "10s" or integer nanoseconds.
type JsonConfig struct {
	APIURL         string         `json:"api_url"`
	DBPath         string         `json:"db_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	ViewportWidth  int            `json:"viewport_width"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config. Keys absent from
// the file keep their current values. Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIURL != "" {
		cfg.APIURL = jc.APIURL
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ViewportWidth != 0 {
		cfg.ViewportWidth = jc.ViewportWidth
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
