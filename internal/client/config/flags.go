package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Unknown arguments are filtered out with flagx.FilterArgs so they do not
// interfere with other layers.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-t", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "base URL of the CMS API")
	fs.StringVar(&cfg.DBPath, "f", cfg.DBPath, "local session database file")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout (0 = none)")
	fs.IntVar(&cfg.ViewportWidth, "w", cfg.ViewportWidth, "viewport width in columns")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
