package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-P", "-D", "-b", "-g", "-e", "-q", "-l", "-L"}

// parseFlags populates selected server Config fields from command-line flags.
//
//	-a string     HTTP bind address (e.g., ":1337")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-t duration   JWT validity (e.g., "168h")
//	-P string     upload provider: local or s3
//	-D string     public directory for local uploads
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint
//	-q string     AMQP URL; empty disables event publishing
//	-l string     log level
//	-L string     log backend: slog or zap
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.JWTValidity, "t", config.JWTValidity, "jwt validity")
	fs.StringVar(&config.UploadProvider, "P", config.UploadProvider, "upload provider (local|s3)")
	fs.StringVar(&config.PublicDir, "D", config.PublicDir, "public directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.AMQPURL, "q", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "L", config.LogBackend, "log backend (slog|zap)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
