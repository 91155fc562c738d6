package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations
// accept both "1s" strings and integer nanoseconds. Absent keys leave the
// corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr    string         `json:"http_addr"`
	PublicURL   string         `json:"public_url"`
	DatabaseDSN string         `json:"database_dsn"`
	SecretKey   string         `json:"secret_key"`
	JWTValidity timex.Duration `json:"jwt_validity"`

	UploadProvider  string `json:"upload_provider"`
	PublicDir       string `json:"public_dir"`
	UploadSizeLimit int64  `json:"upload_size_limit"`

	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3PresignTTL   timex.Duration `json:"s3_presign_ttl"`

	GraphQLDefaultLimit int `json:"graphql_default_limit"`
	GraphQLMaxLimit     int `json:"graphql_max_limit"`
	GraphQLAmountLimit  int `json:"graphql_amount_limit"`

	AMQPURL      string `json:"amqp_url"`
	AMQPExchange string `json:"amqp_exchange"`
	AMQPQueue    string `json:"amqp_queue"`

	LogLevel   string `json:"log_level"`
	LogBackend string `json:"log_backend"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setNonZero[T int | int64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics: a typo in the config path
// should stop the process rather than run with defaults.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.PublicURL, c.PublicURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.JWTValidity.Duration != 0 {
		config.JWTValidity = c.JWTValidity.Duration
	}

	setString(&config.UploadProvider, c.UploadProvider)
	setString(&config.PublicDir, c.PublicDir)
	setNonZero(&config.UploadSizeLimit, c.UploadSizeLimit)

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3PresignTTL.Duration != 0 {
		config.S3PresignTTL = c.S3PresignTTL.Duration
	}

	setNonZero(&config.GraphQLDefaultLimit, c.GraphQLDefaultLimit)
	setNonZero(&config.GraphQLMaxLimit, c.GraphQLMaxLimit)
	setNonZero(&config.GraphQLAmountLimit, c.GraphQLAmountLimit)

	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.AMQPQueue, c.AMQPQueue)

	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
}
