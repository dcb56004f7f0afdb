package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/turismap/internal/flagx"
	"github.com/dmitrijs2005/turismap/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "15m" strings
// or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	StorageBackend               string         `json:"storage_backend"`
	DatabaseDSN                  string         `json:"database_dsn"`
	MongoURI                     string         `json:"mongo_uri"`
	MongoDatabase                string         `json:"mongo_database"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	PresignValidityDuration      timex.Duration `json:"presign_validity_duration"`
	KafkaBrokers                 []string       `json:"kafka_brokers"`
	KafkaTopic                   string         `json:"kafka_topic"`
	PlacesFile                   string         `json:"places_file"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson overlays config with the fields set in the file named by -c or
// -config. Absent fields keep their current value. Read and decode errors
// panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&config.EndpointAddrGRPC, c.EndpointAddrGRPC},
		{&config.EndpointAddrHTTP, c.EndpointAddrHTTP},
		{&config.StorageBackend, c.StorageBackend},
		{&config.DatabaseDSN, c.DatabaseDSN},
		{&config.MongoURI, c.MongoURI},
		{&config.MongoDatabase, c.MongoDatabase},
		{&config.SecretKey, c.SecretKey},
		{&config.S3RootUser, c.S3RootUser},
		{&config.S3RootPassword, c.S3RootPassword},
		{&config.S3Bucket, c.S3Bucket},
		{&config.S3Region, c.S3Region},
		{&config.S3BaseEndpoint, c.S3BaseEndpoint},
		{&config.KafkaTopic, c.KafkaTopic},
		{&config.PlacesFile, c.PlacesFile},
		{&config.LogLevel, c.LogLevel},
		{&config.LogFormat, c.LogFormat},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.PresignValidityDuration.Duration > 0 {
		config.PresignValidityDuration = c.PresignValidityDuration.Duration
	}
	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
}
