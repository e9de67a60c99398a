package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/claimkeeper/internal/flagx"
	"github.com/dmitrijs2005/claimkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	DatabaseDSN       string         `json:"database_dsn"`
	DBMaxOpenConns    int            `json:"db_max_open_conns"`
	DBConnMaxLifetime timex.Duration `json:"db_conn_max_lifetime"`
	BlobBackend       string         `json:"blob_backend"`
	UploadDir         string         `json:"upload_dir"`
	PublicBaseURL     string         `json:"public_base_url"`
	MaxAttachmentSize int64          `json:"max_attachment_size"`
	TimeZone          string         `json:"time_zone"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	LogLevel          string         `json:"log_level"`
	SeedSampleData    *bool          `json:"seed_sample_data"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file leave the current value untouched. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.TimeZone, c.TimeZone)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.DBMaxOpenConns != 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBConnMaxLifetime.Duration != 0 {
		config.DBConnMaxLifetime = c.DBConnMaxLifetime.Duration
	}
	if c.MaxAttachmentSize != 0 {
		config.MaxAttachmentSize = c.MaxAttachmentSize
	}
	if c.SeedSampleData != nil {
		config.SeedSampleData = *c.SeedSampleData
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
