package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// lookupFunc mirrors os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// envLookup resolves variables from the process environment first and then
// from the given .env file, if it exists. The file never overrides the
// environment and is not required.
func envLookup(dotenvPath string) lookupFunc {
	fileVars, err := godotenv.Read(dotenvPath)
	if err != nil {
		fileVars = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}
}

// parseEnv overlays CLAIMS_* variables. Malformed numbers, durations or
// booleans panic, matching the JSON and flag layers.
func parseEnv(config *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("CLAIMS_DATABASE_DSN", &config.DatabaseDSN)
	str("CLAIMS_BLOB_BACKEND", &config.BlobBackend)
	str("CLAIMS_UPLOAD_DIR", &config.UploadDir)
	str("CLAIMS_PUBLIC_BASE_URL", &config.PublicBaseURL)
	str("CLAIMS_TIME_ZONE", &config.TimeZone)
	str("CLAIMS_S3_ROOT_USER", &config.S3RootUser)
	str("CLAIMS_S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("CLAIMS_S3_BUCKET", &config.S3Bucket)
	str("CLAIMS_S3_REGION", &config.S3Region)
	str("CLAIMS_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("CLAIMS_LOG_LEVEL", &config.LogLevel)

	if v, ok := lookup("CLAIMS_DB_MAX_OPEN_CONNS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("CLAIMS_DB_MAX_OPEN_CONNS: %w", err))
		}
		config.DBMaxOpenConns = n
	}
	if v, ok := lookup("CLAIMS_DB_CONN_MAX_LIFETIME"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("CLAIMS_DB_CONN_MAX_LIFETIME: %w", err))
		}
		config.DBConnMaxLifetime = d
	}
	if v, ok := lookup("CLAIMS_MAX_ATTACHMENT_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("CLAIMS_MAX_ATTACHMENT_SIZE: %w", err))
		}
		config.MaxAttachmentSize = n
	}
	if v, ok := lookup("CLAIMS_SEED_SAMPLE_DATA"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("CLAIMS_SEED_SAMPLE_DATA: %w", err))
		}
		config.SeedSampleData = b
	}
}
