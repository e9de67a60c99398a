package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/claimkeeper/internal/flagx"
)

var knownFlags = []string{
	"-d", "-blob", "-u", "-base-url", "-max-size", "-tz", "-log-level", "-seed",
	"-s3-user", "-s3-password", "-s3-bucket", "-s3-region", "-s3-endpoint",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-d string            PostgreSQL DSN
//	-blob string         blob backend: fs or s3
//	-u string            upload directory (fs backend)
//	-base-url string     public base URL of stored attachments
//	-max-size int        per-attachment limit, bytes
//	-tz string           time zone used for claim dates
//	-log-level string    debug, info, warn, error
//	-seed                seed sample claims into an empty database
//	-s3-user, -s3-password, -s3-bucket, -s3-region, -s3-endpoint
//
// Arguments are filtered through flagx.FilterArgs first so that flags owned
// by other layers (-c/-config) do not cause parse errors.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("claims", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "blob backend (fs|s3)")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory")
	fs.StringVar(&config.PublicBaseURL, "base-url", config.PublicBaseURL, "public base URL for attachments")
	fs.Int64Var(&config.MaxAttachmentSize, "max-size", config.MaxAttachmentSize, "max attachment size in bytes")
	fs.StringVar(&config.TimeZone, "tz", config.TimeZone, "time zone for claim dates")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.BoolVar(&config.SeedSampleData, "seed", config.SeedSampleData, "seed sample claims")

	fs.StringVar(&config.S3RootUser, "s3-user", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "s3-password", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}
}
