package utils

import "os"

var (
	CRDB_DSN = os.Getenv("CRDB_DSN")

	REDIS_ADDR     = os.Getenv("REDIS_ADDR")
	REDIS_PASSWORD = os.Getenv("REDIS_PASSWORD")

	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT    = os.Getenv("S3_ENDPOINT")

	NPARTITIONS      = GetEnvOrDefaultInt("NPARTITIONS", 8)
	READ_WORKERS     = GetEnvOrDefaultInt("READ_WORKERS", 0)
	MIN_COLUMN_BLOCK = GetEnvOrDefaultInt("MIN_COLUMN_BLOCK", 32)

	// EXPORT_DIR switches exports to the disk datastore when set
	EXPORT_DIR = os.Getenv("EXPORT_DIR")
)
