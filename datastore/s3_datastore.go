package datastore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/danthegoodman1/splitread/s3_helper"
)

type (
	// S3DataStore keeps files in the configured bucket, under prefix
	S3DataStore struct {
		prefix string
	}

	countingReader struct {
		r io.Reader
		n int64
	}
)

func NewS3DataStore(prefix string) *S3DataStore {
	return &S3DataStore{prefix: prefix}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (sds *S3DataStore) WriteFile(ctx context.Context, key string, r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	_, err := s3_helper.WriteBytesToS3(ctx, sds.prefix+key, cr, aws.String("application/vnd.apache.parquet"))
	if err != nil {
		return cr.n, fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return cr.n, nil
}

func (sds *S3DataStore) ReadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := s3_helper.ReadBytesFromS3(ctx, sds.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("error in ReadBytesFromS3: %w", err)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (sds *S3DataStore) Shutdown(ctx context.Context) error {
	logger.Debug().Msg("s3 datastore shut down")
	return nil
}
