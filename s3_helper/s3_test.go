package s3_helper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://data/exports/2023/a.csv")
	require.NoError(t, err)
	require.Equal(t, "data", bucket)
	require.Equal(t, "exports/2023/a.csv", key)

	for _, bad := range []string{"data/a.csv", "s3://data", "s3:///a.csv", "s3://data/"} {
		_, _, err := ParseURI(bad)
		require.ErrorIs(t, err, ErrInvalidURI, bad)
	}
}
