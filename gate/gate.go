package gate

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/source"
	"github.com/rs/zerolog"
)

type (
	Route  string
	Reason string

	Decision struct {
		Route  Route
		Reason Reason
		// Descriptor is only set for the partitioned route
		Descriptor *source.FileDescriptor
	}
)

const (
	RoutePartitioned Route = "partitioned"
	RouteSequential  Route = "sequential"

	ReasonNone        Reason = ""
	ReasonReader      Reason = "reader"
	ReasonRemote      Reason = "remote"
	ReasonNotFile     Reason = "not_regular_file"
	ReasonCompression Reason = "compression"
	ReasonChunkSize   Reason = "chunksize"
	ReasonSkipRows    Reason = "skiprows"
	ReasonNRows       Reason = "nrows"
	ReasonEncoding    Reason = "encoding"
)

func sequential(reason Reason) *Decision {
	return &Decision{Route: RouteSequential, Reason: reason}
}

// Decide routes a read to the partitioned pipeline when every input and option allows it.
// Routing to the sequential reader is not an error.
func Decide(ctx context.Context, in source.Input, opts *options.ReadOptions) (*Decision, error) {
	d, err := decide(in, opts)
	if err != nil {
		return nil, err
	}
	if d.Route == RouteSequential {
		zerolog.Ctx(ctx).Debug().Str("input", in.String()).Str("reason", string(d.Reason)).Msg("routing read to sequential reader")
	}
	return d, nil
}

func decide(in source.Input, opts *options.ReadOptions) (*Decision, error) {
	switch {
	case in.Reader != nil:
		return sequential(ReasonReader), nil
	case in.IsRemote():
		return sequential(ReasonRemote), nil
	case !in.IsLocalFile():
		return sequential(ReasonNotFile), nil
	}
	if !source.InferCompression(in.Path, opts.Compression).Partitionable() {
		return sequential(ReasonCompression), nil
	}
	if opts.ChunkSize > 0 {
		return sequential(ReasonChunkSize), nil
	}
	if _, ok := options.SkipRowCount(opts.SkipRows); !ok {
		return sequential(ReasonSkipRows), nil
	}
	if opts.NRows != nil {
		return sequential(ReasonNRows), nil
	}
	if !source.NewlineIsSingleByte(opts.Encoding) {
		return sequential(ReasonEncoding), nil
	}

	fd, err := source.Describe(in.Path, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("error in source.Describe: %w", err)
	}
	return &Decision{Route: RoutePartitioned, Descriptor: fd}, nil
}
