package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/gate"
	"github.com/danthegoodman1/splitread/gologger"
	"github.com/danthegoodman1/splitread/metrics"
	"github.com/danthegoodman1/splitread/options"
	"github.com/danthegoodman1/splitread/parsers"
	"github.com/danthegoodman1/splitread/partitioner"
	"github.com/danthegoodman1/splitread/source"
	"github.com/danthegoodman1/splitread/table"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/rs/zerolog"
)

type (
	Config struct {
		// MaxPartitions is the default partition count, overridden per read by
		// ReadOptions.MaxPartitions
		MaxPartitions int
		// Workers caps concurrent chunk tasks, 0 is unlimited
		Workers int
		// MinColumnBlock is the smallest column split
		MinColumnBlock int
	}

	// Result holds exactly one of Table, Series or Iterator
	Result struct {
		Table    *table.Table
		Series   *table.Series
		Iterator *TableIterator
		// Route is the path the read took, and Reason why it fell back
		Route  gate.Route
		Reason gate.Reason
	}

	// RemoteOpener opens an object storage URI for the sequential reader
	RemoteOpener func(ctx context.Context, uri string) (io.ReadCloser, error)

	Reader struct {
		cfg      Config
		executor Executor
		metrics  *metrics.Metrics
		remote   RemoteOpener
	}
)

var (
	logger = gologger.NewLogger()

	ErrRemoteUnavailable = errors.New("no remote opener configured")
)

// NewReader creates a reader. A nil executor runs tasks locally with cfg.Workers.
func NewReader(cfg Config, executor Executor, m *metrics.Metrics) *Reader {
	if cfg.MaxPartitions < 1 {
		cfg.MaxPartitions = 1
	}
	if executor == nil {
		executor = &LocalExecutor{Workers: cfg.Workers}
	}
	return &Reader{cfg: cfg, executor: executor, metrics: m}
}

// WithRemote sets how s3:// inputs are opened
func (r *Reader) WithRemote(opener RemoteOpener) *Reader {
	r.remote = opener
	return r
}

// Read reads the input into a table. Inputs and options the partitioned pipeline cannot
// honour are read sequentially with the same options and identical results.
func (r *Reader) Read(ctx context.Context, in source.Input, opts *options.ReadOptions) (*Result, error) {
	if opts == nil {
		opts = &options.ReadOptions{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	parser, err := parsers.ForFormat(opts.FormatOrDefault())
	if err != nil {
		return nil, err
	}
	if zerolog.Ctx(ctx).GetLevel() == zerolog.Disabled {
		l := gologger.ReadLogger(logger, utils.GenRandomShortID())
		ctx = l.WithContext(ctx)
	}

	started := time.Now()
	decision, err := gate.Decide(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("error in gate.Decide: %w", err)
	}
	var res *Result
	if decision.Route == gate.RouteSequential {
		r.metrics.ObserveFallback(string(decision.Reason))
		res, err = r.readSequential(ctx, in, parser, opts)
	} else {
		res, err = r.readPartitioned(ctx, decision.Descriptor, parser, opts)
	}
	if err != nil {
		return nil, err
	}
	res.Route, res.Reason = decision.Route, decision.Reason
	r.metrics.ObserveRead(string(decision.Route), started)
	return res, nil
}

func (r *Reader) maxPartitions(opts *options.ReadOptions) int {
	if opts.MaxPartitions > 0 {
		return opts.MaxPartitions
	}
	return r.cfg.MaxPartitions
}

// headerScanner is the scanner matching the probe. Records have no header line.
func headerScanner(opts *options.ReadOptions) *partitioner.HeaderScanner {
	if opts.FormatOrDefault() == options.FormatNDJSON {
		return &partitioner.HeaderScanner{Header: options.HeaderNone, SkipRows: opts.SkipRows}
	}
	return &partitioner.HeaderScanner{Header: opts.Header, Names: opts.Names, SkipRows: opts.SkipRows}
}

func commentByte(opts *options.ReadOptions) byte {
	if opts.Comment > 0 && opts.Comment < 0x80 {
		return byte(opts.Comment)
	}
	return 0
}

func (r *Reader) readPartitioned(ctx context.Context, fd *source.FileDescriptor, parser parsers.Parser, opts *options.ReadOptions) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	probe, err := probeDescriptor(ctx, fd, parser, opts)
	if err != nil {
		return nil, err
	}

	raw, err := fd.Open()
	if err != nil {
		return nil, fmt.Errorf("error in Open: %w", err)
	}
	scan, err := headerScanner(opts).Scan(partitioner.NewRecordReader(raw, parser.Quote(), commentByte(opts)))
	raw.Close()
	if err != nil {
		return nil, fmt.Errorf("error in HeaderScanner.Scan: %w", err)
	}

	p := &partitioner.Partitioner{
		MaxPartitions:  r.maxPartitions(opts),
		MinColumnBlock: r.cfg.MinColumnBlock,
		Quote:          parser.Quote(),
		Comment:        commentByte(opts),
	}
	plan, err := p.Plan(ctx, fd, scan.Bytes, len(probe.Columns))
	if err != nil {
		return nil, fmt.Errorf("error in Partitioner.Plan: %w", err)
	}

	tasks := make([]*parsers.ChunkTask, len(plan.Ranges))
	for i, rng := range plan.Ranges {
		tasks[i] = &parsers.ChunkTask{
			Index:        i,
			Descriptor:   fd,
			Range:        rng,
			Probe:        probe,
			Options:      opts,
			ColumnWidths: plan.ColumnWidths,
		}
	}
	logger.Debug().Str("path", fd.Path).Int("tasks", len(tasks)).Int64("dataStart", scan.Bytes).Msg("dispatching chunk tasks")

	results, err := r.executor.Run(ctx, tasks, func(ctx context.Context, task *parsers.ChunkTask) (*table.ChunkResult, error) {
		l := gologger.ChunkLogger(*zerolog.Ctx(ctx), task.Index, task.Range.Start, task.Range.End)
		res, err := parsers.ParseChunk(l.WithContext(ctx), parser, task)
		if err != nil {
			return nil, err
		}
		l.Debug().Int("rows", res.RowCount).Int64("bytes", res.Bytes).Msg("parsed chunk")
		r.metrics.ObserveChunk(res.Bytes)
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error running chunk tasks: %w", err)
	}

	t, err := join(results, probe, plan.ColumnWidths, opts.SkipFooter, 0)
	if err != nil {
		return nil, err
	}
	return finish(t, opts), nil
}

func probeDescriptor(ctx context.Context, fd *source.FileDescriptor, parser parsers.Parser, opts *options.ReadOptions) (*parsers.SchemaProbe, error) {
	rc, err := fd.Open()
	if err != nil {
		return nil, fmt.Errorf("error in Open: %w", err)
	}
	defer rc.Close()
	decoded, err := source.DecodeReader(rc, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("error in DecodeReader: %w", err)
	}
	probe, err := parser.ProbeSchema(ctx, decoded, opts)
	if err != nil {
		return nil, fmt.Errorf("error in ProbeSchema: %w", err)
	}
	return probe, nil
}

// join trims the footer, reconciles dtypes, rebuilds the index and assembles the grid.
// results must be in chunk order.
func join(results []*table.ChunkResult, probe *parsers.SchemaProbe, widths []int, skipFooter int, indexStart int) (*table.Table, error) {
	results = table.TrimFooter(results, skipFooter, probe.Inference)

	var perChunk [][]dtype.Dtype
	for _, res := range results {
		if res.RowCount > 0 {
			perChunk = append(perChunk, res.Dtypes)
		}
	}
	dtypes := probe.Dtypes
	if len(perChunk) > 0 {
		var err error
		dtypes, err = dtype.Reconcile(perChunk)
		if err != nil {
			return nil, fmt.Errorf("error in dtype.Reconcile: %w", err)
		}
	}

	index, err := table.BuildIndex(results, probe.IndexName, indexStart, probe.Inference.NA)
	if err != nil {
		return nil, fmt.Errorf("error in BuildIndex: %w", err)
	}
	if probe.HasIndex() && index.Len() == 0 {
		// no rows at all, keep the index named and typed like the probe
		index = table.Index{Name: probe.IndexName, Dtype: dtype.ObjectType, Values: []any{}}
	}

	t, err := table.Assemble(results, probe.Columns, widths, dtypes, index, probe.Inference.NA)
	if err != nil {
		return nil, fmt.Errorf("error in Assemble: %w", err)
	}
	return t, nil
}

func finish(t *table.Table, opts *options.ReadOptions) *Result {
	if opts.Squeeze {
		if s, ok := t.Squeeze(); ok {
			return &Result{Series: s}
		}
	}
	return &Result{Table: t}
}
