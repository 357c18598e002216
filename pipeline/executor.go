package pipeline

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/splitread/parsers"
	"github.com/danthegoodman1/splitread/table"
	"golang.org/x/sync/errgroup"
)

type (
	TaskFunc func(ctx context.Context, task *parsers.ChunkTask) (*table.ChunkResult, error)

	// Executor runs chunk tasks and returns their results indexed by task.Index. The first
	// failure aborts the whole run.
	Executor interface {
		Run(ctx context.Context, tasks []*parsers.ChunkTask, fn TaskFunc) ([]*table.ChunkResult, error)
	}

	// LocalExecutor runs tasks on goroutines, at most Workers at a time when Workers > 0
	LocalExecutor struct {
		Workers int
	}
)

func (e *LocalExecutor) Run(ctx context.Context, tasks []*parsers.ChunkTask, fn TaskFunc) ([]*table.ChunkResult, error) {
	results := make([]*table.ChunkResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			res, err := fn(gctx, task)
			if err != nil {
				return err
			}
			if task.Index < 0 || task.Index >= len(results) {
				return fmt.Errorf("task index %d out of range for %d tasks", task.Index, len(results))
			}
			results[task.Index] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
