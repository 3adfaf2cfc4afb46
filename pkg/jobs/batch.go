package jobs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result captures the outcome of one task in a batch.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Task is a single independent unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Batch runs tasks concurrently with at most limit in flight and waits for all of them.
// A failing task never cancels its siblings; its error is kept on its own Result.
// Results are returned in task order.
func Batch[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit <= 0 {
		limit = len(tasks)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = run(ctx, i, task)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func run[T any](ctx context.Context, index int, task Task[T]) (res Result[T]) {
	res.Index = index
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %d panicked: %v", index, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Value, res.Err = task(ctx)
	return res
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var failed []Result[T]
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
