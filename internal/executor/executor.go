// Package executor runs pools of retryable tasks
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/stats"
	"github.com/go-sif/sindex/internal/util"
	"github.com/go-sif/sindex/logging"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxAttempts is the number of times a task is attempted before the job fails
const DefaultMaxAttempts = 4

// Options configures a pool of tasks
type Options struct {
	TaskType    sindex.TaskType
	NumTasks    int
	Concurrency int // Concurrency is the maximum number of tasks running at once. Defaults to 1.
	MaxAttempts int // MaxAttempts defaults to DefaultMaxAttempts
	Logger      *slog.Logger
	Stats       *stats.RunStatistics
}

func ensureDefaultOptionsValues(opts *Options) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Stats == nil {
		opts.Stats = stats.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
}

// RunTasks runs op once for every task in [0, NumTasks), retrying failed attempts. Every
// attempt receives a fresh attempt ID. The first task to exhaust its attempts cancels the
// others, and its TaskFailedError is returned.
func RunTasks(ctx context.Context, opts Options, op util.TaskOperation) error {
	ensureDefaultOptionsValues(&opts)
	safeOp := util.SafeTaskOperation(opts.TaskType, op)
	opts.Stats.StartPhase(opts.TaskType)
	defer opts.Stats.EndPhase(opts.TaskType)
	start := time.Now()
	opts.Logger.Info(fmt.Sprintf("Starting %s phase...", opts.TaskType), "tasks", opts.NumTasks, "concurrency", opts.Concurrency)

	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.NumTasks; i++ {
		task := i
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			return runTask(gctx, opts, task, safeOp)
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		opts.Logger.Error(fmt.Sprintf("Failed %s phase", opts.TaskType), "error", err)
		return err
	}
	opts.Logger.Info(fmt.Sprintf("Finished %s phase", opts.TaskType), "elapsed", time.Since(start))
	return nil
}

func runTask(ctx context.Context, opts Options, task int, op util.TaskOperation) error {
	var merr *multierror.Error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		opts.Stats.StartAttempt(opts.TaskType)
		err = op(ctx, task, id.String())
		if err == nil {
			return nil
		}
		opts.Stats.FailAttempt(opts.TaskType)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		merr = multierror.Append(merr, fmt.Errorf("attempt %s: %w", id, err))
		opts.Logger.Warn("Task attempt failed", "task_type", opts.TaskType, "task", task, "attempt", attempt, "error", err)
	}
	opts.Logger.Error(fmt.Sprintf("%s task %d exhausted %d attempts:\n%s", opts.TaskType, task, opts.MaxAttempts, util.FormatMultiError(merr)))
	return errors.TaskFailedError{
		TaskType: string(opts.TaskType),
		Task:     task,
		Attempts: opts.MaxAttempts,
		Err:      merr,
	}
}
