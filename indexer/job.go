package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/internal/executor"
	"github.com/go-sif/sindex/internal/repartition"
	"github.com/go-sif/sindex/internal/shuffle"
	"github.com/go-sif/sindex/internal/stats"
	"github.com/go-sif/sindex/output"
	"github.com/spf13/afero"
)

// JobStatus describes the lifecycle stage of a job
type JobStatus string

const (
	// JobRunning indicates that a job has not finished
	JobRunning JobStatus = "running"
	// JobSucceeded indicates that every partition was written and the index committed
	JobSucceeded JobStatus = "succeeded"
	// JobFailed indicates that a task exhausted its attempts, or the index could not be committed
	JobFailed JobStatus = "failed"
	// JobCancelled indicates that the job was cancelled before it finished
	JobCancelled JobStatus = "cancelled"
)

// Result describes a successful job
type Result struct {
	JobID      string
	Elapsed    time.Duration
	Partitions []output.PartitionInfo // Partitions lists every non-empty partition
	Statistics sindex.RuntimeStatistics
}

// ElapsedMillis returns the running time of the job in milliseconds
func (r *Result) ElapsedMillis() int64 {
	return r.Elapsed.Milliseconds()
}

// RunningJob is a handle on a submitted job
type RunningJob struct {
	id     string
	conf   JobConfig
	stats  *stats.RunStatistics
	cancel context.CancelFunc
	done   chan struct{}
	lock   sync.Mutex
	status JobStatus
	result *Result
	err    error
}

// ID returns the unique ID of this job
func (j *RunningJob) ID() string {
	return j.id
}

// Config returns the configuration of this job, including the computed task counts
func (j *RunningJob) Config() JobConfig {
	return j.conf
}

// Done returns a channel which is closed when the job reaches a terminal state
func (j *RunningJob) Done() <-chan struct{} {
	return j.done
}

// IsComplete returns true iff the job has reached a terminal state
func (j *RunningJob) IsComplete() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Status returns the current lifecycle stage of the job
func (j *RunningJob) Status() JobStatus {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.status
}

// Cancel stops the job. Partitions which were already committed remain complete, and no
// partial partition files are left behind.
func (j *RunningJob) Cancel() {
	j.cancel()
}

// Statistics returns live statistics for the job
func (j *RunningJob) Statistics() sindex.RuntimeStatistics {
	return j.stats
}

// Wait blocks until the job reaches a terminal state or ctx is done. Cancelling ctx does not cancel the job.
func (j *RunningJob) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		j.lock.Lock()
		defer j.lock.Unlock()
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *RunningJob) finish(result *Result, err error, cancelled bool) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.result, j.err = result, err
	switch {
	case err == nil:
		j.status = JobSucceeded
	case cancelled:
		j.status = JobCancelled
	default:
		j.status = JobFailed
	}
	close(j.done)
}

// job holds everything a running job shares between its tasks. Nothing here is modified once
// the job starts, apart from the thread-safe statistics.
type job struct {
	conf        JobConfig
	fs          afero.Fs
	logger      *slog.Logger
	stats       *stats.RunStatistics
	indexType   sindex.IndexType
	partitioner sindex.Partitioner
	parser      sindex.ShapeParser
	encoder     sindex.ShapeEncoder
	chunks      []sindex.Chunk
	shuffle     *shuffle.Shuffle
	writer      *output.IndexWriter
}

// chunksFor returns the Chunks assigned round-robin to a map task
func (jb *job) chunksFor(task int) []sindex.Chunk {
	var res []sindex.Chunk
	for i := task; i < len(jb.chunks); i += jb.conf.MapTasks {
		res = append(res, jb.chunks[i])
	}
	return res
}

func (jb *job) run(ctx context.Context) ([]output.PartitionInfo, error) {
	var err error
	jb.shuffle, err = shuffle.New(jb.fs, jb.conf.TempDir, jb.conf.ReduceTasks)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := jb.shuffle.Destroy(); err != nil {
			jb.logger.Warn("Unable to remove shuffle files", "error", err)
		}
	}()
	jb.writer, err = output.Create(jb.fs, jb.conf.OutputPath, jb.encoder, jb.logger)
	if err != nil {
		return nil, err
	}
	if err := jb.runPhases(ctx); err != nil {
		if aerr := jb.writer.Abort(); aerr != nil {
			jb.logger.Warn("Unable to remove temporary output files", "error", aerr)
		}
		return nil, err
	}
	if err := jb.writer.Commit(jb.indexType.String(), jb.partitioner); err != nil {
		return nil, err
	}
	return jb.writer.Partitions(), nil
}

func (jb *job) runPhases(ctx context.Context) error {
	err := executor.RunTasks(ctx, executor.Options{
		TaskType:    sindex.MapTaskType,
		NumTasks:    jb.conf.MapTasks,
		Concurrency: jb.conf.LocalMapParallelism,
		MaxAttempts: jb.conf.MaxAttempts,
		Logger:      jb.logger,
		Stats:       jb.stats,
	}, jb.mapTask)
	if err != nil {
		return err
	}
	return executor.RunTasks(ctx, executor.Options{
		TaskType:    sindex.ReduceTaskType,
		NumTasks:    jb.conf.ReduceTasks,
		Concurrency: jb.conf.LocalMapParallelism,
		MaxAttempts: jb.conf.MaxAttempts,
		Logger:      jb.logger,
		Stats:       jb.stats,
	}, jb.reduceTask)
}

// mapTask assigns the Shapes of this task's Chunks to partitions. The attempt's shuffle output
// only becomes visible if every Chunk is processed.
func (jb *job) mapTask(ctx context.Context, task int, attempt string) (err error) {
	out := jb.shuffle.CreateMapOutput(task, attempt)
	defer func() {
		if err != nil {
			if aerr := out.Abort(); aerr != nil {
				jb.logger.Warn("Unable to abort map output", "task", task, "attempt", attempt, "error", aerr)
			}
		}
	}()
	assigner := repartition.NewAssigner(jb.partitioner, jb.logger, jb.stats)
	assigner.OnProgress(func(shapesRead int64) {
		jb.logger.Info(fmt.Sprintf("Map task %d read %d shapes", task, shapesRead))
	})
	for _, chunk := range jb.chunksFor(task) {
		if err := jb.assignChunk(ctx, assigner, chunk, out); err != nil {
			return err
		}
	}
	jb.logger.Debug("Committing map output", "task", task, "attempt", attempt, "records", out.NumRecords())
	return out.Commit()
}

func (jb *job) assignChunk(ctx context.Context, assigner *repartition.Assigner, chunk sindex.Chunk, out sindex.RecordWriter) error {
	it, err := chunk.Load(jb.parser)
	if err != nil {
		return fmt.Errorf("unable to load %s: %w", chunk, err)
	}
	defer it.Close()
	if _, err := assigner.Assign(ctx, it, out); err != nil {
		return fmt.Errorf("unable to process %s: %w", chunk, err)
	}
	return nil
}

// reduceTask writes and closes every partition of one shuffle bucket
func (jb *job) reduceTask(ctx context.Context, bucket int, attempt string) (err error) {
	groups, err := jb.shuffle.Group(ctx, bucket)
	if err != nil {
		return err
	}
	out := jb.writer.Attempt(attempt)
	defer func() {
		if err != nil {
			if aerr := out.Abort(); aerr != nil {
				jb.logger.Warn("Unable to abort reduce output", "task", bucket, "attempt", attempt, "error", aerr)
			}
		}
	}()
	closer := repartition.NewCloser(jb.logger, jb.stats)
	for _, g := range groups {
		if _, err := closer.Close(ctx, g.Partition, g.Iterator(), out); err != nil {
			return err
		}
	}
	return nil
}
