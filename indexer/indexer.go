package indexer

import (
	"context"
	"time"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/datasource"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/stats"
	"github.com/gofrs/uuid"
	"github.com/spf13/afero"
)

// Repartition validates and submits an indexing job. Configuration errors, and an existing
// output directory when Overwrite is not set, are returned before any input is read.
//
// The input MBR is resolved, and the job sized, before Repartition returns. If conf.Background is
// set, the returned RunningJob may still be running; otherwise it has reached a terminal state and
// any job failure is returned alongside it. Cancelling ctx cancels the job.
func Repartition(ctx context.Context, conf JobConfig, opts *Options) (*RunningJob, error) {
	start := time.Now()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	o := *opts
	ensureDefaultJobConfigValues(&conf)
	if err := ensureDefaultOptionsValues(&conf, &o); err != nil {
		return nil, err
	}
	indexType, err := sindex.ParseIndexType(conf.IndexType)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	logger := o.Logger.With("job", id.String())
	statsTracker := stats.New()
	statsTracker.Start()

	replaceOutput, err := checkOutput(o.Fs, &conf)
	if err != nil {
		return nil, err
	}

	// size the job and divide the input between map tasks
	sizeTasks(&conf, o.Pool)
	chunkMap, err := o.Source.Analyze(conf.MapTasks)
	if err != nil {
		return nil, err
	}
	chunks := datasource.CollectChunks(chunkMap)
	inputSize := datasource.TotalSize(chunks)
	logger.Info("Sized job", "map_tasks", conf.MapTasks, "reduce_tasks", conf.ReduceTasks, "chunks", len(chunks), "input_bytes", inputSize)

	// resolve the region covered by the input
	var mbr sindex.Rectangle
	if conf.InputMBR != nil {
		mbr = *conf.InputMBR
	} else {
		logger.Info("Computing input MBR...")
		mbr, err = datasource.ComputeMBR(ctx, chunks, o.Parser, conf.LocalMapParallelism)
		if err != nil {
			return nil, err
		}
		if mbr.IsEmpty() {
			logger.Warn("Input contains no shapes")
			mbr = sindex.Rectangle{}
		}
		conf.InputMBR = &mbr
	}
	logger.Info("Resolved input MBR", "mbr", mbr.String())

	partitioner, err := o.NewPartitioner(indexType, mbr, inputSize, conf.BlockSize)
	if err != nil {
		return nil, err
	}
	logger.Info("Created partitioner", "sindex", indexType.String(), "partitions", partitioner.PartitionCount())

	// an existing index is only replaced once its successor is ready to be built
	if replaceOutput {
		logger.Info("Removing existing output", "output", conf.OutputPath)
		if err := o.Fs.RemoveAll(conf.OutputPath); err != nil {
			return nil, err
		}
	}

	jobCtx, cancel := context.WithCancel(ctx)
	handle := &RunningJob{
		id:     id.String(),
		conf:   conf,
		stats:  statsTracker,
		cancel: cancel,
		done:   make(chan struct{}),
		status: JobRunning,
	}
	jb := &job{
		conf:        conf,
		fs:          o.Fs,
		logger:      logger,
		stats:       statsTracker,
		indexType:   indexType,
		partitioner: partitioner,
		parser:      o.Parser,
		encoder:     o.Encoder,
		chunks:      chunks,
	}
	go func() {
		defer cancel()
		logger.Info("Running job...")
		partitions, err := jb.run(jobCtx)
		statsTracker.Finish()
		if err != nil {
			logger.Error("Job failed", "error", err)
			handle.finish(nil, err, jobCtx.Err() != nil)
			return
		}
		elapsed := time.Since(start)
		logger.Info("Job succeeded", "partitions", len(partitions), "elapsed", elapsed)
		handle.finish(&Result{
			JobID:      handle.id,
			Elapsed:    elapsed,
			Partitions: partitions,
			Statistics: statsTracker,
		}, nil, false)
	}()
	if conf.Background {
		return handle, nil
	}
	<-handle.Done()
	_, err = handle.Wait(context.Background())
	return handle, err
}

// Index runs an indexing job to completion, ignoring conf.Background
func Index(ctx context.Context, conf JobConfig, opts *Options) (*Result, error) {
	conf.Background = false
	handle, err := Repartition(ctx, conf, opts)
	if err != nil {
		return nil, err
	}
	return handle.Wait(ctx)
}

// checkOutput fails if the output directory exists, unless the job may overwrite it.
// It reports whether an existing output must be removed.
func checkOutput(fs afero.Fs, conf *JobConfig) (bool, error) {
	exists, err := afero.Exists(fs, conf.OutputPath)
	if err != nil {
		return false, err
	}
	if exists && !conf.Overwrite {
		return false, errors.OutputExistsError{Path: conf.OutputPath}
	}
	return exists, nil
}
