package repartition

import (
	"context"
	"log/slog"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/stats"
	"github.com/go-sif/sindex/internal/util"
)

// ProgressInterval is the number of Shapes read between progress reports
const ProgressInterval = 0x10000

// Assigner routes Shapes to the partitions they overlap
type Assigner struct {
	partitioner sindex.Partitioner
	logger      *slog.Logger
	stats       *stats.RunStatistics
	onProgress  func(shapesRead int64)
}

// NewAssigner creates an Assigner. The partitioner is shared, and is never modified.
func NewAssigner(partitioner sindex.Partitioner, logger *slog.Logger, stats *stats.RunStatistics) *Assigner {
	return &Assigner{
		partitioner: partitioner,
		logger:      logger,
		stats:       stats,
	}
}

// OnProgress registers a function which is called every ProgressInterval Shapes
func (a *Assigner) OnProgress(fn func(shapesRead int64)) {
	a.onProgress = fn
}

// Assign emits Data(p, shape) for every Shape from it and every partition p it overlaps, and
// returns the number of Shapes read. A Record which cannot be written is dropped and counted;
// reading or partitioning errors fail the whole call.
func (a *Assigner) Assign(ctx context.Context, it sindex.ShapeIterator, out sindex.RecordWriter) (int64, error) {
	var numShapes int64
	for it.HasNextShape() {
		if err := ctx.Err(); err != nil {
			return numShapes, err
		}
		shape, err := it.NextShape()
		if _, ok := err.(errors.NoMoreShapesError); ok {
			break
		} else if err != nil {
			return numShapes, err
		}
		numShapes++
		a.stats.ReadShape()
		if numShapes%ProgressInterval == 0 {
			a.logger.Debug("Assigning shapes", "shapes", numShapes)
			if a.onProgress != nil {
				a.onProgress(numShapes)
			}
		}
		partitions, err := util.SafeOverlapPartitions(a.partitioner, shape)
		if err != nil {
			return numShapes, err
		}
		for _, p := range partitions {
			if err := out.Write(ctx, sindex.Data(p, shape)); err != nil {
				if ctx.Err() != nil {
					return numShapes, ctx.Err()
				}
				a.stats.DropRecord()
				a.logger.Warn("Dropping record", "partition", p, "shape", shape, "error", err)
				continue
			}
			a.stats.EmitRecord()
		}
	}
	return numShapes, nil
}
