package repartition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/stats"
)

// Closer writes the grouped Shapes of a partition and terminates it
type Closer struct {
	logger *slog.Logger
	stats  *stats.RunStatistics
}

// NewCloser creates a Closer
func NewCloser(logger *slog.Logger, stats *stats.RunStatistics) *Closer {
	return &Closer{logger: logger, stats: stats}
}

// Close writes Data(p, s) for every Shape s, then exactly one End(p), and returns the number
// of Data Records written. A partition without Shapes produces no Records at all.
// Any write error is returned, leaving the partition unterminated.
func (c *Closer) Close(ctx context.Context, p sindex.PartitionID, shapes sindex.ShapeIterator, out sindex.RecordWriter) (int, error) {
	n := 0
	for shapes.HasNextShape() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		shape, err := shapes.NextShape()
		if _, ok := err.(errors.NoMoreShapesError); ok {
			break
		} else if err != nil {
			return n, err
		}
		if err := out.Write(ctx, sindex.Data(p, shape)); err != nil {
			return n, fmt.Errorf("unable to write record for partition %d: %w", p, err)
		}
		n++
	}
	if n == 0 {
		c.logger.Debug("Skipping empty partition", "partition", p)
		return 0, nil
	}
	if err := out.Write(ctx, sindex.End(p)); err != nil {
		return n, fmt.Errorf("unable to close partition %d: %w", p, err)
	}
	c.stats.ClosePartition(n)
	c.logger.Debug("Closed partition", "partition", p, "records", n)
	return n, nil
}
