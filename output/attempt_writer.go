package output

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-sif/sindex"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

type openPartition struct {
	file       afero.File
	buf        *bufio.Writer
	tmpPath    string
	numRecords int64
	numBytes   int64
	mbr        sindex.Rectangle
}

// AttemptWriter writes the partitions of one reduce task attempt. It is not safe for concurrent use.
type AttemptWriter struct {
	writer  *IndexWriter
	attempt string
	open    map[sindex.PartitionID]*openPartition
	closed  map[sindex.PartitionID]bool
	line    []byte
}

// Write appends a Data Record to its partition file, opening the file if necessary, or
// commits the partition file on an End Record. An End Record for a partition which
// received no Data is ignored, so empty partitions produce no file.
func (a *AttemptWriter) Write(ctx context.Context, rec sindex.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.closed[rec.Partition] {
		return fmt.Errorf("partition %d is already closed", rec.Partition)
	}
	if rec.IsEnd() {
		return a.end(rec.Partition)
	}
	op, ok := a.open[rec.Partition]
	if !ok {
		var err error
		op, err = a.create(rec.Partition)
		if err != nil {
			return err
		}
	}
	line, err := a.writer.encoder.EncodeShape(a.line[:0], rec.Shape)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	a.line = line
	n, err := op.buf.Write(line)
	op.numBytes += int64(n)
	if err != nil {
		return err
	}
	op.numRecords++
	op.mbr = op.mbr.Union(rec.Shape.MBR())
	return nil
}

func (a *AttemptWriter) create(p sindex.PartitionID) (*openPartition, error) {
	tmpPath := filepath.Join(a.writer.dir, TemporaryDir, fmt.Sprintf("%s.%s", PartitionFileName(p), a.attempt))
	f, err := a.writer.fs.Create(tmpPath)
	if err != nil {
		return nil, err
	}
	op := &openPartition{
		file:    f,
		buf:     bufio.NewWriter(f),
		tmpPath: tmpPath,
		mbr:     sindex.EmptyRectangle(),
	}
	a.open[p] = op
	return op, nil
}

func (a *AttemptWriter) end(p sindex.PartitionID) error {
	a.closed[p] = true
	op, ok := a.open[p]
	if !ok {
		a.writer.logger.Debug("Ignoring end of empty partition", "partition", p)
		return nil
	}
	delete(a.open, p)
	if err := op.buf.Flush(); err != nil {
		op.file.Close()
		a.writer.fs.Remove(op.tmpPath)
		return err
	}
	if err := op.file.Close(); err != nil {
		a.writer.fs.Remove(op.tmpPath)
		return err
	}
	return a.writer.commitPartition(p, op.tmpPath, PartitionInfo{
		Partition:  p,
		NumRecords: op.numRecords,
		NumBytes:   op.numBytes,
		MBR:        op.mbr,
	})
}

// NumOpen returns the number of partitions which have received Data but no End
func (a *AttemptWriter) NumOpen() int {
	return len(a.open)
}

// Abort closes and removes the uncommitted files of an attempt
func (a *AttemptWriter) Abort() error {
	var merr *multierror.Error
	for p, op := range a.open {
		if err := op.file.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
		if err := a.writer.fs.Remove(op.tmpPath); err != nil {
			merr = multierror.Append(merr, err)
		}
		delete(a.open, p)
	}
	return merr.ErrorOrNil()
}
