package shuffle

import (
	"context"
	"fmt"
	"os"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/internal/codec"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// MapOutput is the output of a single map task attempt. It is not safe for concurrent use.
type MapOutput struct {
	shuffle    *Shuffle
	task       int
	attempt    string
	files      []afero.File
	encoders   []*codec.Encoder
	numRecords int64
	finished   bool
}

// CreateMapOutput begins a map task attempt. Attempts of the same task may run one after
// another; only the last one to Commit is visible to reducers.
func (s *Shuffle) CreateMapOutput(task int, attempt string) *MapOutput {
	return &MapOutput{
		shuffle:  s,
		task:     task,
		attempt:  attempt,
		files:    make([]afero.File, s.numBuckets),
		encoders: make([]*codec.Encoder, s.numBuckets),
	}
}

// NumRecords returns the number of Records written so far
func (mo *MapOutput) NumRecords() int64 {
	return mo.numRecords
}

// Write adds a Data Record to the bucket of its partition
func (mo *MapOutput) Write(ctx context.Context, rec sindex.Record) error {
	if mo.finished {
		return fmt.Errorf("map output %d (attempt %s) is already finished", mo.task, mo.attempt)
	}
	if rec.IsEnd() {
		return fmt.Errorf("map tasks cannot emit %s", rec)
	}
	if !rec.Partition.IsValid() {
		return fmt.Errorf("invalid partition id %d", rec.Partition)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	bucket := BucketOf(rec.Partition, mo.shuffle.numBuckets)
	if mo.encoders[bucket] == nil {
		f, err := mo.shuffle.fs.Create(mo.shuffle.tempSegmentPath(mo.task, bucket, mo.attempt))
		if err != nil {
			return err
		}
		mo.files[bucket] = f
		mo.encoders[bucket] = codec.NewEncoder(f)
	}
	if err := mo.encoders[bucket].Encode(rec); err != nil {
		return err
	}
	mo.numRecords++
	return nil
}

func (mo *MapOutput) close() error {
	var merr *multierror.Error
	for b, enc := range mo.encoders {
		if enc == nil {
			continue
		}
		if err := enc.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
		if err := mo.files[b].Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// Commit publishes this attempt's segments, replacing those of any earlier attempt of the same task
func (mo *MapOutput) Commit() error {
	if mo.finished {
		return fmt.Errorf("map output %d (attempt %s) is already finished", mo.task, mo.attempt)
	}
	mo.finished = true
	if err := mo.close(); err != nil {
		mo.removeTemp()
		return err
	}
	fs := mo.shuffle.fs
	for b, enc := range mo.encoders {
		final := mo.shuffle.segmentPath(mo.task, b)
		if enc == nil {
			if err := fs.Remove(final); err != nil && !os.IsNotExist(err) {
				return err
			}
			continue
		}
		if err := fs.Rename(mo.shuffle.tempSegmentPath(mo.task, b, mo.attempt), final); err != nil {
			return err
		}
	}
	return nil
}

// Abort discards this attempt's segments
func (mo *MapOutput) Abort() error {
	if mo.finished {
		return nil
	}
	mo.finished = true
	err := mo.close()
	if rerr := mo.removeTemp(); rerr != nil {
		err = multierror.Append(err, rerr)
	}
	return err
}

func (mo *MapOutput) removeTemp() error {
	var merr *multierror.Error
	for b, enc := range mo.encoders {
		if enc == nil {
			continue
		}
		if err := mo.shuffle.fs.Remove(mo.shuffle.tempSegmentPath(mo.task, b, mo.attempt)); err != nil && !os.IsNotExist(err) {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
