// Package shuffle groups the Records emitted by map tasks by PartitionID.
//
// Each map attempt writes one lz4 segment per bucket under a temporary name. Committing
// the attempt renames its segments into place, so reducers only ever see the output of
// committed attempts. A PartitionID always hashes to the same bucket, and every bucket is
// read by exactly one reduce task.
package shuffle

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/internal/codec"
	"github.com/spf13/afero"
)

// Shuffle is a directory of committed map output segments
type Shuffle struct {
	fs         afero.Fs
	dir        string
	numBuckets int
}

// New creates a Shuffle rooted at dir, with one bucket per reduce task
func New(fs afero.Fs, dir string, numBuckets int) (*Shuffle, error) {
	if numBuckets < 1 {
		return nil, fmt.Errorf("shuffle needs at least one bucket, got %d", numBuckets)
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Shuffle{fs: fs, dir: dir, numBuckets: numBuckets}, nil
}

// NumBuckets returns the number of buckets in this Shuffle
func (s *Shuffle) NumBuckets() int {
	return s.numBuckets
}

// BucketOf returns the bucket to which a PartitionID is assigned
func BucketOf(p sindex.PartitionID, numBuckets int) int {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(p))
	return int(xxhash.Sum64(buf[:]) % uint64(numBuckets))
}

func (s *Shuffle) segmentPath(task int, bucket int) string {
	return filepath.Join(s.dir, fmt.Sprintf("map-%05d.bucket-%05d.lz4", task, bucket))
}

func (s *Shuffle) tempSegmentPath(task int, bucket int, attempt string) string {
	return filepath.Join(s.dir, fmt.Sprintf("map-%05d.bucket-%05d.%s.tmp", task, bucket, attempt))
}

// Group is the set of Shapes assigned to one partition, in map task order
type Group struct {
	Partition sindex.PartitionID
	Shapes    []sindex.Shape
}

// Iterator returns a ShapeIterator over the Shapes of this Group
func (g *Group) Iterator() sindex.ShapeIterator {
	return &sliceIterator{shapes: g.Shapes}
}

// Group reads every committed segment of a bucket and groups its Records by PartitionID.
// Groups are sorted by PartitionID, and never empty.
func (s *Shuffle) Group(ctx context.Context, bucket int) ([]*Group, error) {
	matches, err := afero.Glob(s.fs, filepath.Join(s.dir, fmt.Sprintf("map-*.bucket-%05d.lz4", bucket)))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	groups := make(map[sindex.PartitionID]*Group)
	var dec *codec.Decoder
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := s.fs.Open(path)
		if err != nil {
			return nil, err
		}
		if dec == nil {
			dec = codec.NewDecoder(f)
		} else {
			dec.Reset(f)
		}
		err = readSegment(dec, bucket, s.numBuckets, groups)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("unable to read shuffle segment %s: %w", path, err)
		}
	}
	res := make([]*Group, 0, len(groups))
	for _, g := range groups {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Partition < res[j].Partition })
	return res, nil
}

func readSegment(dec *codec.Decoder, bucket int, numBuckets int, groups map[sindex.PartitionID]*Group) error {
	for {
		rec, err := dec.Decode()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if rec.IsEnd() {
			return fmt.Errorf("unexpected %s in map output", rec)
		}
		if b := BucketOf(rec.Partition, numBuckets); b != bucket {
			return fmt.Errorf("partition %d belongs to bucket %d, not %d", rec.Partition, b, bucket)
		}
		g, ok := groups[rec.Partition]
		if !ok {
			g = &Group{Partition: rec.Partition}
			groups[rec.Partition] = g
		}
		g.Shapes = append(g.Shapes, rec.Shape)
	}
}

// Destroy removes every segment, committed or not
func (s *Shuffle) Destroy() error {
	return s.fs.RemoveAll(s.dir)
}
