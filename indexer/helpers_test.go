package indexer

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/spf13/afero"
)

type funcChunk struct {
	load func() (sindex.ShapeIterator, error)
}

func (c *funcChunk) String() string { return "test chunk" }

func (c *funcChunk) Size() int64 { return 1 }

func (c *funcChunk) Load(parser sindex.ShapeParser) (sindex.ShapeIterator, error) {
	return c.load()
}

type funcSource struct {
	chunks []sindex.Chunk
}

func (s *funcSource) Analyze(numChunks int) (sindex.ChunkMap, error) {
	return &chunkMap{chunks: s.chunks}, nil
}

type chunkMap struct {
	chunks []sindex.Chunk
}

func (cm *chunkMap) HasNext() bool { return len(cm.chunks) > 0 }

func (cm *chunkMap) Next() sindex.Chunk {
	c := cm.chunks[0]
	cm.chunks = cm.chunks[1:]
	return c
}

// sliceIterator produces a fixed set of Shapes. If failAfter is positive, it fails once
// that many Shapes have been produced.
type sliceIterator struct {
	shapes    []sindex.Shape
	produced  int
	failAfter int
}

func (si *sliceIterator) HasNextShape() bool { return len(si.shapes) > 0 }

func (si *sliceIterator) NextShape() (sindex.Shape, error) {
	if si.failAfter > 0 && si.produced >= si.failAfter {
		return nil, fmt.Errorf("injected failure")
	}
	if len(si.shapes) == 0 {
		return nil, errors.NoMoreShapesError{}
	}
	s := si.shapes[0]
	si.shapes = si.shapes[1:]
	si.produced++
	return s, nil
}

func (si *sliceIterator) OnEnd(func()) {}

func (si *sliceIterator) Close() error { return nil }

type endlessIterator struct {
	shape sindex.Shape
}

func (ei *endlessIterator) HasNextShape() bool { return true }

func (ei *endlessIterator) NextShape() (sindex.Shape, error) { return ei.shape, nil }

func (ei *endlessIterator) OnEnd(func()) {}

func (ei *endlessIterator) Close() error { return nil }

// openCountingFs counts the files below prefix which are open at any moment
type openCountingFs struct {
	afero.Fs
	prefix string
	open   int64
}

func (fs *openCountingFs) Open(name string) (afero.File, error) {
	f, err := fs.Fs.Open(name)
	if err != nil || !strings.HasPrefix(name, fs.prefix) {
		return f, err
	}
	atomic.AddInt64(&fs.open, 1)
	return &countedFile{File: f, fs: fs}, nil
}

func (fs *openCountingFs) NumOpen() int64 {
	return atomic.LoadInt64(&fs.open)
}

type countedFile struct {
	afero.File
	fs     *openCountingFs
	closed int32
}

func (f *countedFile) Close() error {
	if atomic.CompareAndSwapInt32(&f.closed, 0, 1) {
		atomic.AddInt64(&f.fs.open, -1)
	}
	return f.File.Close()
}

type panickingPartitioner struct{}

func (panickingPartitioner) OverlapPartitions(sindex.Shape) []sindex.PartitionID {
	panic("cannot partition")
}

func (panickingPartitioner) PartitionCount() int { return 1 }
