// Package datasource contains helpers shared by the DataSources
package datasource

import (
	"context"
	"sync"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// CollectChunks drains a ChunkMap
func CollectChunks(cm sindex.ChunkMap) []sindex.Chunk {
	var chunks []sindex.Chunk
	for cm.HasNext() {
		chunks = append(chunks, cm.Next())
	}
	return chunks
}

// TotalSize returns the sum of the sizes of a set of Chunks
func TotalSize(chunks []sindex.Chunk) int64 {
	var total int64
	for _, c := range chunks {
		total += c.Size()
	}
	return total
}

// ComputeMBR scans every Chunk once and returns the Rectangle bounding all of their Shapes.
// At most parallelism Chunks are loaded at a time. The result is empty if there are no Shapes.
func ComputeMBR(ctx context.Context, chunks []sindex.Chunk, parser sindex.ShapeParser, parallelism int) (sindex.Rectangle, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	var lock sync.Mutex
	mbr := sindex.EmptyRectangle()
	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		chunk := chunks[i]
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			local, err := chunkMBR(gctx, chunk, parser)
			if err != nil {
				return err
			}
			lock.Lock()
			mbr = mbr.Union(local)
			lock.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sindex.EmptyRectangle(), err
	}
	if err := ctx.Err(); err != nil {
		return sindex.EmptyRectangle(), err
	}
	return mbr, nil
}

func chunkMBR(ctx context.Context, chunk sindex.Chunk, parser sindex.ShapeParser) (sindex.Rectangle, error) {
	mbr := sindex.EmptyRectangle()
	it, err := chunk.Load(parser)
	if err != nil {
		return mbr, err
	}
	defer it.Close()
	for it.HasNextShape() {
		if err := ctx.Err(); err != nil {
			return mbr, err
		}
		shape, err := it.NextShape()
		if _, ok := err.(errors.NoMoreShapesError); ok {
			break
		} else if err != nil {
			return mbr, err
		}
		mbr = mbr.Union(shape.MBR())
	}
	return mbr, nil
}
