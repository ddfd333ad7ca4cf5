package file

import "github.com/go-sif/sindex"

// ChunkMap is an iterator producing a sequence of Chunks
type ChunkMap struct {
	chunks []*Chunk
}

// HasNext returns true iff there is another Chunk remaining
func (cm *ChunkMap) HasNext() bool {
	return len(cm.chunks) > 0
}

// Next returns the next Chunk
func (cm *ChunkMap) Next() sindex.Chunk {
	result := cm.chunks[0]
	cm.chunks = cm.chunks[1:]
	return result
}
