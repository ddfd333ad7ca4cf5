package memory

import (
	"bytes"
	"fmt"

	"github.com/go-sif/sindex"
)

// DataSource is a set of buffers containing Shapes
type DataSource struct {
	data [][]byte
}

// Create is a factory for DataSources
func Create(data [][]byte) *DataSource {
	return &DataSource{data: data}
}

// Analyze returns a ChunkMap with one Chunk per buffer, regardless of numChunks
func (ds *DataSource) Analyze(numChunks int) (sindex.ChunkMap, error) {
	return &ChunkMap{source: ds}, nil
}

// Chunk is a single buffer of a DataSource
type Chunk struct {
	idx    int
	source *DataSource
}

// String returns a string representation of this Chunk
func (c *Chunk) String() string {
	return fmt.Sprintf("Memory chunk index: %d", c.idx)
}

// Size returns the length of the buffer
func (c *Chunk) Size() int64 {
	return int64(len(c.source.data[c.idx]))
}

// Load parses the buffer
func (c *Chunk) Load(parser sindex.ShapeParser) (sindex.ShapeIterator, error) {
	r := bytes.NewReader(c.source.data[c.idx])
	return parser.Parse(r, nil)
}

// ChunkMap is an iterator producing a sequence of Chunks
type ChunkMap struct {
	idx    int
	source *DataSource
}

// HasNext returns true iff there is another Chunk remaining
func (cm *ChunkMap) HasNext() bool {
	return cm.idx < len(cm.source.data)
}

// Next returns the next Chunk
func (cm *ChunkMap) Next() sindex.Chunk {
	result := &Chunk{idx: cm.idx, source: cm.source}
	cm.idx++
	return result
}
