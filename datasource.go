package sindex

import "io"

// A Chunk is a portion of a DataSource which is loaded as a unit by a single map task.
// Chunks are restartable: loading the same Chunk twice produces the same Shapes in the same order,
// which is what makes map task retries idempotent.
type Chunk interface {
	String() string                                // for logging
	Size() int64                                   // Size returns the approximate number of bytes in this Chunk
	Load(parser ShapeParser) (ShapeIterator, error) // Load produces a fresh ShapeIterator over this Chunk
}

// ChunkMap is an iterator over the Chunks of a DataSource.
// Returned by DataSource.Analyze(), Chunks are distributed round-robin to map tasks.
type ChunkMap interface {
	HasNext() bool
	Next() Chunk
}

// DataSource is a source of Shapes to be indexed. Analyze divides it into roughly numChunks Chunks;
// a DataSource may produce more or fewer Chunks than requested.
type DataSource interface {
	Analyze(numChunks int) (ChunkMap, error)
}

// A ShapeParser is capable of parsing raw data from a Chunk to produce Shapes
type ShapeParser interface {
	ShapeType() ShapeType                                           // ShapeType returns the type of Shape produced by this parser
	Parse(r io.Reader, onIteratorEnd func()) (ShapeIterator, error) // Parse produces a lazy ShapeIterator over r. onIteratorEnd, if not nil, fires when the iterator is exhausted.
}

// A ShapeEncoder serializes Shapes for output files
type ShapeEncoder interface {
	EncodeShape(buf []byte, shape Shape) ([]byte, error) // EncodeShape appends the encoding of a Shape to buf, without a trailing newline
}
