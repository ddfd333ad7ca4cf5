package sindex

// ShapeIterator is a generalized interface for iterating over Shapes, regardless of where they come from
type ShapeIterator interface {
	HasNextShape() bool
	// NextShape returns the next Shape, or errors.NoMoreShapesError if the iterator is exhausted
	NextShape() (Shape, error)
	OnEnd(onEnd func())
	// Close releases the iterator's input. Iterators which are not drained must be closed.
	// Closing ends the iterator, and closing twice is harmless.
	Close() error
}
