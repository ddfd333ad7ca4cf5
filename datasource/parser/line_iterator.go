package parser

import (
	"bufio"
	"io"
	"sync"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
)

// LineFunc parses a single line of input. ok is false for lines which hold no Shape, such as blank lines and comments.
type LineFunc func(lineNum int, line string) (shape sindex.Shape, ok bool, err error)

type lineIterator struct {
	scanner      *bufio.Scanner
	parse        LineFunc
	lineNum      int
	hasNext      bool
	next         sindex.Shape
	nextErr      error
	ended        bool
	lock         sync.Mutex
	endListeners []func()
}

// CreateLineIterator produces a ShapeIterator which parses r one line at a time.
// A parse error is returned once by NextShape, after which the iterator is exhausted.
func CreateLineIterator(r io.Reader, maxBufferSize int, parse LineFunc, onIteratorEnd func()) sindex.ShapeIterator {
	if maxBufferSize <= 0 {
		maxBufferSize = bufio.MaxScanTokenSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxBufferSize)
	iterator := &lineIterator{
		scanner:      scanner,
		parse:        parse,
		endListeners: []func(){},
	}
	if onIteratorEnd != nil {
		iterator.endListeners = append(iterator.endListeners, onIteratorEnd)
	}
	iterator.lock.Lock()
	defer iterator.lock.Unlock()
	iterator.advance()
	return iterator
}

// OnEnd registers a listener which fires when this iterator runs out of Shapes
func (li *lineIterator) OnEnd(onEnd func()) {
	li.lock.Lock()
	if li.ended {
		li.lock.Unlock()
		onEnd()
		return
	}
	defer li.lock.Unlock()
	li.endListeners = append(li.endListeners, onEnd)
}

// HasNextShape returns true iff this ShapeIterator can produce another Shape (or a parse error)
func (li *lineIterator) HasNextShape() bool {
	li.lock.Lock()
	defer li.lock.Unlock()
	return li.hasNext
}

// NextShape returns the next Shape if one is available, or an error
func (li *lineIterator) NextShape() (sindex.Shape, error) {
	li.lock.Lock()
	defer li.lock.Unlock()
	if !li.hasNext {
		return nil, errors.NoMoreShapesError{}
	}
	if li.nextErr != nil {
		err := li.nextErr
		li.hasNext = false
		li.next, li.nextErr = nil, nil
		li.end()
		return nil, err
	}
	shape := li.next
	li.advance()
	return shape, nil
}

// Close ends this iterator early, firing its end listeners if they have not fired yet
func (li *lineIterator) Close() error {
	li.lock.Lock()
	defer li.lock.Unlock()
	li.hasNext = false
	li.next, li.nextErr = nil, nil
	li.end()
	return nil
}

// advance reads ahead to the next Shape. The lock must be held.
func (li *lineIterator) advance() {
	li.next, li.nextErr = nil, nil
	for li.scanner.Scan() {
		li.lineNum++
		shape, ok, err := li.parse(li.lineNum, li.scanner.Text())
		if err != nil {
			li.hasNext, li.nextErr = true, err
			return
		}
		if ok {
			li.hasNext, li.next = true, shape
			return
		}
	}
	if err := li.scanner.Err(); err != nil {
		li.hasNext, li.nextErr = true, err
		return
	}
	li.hasNext = false
	li.end()
}

// end fires end listeners exactly once. The lock must be held.
func (li *lineIterator) end() {
	if li.ended {
		return
	}
	li.ended = true
	for _, l := range li.endListeners {
		l()
	}
	li.endListeners = []func(){}
}
