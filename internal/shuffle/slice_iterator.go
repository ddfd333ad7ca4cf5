package shuffle

import (
	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
)

type sliceIterator struct {
	shapes       []sindex.Shape
	next         int
	endListeners []func()
}

func (si *sliceIterator) HasNextShape() bool {
	return si.next < len(si.shapes)
}

func (si *sliceIterator) NextShape() (sindex.Shape, error) {
	if si.next >= len(si.shapes) {
		return nil, errors.NoMoreShapesError{}
	}
	s := si.shapes[si.next]
	si.next++
	if si.next == len(si.shapes) {
		si.end()
	}
	return s, nil
}

func (si *sliceIterator) Close() error {
	si.next = len(si.shapes)
	si.end()
	return nil
}

func (si *sliceIterator) end() {
	for _, l := range si.endListeners {
		l()
	}
	si.endListeners = nil
}

func (si *sliceIterator) OnEnd(onEnd func()) {
	if si.next >= len(si.shapes) {
		onEnd()
		return
	}
	si.endListeners = append(si.endListeners, onEnd)
}
