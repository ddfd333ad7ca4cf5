package file

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/go-sif/sindex"
	"github.com/spf13/afero"
)

// Chunk is a byte range [start, end) of a single file
type Chunk struct {
	fs    afero.Fs
	path  string
	start int64
	end   int64
}

// String returns a string representation of this Chunk
func (c *Chunk) String() string {
	return fmt.Sprintf("File chunk %s [%d,%d)", c.path, c.start, c.end)
}

// Size returns the number of bytes in this Chunk
func (c *Chunk) Size() int64 {
	return c.end - c.start
}

// Load opens the file and parses the lines beginning within this Chunk
func (c *Chunk) Load(parser sindex.ShapeParser) (sindex.ShapeIterator, error) {
	f, err := c.fs.Open(c.path)
	if err != nil {
		return nil, err
	}
	r, err := newLineRangeReader(f, c.start, c.end)
	if err != nil {
		f.Close()
		return nil, err
	}
	var closeOnce sync.Once
	closeFile := func() {
		closeOnce.Do(func() { f.Close() })
	}
	it, err := parser.Parse(r, closeFile)
	if err != nil {
		closeFile()
		return nil, err
	}
	return it, nil
}

// lineRangeReader yields the complete lines of a file which begin in [start, end).
// The partial line at start belongs to the previous range and is skipped.
type lineRangeReader struct {
	r       *bufio.Reader
	pos     int64
	end     int64
	pending []byte
	err     error
}

func newLineRangeReader(f io.ReadSeeker, start int64, end int64) (*lineRangeReader, error) {
	lr := &lineRangeReader{end: end}
	if start == 0 {
		lr.r = bufio.NewReader(f)
		return lr, nil
	}
	// a line beginning exactly at start is preceded by a newline at start-1
	if _, err := f.Seek(start-1, io.SeekStart); err != nil {
		return nil, err
	}
	lr.r = bufio.NewReader(f)
	skipped, err := lr.r.ReadBytes('\n')
	lr.pos = start - 1 + int64(len(skipped))
	if err != nil {
		lr.err = err
	}
	return lr, nil
}

func (lr *lineRangeReader) Read(p []byte) (int, error) {
	for len(lr.pending) == 0 {
		if lr.err != nil {
			return 0, lr.err
		}
		if lr.pos >= lr.end {
			lr.err = io.EOF
			return 0, lr.err
		}
		line, err := lr.r.ReadBytes('\n')
		lr.pos += int64(len(line))
		lr.pending = line
		if err != nil {
			lr.err = err
		}
	}
	n := copy(p, lr.pending)
	lr.pending = lr.pending[n:]
	return n, nil
}
