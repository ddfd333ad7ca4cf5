// Package codec serializes Records for the shuffle. Each Record is framed as a
// varint key (a PartitionID, or a SentinelID for End Records) followed, for Data
// Records, by a shape type byte and the little-endian float64 coordinates of the
// Shape. Streams are compressed with lz4.
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-sif/sindex"
	"github.com/pierrec/lz4"
)

const (
	pointTag     byte = 1
	rectangleTag byte = 2
	polygonTag   byte = 3
)

// Encoder compresses a stream of Records
type Encoder struct {
	compressor *lz4.Writer
	buf        []byte
}

// NewEncoder instantiates a new Encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{compressor: lz4.NewWriter(w), buf: make([]byte, 0, 128)}
}

// Reset discards any buffered data and switches the Encoder to w
func (e *Encoder) Reset(w io.Writer) {
	e.compressor.Reset(w)
}

// Encode appends a Record to the stream
func (e *Encoder) Encode(rec sindex.Record) error {
	buf, err := AppendRecord(e.buf[:0], rec)
	if err != nil {
		return err
	}
	e.buf = buf
	_, err = e.compressor.Write(buf)
	return err
}

// Close flushes the stream. The underlying writer is not closed.
func (e *Encoder) Close() error {
	return e.compressor.Close()
}

// AppendRecord appends the uncompressed encoding of a Record to buf
func AppendRecord(buf []byte, rec sindex.Record) ([]byte, error) {
	buf = binary.AppendVarint(buf, int64(rec.Key()))
	if rec.IsEnd() {
		return buf, nil
	}
	switch s := rec.Shape.(type) {
	case sindex.Point:
		buf = append(buf, pointTag)
		buf = appendFloats(buf, s.X, s.Y)
	case sindex.Rectangle:
		buf = append(buf, rectangleTag)
		buf = appendFloats(buf, s.X1, s.Y1, s.X2, s.Y2)
	case *sindex.Polygon:
		buf = append(buf, polygonTag)
		buf = binary.AppendUvarint(buf, uint64(s.NumPoints()))
		for i := 0; i < s.NumPoints(); i++ {
			pt := s.Point(i)
			buf = appendFloats(buf, pt.X, pt.Y)
		}
	default:
		return buf, fmt.Errorf("cannot encode shape of type %T", rec.Shape)
	}
	return buf, nil
}

func appendFloats(buf []byte, vals ...float64) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

// Decoder decompresses a stream of Records
type Decoder struct {
	decompressor *lz4.Reader
	r            *bufio.Reader
	scratch      [8]byte
}

// NewDecoder instantiates a new Decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	decompressor := lz4.NewReader(r)
	return &Decoder{decompressor: decompressor, r: bufio.NewReader(decompressor)}
}

// Reset switches the Decoder to r
func (d *Decoder) Reset(r io.Reader) {
	d.decompressor.Reset(r)
	d.r.Reset(d.decompressor)
}

// Decode reads the next Record. It returns io.EOF when the stream ends cleanly
// and io.ErrUnexpectedEOF when it ends partway through a Record.
func (d *Decoder) Decode() (sindex.Record, error) {
	key, err := binary.ReadVarint(d.r)
	if err == io.EOF {
		return sindex.Record{}, io.EOF
	} else if err != nil {
		return sindex.Record{}, unexpected(err)
	}
	if key < math.MinInt32 || key > math.MaxInt32 {
		return sindex.Record{}, fmt.Errorf("record key %d out of range", key)
	}
	if key < 0 {
		return sindex.RecordFromKey(int32(key), nil)
	}
	tag, err := d.r.ReadByte()
	if err != nil {
		return sindex.Record{}, unexpected(err)
	}
	var shape sindex.Shape
	switch tag {
	case pointTag:
		v, err := d.readFloats(2)
		if err != nil {
			return sindex.Record{}, err
		}
		shape = sindex.Point{X: v[0], Y: v[1]}
	case rectangleTag:
		v, err := d.readFloats(4)
		if err != nil {
			return sindex.Record{}, err
		}
		shape = sindex.Rectangle{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	case polygonTag:
		n, err := binary.ReadUvarint(d.r)
		if err != nil {
			return sindex.Record{}, unexpected(err)
		}
		if n > math.MaxInt32 {
			return sindex.Record{}, fmt.Errorf("polygon of %d points is too large", n)
		}
		v, err := d.readFloats(int(2 * n))
		if err != nil {
			return sindex.Record{}, err
		}
		points := make([]sindex.Point, n)
		for i := range points {
			points[i] = sindex.Point{X: v[2*i], Y: v[2*i+1]}
		}
		shape = sindex.NewPolygon(points)
	default:
		return sindex.Record{}, fmt.Errorf("unknown shape tag %d", tag)
	}
	return sindex.RecordFromKey(int32(key), shape)
}

func (d *Decoder) readFloats(n int) ([]float64, error) {
	res := make([]float64, n)
	for i := range res {
		if _, err := io.ReadFull(d.r, d.scratch[:]); err != nil {
			return nil, unexpected(err)
		}
		res[i] = math.Float64frombits(binary.LittleEndian.Uint64(d.scratch[:]))
	}
	return res, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
