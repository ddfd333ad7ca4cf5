package text

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/datasource/parser"
	"github.com/go-sif/sindex/errors"
)

// ParserConf configures a text Parser
type ParserConf struct {
	ShapeType     sindex.ShapeType // The type of Shape stored on each line. Defaults to sindex.PointType.
	Separator     rune             // The character separating coordinates. Defaults to ','.
	Comment       rune             // Lines beginning with the comment character are ignored. Cannot be equal to the Separator. Defaults to '#'.
	MaxBufferSize int              // Maximum size in bytes of the buffer used to read lines
}

// Parser produces Shapes from delimited text
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new text Parser
func CreateParser(conf *ParserConf) (*Parser, error) {
	if conf.ShapeType == "" {
		conf.ShapeType = sindex.PointType
	}
	if conf.Separator == 0 {
		conf.Separator = ','
	}
	if conf.Comment == 0 {
		conf.Comment = '#'
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	if conf.Comment == conf.Separator {
		return nil, errors.InvalidOptionError{Name: "comment", Reason: "cannot be equal to the separator"}
	}
	if _, err := sindex.ParseShapeType(string(conf.ShapeType)); err != nil {
		return nil, err
	}
	return &Parser{conf: conf}, nil
}

// ShapeType returns the type of Shape produced by this Parser
func (p *Parser) ShapeType() sindex.ShapeType {
	return p.conf.ShapeType
}

// Parse produces a lazy ShapeIterator over delimited text
func (p *Parser) Parse(r io.Reader, onIteratorEnd func()) (sindex.ShapeIterator, error) {
	return parser.CreateLineIterator(r, p.conf.MaxBufferSize, p.parseLine, onIteratorEnd), nil
}

func (p *Parser) parseLine(lineNum int, line string) (sindex.Shape, bool, error) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || strings.HasPrefix(trimmed, string(p.conf.Comment)) {
		return nil, false, nil
	}
	shape, err := p.ParseShape(trimmed)
	if err != nil {
		return nil, false, errors.InvalidShapeError{Line: lineNum, Text: line, Reason: err.Error()}
	}
	return shape, true, nil
}

// ParseShape parses a single line of text into a Shape of the configured type
func (p *Parser) ParseShape(line string) (sindex.Shape, error) {
	coords, err := p.parseFloats(line)
	if err != nil {
		return nil, err
	}
	switch p.conf.ShapeType {
	case sindex.PointType:
		if len(coords) != 2 {
			return nil, fmt.Errorf("a point needs 2 coordinates, found %d", len(coords))
		}
		return sindex.Point{X: coords[0], Y: coords[1]}, nil
	case sindex.RectangleType:
		if len(coords) != 4 {
			return nil, fmt.Errorf("a rectangle needs 4 coordinates, found %d", len(coords))
		}
		return sindex.NewRectangle(coords[0], coords[1], coords[2], coords[3]), nil
	case sindex.PolygonType:
		if len(coords) == 0 {
			return nil, fmt.Errorf("a polygon needs a point count")
		}
		n := int(coords[0])
		if float64(n) != coords[0] || n < 3 {
			return nil, fmt.Errorf("invalid polygon point count %g", coords[0])
		}
		if len(coords) != 1+2*n {
			return nil, fmt.Errorf("a polygon of %d points needs %d coordinates, found %d", n, 2*n, len(coords)-1)
		}
		points := make([]sindex.Point, n)
		for i := range points {
			points[i] = sindex.Point{X: coords[1+2*i], Y: coords[2+2*i]}
		}
		return sindex.NewPolygon(points), nil
	default:
		return nil, errors.UnknownShapeTypeError{Name: string(p.conf.ShapeType)}
	}
}

func (p *Parser) parseFloats(line string) ([]float64, error) {
	fields := strings.Split(line, string(p.conf.Separator))
	coords := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("coordinate %s is not finite", strings.TrimSpace(f))
		}
		coords[i] = v
	}
	return coords, nil
}

// EncodeShape appends the text encoding of a Shape to buf
func (p *Parser) EncodeShape(buf []byte, shape sindex.Shape) ([]byte, error) {
	sep := string(p.conf.Separator)
	switch s := shape.(type) {
	case sindex.Point:
		buf = strconv.AppendFloat(buf, s.X, 'g', -1, 64)
		buf = append(buf, sep...)
		buf = strconv.AppendFloat(buf, s.Y, 'g', -1, 64)
	case sindex.Rectangle:
		for i, v := range []float64{s.X1, s.Y1, s.X2, s.Y2} {
			if i > 0 {
				buf = append(buf, sep...)
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	case *sindex.Polygon:
		buf = strconv.AppendInt(buf, int64(s.NumPoints()), 10)
		for i := 0; i < s.NumPoints(); i++ {
			pt := s.Point(i)
			buf = append(buf, sep...)
			buf = strconv.AppendFloat(buf, pt.X, 'g', -1, 64)
			buf = append(buf, sep...)
			buf = strconv.AppendFloat(buf, pt.Y, 'g', -1, 64)
		}
	default:
		return buf, fmt.Errorf("cannot encode shape of type %T", shape)
	}
	return buf, nil
}
