package jsonl

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
	"github.com/tidwall/gjson"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data.
//
// Points are objects {"x":..,"y":..}, Rectangles {"x1":..,"y1":..,"x2":..,"y2":..}
// and Polygons {"points":[[x,y],...]}.
type ParserConf struct {
	ShapeType     sindex.ShapeType // The type of Shape stored on each line. Defaults to sindex.PointType.
	Path          string           // A gjson path locating the geometry within each line. Defaults to the whole line.
	MaxBufferSize int              // Maximum size in bytes of the buffer used to read lines from the file
}

// Parser produces Shapes from JSONL data
type Parser struct {
	conf *ParserConf
}

// CreateParser returns a new JSONL Parser. Values within the JSON which do not describe the geometry are ignored.
func CreateParser(conf *ParserConf) (*Parser, error) {
	if conf.ShapeType == "" {
		conf.ShapeType = sindex.PointType
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
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

// Parse parses JSONL data to produce Shapes
func (p *Parser) Parse(r io.Reader, onIteratorEnd func()) (sindex.ShapeIterator, error) {
	return parser.CreateLineIterator(r, p.conf.MaxBufferSize, p.parseLine, onIteratorEnd), nil
}

func (p *Parser) parseLine(lineNum int, line string) (sindex.Shape, bool, error) {
	if len(strings.TrimSpace(line)) == 0 {
		return nil, false, nil
	}
	shape, err := p.ParseShape(line)
	if err != nil {
		return nil, false, errors.InvalidShapeError{Line: lineNum, Text: line, Reason: err.Error()}
	}
	return shape, true, nil
}

// ParseShape parses a single JSON document into a Shape of the configured type
func (p *Parser) ParseShape(line string) (sindex.Shape, error) {
	if !gjson.Valid(line) {
		return nil, fmt.Errorf("invalid json")
	}
	geom := gjson.Parse(line)
	if len(p.conf.Path) > 0 {
		geom = geom.Get(p.conf.Path)
		if !geom.Exists() {
			return nil, fmt.Errorf("path %s does not exist", p.conf.Path)
		}
	}
	switch p.conf.ShapeType {
	case sindex.PointType:
		coords, err := numbers(geom, "x", "y")
		if err != nil {
			return nil, err
		}
		return sindex.Point{X: coords[0], Y: coords[1]}, nil
	case sindex.RectangleType:
		coords, err := numbers(geom, "x1", "y1", "x2", "y2")
		if err != nil {
			return nil, err
		}
		return sindex.NewRectangle(coords[0], coords[1], coords[2], coords[3]), nil
	case sindex.PolygonType:
		raw := geom.Get("points")
		if !raw.IsArray() {
			return nil, fmt.Errorf("points must be an array")
		}
		var points []sindex.Point
		var perr error
		raw.ForEach(func(_, pt gjson.Result) bool {
			pair := pt.Array()
			if len(pair) != 2 || pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
				perr = fmt.Errorf("point %s must be an [x,y] pair", pt.Raw)
				return false
			}
			if !finite(pair[0].Float()) || !finite(pair[1].Float()) {
				perr = fmt.Errorf("point %s is not finite", pt.Raw)
				return false
			}
			points = append(points, sindex.Point{X: pair[0].Float(), Y: pair[1].Float()})
			return true
		})
		if perr != nil {
			return nil, perr
		}
		if len(points) < 3 {
			return nil, fmt.Errorf("a polygon needs at least 3 points, found %d", len(points))
		}
		return sindex.NewPolygon(points), nil
	default:
		return nil, errors.UnknownShapeTypeError{Name: string(p.conf.ShapeType)}
	}
}

func numbers(geom gjson.Result, fields ...string) ([]float64, error) {
	res := make([]float64, len(fields))
	for i, f := range fields {
		v := geom.Get(f)
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("field %s must be a number", f)
		}
		if !finite(v.Float()) {
			return nil, fmt.Errorf("field %s is not finite", f)
		}
		res[i] = v.Float()
	}
	return res, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// EncodeShape appends the JSON encoding of a Shape to buf
func (p *Parser) EncodeShape(buf []byte, shape sindex.Shape) ([]byte, error) {
	switch s := shape.(type) {
	case sindex.Point:
		buf = append(buf, `{"x":`...)
		buf = strconv.AppendFloat(buf, s.X, 'g', -1, 64)
		buf = append(buf, `,"y":`...)
		buf = strconv.AppendFloat(buf, s.Y, 'g', -1, 64)
	case sindex.Rectangle:
		for i, v := range []float64{s.X1, s.Y1, s.X2, s.Y2} {
			buf = append(buf, []string{`{"x1":`, `,"y1":`, `,"x2":`, `,"y2":`}[i]...)
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	case *sindex.Polygon:
		buf = append(buf, `{"points":[`...)
		for i := 0; i < s.NumPoints(); i++ {
			if i > 0 {
				buf = append(buf, ',')
			}
			pt := s.Point(i)
			buf = append(buf, '[')
			buf = strconv.AppendFloat(buf, pt.X, 'g', -1, 64)
			buf = append(buf, ',')
			buf = strconv.AppendFloat(buf, pt.Y, 'g', -1, 64)
			buf = append(buf, ']')
		}
		buf = append(buf, ']')
	default:
		return buf, fmt.Errorf("cannot encode shape of type %T", shape)
	}
	buf = append(buf, '}')
	return buf, nil
}
