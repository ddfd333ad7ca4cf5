package text

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, it sindex.ShapeIterator) []sindex.Shape {
	var shapes []sindex.Shape
	for it.HasNextShape() {
		s, err := it.NextShape()
		require.Nil(t, err)
		shapes = append(shapes, s)
	}
	return shapes
}

func TestParsePoints(t *testing.T) {
	parser, err := CreateParser(&ParserConf{})
	require.Nil(t, err)
	require.Equal(t, sindex.PointType, parser.ShapeType())
	ended := false
	it, err := parser.Parse(strings.NewReader("1,2\n\n# a comment\n 3.5 , -4 \n"), func() { ended = true })
	require.Nil(t, err)
	shapes := collect(t, it)
	require.Equal(t, []sindex.Shape{sindex.Point{X: 1, Y: 2}, sindex.Point{X: 3.5, Y: -4}}, shapes)
	require.True(t, ended)
	_, err = it.NextShape()
	require.IsType(t, errors.NoMoreShapesError{}, err)
}

func TestParseRectanglesAndPolygons(t *testing.T) {
	parser, err := CreateParser(&ParserConf{ShapeType: sindex.RectangleType, Separator: '\t'})
	require.Nil(t, err)
	it, err := parser.Parse(strings.NewReader("3\t4\t1\t2\n"), nil)
	require.Nil(t, err)
	require.Equal(t, []sindex.Shape{sindex.Rectangle{X1: 1, Y1: 2, X2: 3, Y2: 4}}, collect(t, it))

	parser, err = CreateParser(&ParserConf{ShapeType: sindex.PolygonType})
	require.Nil(t, err)
	it, err = parser.Parse(strings.NewReader("3,0,0,4,0,2,5\n"), nil)
	require.Nil(t, err)
	shapes := collect(t, it)
	require.Len(t, shapes, 1)
	require.Equal(t, sindex.Rectangle{X1: 0, Y1: 0, X2: 4, Y2: 5}, shapes[0].MBR())
	require.Equal(t, 3, shapes[0].(*sindex.Polygon).NumPoints())
}

func TestParseInvalidLine(t *testing.T) {
	parser, err := CreateParser(&ParserConf{})
	require.Nil(t, err)
	ended := 0
	it, err := parser.Parse(strings.NewReader("1,2\n1,2,3\n5,6\n"), func() { ended++ })
	require.Nil(t, err)
	_, err = it.NextShape()
	require.Nil(t, err)
	require.True(t, it.HasNextShape())
	_, err = it.NextShape()
	var invalid errors.InvalidShapeError
	require.True(t, goerrors.As(err, &invalid))
	require.Equal(t, 2, invalid.Line)
	require.False(t, it.HasNextShape())
	require.Equal(t, 1, ended)
}

func TestParseRejectsNonFiniteCoordinates(t *testing.T) {
	parser, err := CreateParser(&ParserConf{})
	require.Nil(t, err)
	for _, line := range []string{"NaN,1", "1,Inf", "+Inf,2", "-inf,0"} {
		it, err := parser.Parse(strings.NewReader(line+"\n"), nil)
		require.Nil(t, err)
		_, err = it.NextShape()
		var invalid errors.InvalidShapeError
		require.True(t, goerrors.As(err, &invalid), line)
		require.Contains(t, invalid.Reason, "not finite")
	}
}

func TestCloseEndsIterator(t *testing.T) {
	parser, err := CreateParser(&ParserConf{})
	require.Nil(t, err)
	ended := 0
	it, err := parser.Parse(strings.NewReader("1,2\n3,4\n5,6\n"), func() { ended++ })
	require.Nil(t, err)
	_, err = it.NextShape()
	require.Nil(t, err)
	require.Nil(t, it.Close())
	require.Equal(t, 1, ended)
	require.False(t, it.HasNextShape())
	_, err = it.NextShape()
	require.IsType(t, errors.NoMoreShapesError{}, err)
	require.Nil(t, it.Close())
	require.Equal(t, 1, ended)
}

func TestParserConfValidation(t *testing.T) {
	_, err := CreateParser(&ParserConf{Separator: '#'})
	require.IsType(t, errors.InvalidOptionError{}, err)
	_, err = CreateParser(&ParserConf{ShapeType: "hexagon"})
	require.IsType(t, errors.UnknownShapeTypeError{}, err)
}

func TestEncodeShape(t *testing.T) {
	parser, err := CreateParser(&ParserConf{ShapeType: sindex.PolygonType})
	require.Nil(t, err)
	shapes := []sindex.Shape{
		sindex.Point{X: 1.5, Y: -2},
		sindex.Rectangle{X1: 0, Y1: 1, X2: 2, Y2: 3},
		sindex.NewPolygon([]sindex.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}),
	}
	expected := []string{"1.5,-2", "0,1,2,3", "3,0,0,1,0,1,1"}
	for i, s := range shapes {
		buf, err := parser.EncodeShape(nil, s)
		require.Nil(t, err)
		require.Equal(t, expected[i], string(buf))
	}
	// encoded polygons parse back to the same vertices
	parsed, err := parser.ParseShape(expected[2])
	require.Nil(t, err)
	require.Equal(t, shapes[2], parsed)
}
