package sindex

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-sif/sindex/errors"
)

// ShapeType is the tag identifying the kind of Shape stored in an input
type ShapeType string

const (
	// PointType tags inputs containing Points
	PointType ShapeType = "point"
	// RectangleType tags inputs containing Rectangles
	RectangleType ShapeType = "rectangle"
	// PolygonType tags inputs containing Polygons
	PolygonType ShapeType = "polygon"
)

// ParseShapeType converts a shape type tag into a ShapeType
func ParseShapeType(tag string) (ShapeType, error) {
	switch ShapeType(strings.ToLower(strings.TrimSpace(tag))) {
	case PointType:
		return PointType, nil
	case RectangleType, "rect":
		return RectangleType, nil
	case PolygonType, "poly":
		return PolygonType, nil
	case "":
		return "", errors.MissingOptionError{Name: "shape"}
	default:
		return "", errors.UnknownShapeTypeError{Name: tag}
	}
}

// A Shape is an immutable geometric entity with a bounding rectangle.
// Shapes are never modified by the pipeline, so a single Shape may be
// carried by several Records at once.
type Shape interface {
	Type() ShapeType // Type returns the tag of this Shape
	MBR() Rectangle  // MBR returns the minimum bounding rectangle of this Shape
}

// Point is a Shape with no extent
type Point struct {
	X, Y float64
}

// Type returns PointType
func (p Point) Type() ShapeType { return PointType }

// MBR returns a degenerate Rectangle located at this Point
func (p Point) MBR() Rectangle { return Rectangle{X1: p.X, Y1: p.Y, X2: p.X, Y2: p.Y} }

func (p Point) String() string { return fmt.Sprintf("Point(%g,%g)", p.X, p.Y) }

// Rectangle is an axis-aligned box, used both as a Shape and as a bounding region (MBR).
// (X1, Y1) is the lower corner and (X2, Y2) the upper corner.
type Rectangle struct {
	X1, Y1, X2, Y2 float64
}

// NewRectangle creates a Rectangle from two opposite corners, in any order
func NewRectangle(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X1: math.Min(x1, x2),
		Y1: math.Min(y1, y2),
		X2: math.Max(x1, x2),
		Y2: math.Max(y1, y2),
	}
}

// EmptyRectangle returns the identity element of Union. It intersects nothing.
func EmptyRectangle() Rectangle {
	return Rectangle{
		X1: math.Inf(1),
		Y1: math.Inf(1),
		X2: math.Inf(-1),
		Y2: math.Inf(-1),
	}
}

// Type returns RectangleType
func (r Rectangle) Type() ShapeType { return RectangleType }

// MBR returns the Rectangle itself
func (r Rectangle) MBR() Rectangle { return r }

// IsEmpty returns true iff this Rectangle contains no point
func (r Rectangle) IsEmpty() bool {
	return r.X1 > r.X2 || r.Y1 > r.Y2
}

// Width returns the extent of this Rectangle along the x axis
func (r Rectangle) Width() float64 { return r.X2 - r.X1 }

// Height returns the extent of this Rectangle along the y axis
func (r Rectangle) Height() float64 { return r.Y2 - r.Y1 }

// Intersects returns true iff the two Rectangles share at least one point.
// Edges are inclusive, so Rectangles which merely touch intersect.
func (r Rectangle) Intersects(o Rectangle) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return !(o.X1 > r.X2 || o.X2 < r.X1 || o.Y1 > r.Y2 || o.Y2 < r.Y1)
}

// Union returns the smallest Rectangle containing both Rectangles
func (r Rectangle) Union(o Rectangle) Rectangle {
	return Rectangle{
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
		X2: math.Max(r.X2, o.X2),
		Y2: math.Max(r.Y2, o.Y2),
	}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle(%g,%g,%g,%g)", r.X1, r.Y1, r.X2, r.Y2)
}

// Polygon is a closed ring of Points
type Polygon struct {
	points []Point
	mbr    Rectangle
}

// NewPolygon creates a Polygon from its vertices. The slice is copied.
func NewPolygon(points []Point) *Polygon {
	poly := &Polygon{
		points: make([]Point, len(points)),
		mbr:    EmptyRectangle(),
	}
	copy(poly.points, points)
	for _, p := range points {
		poly.mbr = poly.mbr.Union(p.MBR())
	}
	return poly
}

// Type returns PolygonType
func (p *Polygon) Type() ShapeType { return PolygonType }

// MBR returns the bounding Rectangle of all vertices
func (p *Polygon) MBR() Rectangle { return p.mbr }

// NumPoints returns the number of vertices of this Polygon
func (p *Polygon) NumPoints() int { return len(p.points) }

// Point returns the i-th vertex of this Polygon
func (p *Polygon) Point(i int) Point { return p.points[i] }

func (p *Polygon) String() string {
	var b strings.Builder
	b.WriteString("Polygon(")
	for i, pt := range p.points {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%g,%g", pt.X, pt.Y)
	}
	b.WriteString(")")
	return b.String()
}
