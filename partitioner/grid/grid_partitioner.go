package grid

import (
	"fmt"
	"math"

	"github.com/go-sif/sindex"
)

// Partitioner divides a Rectangle into columns x rows equally-sized cells.
// Cells are numbered row by row, starting from the lower-left corner.
type Partitioner struct {
	mbr        sindex.Rectangle
	columns    int
	rows       int
	cellWidth  float64
	cellHeight float64
}

// New creates a grid Partitioner over mbr with the given dimensions
func New(mbr sindex.Rectangle, columns, rows int) (*Partitioner, error) {
	if mbr.IsEmpty() {
		return nil, fmt.Errorf("Cannot build a grid over an empty region")
	}
	if columns < 1 || rows < 1 {
		return nil, fmt.Errorf("Grid dimensions must be positive, got %dx%d", columns, rows)
	}
	return &Partitioner{
		mbr:        mbr,
		columns:    columns,
		rows:       rows,
		cellWidth:  mbr.Width() / float64(columns),
		cellHeight: mbr.Height() / float64(rows),
	}, nil
}

// NewIndexingPartitioner creates a grid Partitioner with roughly one cell per block of input,
// so that every partition fits in about one block. Cells are kept as square as possible.
func NewIndexingPartitioner(mbr sindex.Rectangle, inputSize int64, blockSize int64) (*Partitioner, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("Block size must be positive, got %d", blockSize)
	}
	numCells := int((inputSize + blockSize - 1) / blockSize)
	if numCells < 1 {
		numCells = 1
	}
	columns, rows := cellDimensions(mbr, numCells)
	return New(mbr, columns, rows)
}

// cellDimensions grows the grid one column or row at a time, always splitting the longer side of the current cells
func cellDimensions(mbr sindex.Rectangle, numCells int) (columns int, rows int) {
	columns, rows = 1, 1
	for columns*rows < numCells {
		if mbr.Width()/float64(columns) > mbr.Height()/float64(rows) {
			columns++
		} else {
			rows++
		}
	}
	return columns, rows
}

// Columns returns the number of cells along the x axis
func (p *Partitioner) Columns() int { return p.columns }

// Rows returns the number of cells along the y axis
func (p *Partitioner) Rows() int { return p.rows }

// PartitionCount returns the number of cells in this grid
func (p *Partitioner) PartitionCount() int {
	return p.columns * p.rows
}

// OverlapPartitions returns every cell the MBR of a Shape touches. Cell edges are inclusive, so a
// Shape lying exactly on the edge between two cells belongs to both. Shapes outside the grid are
// assigned to the nearest edge cells so that no Shape is lost when the grid region was supplied
// by the user rather than computed from the input.
func (p *Partitioner) OverlapPartitions(shape sindex.Shape) []sindex.PartitionID {
	mbr := shape.MBR()
	if mbr.IsEmpty() {
		return nil
	}
	col1, col2 := cellRange(mbr.X1-p.mbr.X1, mbr.X2-p.mbr.X1, p.cellWidth, p.columns)
	row1, row2 := cellRange(mbr.Y1-p.mbr.Y1, mbr.Y2-p.mbr.Y1, p.cellHeight, p.rows)
	result := make([]sindex.PartitionID, 0, (col2-col1+1)*(row2-row1+1))
	for row := row1; row <= row2; row++ {
		for col := col1; col <= col2; col++ {
			result = append(result, sindex.PartitionID(row*p.columns+col))
		}
	}
	return result
}

// cellRange returns the first and last cell touched by the interval [lo, hi], measured from the grid origin
func cellRange(lo, hi, cellSize float64, numCells int) (int, int) {
	if cellSize == 0 {
		return 0, 0
	}
	first := math.Ceil(lo/cellSize) - 1
	last := math.Floor(hi / cellSize)
	return clamp(first, numCells), clamp(last, numCells)
}

// clamp converts a cell coordinate to a cell index, after bounding it in float64 so that
// huge or infinite coordinates cannot overflow the conversion
func clamp(cell float64, numCells int) int {
	if math.IsNaN(cell) {
		return 0
	}
	return int(math.Max(0, math.Min(float64(numCells-1), cell)))
}

// PartitionMBR returns the region covered by a cell
func (p *Partitioner) PartitionMBR(id sindex.PartitionID) (sindex.Rectangle, error) {
	if !id.IsValid() || int(id) >= p.PartitionCount() {
		return sindex.Rectangle{}, fmt.Errorf("Partition %d does not exist in a grid of %d cells", id, p.PartitionCount())
	}
	col := int(id) % p.columns
	row := int(id) / p.columns
	return sindex.Rectangle{
		X1: p.mbr.X1 + float64(col)*p.cellWidth,
		Y1: p.mbr.Y1 + float64(row)*p.cellHeight,
		X2: p.mbr.X1 + float64(col+1)*p.cellWidth,
		Y2: p.mbr.Y1 + float64(row+1)*p.cellHeight,
	}, nil
}
