// Package grid provides a Partitioner which divides the bounding region of the input into a
// uniform grid of cells. Each cell is a partition; a Shape belongs to every cell its MBR touches.
package grid
