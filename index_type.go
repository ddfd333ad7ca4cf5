package sindex

import (
	"strings"

	"github.com/go-sif/sindex/errors"
)

// IndexType enumerates the spatial index strategies a job may request
type IndexType int

const (
	// GridIndex partitions space into a uniform grid of cells
	GridIndex IndexType = iota + 1
	// RTreeIndex is reserved for R-tree partitioning
	RTreeIndex
	// RPlusTreeIndex is reserved for R+-tree partitioning
	RPlusTreeIndex
	// STRIndex is reserved for Sort-Tile-Recursive partitioning
	STRIndex
	// STRPlusIndex is reserved for STR+ partitioning
	STRPlusIndex
)

var indexTypeNames = map[IndexType]string{
	GridIndex:      "grid",
	RTreeIndex:     "rtree",
	RPlusTreeIndex: "r+tree",
	STRIndex:       "str",
	STRPlusIndex:   "str+",
}

// ParseIndexType converts an index type name (grid, rtree, r+tree, str, str+) into an IndexType
func ParseIndexType(name string) (IndexType, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if len(trimmed) == 0 {
		return 0, errors.IndexTypeNotSetError{}
	}
	for t, n := range indexTypeNames {
		if n == trimmed {
			return t, nil
		}
	}
	return 0, errors.UnknownIndexTypeError{Name: name}
}

// String returns the configuration name of this IndexType
func (t IndexType) String() string {
	if n, ok := indexTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// IsImplemented returns true iff jobs can currently be built with this IndexType
func (t IndexType) IsImplemented() bool {
	return t == GridIndex
}
