// Package indexer builds spatial indices. A job scans its input, assigns every Shape to the
// partitions it overlaps, shuffles the resulting Records by partition and writes each
// partition to its own file, terminated by an End Record.
package indexer
