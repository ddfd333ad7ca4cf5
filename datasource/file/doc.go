// Package file provides a DataSource which reads line-oriented data from files.
// Files are divided into byte-range Chunks. A line belongs to the Chunk in which
// it begins, so every line is read exactly once no matter where Chunk boundaries fall.
package file
