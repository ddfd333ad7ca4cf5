// Package memory provides a DataSource backed by in-memory buffers, one Chunk per buffer
package memory
