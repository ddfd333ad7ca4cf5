package sindex

import "time"

// RuntimeStatistics facilitates the retrieval of statistics about a running job.
// Counters include the work of every task attempt, including superseded retries.
type RuntimeStatistics interface {
	// GetStartTime returns the start time of the job
	GetStartTime() time.Time
	// GetRuntime returns the running time of the job
	GetRuntime() time.Duration
	// GetNumShapesRead returns the number of Shapes consumed by map tasks
	GetNumShapesRead() int64
	// GetNumRecordsEmitted returns the number of Data Records successfully emitted by map tasks
	GetNumRecordsEmitted() int64
	// GetNumRecordsDropped returns the number of Data Records dropped because their emission failed
	GetNumRecordsDropped() int64
	// GetNumRecordsWritten returns the number of Data Records written by reduce tasks
	GetNumRecordsWritten() int64
	// GetNumPartitionsClosed returns the number of partitions terminated by an End Record
	GetNumPartitionsClosed() int64
	// GetNumTaskAttempts returns the number of task attempts started, counted by TaskType
	GetNumTaskAttempts(t TaskType) int64
	// GetNumTaskFailures returns the number of failed task attempts, counted by TaskType
	GetNumTaskFailures(t TaskType) int64
	// GetPhaseRuntime returns the running time of the map or reduce phase
	GetPhaseRuntime(t TaskType) time.Duration
}
