package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sif/sindex"
)

// RunStatistics contains statistics about a running job.
// Counters are updated concurrently by map and reduce tasks.
type RunStatistics struct {
	shapesRead       atomic.Int64
	recordsEmitted   atomic.Int64
	recordsDropped   atomic.Int64
	recordsWritten   atomic.Int64
	partitionsClosed atomic.Int64
	mapAttempts      atomic.Int64
	mapFailures      atomic.Int64
	reduceAttempts   atomic.Int64
	reduceFailures   atomic.Int64

	lock            sync.Mutex
	started         bool
	finished        bool
	startTime       time.Time
	totalRuntime    time.Duration
	phaseStartTimes map[sindex.TaskType]time.Time
	phaseRuntimes   map[sindex.TaskType]time.Duration
}

// New creates an empty RunStatistics
func New() *RunStatistics {
	return &RunStatistics{
		phaseStartTimes: make(map[sindex.TaskType]time.Time),
		phaseRuntimes:   make(map[sindex.TaskType]time.Duration),
	}
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.finished {
		rs.finished = true
		rs.totalRuntime = time.Since(rs.startTime)
	}
}

// StartPhase tracks the beginning of the map or reduce phase
func (rs *RunStatistics) StartPhase(t sindex.TaskType) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.phaseStartTimes[t] = time.Now()
}

// EndPhase tracks the end of the map or reduce phase
func (rs *RunStatistics) EndPhase(t sindex.TaskType) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if start, ok := rs.phaseStartTimes[t]; ok {
		rs.phaseRuntimes[t] = time.Since(start)
	}
}

// ReadShape counts a Shape consumed by a map task
func (rs *RunStatistics) ReadShape() { rs.shapesRead.Add(1) }

// EmitRecord counts a Data Record emitted by a map task
func (rs *RunStatistics) EmitRecord() { rs.recordsEmitted.Add(1) }

// DropRecord counts a Data Record which could not be emitted
func (rs *RunStatistics) DropRecord() { rs.recordsDropped.Add(1) }

// ClosePartition counts a partition terminated by an End Record, along with its Data Records
func (rs *RunStatistics) ClosePartition(numRecords int) {
	rs.recordsWritten.Add(int64(numRecords))
	rs.partitionsClosed.Add(1)
}

// StartAttempt counts a task attempt
func (rs *RunStatistics) StartAttempt(t sindex.TaskType) {
	if t == sindex.MapTaskType {
		rs.mapAttempts.Add(1)
	} else {
		rs.reduceAttempts.Add(1)
	}
}

// FailAttempt counts a failed task attempt
func (rs *RunStatistics) FailAttempt(t sindex.TaskType) {
	if t == sindex.MapTaskType {
		rs.mapFailures.Add(1)
	} else {
		rs.reduceFailures.Add(1)
	}
}

// GetStartTime returns the start time of the job
func (rs *RunStatistics) GetStartTime() time.Time {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.startTime
}

// GetRuntime returns the running time of the job
func (rs *RunStatistics) GetRuntime() time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if rs.finished {
		return rs.totalRuntime
	}
	if !rs.started {
		return 0
	}
	return time.Since(rs.startTime)
}

// GetNumShapesRead returns the number of Shapes consumed by map tasks
func (rs *RunStatistics) GetNumShapesRead() int64 { return rs.shapesRead.Load() }

// GetNumRecordsEmitted returns the number of Data Records emitted by map tasks
func (rs *RunStatistics) GetNumRecordsEmitted() int64 { return rs.recordsEmitted.Load() }

// GetNumRecordsDropped returns the number of Data Records dropped by map tasks
func (rs *RunStatistics) GetNumRecordsDropped() int64 { return rs.recordsDropped.Load() }

// GetNumRecordsWritten returns the number of Data Records written by reduce tasks
func (rs *RunStatistics) GetNumRecordsWritten() int64 { return rs.recordsWritten.Load() }

// GetNumPartitionsClosed returns the number of partitions terminated by an End Record
func (rs *RunStatistics) GetNumPartitionsClosed() int64 { return rs.partitionsClosed.Load() }

// GetNumTaskAttempts returns the number of task attempts started
func (rs *RunStatistics) GetNumTaskAttempts(t sindex.TaskType) int64 {
	if t == sindex.MapTaskType {
		return rs.mapAttempts.Load()
	}
	return rs.reduceAttempts.Load()
}

// GetNumTaskFailures returns the number of failed task attempts
func (rs *RunStatistics) GetNumTaskFailures(t sindex.TaskType) int64 {
	if t == sindex.MapTaskType {
		return rs.mapFailures.Load()
	}
	return rs.reduceFailures.Load()
}

// GetPhaseRuntime returns the running time of the map or reduce phase
func (rs *RunStatistics) GetPhaseRuntime(t sindex.TaskType) time.Duration {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.phaseRuntimes[t]
}
