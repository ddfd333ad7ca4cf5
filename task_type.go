package sindex

// TaskType describes the type of a task, used internally to control behaviour
type TaskType string

const (
	// MapTaskType indicates a task assigning Shapes to partitions
	MapTaskType TaskType = "map"
	// ReduceTaskType indicates a task writing and closing partitions
	ReduceTaskType TaskType = "reduce"
)
