package sindex

// A ResourcePool advertises the task capacity of the cluster running a job.
// It is queried once, when a job is sized.
type ResourcePool interface {
	MapSlots() int    // MapSlots returns the number of map tasks the cluster can run at once
	ReduceSlots() int // ReduceSlots returns the number of reduce tasks the cluster can run at once
}
