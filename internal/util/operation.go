package util

import (
	"context"
	"fmt"

	"github.com/go-sif/sindex"
)

// SafeOverlapPartitions asks a Partitioner for the partitions overlapped by a Shape, such that panics are recovered and nice error messages are constructed
func SafeOverlapPartitions(partitioner sindex.Partitioner, shape sindex.Shape) (result []sindex.PartitionID, err error) {
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = fmt.Errorf("Partitioner Panic: %w\nShape: %v\n%s", anErr, shape, GetTrace())
			} else {
				err = fmt.Errorf("Partitioner Panic: %v\nShape: %v\n%s", r, shape, GetTrace())
			}
		}
	}()
	result = partitioner.OverlapPartitions(shape)
	return
}

// TaskOperation is a single attempt of a map or reduce task
type TaskOperation func(ctx context.Context, task int, attempt string) error

// SafeTaskOperation wraps a TaskOperation such that panics are recovered and nice error messages are constructed
func SafeTaskOperation(taskType sindex.TaskType, taskOp TaskOperation) TaskOperation {
	return func(ctx context.Context, task int, attempt string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				if anErr, ok := r.(error); ok {
					err = fmt.Errorf("Task Panic: %w\nTask: %s %d (attempt %s)\n%s", anErr, taskType, task, attempt, GetTrace())
				} else {
					err = fmt.Errorf("Task Panic: %v\nTask: %s %d (attempt %s)\n%s", r, taskType, task, attempt, GetTrace())
				}
			}
		}()
		err = taskOp(ctx, task, attempt)
		return
	}
}
