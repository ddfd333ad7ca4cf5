package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"
)

// WorkerNode is a Node which advertises its capacity to a Coordinator for as long as it runs
type WorkerNode struct {
	id       string
	opts     *NodeOptions
	logger   *slog.Logger
	stopped  chan struct{}
	stopOnce sync.Once
}

// CreateWorker is a factory for Workers
func CreateWorker(opts *NodeOptions, logger *slog.Logger) (*WorkerNode, error) {
	// default certain options if not supplied
	if err := ensureDefaultNodeOptionsValues(opts); err != nil {
		return nil, err
	}
	// generate worker ID
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %v", err)
	}
	return &WorkerNode{id: id.String(), opts: opts, logger: logger, stopped: make(chan struct{})}, nil
}

// ID returns the ID of this worker
func (w *WorkerNode) ID() string {
	return w.id
}

// IsCoordinator returns false for workers
func (w *WorkerNode) IsCoordinator() bool {
	return false
}

// Start registers with the Coordinator and blocks until the worker is stopped, at which point
// the worker deregisters itself
func (w *WorkerNode) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.WorkerJoinTimeout)
	defer cancel()
	conn, err := DialCoordinator(ctx, w.opts.coordinatorConnectionString())
	if err != nil {
		return err
	}
	defer conn.Close()
	desc := &WorkerDescriptor{ID: w.id, MapSlots: w.opts.MapSlots, ReduceSlots: w.opts.ReduceSlots}
	for retries := 0; ; retries++ {
		rctx, rcancel := context.WithTimeout(ctx, w.opts.RPCTimeout)
		err = registerWorker(rctx, conn, desc)
		rcancel()
		if err == nil {
			break
		} else if retries+1 >= w.opts.WorkerJoinRetries {
			return fmt.Errorf("unable to register with coordinator: %w", err)
		}
		w.logger.Warn("Unable to register with coordinator, retrying", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopped:
			return nil
		case <-time.After(w.opts.WorkerJoinInterval):
		}
	}
	w.logger.Info("Registered with coordinator", "worker", w.id, "coordinator", w.opts.coordinatorConnectionString())
	<-w.stopped
	dctx, dcancel := context.WithTimeout(context.Background(), w.opts.RPCTimeout)
	defer dcancel()
	return deregisterWorker(dctx, conn, w.id)
}

// GracefulStop the worker
func (w *WorkerNode) GracefulStop() error {
	return w.Stop()
}

// Stop the worker
func (w *WorkerNode) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopped)
	})
	return nil
}

var _ Node = &WorkerNode{}
