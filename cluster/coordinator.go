package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/go-sif/sindex"
	"google.golang.org/grpc"
)

// CoordinatorNode is a Node which collects the capacity of Workers. It is itself a
// ResourcePool reporting the total capacity of every registered Worker.
type CoordinatorNode struct {
	opts          *NodeOptions
	logger        *slog.Logger
	server        *grpc.Server
	clusterServer *clusterServer
	lifecycleLock sync.Mutex
	addr          net.Addr
	ready         chan struct{}
}

// CreateCoordinator is a factory for Coordinators
func CreateCoordinator(opts *NodeOptions, logger *slog.Logger) (*CoordinatorNode, error) {
	// default certain options if not supplied
	if err := ensureDefaultNodeOptionsValues(opts); err != nil {
		return nil, err
	}
	return &CoordinatorNode{
		opts:          opts,
		logger:        logger,
		clusterServer: createClusterServer(logger),
		server:        grpc.NewServer(),
		ready:         make(chan struct{}),
	}, nil
}

// IsCoordinator returns true for coordinators
func (c *CoordinatorNode) IsCoordinator() bool {
	return true
}

// Start the Coordinator on its configured address - blocking unless run in a goroutine
func (c *CoordinatorNode) Start() error {
	lis, err := net.Listen("tcp", c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	return c.Serve(lis)
}

// Serve runs the Coordinator on an existing listener - blocking unless run in a goroutine
func (c *CoordinatorNode) Serve(lis net.Listener) error {
	c.lifecycleLock.Lock()
	registerClusterServiceServer(c.server, c.clusterServer)
	c.addr = lis.Addr()
	close(c.ready)
	c.lifecycleLock.Unlock()
	c.logger.Info("Starting coordinator", "address", lis.Addr().String())
	if err := c.server.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %v", err)
	}
	return nil
}

// Addr blocks until the Coordinator is serving, and returns its address
func (c *CoordinatorNode) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-c.ready:
		c.lifecycleLock.Lock()
		defer c.lifecycleLock.Unlock()
		return c.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WaitForWorkers blocks until at least numWorkers Workers have registered
func (c *CoordinatorNode) WaitForWorkers(ctx context.Context, numWorkers int) error {
	c.logger.Info(fmt.Sprintf("Waiting for %d workers to connect...", numWorkers))
	return c.clusterServer.waitForWorkers(ctx, numWorkers)
}

// Workers returns the currently registered Workers
func (c *CoordinatorNode) Workers() []WorkerDescriptor {
	return c.clusterServer.Workers()
}

// MapSlots returns the sum of the map slots of all registered Workers
func (c *CoordinatorNode) MapSlots() int {
	return c.clusterServer.resourcePool().Maps
}

// ReduceSlots returns the sum of the reduce slots of all registered Workers
func (c *CoordinatorNode) ReduceSlots() int {
	return c.clusterServer.resourcePool().Reduces
}

// GracefulStop the Coordinator, waiting for RPCs to finish
func (c *CoordinatorNode) GracefulStop() error {
	c.server.GracefulStop()
	return nil
}

// Stop the Coordinator immediately
func (c *CoordinatorNode) Stop() error {
	c.server.Stop()
	return nil
}

var _ sindex.ResourcePool = &CoordinatorNode{}
var _ Node = &CoordinatorNode{}
