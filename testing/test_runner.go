// Package testing runs indexing jobs against a localhost test cluster
package testing

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-sif/sindex/cluster"
	"github.com/go-sif/sindex/indexer"
	"github.com/go-sif/sindex/logging"
	"github.com/hashicorp/go-multierror"
)

// LocalRunJob runs an indexing job sized by a localhost test cluster, in which each of numWorkers
// Workers advertises slots. The cluster is shut down before LocalRunJob returns.
func LocalRunJob(ctx context.Context, conf indexer.JobConfig, opts *indexer.Options, numWorkers int, slots cluster.StaticResourcePool) (result *indexer.Result, err error) {
	if opts == nil {
		opts = &indexer.Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	// configure and start coordinator
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	port := lis.Addr().(*net.TCPAddr).Port
	nodeOpts := &cluster.NodeOptions{
		Host:               "127.0.0.1",
		Port:               port,
		CoordinatorHost:    "127.0.0.1",
		CoordinatorPort:    port,
		WorkerJoinTimeout:  time.Duration(5) * time.Second,
		WorkerJoinInterval: time.Duration(20) * time.Millisecond,
		RPCTimeout:         time.Duration(5) * time.Second,
		MapSlots:           slots.Maps,
		ReduceSlots:        slots.Reduces,
	}
	coordinator, err := cluster.CreateCoordinator(nodeOpts, logger)
	if err != nil {
		lis.Close()
		return nil, err
	}
	coordinatorErrors := make(chan error, 1)
	go func() {
		coordinatorErrors <- coordinator.Serve(lis)
	}()

	// start workers
	workerErrors := make(chan error, numWorkers)
	workers := make([]*cluster.WorkerNode, 0, numWorkers)
	defer func() {
		var merr *multierror.Error
		for _, w := range workers {
			w.Stop()
		}
		for range workers {
			if werr := <-workerErrors; werr != nil {
				merr = multierror.Append(merr, werr)
			}
		}
		coordinator.GracefulStop()
		if cerr := <-coordinatorErrors; cerr != nil {
			merr = multierror.Append(merr, cerr)
		}
		if err == nil && merr.ErrorOrNil() != nil {
			result, err = nil, fmt.Errorf("unable to shut down test cluster: %w", merr)
		}
	}()
	for i := 0; i < numWorkers; i++ {
		worker, err := cluster.CreateWorker(cluster.CloneNodeOptions(nodeOpts), logger)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
		go func() {
			workerErrors <- worker.Start()
		}()
	}
	waitCtx, cancel := context.WithTimeout(ctx, nodeOpts.WorkerJoinTimeout)
	defer cancel()
	if err := coordinator.WaitForWorkers(waitCtx, numWorkers); err != nil {
		return nil, err
	}
	jobOpts := *opts
	jobOpts.Pool = coordinator
	return indexer.Index(ctx, conf, &jobOpts)
}
