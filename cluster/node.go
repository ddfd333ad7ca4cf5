package cluster

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/logging"
)

// NodeRole describes the intended role of a Node
type NodeRole = string

const (
	// Coordinator indicates that a node should collect worker capacity
	//   e.g. CreateNodeInRole(Coordinator, &NodeOptions{...}, logger)
	Coordinator NodeRole = "coordinator"
	// Worker indicates that a node should advertise its capacity to a Coordinator
	//   e.g. CreateNodeInRole(Worker, &NodeOptions{...}, logger)
	Worker NodeRole = "worker"
)

// Node is a member of an indexing cluster.
// Nodes present several methods to control their lifecycle.
type Node interface {
	IsCoordinator() bool
	Start() error // Start blocks until the Node is stopped
	GracefulStop() error
	Stop() error
}

// NodeOptions are options for a Node
type NodeOptions struct {
	Port               int           `yaml:"port"`                 // port for this Node to bind to
	Host               string        `yaml:"host"`                 // hostname for this Node to bind to
	CoordinatorPort    int           `yaml:"coordinator_port"`     // port for the Coordinator Node (potentially identical to Port if this is the Coordinator)
	CoordinatorHost    string        `yaml:"coordinator_host"`     // [REQUIRED] hostname of the Coordinator Node (potentially identical to Host if this is the Coordinator)
	WorkerJoinTimeout  time.Duration `yaml:"worker_join_timeout"`  // how long a Worker may spend registering with the Coordinator
	WorkerJoinRetries  int           `yaml:"worker_join_retries"`  // how many times a Worker should retry connecting to the Coordinator
	WorkerJoinInterval time.Duration `yaml:"worker_join_interval"` // how long a Worker waits between registration attempts
	RPCTimeout         time.Duration `yaml:"rpc_timeout"`          // timeout for all RPC calls
	MapSlots           int           `yaml:"map_slots"`            // map tasks a Worker advertises. Defaults to the number of CPUs.
	ReduceSlots        int           `yaml:"reduce_slots"`         // reduce tasks a Worker advertises. Defaults to the number of CPUs.
}

// CloneNodeOptions makes a copy of a NodeOptions
func CloneNodeOptions(opts *NodeOptions) *NodeOptions {
	clone := *opts
	return &clone
}

func ensureDefaultNodeOptionsValues(opts *NodeOptions) error {
	if len(opts.CoordinatorHost) == 0 {
		return errors.MissingOptionError{Name: "coordinator host"}
	}
	if opts.MapSlots < 0 || opts.ReduceSlots < 0 {
		return errors.InvalidOptionError{Name: "slots", Reason: "must not be negative"}
	}
	// default certain options if not supplied
	if opts.Port == 0 {
		opts.Port = 1643
	}
	if len(opts.Host) == 0 {
		opts.Host = "0.0.0.0"
	}
	if opts.CoordinatorPort == 0 {
		opts.CoordinatorPort = 1643
	}
	if opts.RPCTimeout == 0 {
		opts.RPCTimeout = time.Duration(5) * time.Second
	}
	if opts.WorkerJoinTimeout == 0 {
		opts.WorkerJoinTimeout = time.Duration(10) * time.Second
	}
	if opts.WorkerJoinRetries == 0 {
		opts.WorkerJoinRetries = 5
	}
	if opts.WorkerJoinInterval == 0 {
		opts.WorkerJoinInterval = time.Second
	}
	if opts.MapSlots == 0 {
		opts.MapSlots = runtime.NumCPU()
	}
	if opts.ReduceSlots == 0 {
		opts.ReduceSlots = runtime.NumCPU()
	}
	return nil
}

// connectionString returns the connection string for this node
func (o *NodeOptions) connectionString() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// coordinatorConnectionString returns the connection string for the coordinator
func (o *NodeOptions) coordinatorConnectionString() string {
	return fmt.Sprintf("%s:%d", o.CoordinatorHost, o.CoordinatorPort)
}

// CreateNodeInRole creates a node in a specific role (Coordinator or Worker)
func CreateNodeInRole(role NodeRole, opts *NodeOptions, logger *slog.Logger) (Node, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	switch role {
	case Coordinator:
		c, err := CreateCoordinator(opts, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case Worker:
		w, err := CreateWorker(opts, logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("%s is an unknown NodeRole", role)
	}
}

// CreateNode creates a node, deriving role from the $SINDEX_NODE_TYPE environment variable
func CreateNode(opts *NodeOptions, logger *slog.Logger) (Node, error) {
	role := os.Getenv("SINDEX_NODE_TYPE")
	if len(role) == 0 {
		return nil, fmt.Errorf("$SINDEX_NODE_TYPE is not set - must be \"%s\" or \"%s\"", Coordinator, Worker)
	}
	return CreateNodeInRole(role, opts, logger)
}
