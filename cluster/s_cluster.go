package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/protobuf/types/known/structpb"
)

// WorkerDescriptor is the capacity advertised by a registered Worker
type WorkerDescriptor struct {
	ID          string `mapstructure:"id"`
	Host        string `mapstructure:"host"`
	MapSlots    int    `mapstructure:"map_slots"`
	ReduceSlots int    `mapstructure:"reduce_slots"`
}

func (d *WorkerDescriptor) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":           d.ID,
		"host":         d.Host,
		"map_slots":    d.MapSlots,
		"reduce_slots": d.ReduceSlots,
	})
}

func workerDescriptorFromStruct(s *structpb.Struct) (*WorkerDescriptor, error) {
	var d WorkerDescriptor
	if err := mapstructure.Decode(s.AsMap(), &d); err != nil {
		return nil, fmt.Errorf("malformed worker descriptor: %w", err)
	}
	if len(d.ID) == 0 {
		return nil, fmt.Errorf("worker descriptor has no id")
	}
	if d.MapSlots < 0 || d.ReduceSlots < 0 {
		return nil, fmt.Errorf("worker %s advertises negative capacity", d.ID)
	}
	return &d, nil
}

// clusterServiceServer is the server API for the cluster service
type clusterServiceServer interface {
	RegisterWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeregisterWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClusterStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

const clusterServiceName = "sindex.ClusterService"

func clusterServiceHandler(method string, call func(clusterServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(clusterServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fmt.Sprintf("/%s/%s", clusterServiceName, method),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(clusterServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var clusterServiceDesc = grpc.ServiceDesc{
	ServiceName: clusterServiceName,
	HandlerType: (*clusterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		clusterServiceHandler("RegisterWorker", clusterServiceServer.RegisterWorker),
		clusterServiceHandler("DeregisterWorker", clusterServiceServer.DeregisterWorker),
		clusterServiceHandler("ClusterStatus", clusterServiceServer.ClusterStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sindex/cluster",
}

func registerClusterServiceServer(s *grpc.Server, srv clusterServiceServer) {
	s.RegisterService(&clusterServiceDesc, srv)
}

type clusterServer struct {
	workers    sync.Map
	lock       sync.Mutex
	numWorkers int
	logger     *slog.Logger
}

// createClusterServer creates a new cluster server
func createClusterServer(logger *slog.Logger) *clusterServer {
	return &clusterServer{workers: sync.Map{}, logger: logger}
}

// RegisterWorker registers new workers with the cluster
func (s *clusterServer) RegisterWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w, err := workerDescriptorFromStruct(req)
	if err != nil {
		return nil, err
	}
	if p, ok := peer.FromContext(ctx); ok {
		if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
			w.Host = tcpAddr.IP.String()
		}
	}
	if _, exists := s.workers.LoadOrStore(w.ID, *w); exists {
		return nil, fmt.Errorf("Worker %s is already registered", w.ID)
	}
	s.lock.Lock()
	s.numWorkers++
	s.lock.Unlock()
	s.logger.Info("Registered worker", "worker", w.ID, "host", w.Host, "map_slots", w.MapSlots, "reduce_slots", w.ReduceSlots)
	return structpb.NewStruct(map[string]interface{}{"time": time.Now().Unix()})
}

// DeregisterWorker removes a worker from the cluster
func (s *clusterServer) DeregisterWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if _, existed := s.workers.LoadAndDelete(id); !existed {
		return nil, fmt.Errorf("Worker %s is not registered", id)
	}
	s.lock.Lock()
	s.numWorkers--
	s.lock.Unlock()
	s.logger.Info("Deregistered worker", "worker", id)
	return structpb.NewStruct(map[string]interface{}{"time": time.Now().Unix()})
}

// ClusterStatus reports the total capacity of registered workers
func (s *clusterServer) ClusterStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pool := s.resourcePool()
	return structpb.NewStruct(map[string]interface{}{
		"workers":      s.NumberOfWorkers(),
		"map_slots":    pool.Maps,
		"reduce_slots": pool.Reduces,
	})
}

// NumberOfWorkers returns the current worker count
func (s *clusterServer) NumberOfWorkers() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.numWorkers
}

// Workers retrieves a slice of connected workers
func (s *clusterServer) Workers() []WorkerDescriptor {
	result := make([]WorkerDescriptor, 0)
	s.workers.Range(func(_, v interface{}) bool {
		result = append(result, v.(WorkerDescriptor))
		return true
	})
	return result
}

func (s *clusterServer) resourcePool() StaticResourcePool {
	var pool StaticResourcePool
	for _, w := range s.Workers() {
		pool.Maps += w.MapSlots
		pool.Reduces += w.ReduceSlots
	}
	return pool
}

func (s *clusterServer) waitForWorkers(ctx context.Context, numWorkers int) error {
	for {
		if s.NumberOfWorkers() >= numWorkers {
			break
		}
		select {
		case <-ctx.Done():
			// Did we time out?
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
			// Wait and check again (iterate)
		}
	}
	return nil
}
