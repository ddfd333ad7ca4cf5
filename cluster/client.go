package cluster

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

func invokeClusterService(ctx context.Context, conn *grpc.ClientConn, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := conn.Invoke(ctx, fmt.Sprintf("/%s/%s", clusterServiceName, method), in, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DialCoordinator opens a connection to the Coordinator at address (host:port)
func DialCoordinator(ctx context.Context, address string) (*grpc.ClientConn, error) {
	conn, err := grpc.DialContext(ctx, address, grpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("fail to dial: %v", err)
	}
	return conn, nil
}

// FetchResourcePool asks a Coordinator for the total capacity of its Workers
func FetchResourcePool(ctx context.Context, conn *grpc.ClientConn) (StaticResourcePool, error) {
	var pool StaticResourcePool
	res, err := invokeClusterService(ctx, conn, "ClusterStatus", &structpb.Struct{})
	if err != nil {
		return pool, err
	}
	if err := mapstructure.Decode(res.AsMap(), &pool); err != nil {
		return pool, fmt.Errorf("malformed cluster status: %w", err)
	}
	return pool, nil
}

func registerWorker(ctx context.Context, conn *grpc.ClientConn, w *WorkerDescriptor) error {
	req, err := w.toStruct()
	if err != nil {
		return err
	}
	_, err = invokeClusterService(ctx, conn, "RegisterWorker", req)
	return err
}

func deregisterWorker(ctx context.Context, conn *grpc.ClientConn, id string) error {
	req, err := structpb.NewStruct(map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	_, err = invokeClusterService(ctx, conn, "DeregisterWorker", req)
	return err
}
