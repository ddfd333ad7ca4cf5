// Package cluster provides ResourcePools for sizing jobs. A LocalResourcePool describes the
// current machine. A Coordinator collects the capacity advertised by registered Workers over
// gRPC, and can be queried remotely with FetchResourcePool.
package cluster
