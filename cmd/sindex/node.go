package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/go-sif/sindex/cluster"
	"github.com/spf13/cobra"
)

// newNodeCommand creates a subcommand which runs a cluster node until interrupted
func newNodeCommand(role cluster.NodeRole, flags *rootFlags) *cobra.Command {
	opts := &cluster.NodeOptions{}
	cmd := &cobra.Command{
		Use:          role,
		Short:        fmt.Sprintf("Runs a %s node", role),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := createLogger(flags)
			if err != nil {
				return err
			}
			if role == cluster.Coordinator && opts.CoordinatorHost == "" {
				opts.CoordinatorHost = "localhost"
			}
			node, err := cluster.CreateNodeInRole(role, opts, logger)
			if err != nil {
				return err
			}
			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-interrupts:
					logger.Info(fmt.Sprintf("Stopping %s...", role))
					node.GracefulStop()
				case <-done:
				}
			}()
			return node.Start()
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Host, "host", "", "address to bind (coordinator) or advertise (worker)")
	f.IntVar(&opts.Port, "port", 0, "port to bind")
	f.StringVar(&opts.CoordinatorHost, "coordinator-host", "", "coordinator address. Defaults to localhost for coordinators.")
	f.IntVar(&opts.CoordinatorPort, "coordinator-port", 0, "coordinator port")
	f.IntVar(&opts.MapSlots, "map-slots", 0, "map tasks this worker can run at once. Defaults to the number of CPUs.")
	f.IntVar(&opts.ReduceSlots, "reduce-slots", 0, "reduce tasks this worker can run at once. Defaults to the number of CPUs.")
	return cmd
}
