package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-sif/sindex/cluster"
	"github.com/go-sif/sindex/indexer"
	"github.com/go-sif/sindex/logging"
	"github.com/spf13/cobra"
)

const usage = `Builds a spatial index on an input file

Parameters (* marks required parameters):
  <input file>   - (*) Path to input file, directory or glob
  <output file>  - (*) Path to output directory
  --shape        - (*) Type of shapes stored in input file (point|rectangle|polygon)
  --sindex       - (*) Type of spatial index (grid|rtree|r+tree|str|str+)
  --overwrite    - Overwrite output file without notice

Parameters may also be given in a YAML job file (--config). Flags override the job file.`

type rootFlags struct {
	configPath      string
	shape           string
	indexType       string
	inputFormat     string
	mbr             string
	overwrite       bool
	background      bool
	blockSize       int64
	maxAttempts     int
	parallelism     int
	tempDir         string
	coordinatorAddr string
	logLevel        string
	logFormat       string
}

func newRootCommand(out io.Writer) *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "sindex [input] [output]",
		Short:         "Builds a spatial index on an input file",
		Long:          usage,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := buildJobConfig(cmd, flags, args)
			if err != nil {
				return err
			}
			logger, err := createLogger(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runIndex(ctx, cmd.OutOrStdout(), conf, flags.coordinatorAddr, logger)
		},
	}
	cmd.SetOut(out)
	flags.register(cmd)
	addLoggingFlags(cmd, flags)
	cmd.AddCommand(newNodeCommand(cluster.Coordinator, flags), newNodeCommand(cluster.Worker, flags))
	return cmd
}

// register binds the flags of the indexing command
func (flags *rootFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML job file")
	f.StringVar(&flags.shape, "shape", "", "type of shapes stored in the input (point|rectangle|polygon)")
	f.StringVar(&flags.indexType, "sindex", "", "type of spatial index (grid|rtree|r+tree|str|str+)")
	f.StringVar(&flags.inputFormat, "input-format", indexer.TextFormat, "encoding of the input (text|jsonl)")
	f.StringVar(&flags.mbr, "mbr", "", "region covered by the input as x1,y1,x2,y2. Computed from the input when absent.")
	f.BoolVar(&flags.overwrite, "overwrite", false, "overwrite the output without notice")
	f.BoolVar(&flags.background, "background", false, "submit the job, print its ID and wait for it")
	f.Int64Var(&flags.blockSize, "block-size", indexer.DefaultBlockSize, "bytes of input per partition")
	f.IntVar(&flags.maxAttempts, "max-attempts", 0, "attempts per task")
	f.IntVar(&flags.parallelism, "parallelism", 0, "tasks running at once on this machine. Defaults to the number of CPUs.")
	f.StringVar(&flags.tempDir, "temp-dir", "", "location of shuffle files")
	f.StringVar(&flags.coordinatorAddr, "coordinator", "", "host:port of a coordinator which sizes the job from its workers")
}

func addLoggingFlags(cmd *cobra.Command, flags *rootFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "info", "trace|debug|info|warn|error|fatal")
	pf.StringVar(&flags.logFormat, "log-format", "text", "text|json")
}

func createLogger(flags *rootFlags) (*slog.Logger, error) {
	level, err := logging.ParseLevel(flags.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, level, flags.logFormat)
}

// buildJobConfig merges the job file, the flags which were set and the positional arguments, in that order
func buildJobConfig(cmd *cobra.Command, flags *rootFlags, args []string) (indexer.JobConfig, error) {
	var conf indexer.JobConfig
	if flags.configPath != "" {
		var err error
		if conf, err = loadJobConfig(flags.configPath); err != nil {
			return conf, err
		}
	}
	f := cmd.Flags()
	if f.Changed("shape") {
		conf.ShapeType = flags.shape
	}
	if f.Changed("sindex") {
		conf.IndexType = flags.indexType
	}
	if f.Changed("input-format") || conf.InputFormat == "" {
		conf.InputFormat = flags.inputFormat
	}
	if f.Changed("mbr") {
		mbr, err := parseMBR(flags.mbr)
		if err != nil {
			return conf, err
		}
		conf.InputMBR = mbr
	}
	if f.Changed("overwrite") {
		conf.Overwrite = flags.overwrite
	}
	if f.Changed("background") {
		conf.Background = flags.background
	}
	if f.Changed("block-size") || conf.BlockSize == 0 {
		conf.BlockSize = flags.blockSize
	}
	if f.Changed("max-attempts") {
		conf.MaxAttempts = flags.maxAttempts
	}
	if f.Changed("parallelism") {
		conf.LocalMapParallelism = flags.parallelism
	}
	if f.Changed("temp-dir") {
		conf.TempDir = flags.tempDir
	}
	if len(args) > 0 {
		conf.InputPath = args[0]
	}
	if len(args) > 1 {
		conf.OutputPath = args[1]
	}
	return conf, nil
}

func runIndex(ctx context.Context, out io.Writer, conf indexer.JobConfig, coordinatorAddr string, logger *slog.Logger) error {
	opts := &indexer.Options{Logger: logger}
	if coordinatorAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		conn, err := cluster.DialCoordinator(dialCtx, coordinatorAddr)
		if err != nil {
			return err
		}
		pool, err := cluster.FetchResourcePool(dialCtx, conn)
		conn.Close()
		if err != nil {
			return err
		}
		logger.Info("Sizing job from cluster", "map_slots", pool.Maps, "reduce_slots", pool.Reduces)
		opts.Pool = pool
	}
	job, err := indexer.Repartition(ctx, conf, opts)
	if err != nil {
		return err
	}
	if conf.Background {
		fmt.Fprintf(out, "Submitted job %s\n", job.ID())
	}
	result, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Total indexing time in millis %d\n", result.ElapsedMillis())
	return nil
}
