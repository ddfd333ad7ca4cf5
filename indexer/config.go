package indexer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/executor"
	"github.com/hashicorp/go-multierror"
)

// InputFormat names an encoding of Shapes in input and output files
type InputFormat = string

const (
	// TextFormat is delimited text, e.g. "x,y" for Points
	TextFormat InputFormat = "text"
	// JSONLFormat is JSON lines, e.g. {"x":1,"y":2} for Points
	JSONLFormat InputFormat = "jsonl"
)

const (
	// MapOversubscription is the number of map tasks created per map slot
	MapOversubscription = 5
	// MinTasks is the lower bound on the number of map slots and reduce tasks
	MinTasks = 1
	// DefaultBlockSize is the amount of input each grid cell should receive
	DefaultBlockSize int64 = 64 * 1024 * 1024
)

// JobConfig describes an indexing job. Repartition copies it, so changes made after a job starts
// have no effect on the job.
type JobConfig struct {
	InputPath           string            `yaml:"input"`                 // [REQUIRED] a file, directory or glob
	OutputPath          string            `yaml:"output"`                // [REQUIRED] the directory receiving partition files
	ShapeType           string            `yaml:"shape"`                 // [REQUIRED] point, rectangle or polygon
	IndexType           string            `yaml:"sindex"`                // [REQUIRED] grid, rtree, r+tree, str or str+
	InputFormat         InputFormat       `yaml:"input_format"`          // text or jsonl. Defaults to text.
	InputMBR            *sindex.Rectangle `yaml:"mbr"`                   // the region covered by the input. Computed by scanning the input when absent.
	Overwrite           bool              `yaml:"overwrite"`             // replace the output directory if it exists
	Background          bool              `yaml:"background"`            // return from Repartition without waiting for the job
	BlockSize           int64             `yaml:"block_size"`            // bytes of input per partition. Defaults to DefaultBlockSize.
	MaxAttempts         int               `yaml:"max_attempts"`          // attempts per task. Defaults to 4.
	LocalMapParallelism int               `yaml:"local_map_parallelism"` // tasks running at once on this machine. Defaults to the number of CPUs.
	TempDir             string            `yaml:"temp_dir"`              // location of shuffle files. Defaults to OutputPath/_shuffle.
	MapTasks            int               `yaml:"-"`                     // computed from the ResourcePool when the job starts
	ReduceTasks         int               `yaml:"-"`                     // computed from the ResourcePool when the job starts
}

// validate checks every option, and returns all problems at once
func (conf *JobConfig) validate() error {
	var merr *multierror.Error
	if len(strings.TrimSpace(conf.InputPath)) == 0 {
		merr = multierror.Append(merr, errors.MissingOptionError{Name: "input"})
	}
	if len(strings.TrimSpace(conf.OutputPath)) == 0 {
		merr = multierror.Append(merr, errors.MissingOptionError{Name: "output"})
	}
	if _, err := sindex.ParseShapeType(conf.ShapeType); err != nil {
		merr = multierror.Append(merr, err)
	}
	if t, err := sindex.ParseIndexType(conf.IndexType); err != nil {
		merr = multierror.Append(merr, err)
	} else if !t.IsImplemented() {
		merr = multierror.Append(merr, errors.UnsupportedIndexTypeError{Name: t.String()})
	}
	switch conf.InputFormat {
	case "", TextFormat, JSONLFormat:
	default:
		merr = multierror.Append(merr, errors.InvalidOptionError{Name: "input format", Reason: fmt.Sprintf("%q is neither %s nor %s", conf.InputFormat, TextFormat, JSONLFormat)})
	}
	if conf.InputMBR != nil && conf.InputMBR.IsEmpty() {
		merr = multierror.Append(merr, errors.InvalidOptionError{Name: "mbr", Reason: "must not be empty"})
	}
	if conf.BlockSize < 0 {
		merr = multierror.Append(merr, errors.InvalidOptionError{Name: "block size", Reason: "must not be negative"})
	}
	if conf.MaxAttempts < 0 {
		merr = multierror.Append(merr, errors.InvalidOptionError{Name: "max attempts", Reason: "must not be negative"})
	}
	if conf.LocalMapParallelism < 0 {
		merr = multierror.Append(merr, errors.InvalidOptionError{Name: "local map parallelism", Reason: "must not be negative"})
	}
	return merr.ErrorOrNil()
}

func ensureDefaultJobConfigValues(conf *JobConfig) {
	if len(conf.InputFormat) == 0 {
		conf.InputFormat = TextFormat
	}
	if conf.BlockSize == 0 {
		conf.BlockSize = DefaultBlockSize
	}
	if conf.MaxAttempts == 0 {
		conf.MaxAttempts = executor.DefaultMaxAttempts
	}
	if conf.LocalMapParallelism == 0 {
		conf.LocalMapParallelism = runtime.NumCPU()
	}
	if len(conf.TempDir) == 0 {
		conf.TempDir = filepath.Join(conf.OutputPath, "_shuffle")
	}
}

// sizeTasks computes the number of map and reduce tasks from the capacity of a ResourcePool
func sizeTasks(conf *JobConfig, pool sindex.ResourcePool) {
	conf.MapTasks = MapOversubscription * max(MinTasks, pool.MapSlots())
	conf.ReduceTasks = max(MinTasks, pool.ReduceSlots())
}
