package indexer

import (
	"fmt"
	"log/slog"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/cluster"
	"github.com/go-sif/sindex/datasource/file"
	"github.com/go-sif/sindex/datasource/parser/jsonl"
	"github.com/go-sif/sindex/datasource/parser/text"
	"github.com/go-sif/sindex/logging"
	"github.com/go-sif/sindex/partitioner/grid"
	"github.com/spf13/afero"
)

// PartitionerFactory builds the Partitioner for a job once its input has been analyzed
type PartitionerFactory func(indexType sindex.IndexType, mbr sindex.Rectangle, inputSize int64, blockSize int64) (sindex.Partitioner, error)

// Options supplies the collaborators of a job. Every field is optional.
type Options struct {
	Fs             afero.Fs            // file system for input, output and shuffle files. Defaults to the OS file system.
	Logger         *slog.Logger        // Defaults to discarding logs
	Pool           sindex.ResourcePool // sizes the job. Defaults to cluster.LocalResourcePool.
	Source         sindex.DataSource   // Defaults to the files matching JobConfig.InputPath
	Parser         sindex.ShapeParser  // Defaults to a parser for JobConfig.InputFormat and JobConfig.ShapeType
	Encoder        sindex.ShapeEncoder // encodes output Shapes. Defaults to the Parser, if it is a ShapeEncoder.
	NewPartitioner PartitionerFactory  // Defaults to DefaultPartitioner
}

// DefaultPartitioner builds a grid sized so that each cell receives roughly blockSize bytes of input
func DefaultPartitioner(indexType sindex.IndexType, mbr sindex.Rectangle, inputSize int64, blockSize int64) (sindex.Partitioner, error) {
	switch indexType {
	case sindex.GridIndex:
		return grid.NewIndexingPartitioner(mbr, inputSize, blockSize)
	default:
		return nil, fmt.Errorf("no partitioner for index type %s", indexType)
	}
}

type parserEncoder interface {
	sindex.ShapeParser
	sindex.ShapeEncoder
}

func createParser(conf *JobConfig, shapeType sindex.ShapeType) (parserEncoder, error) {
	switch conf.InputFormat {
	case JSONLFormat:
		return jsonl.CreateParser(&jsonl.ParserConf{ShapeType: shapeType})
	default:
		return text.CreateParser(&text.ParserConf{ShapeType: shapeType})
	}
}

// ensureDefaultOptionsValues fills in missing collaborators. conf must already be valid.
func ensureDefaultOptionsValues(conf *JobConfig, opts *Options) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Pool == nil {
		opts.Pool = cluster.LocalResourcePool{}
	}
	if opts.Source == nil {
		opts.Source = file.Create(opts.Fs, conf.InputPath)
	}
	if opts.NewPartitioner == nil {
		opts.NewPartitioner = DefaultPartitioner
	}
	if opts.Parser == nil {
		shapeType, err := sindex.ParseShapeType(conf.ShapeType)
		if err != nil {
			return err
		}
		parser, err := createParser(conf, shapeType)
		if err != nil {
			return err
		}
		opts.Parser = parser
	}
	if opts.Encoder == nil {
		encoder, ok := opts.Parser.(sindex.ShapeEncoder)
		if !ok {
			return fmt.Errorf("an Encoder is required when the Parser cannot encode Shapes")
		}
		opts.Encoder = encoder
	}
	return nil
}
