package output

import (
	"bufio"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/docker/docker/pkg/locker"
	"github.com/go-sif/sindex"
	"github.com/spf13/afero"
)

const (
	// TemporaryDir holds partition files which have not been committed yet
	TemporaryDir = "_temporary"
	// MasterFilePrefix begins the name of the file listing every committed partition
	MasterFilePrefix = "_master."
)

// PartitionFileName returns the name of the committed file of a partition
func PartitionFileName(p sindex.PartitionID) string {
	return fmt.Sprintf("part-%05d", p)
}

// PartitionInfo describes a committed partition
type PartitionInfo struct {
	Partition  sindex.PartitionID
	Path       string
	NumRecords int64
	NumBytes   int64
	MBR        sindex.Rectangle // MBR bounds the Shapes in the partition
}

// IndexWriter writes the partitions of an index to a directory
type IndexWriter struct {
	fs        afero.Fs
	dir       string
	encoder   sindex.ShapeEncoder
	logger    *slog.Logger
	locks     *locker.Locker
	lock      sync.Mutex
	committed map[sindex.PartitionID]PartitionInfo
}

// Create prepares dir to receive partitions, which are encoded with encoder
func Create(fs afero.Fs, dir string, encoder sindex.ShapeEncoder, logger *slog.Logger) (*IndexWriter, error) {
	if err := fs.MkdirAll(filepath.Join(dir, TemporaryDir), 0755); err != nil {
		return nil, err
	}
	return &IndexWriter{
		fs:        fs,
		dir:       dir,
		encoder:   encoder,
		logger:    logger,
		locks:     locker.New(),
		committed: make(map[sindex.PartitionID]PartitionInfo),
	}, nil
}

// Dir returns the output directory
func (w *IndexWriter) Dir() string {
	return w.dir
}

// Partitions returns every committed partition, sorted by PartitionID
func (w *IndexWriter) Partitions() []PartitionInfo {
	w.lock.Lock()
	defer w.lock.Unlock()
	res := make([]PartitionInfo, 0, len(w.committed))
	for _, info := range w.committed {
		res = append(res, info)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Partition < res[j].Partition })
	return res
}

func (w *IndexWriter) commitPartition(p sindex.PartitionID, tmpPath string, info PartitionInfo) error {
	name := PartitionFileName(p)
	w.locks.Lock(name)
	defer w.locks.Unlock(name)
	info.Path = filepath.Join(w.dir, name)
	if err := w.fs.Rename(tmpPath, info.Path); err != nil {
		return err
	}
	w.lock.Lock()
	w.committed[p] = info
	w.lock.Unlock()
	w.logger.Debug("Committed partition", "partition", p, "records", info.NumRecords, "path", info.Path)
	return nil
}

// Commit writes the master file, named after the index type, and removes temporary files.
// Each line of the master file lists a partition as "id,records,x1,y1,x2,y2". The
// rectangle is the partition's cell if the partitioner knows it, and the MBR of the
// partition's Shapes otherwise.
func (w *IndexWriter) Commit(indexName string, partitioner sindex.Partitioner) error {
	bounded, isBounded := partitioner.(sindex.BoundedPartitioner)
	f, err := w.fs.Create(filepath.Join(w.dir, MasterFilePrefix+indexName))
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	var line []byte
	for _, info := range w.Partitions() {
		mbr := info.MBR
		if isBounded {
			if cell, err := bounded.PartitionMBR(info.Partition); err == nil {
				mbr = cell
			}
		}
		line = strconv.AppendInt(line[:0], int64(info.Partition), 10)
		line = append(line, ',')
		line = strconv.AppendInt(line, info.NumRecords, 10)
		for _, v := range []float64{mbr.X1, mbr.Y1, mbr.X2, mbr.Y2} {
			line = append(line, ',')
			line = strconv.AppendFloat(line, v, 'g', -1, 64)
		}
		line = append(line, '\n')
		if _, err := buf.Write(line); err != nil {
			f.Close()
			return err
		}
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return w.fs.RemoveAll(filepath.Join(w.dir, TemporaryDir))
}

// Abort removes temporary files. Committed partitions are left in place.
func (w *IndexWriter) Abort() error {
	return w.fs.RemoveAll(filepath.Join(w.dir, TemporaryDir))
}

// Attempt returns a RecordWriter for a single reduce task attempt
func (w *IndexWriter) Attempt(attempt string) *AttemptWriter {
	return &AttemptWriter{
		writer:  w,
		attempt: attempt,
		open:    make(map[sindex.PartitionID]*openPartition),
		closed:  make(map[sindex.PartitionID]bool),
	}
}
