package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-sif/sindex"
	"github.com/spf13/afero"
)

// DataSource is a set of files containing Shapes
type DataSource struct {
	fs   afero.Fs
	glob string
}

// Create is a factory for DataSources. glob may name a file, a directory (whose
// files are all read) or a glob pattern. Files whose names begin with '_' or '.'
// are ignored.
func Create(fs afero.Fs, glob string) *DataSource {
	return &DataSource{fs: fs, glob: glob}
}

type inputFile struct {
	path string
	size int64
}

func (ds *DataSource) files() ([]inputFile, error) {
	pattern := ds.glob
	if info, err := ds.fs.Stat(pattern); err == nil && info.IsDir() {
		pattern = filepath.Join(pattern, "*")
	}
	matches, err := afero.Glob(ds.fs, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var res []inputFile
	for _, path := range matches {
		base := filepath.Base(path)
		if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
			continue
		}
		info, err := ds.fs.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		res = append(res, inputFile{path: path, size: info.Size()})
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("glob %s produced 0 files", ds.glob)
	}
	return res, nil
}

// Analyze returns a ChunkMap dividing the matched files into roughly numChunks byte ranges.
// Empty files produce no Chunks.
func (ds *DataSource) Analyze(numChunks int) (sindex.ChunkMap, error) {
	files, err := ds.files()
	if err != nil {
		return nil, err
	}
	if numChunks < 1 {
		numChunks = 1
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	chunkSize := (total + int64(numChunks) - 1) / int64(numChunks)
	if chunkSize < 1 {
		chunkSize = 1
	}
	var chunks []*Chunk
	for _, f := range files {
		for start := int64(0); start < f.size; start += chunkSize {
			end := start + chunkSize
			if end > f.size {
				end = f.size
			}
			chunks = append(chunks, &Chunk{fs: ds.fs, path: f.path, start: start, end: end})
		}
	}
	return &ChunkMap{chunks: chunks}, nil
}
