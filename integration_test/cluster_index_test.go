package integration_test

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/cluster"
	"github.com/go-sif/sindex/datasource/parser/jsonl"
	"github.com/go-sif/sindex/datasource/parser/text"
	"github.com/go-sif/sindex/indexer"
	"github.com/go-sif/sindex/output"
	sitest "github.com/go-sif/sindex/testing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type lineParser interface {
	ParseShape(line string) (sindex.Shape, error)
}

func writeInput(t *testing.T, dir string, files map[string][]string) {
	require.Nil(t, os.MkdirAll(dir, 0755))
	for name, lines := range files {
		contents := strings.Join(lines, "\n") + "\n"
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
}

func readLines(t *testing.T, path string) []string {
	f, err := os.Open(path)
	require.Nil(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Nil(t, scanner.Err())
	return lines
}

// indexedShapes checks that the partitions described by result agree with the files on disk,
// and returns the distinct Shapes stored in the index
func indexedShapes(t *testing.T, outDir string, indexType string, parser lineParser, partitions []output.PartitionInfo) map[string]sindex.Shape {
	shapes := make(map[string]sindex.Shape)
	for _, info := range partitions {
		lines := readLines(t, info.Path)
		require.EqualValues(t, info.NumRecords, len(lines))
		for _, line := range lines {
			shape, err := parser.ParseShape(line)
			require.Nil(t, err)
			shapes[line] = shape
		}
	}
	master := readLines(t, filepath.Join(outDir, output.MasterFilePrefix+indexType))
	require.Len(t, master, len(partitions))
	for i, line := range master {
		require.True(t, strings.HasPrefix(line, fmt.Sprintf("%d,%d,", partitions[i].Partition, partitions[i].NumRecords)), line)
	}
	_, err := os.Stat(filepath.Join(outDir, output.TemporaryDir))
	require.True(t, os.IsNotExist(err))
	return shapes
}

func TestIndexTextRectanglesOnLocalCluster(t *testing.T) {
	dir := t.TempDir()
	inDir, outDir := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	var a, b []string
	for i := 0; i < 50; i++ {
		x, y := float64(i%10), float64(i/10)
		a = append(a, fmt.Sprintf("%g,%g,%g,%g", x, y, x+1.5, y+0.5))
		b = append(b, fmt.Sprintf("%g,%g,%g,%g", x+0.25, y+5, x+0.75, y+5.5))
	}
	writeInput(t, inDir, map[string][]string{"a.csv": a, "b.csv": b, "_SUCCESS": {"ignored"}})

	conf := indexer.JobConfig{
		InputPath:  inDir,
		OutputPath: outDir,
		ShapeType:  "rectangle",
		IndexType:  "grid",
		BlockSize:  512,
	}
	opts := &indexer.Options{Fs: afero.NewOsFs()}
	result, err := sitest.LocalRunJob(context.Background(), conf, opts, 2, cluster.StaticResourcePool{Maps: 1, Reduces: 2})
	require.Nil(t, err)
	require.NotEmpty(t, result.JobID)
	require.True(t, len(result.Partitions) > 1)
	// 2 workers with 1 map slot each
	require.EqualValues(t, 2*indexer.MapOversubscription, result.Statistics.GetNumTaskAttempts(sindex.MapTaskType))
	require.EqualValues(t, 100, result.Statistics.GetNumShapesRead())

	parser, err := text.CreateParser(&text.ParserConf{ShapeType: sindex.RectangleType})
	require.Nil(t, err)
	shapes := indexedShapes(t, outDir, "grid", parser, result.Partitions)
	require.Len(t, shapes, 100)
	for _, line := range append(a, b...) {
		require.Contains(t, shapes, line)
	}
}

func TestIndexJSONLPointsOnLocalCluster(t *testing.T) {
	dir := t.TempDir()
	inDir, outDir := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf(`{"x":%g,"y":%g}`, float64(i%20)+0.5, float64(i/20)+0.5))
	}
	writeInput(t, inDir, map[string][]string{"points.jsonl": lines})

	conf := indexer.JobConfig{
		InputPath:   filepath.Join(inDir, "*.jsonl"),
		OutputPath:  outDir,
		ShapeType:   "point",
		IndexType:   "grid",
		InputFormat: indexer.JSONLFormat,
		InputMBR:    &sindex.Rectangle{X1: 0, Y1: 0, X2: 20, Y2: 10},
		BlockSize:   1024,
	}
	result, err := sitest.LocalRunJob(context.Background(), conf, &indexer.Options{Fs: afero.NewOsFs()}, 3, cluster.StaticResourcePool{Maps: 2, Reduces: 1})
	require.Nil(t, err)

	parser, err := jsonl.CreateParser(&jsonl.ParserConf{ShapeType: sindex.PointType})
	require.Nil(t, err)
	shapes := indexedShapes(t, outDir, "grid", parser, result.Partitions)
	// Points off the cell boundaries fall in exactly one cell
	var total int64
	for _, info := range result.Partitions {
		total += info.NumRecords
	}
	require.EqualValues(t, 200, total)
	require.Len(t, shapes, 200)

	// a second run without overwrite is rejected
	_, err = sitest.LocalRunJob(context.Background(), conf, &indexer.Options{Fs: afero.NewOsFs()}, 1, cluster.StaticResourcePool{Maps: 1, Reduces: 1})
	require.NotNil(t, err)
	conf.Overwrite = true
	_, err = sitest.LocalRunJob(context.Background(), conf, &indexer.Options{Fs: afero.NewOsFs()}, 1, cluster.StaticResourcePool{Maps: 1, Reduces: 1})
	require.Nil(t, err)
}
