package file

import (
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/datasource/parser/text"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, cm sindex.ChunkMap, parser sindex.ShapeParser) ([]sindex.Shape, int) {
	var shapes []sindex.Shape
	numChunks := 0
	for cm.HasNext() {
		numChunks++
		it, err := cm.Next().Load(parser)
		require.Nil(t, err)
		for it.HasNextShape() {
			s, err := it.NextShape()
			require.Nil(t, err)
			shapes = append(shapes, s)
		}
	}
	return shapes, numChunks
}

func TestChunkBoundaries(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "/in/a.csv", []byte("1,1\n2,2\n33,33\n4,4\n5.5,5.5"), 0644))
	parser, err := text.CreateParser(&text.ParserConf{})
	require.Nil(t, err)
	expected := []sindex.Shape{
		sindex.Point{X: 1, Y: 1},
		sindex.Point{X: 2, Y: 2},
		sindex.Point{X: 33, Y: 33},
		sindex.Point{X: 4, Y: 4},
		sindex.Point{X: 5.5, Y: 5.5},
	}
	// every line is read exactly once, wherever the boundaries fall
	for numChunks := 1; numChunks <= 30; numChunks++ {
		cm, err := Create(fs, "/in/a.csv").Analyze(numChunks)
		require.Nil(t, err)
		shapes, _ := readAll(t, cm, parser)
		require.Equal(t, expected, shapes, "numChunks=%d", numChunks)
	}
}

func TestDirectoryInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "/in/a.csv", []byte("1,1\n"), 0644))
	require.Nil(t, afero.WriteFile(fs, "/in/b.csv", []byte("2,2\n"), 0644))
	require.Nil(t, afero.WriteFile(fs, "/in/empty.csv", []byte(""), 0644))
	require.Nil(t, afero.WriteFile(fs, "/in/_SUCCESS", []byte("garbage"), 0644))
	require.Nil(t, afero.WriteFile(fs, "/in/.hidden", []byte("garbage"), 0644))
	parser, err := text.CreateParser(&text.ParserConf{})
	require.Nil(t, err)
	cm, err := Create(fs, "/in").Analyze(1)
	require.Nil(t, err)
	shapes, numChunks := readAll(t, cm, parser)
	require.Equal(t, 2, numChunks)
	require.Equal(t, []sindex.Shape{sindex.Point{X: 1, Y: 1}, sindex.Point{X: 2, Y: 2}}, shapes)
}

func TestNoFiles(t *testing.T) {
	_, err := Create(afero.NewMemMapFs(), "/nothing/*.csv").Analyze(4)
	require.NotNil(t, err)
}

func TestChunkSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "/a.csv", []byte("1,1\n2,2\n3,3\n"), 0644))
	cm, err := Create(fs, "/a.csv").Analyze(2)
	require.Nil(t, err)
	var total int64
	for cm.HasNext() {
		c := cm.Next()
		require.Contains(t, c.String(), "/a.csv")
		total += c.Size()
	}
	require.EqualValues(t, 12, total)
}
