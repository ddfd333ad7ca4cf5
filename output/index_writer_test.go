package output

import (
	"context"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/datasource/parser/text"
	"github.com/go-sif/sindex/logging"
	"github.com/go-sif/sindex/partitioner/grid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func createWriter(t *testing.T, fs afero.Fs) *IndexWriter {
	encoder, err := text.CreateParser(&text.ParserConf{})
	require.Nil(t, err)
	w, err := Create(fs, "/out", encoder, logging.Discard())
	require.Nil(t, err)
	return w
}

func TestLazyOpenAndCommitOnEnd(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	w := createWriter(t, fs)
	a := w.Attempt("attempt-1")

	exists, err := afero.Exists(fs, "/out/part-00000")
	require.Nil(t, err)
	require.False(t, exists)

	require.Nil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 1, Y: 1})))
	require.Nil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 3, Y: 3})))
	require.Equal(t, 1, a.NumOpen())
	// not visible until the partition ends
	exists, err = afero.Exists(fs, "/out/part-00000")
	require.Nil(t, err)
	require.False(t, exists)

	require.Nil(t, a.Write(ctx, sindex.End(0)))
	require.Equal(t, 0, a.NumOpen())
	contents, err := afero.ReadFile(fs, "/out/part-00000")
	require.Nil(t, err)
	require.Equal(t, "1,1\n3,3\n", string(contents))

	// writing to a closed partition is an error
	require.NotNil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 1, Y: 1})))

	infos := w.Partitions()
	require.Len(t, infos, 1)
	require.EqualValues(t, 2, infos[0].NumRecords)
	require.EqualValues(t, 8, infos[0].NumBytes)
	require.Equal(t, sindex.Rectangle{X1: 1, Y1: 1, X2: 3, Y2: 3}, infos[0].MBR)
}

func TestEndWithoutDataProducesNoFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := createWriter(t, fs)
	require.Nil(t, w.Attempt("a").Write(context.Background(), sindex.End(4)))
	exists, err := afero.Exists(fs, "/out/part-00004")
	require.Nil(t, err)
	require.False(t, exists)
	require.Empty(t, w.Partitions())
}

func TestAbortRemovesPartialPartitions(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	w := createWriter(t, fs)
	a := w.Attempt("a")
	require.Nil(t, a.Write(ctx, sindex.Data(1, sindex.Point{X: 1, Y: 1})))
	require.Nil(t, a.Write(ctx, sindex.End(1)))
	require.Nil(t, a.Write(ctx, sindex.Data(2, sindex.Point{X: 2, Y: 2})))
	require.Nil(t, a.Abort())
	require.Nil(t, w.Abort())

	exists, err := afero.Exists(fs, "/out/part-00001")
	require.Nil(t, err)
	require.True(t, exists)
	exists, err = afero.Exists(fs, "/out/part-00002")
	require.Nil(t, err)
	require.False(t, exists)
	exists, err = afero.DirExists(fs, "/out/_temporary")
	require.Nil(t, err)
	require.False(t, exists)
}

func TestRetriedAttemptReplacesPartition(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	w := createWriter(t, fs)
	for _, attempt := range []string{"first", "second"} {
		a := w.Attempt(attempt)
		require.Nil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 5, Y: 6})))
		require.Nil(t, a.Write(ctx, sindex.End(0)))
	}
	contents, err := afero.ReadFile(fs, "/out/part-00000")
	require.Nil(t, err)
	require.Equal(t, "5,6\n", string(contents))
	require.Len(t, w.Partitions(), 1)
}

func TestCommitWritesMasterFile(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	w := createWriter(t, fs)
	partitioner, err := grid.New(sindex.Rectangle{X1: 0, Y1: 0, X2: 2, Y2: 1}, 2, 1)
	require.Nil(t, err)
	a := w.Attempt("a")
	require.Nil(t, a.Write(ctx, sindex.Data(1, sindex.Point{X: 1.5, Y: 0.5})))
	require.Nil(t, a.Write(ctx, sindex.End(1)))
	require.Nil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 0.5, Y: 0.5})))
	require.Nil(t, a.Write(ctx, sindex.Data(0, sindex.Point{X: 0.25, Y: 0.5})))
	require.Nil(t, a.Write(ctx, sindex.End(0)))
	require.Nil(t, w.Commit("grid", partitioner))

	master, err := afero.ReadFile(fs, "/out/_master.grid")
	require.Nil(t, err)
	require.Equal(t, "0,2,0,0,1,1\n1,1,1,0,2,1\n", string(master))
	exists, err := afero.DirExists(fs, "/out/_temporary")
	require.Nil(t, err)
	require.False(t, exists)
}
