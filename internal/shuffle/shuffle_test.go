package shuffle

import (
	"context"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func groupAll(t *testing.T, s *Shuffle) map[sindex.PartitionID][]sindex.Shape {
	res := make(map[sindex.PartitionID][]sindex.Shape)
	for b := 0; b < s.NumBuckets(); b++ {
		groups, err := s.Group(context.Background(), b)
		require.Nil(t, err)
		for _, g := range groups {
			require.Equal(t, b, BucketOf(g.Partition, s.NumBuckets()))
			_, seen := res[g.Partition]
			require.False(t, seen, "partition %d appears in two buckets", g.Partition)
			require.NotEmpty(t, g.Shapes)
			res[g.Partition] = g.Shapes
		}
	}
	return res
}

func TestShuffleGroupsByPartition(t *testing.T) {
	ctx := context.Background()
	s, err := New(afero.NewMemMapFs(), "/tmp/shuffle", 3)
	require.Nil(t, err)
	a := sindex.Point{X: 1, Y: 1}
	b := sindex.Point{X: 2, Y: 2}
	c := sindex.Rectangle{X1: 0, Y1: 0, X2: 3, Y2: 3}

	m0 := s.CreateMapOutput(0, "x")
	require.Nil(t, m0.Write(ctx, sindex.Data(0, a)))
	require.Nil(t, m0.Write(ctx, sindex.Data(2, c)))
	require.Nil(t, m0.Write(ctx, sindex.Data(0, c)))
	require.Nil(t, m0.Commit())
	m1 := s.CreateMapOutput(1, "y")
	require.Nil(t, m1.Write(ctx, sindex.Data(1, b)))
	require.EqualValues(t, 1, m1.NumRecords())
	require.Nil(t, m1.Commit())

	grouped := groupAll(t, s)
	require.Equal(t, map[sindex.PartitionID][]sindex.Shape{
		0: {a, c},
		1: {b},
		2: {c},
	}, grouped)
}

func TestShuffleOnlyCommittedAttemptsAreVisible(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	s, err := New(fs, "/shuffle", 2)
	require.Nil(t, err)
	shape := sindex.Point{X: 1, Y: 1}

	// a failed attempt which wrote records, then aborted
	failed := s.CreateMapOutput(0, "first")
	require.Nil(t, failed.Write(ctx, sindex.Data(4, shape)))
	require.Nil(t, failed.Abort())
	// an attempt which wrote records, but never committed or aborted
	crashed := s.CreateMapOutput(0, "second")
	require.Nil(t, crashed.Write(ctx, sindex.Data(4, shape)))
	// the successful retry
	retry := s.CreateMapOutput(0, "third")
	require.Nil(t, retry.Write(ctx, sindex.Data(4, shape)))
	require.Nil(t, retry.Commit())

	require.Equal(t, map[sindex.PartitionID][]sindex.Shape{4: {shape}}, groupAll(t, s))

	require.Nil(t, s.Destroy())
	exists, err := afero.DirExists(fs, "/shuffle")
	require.Nil(t, err)
	require.False(t, exists)
}

func TestShuffleRecommitReplacesSegments(t *testing.T) {
	ctx := context.Background()
	s, err := New(afero.NewMemMapFs(), "/shuffle", 4)
	require.Nil(t, err)
	shape := sindex.Point{X: 1, Y: 1}
	first := s.CreateMapOutput(0, "first")
	require.Nil(t, first.Write(ctx, sindex.Data(7, shape)))
	require.Nil(t, first.Commit())
	second := s.CreateMapOutput(0, "second")
	require.Nil(t, second.Write(ctx, sindex.Data(7, shape)))
	require.Nil(t, second.Commit())
	require.Equal(t, map[sindex.PartitionID][]sindex.Shape{7: {shape}}, groupAll(t, s))
}

func TestMapOutputRejectsEndRecords(t *testing.T) {
	s, err := New(afero.NewMemMapFs(), "/shuffle", 1)
	require.Nil(t, err)
	out := s.CreateMapOutput(0, "a")
	require.NotNil(t, out.Write(context.Background(), sindex.End(0)))
	require.Nil(t, out.Commit())
	require.NotNil(t, out.Write(context.Background(), sindex.Data(0, sindex.Point{})))
}

func TestGroupIterator(t *testing.T) {
	g := &Group{Partition: 1, Shapes: []sindex.Shape{sindex.Point{X: 1}, sindex.Point{X: 2}}}
	it := g.Iterator()
	ended := false
	it.OnEnd(func() { ended = true })
	count := 0
	for it.HasNextShape() {
		_, err := it.NextShape()
		require.Nil(t, err)
		count++
	}
	require.Equal(t, 2, count)
	require.True(t, ended)
	_, err := it.NextShape()
	require.NotNil(t, err)
}

func TestBucketOfIsStable(t *testing.T) {
	for p := sindex.PartitionID(0); p < 100; p++ {
		b := BucketOf(p, 7)
		require.True(t, b >= 0 && b < 7)
		require.Equal(t, b, BucketOf(p, 7))
	}
}
