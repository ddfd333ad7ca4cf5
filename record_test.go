package sindex

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func TestSentinelEncodingIsBijective(t *testing.T) {
	f := fuzz.New()
	for i := 0; i < 1000; i++ {
		var raw int32
		f.Fuzz(&raw)
		p := PartitionID(raw & math.MaxInt32) // any non-negative ID
		s := EncodeSentinel(p)
		require.True(t, s.IsValid())
		require.False(t, PartitionID(s).IsValid(), "sentinel %d collides with a partition ID", s)
		require.Equal(t, p, DecodeSentinel(s))
	}
	// extremes
	require.Equal(t, SentinelID(-1), EncodeSentinel(0))
	require.Equal(t, SentinelID(math.MinInt32), EncodeSentinel(math.MaxInt32))
	require.Equal(t, PartitionID(math.MaxInt32), DecodeSentinel(math.MinInt32))
}

func TestRecordVariants(t *testing.T) {
	shape := Point{X: 1, Y: 2}
	data := Data(5, shape)
	require.False(t, data.IsEnd())
	require.Equal(t, int32(5), data.Key())
	require.Equal(t, shape, data.Shape)

	end := End(5)
	require.True(t, end.IsEnd())
	require.Nil(t, end.Shape)
	require.Equal(t, int32(-6), end.Key())
	require.Equal(t, "End(5)", end.String())
}

func TestRecordFromKey(t *testing.T) {
	shape := Point{X: 1, Y: 2}
	rec, err := RecordFromKey(Data(7, shape).Key(), shape)
	require.Nil(t, err)
	require.Equal(t, Data(7, shape), rec)

	rec, err = RecordFromKey(End(7).Key(), nil)
	require.Nil(t, err)
	require.Equal(t, End(7), rec)

	_, err = RecordFromKey(-8, shape)
	require.NotNil(t, err)
	_, err = RecordFromKey(7, nil)
	require.NotNil(t, err)
}
