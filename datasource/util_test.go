package datasource

import (
	"context"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/datasource/memory"
	"github.com/go-sif/sindex/datasource/parser/text"
	"github.com/stretchr/testify/require"
)

func TestComputeMBR(t *testing.T) {
	parser, err := text.CreateParser(&text.ParserConf{ShapeType: sindex.RectangleType})
	require.Nil(t, err)
	source := memory.Create([][]byte{
		[]byte("0,0,1,1\n5,5,6,6\n"),
		[]byte("-2,3,0,4\n"),
		[]byte(""),
	})
	cm, err := source.Analyze(3)
	require.Nil(t, err)
	chunks := CollectChunks(cm)
	require.Len(t, chunks, 3)
	require.EqualValues(t, 25, TotalSize(chunks))
	mbr, err := ComputeMBR(context.Background(), chunks, parser, 2)
	require.Nil(t, err)
	require.Equal(t, sindex.Rectangle{X1: -2, Y1: 0, X2: 6, Y2: 6}, mbr)
}

func TestComputeMBRInvalidInput(t *testing.T) {
	parser, err := text.CreateParser(&text.ParserConf{})
	require.Nil(t, err)
	cm, err := memory.Create([][]byte{[]byte("1,1\nnope\n")}).Analyze(1)
	require.Nil(t, err)
	_, err = ComputeMBR(context.Background(), CollectChunks(cm), parser, 1)
	require.NotNil(t, err)
}

func TestComputeMBRNoShapes(t *testing.T) {
	parser, err := text.CreateParser(&text.ParserConf{})
	require.Nil(t, err)
	cm, err := memory.Create([][]byte{[]byte("# nothing\n")}).Analyze(1)
	require.Nil(t, err)
	mbr, err := ComputeMBR(context.Background(), CollectChunks(cm), parser, 1)
	require.Nil(t, err)
	require.True(t, mbr.IsEmpty())
}
