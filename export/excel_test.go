package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vispath/graph"
	"vispath/table"
)

func writeAndOpen(t *testing.T, conns []table.Connection) *excelize.File {
	t.Helper()
	p, err := graph.Build(conns)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, conns, p.Nodes()))
	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestWriteExcel(t *testing.T) {
	wb := writeAndOpen(t, []table.Connection{
		{Pre: "LC10", Post: "LT52", Weight: 10, Layer: -1},
		{Pre: "LT52", Post: "MBON", Weight: 2.5, Layer: -1},
	})

	assert.Equal(t, []string{CONNECTIONS_SHEET, NODES_SHEET}, wb.GetSheetList())

	rows, err := wb.GetRows(CONNECTIONS_SHEET)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"pre", "post", "weight", "pre_role", "post_role", "pre_layer", "post_layer"},
		{"LC10", "LT52", "10", "source", "intermediate", "0", "1"},
		{"LT52", "MBON", "2.5", "intermediate", "target", "1", "2"},
	}, rows)

	rows, err = wb.GetRows(NODES_SHEET)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"LT52", "intermediate", "1", "1", "1", "10", "2.5"}, rows[2])
}

func TestWriteExcelKeepsSelfLoops(t *testing.T) {
	wb := writeAndOpen(t, []table.Connection{
		{Pre: "A", Post: "B", Weight: 3, Layer: -1},
		{Pre: "B", Post: "B", Weight: 2, Layer: -1},
	})

	rows, err := wb.GetRows(CONNECTIONS_SHEET)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"B", "B", "2", "target", "target", "1", "1"}, rows[2])
}

func TestWriteExcelUnknownNode(t *testing.T) {
	var buf bytes.Buffer
	err := WriteExcel(&buf, []table.Connection{{Pre: "A", Post: "B", Weight: 1, Layer: -1}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "A"`)
}

func TestWriteExcelEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, nil, graph.Empty().Nodes()))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(CONNECTIONS_SHEET)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteExcelRoundTripsThroughTable(t *testing.T) {
	conns := []table.Connection{{Pre: "A", Post: "B", Weight: 3, Layer: -1}}
	wb := writeAndOpen(t, conns)

	rows, err := wb.GetRows(CONNECTIONS_SHEET)
	require.NoError(t, err)
	parsed, err := table.Parse(rows)
	require.NoError(t, err)
	assert.Equal(t, conns, parsed)
}
