package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vispath/color"
	"vispath/config"
	"vispath/export"
	"vispath/logger"
)

const pathsCSV = `pre,post,weight
LC10,LT52,12
LT52,MBON01,4
LC10,MBON01,1
MBON01,MBON01,2
`

func setup(t *testing.T) (*config.Config, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/paths.csv", []byte(pathsCSV), 0o644))
	cfg := config.Default()
	cfg.PathFile = "data/paths.csv"
	cfg.OutputFolder = "out"
	return cfg, fs
}

func TestRunWritesOutputs(t *testing.T) {
	cfg, fs := setup(t)
	res, err := New(cfg, fs, logger.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Connections, 4)
	assert.Equal(t, 3, res.Pathway.NumNodes())
	assert.Equal(t, 3, res.Pathway.NumEdges())
	assert.Equal(t, []string{
		filepath.Join("out", SANKEY_FILE),
		filepath.Join("out", HEATMAP_FILE),
		filepath.Join("out", NETWORK_FILE),
		filepath.Join("out", EXCEL_FILE),
	}, res.Files)

	for _, f := range res.Files {
		info, err := fs.Stat(f)
		require.NoError(t, err, f)
		assert.Positive(t, info.Size(), f)
	}
	exists, err := afero.Exists(fs, filepath.Join("out", NETWORK_PNG_FILE))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunExcelKeepsEveryRecord(t *testing.T) {
	cfg, fs := setup(t)
	res, err := New(cfg, fs, logger.Discard()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Pathway.SelfLoops(), 1)

	f, err := fs.Open(filepath.Join("out", EXCEL_FILE))
	require.NoError(t, err)
	defer f.Close()
	wb, err := excelize.OpenReader(f)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(export.CONNECTIONS_SHEET)
	require.NoError(t, err)
	assert.Len(t, rows, len(res.Connections)+1, "header plus one row per record")
	assert.Equal(t, []string{"MBON01", "MBON01", "2"}, rows[len(rows)-1][:3])
}

func TestRunRejectsNonFiniteWeight(t *testing.T) {
	cfg, fs := setup(t)
	require.NoError(t, afero.WriteFile(fs, cfg.PathFile, []byte("pre,post,weight\nA,B,NaN\n"), 0o644))
	_, err := New(cfg, fs, logger.Discard()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load")
	assert.Contains(t, err.Error(), `invalid weight "NaN"`)
	exists, err := afero.Exists(fs, filepath.Join("out", SANKEY_FILE))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunPNGAndTrace(t *testing.T) {
	cfg, fs := setup(t)
	cfg.PNG = true
	cfg.Trace = true
	cfg.NetworkLayout = "spring"

	res, err := New(cfg, fs, logger.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Files, filepath.Join("out", NETWORK_PNG_FILE))

	raw, err := afero.ReadFile(fs, filepath.Join("out", TRACE_FILE))
	require.NoError(t, err)
	var doc struct {
		TraceEvents []struct {
			Name string `json:"name"`
		} `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	names := map[string]int{}
	for _, e := range doc.TraceEvents {
		names[e.Name]++
	}
	for _, stage := range []string{"load", "graph", "layout", "sankey", "heatmap", "network", "png", "excel"} {
		assert.Equal(t, 2, names[stage], stage)
	}
}

func TestRunEmptyNetwork(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.GenerateEmptyNetwork = true
	cfg.PathFile = "ignored.xlsx"

	ctx := logger.ContextWithLogger(context.Background(), logger.Discard())
	res, err := New(cfg, fs, nil).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Connections)
	assert.Equal(t, 0, res.Pathway.NumNodes())
	exists, err := afero.DirExists(fs, config.DefaultFolder)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunShowFigure(t *testing.T) {
	cfg, fs := setup(t)
	cfg.ShowFigure = true

	var opened []string
	v := New(cfg, fs, logger.Discard()).WithOpener(func(path string) error {
		opened = append(opened, path)
		return errors.New("no display")
	})
	_, err := v.Run(context.Background())
	require.NoError(t, err, "opener failures are only logged")
	assert.Equal(t, []string{
		filepath.Join("out", SANKEY_FILE),
		filepath.Join("out", HEATMAP_FILE),
		filepath.Join("out", NETWORK_FILE),
	}, opened)
}

func TestRunErrors(t *testing.T) {
	cfg, fs := setup(t)
	cfg.PathFile = "data/missing.csv"
	_, err := New(cfg, fs, logger.Discard()).Run(context.Background())
	assert.Error(t, err)

	cfg, fs = setup(t)
	cfg.LinkColor = "rgba(74,144,226)"
	_, err = New(cfg, fs, logger.Discard()).Run(context.Background())
	assert.ErrorIs(t, err, color.ErrMalformedColorSpec)

	cfg, fs = setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(cfg, fs, logger.Discard()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
