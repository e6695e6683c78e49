package usecase

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

const validKPIMap = `{
  "total_nodes": 1,
  "tree": {"id": "root", "name": "Ops", "level": 0, "children": [
    {"id": "p", "name": "P", "level": 1, "children": [
      {"id": "m", "name": "M", "level": 2, "children": [
        {"id": "c", "name": "C", "level": 3, "children": [
          {"id": "kpi_1", "name": "Lead Volume", "level": 4}
        ]}
      ]}
    ]}
  ]},
  "nodes": [{"id": "kpi_1", "name": "Lead Volume", "context": {}, "current_state": {}, "root_causes": [], "predictive_insights": {}, "trend_analysis": {}}]
}`

var defaultRequired = []string{"index.html", "kpi_map.json", "people_data.json"}

func newTestUseCase(fsys fstest.MapFS) *VerifyAssetsUseCase {
	var buf bytes.Buffer
	return NewVerifyAssetsUseCase(fsys, nil, logger.NewWithWriter(&buf, "error", logger.FormatText))
}

func TestVerifyAssetsUseCase_OK(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":       {Data: []byte("<html></html>")},
		"kpi_map.json":     {Data: []byte(validKPIMap)},
		"people_data.json": {Data: []byte(`{"people": []}`)},
	}

	report, err := newTestUseCase(fsys).Execute(context.Background(), VerifyAssetsCommand{RequiredFiles: defaultRequired})
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	require.Len(t, report.Files, 3)
	assert.True(t, report.Files[0].Present)
	assert.Equal(t, int64(13), report.Files[0].Size)
	require.NotNil(t, report.KPIMap)
	assert.Equal(t, 1, report.KPIMap.Leaves)
	assert.Equal(t, "ok: 3 files checked, 0 errors, 0 warnings", Summary(report))
}

func TestVerifyAssetsUseCase_MissingAndInvalid(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":       {Data: []byte("<html></html>")},
		"people_data.json": {Data: []byte(`{"people": [`)},
	}

	report, err := newTestUseCase(fsys).Execute(context.Background(), VerifyAssetsCommand{RequiredFiles: defaultRequired})
	require.NoError(t, err)

	assert.False(t, report.OK)
	assert.Equal(t, []string{
		"error: kpi_map.json: required file is missing",
		"error: people_data.json: file is not valid JSON",
	}, report.Errors)
	assert.Nil(t, report.KPIMap)
	assert.False(t, report.Files[1].Present)
}

func TestVerifyAssetsUseCase_DirectoryIsNotAFile(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html/nested.html": {Data: []byte("x")},
	}

	report, err := newTestUseCase(fsys).Execute(context.Background(), VerifyAssetsCommand{RequiredFiles: []string{"index.html"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"error: index.html: required file is a directory"}, report.Errors)
}

func TestVerifyAssetsUseCase_WarningsStillPass(t *testing.T) {
	fsys := fstest.MapFS{
		"kpi_map.json": {Data: []byte(`{"tree": {"id": "root", "name": "Ops", "level": 0}, "nodes": [{"id": "kpi_1", "name": "Lead Volume"}]}`)},
	}

	report, err := newTestUseCase(fsys).Execute(context.Background(), VerifyAssetsCommand{RequiredFiles: []string{"kpi_map.json"}})
	require.NoError(t, err)

	assert.True(t, report.OK)
	assert.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "kpi_1 is missing card sections")
}

func TestVerifyAssetsUseCase_KPIMapCheckedWhenNotRequired(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":   {Data: []byte("<html></html>")},
		"kpi_map.json": {Data: []byte(`{"nodes": []}`)},
	}

	report, err := newTestUseCase(fsys).Execute(context.Background(), VerifyAssetsCommand{RequiredFiles: []string{"index.html"}})
	require.NoError(t, err)

	assert.False(t, report.OK)
	assert.Equal(t, []string{"error: kpi_map.json: kpi map has no tree"}, report.Errors)
}

func TestVerifyAssetsUseCase_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestUseCase(fstest.MapFS{}).Execute(ctx, VerifyAssetsCommand{RequiredFiles: defaultRequired})
	assert.ErrorIs(t, err, context.Canceled)
}
