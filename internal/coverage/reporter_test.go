package coverage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasmine-go/jasmine/internal/event"
)

type stubLocator struct {
	src    string
	report string
}

func (s stubLocator) SrcDir() string    { return s.src }
func (s stubLocator) ReportDir() string { return s.report }

const instrumented = "/project/tmp/javascripts/instrumented"

func viewerFS(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(instrumented, 0755))
	for _, asset := range ViewerAssets {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(instrumented, asset), []byte("/* "+asset+" */"), 0644))
	}
	return fsys
}

func TestReporter_Save(t *testing.T) {
	fsys := viewerFS(t)
	bus := event.NewBus()
	r := NewReporter(root, stubLocator{src: instrumented, report: "public/coverage"}, fsys, bus)

	var reported event.CoverageReportedData
	bus.Subscribe(event.CoverageReported, func(e event.Event) {
		reported = e.Data.(event.CoverageReportedData)
	})

	report, err := r.Save([]byte(`{"b.js":[null,1,0],"a.js":{"source":["x"]}}`))
	require.NoError(t, err)

	dir := "/project/public/coverage"
	assert.Equal(t, dir, report.Dir)
	assert.Equal(t, filepath.Join(dir, ReportFile), report.File)
	assert.Len(t, report.ID, 26)
	assert.Same(t, report, reported.Report)

	content, err := afero.ReadFile(fsys, report.File)
	require.NoError(t, err)
	assert.Equal(t, `{
  "b.js": [
    null,
    1,
    0
  ],
  "a.js": {
    "source": [
      "x"
    ]
  }
}
`, string(content))
	assert.Equal(t, len(content), report.Bytes)

	for _, asset := range ViewerAssets {
		exists, err := afero.Exists(fsys, filepath.Join(dir, asset))
		require.NoError(t, err)
		assert.True(t, exists, "asset %s", asset)
	}

	script, err := afero.ReadFile(fsys, filepath.Join(dir, "jscoverage.js"))
	require.NoError(t, err)
	assert.Equal(t, "/* jscoverage.js */\njscoverage_isReport = true;\n", string(script))
}

func TestReporter_SaveTwiceRecopiesViewer(t *testing.T) {
	fsys := viewerFS(t)
	r := NewReporter(root, stubLocator{src: instrumented, report: "/reports"}, fsys, event.NewBus())

	_, err := r.Save([]byte(`{}`))
	require.NoError(t, err)
	_, err = r.Save([]byte(`{}`))
	require.NoError(t, err)

	script, err := afero.ReadFile(fsys, "/reports/jscoverage.js")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(script), "jscoverage_isReport"))
}

func TestReporter_InvalidPayload(t *testing.T) {
	fsys := viewerFS(t)
	r := NewReporter(root, stubLocator{src: instrumented, report: "public/coverage"}, fsys, event.NewBus())

	for _, payload := range []string{"", "{", "not json"} {
		_, err := r.Save([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidPayload, "payload %q", payload)
	}

	exists, err := afero.DirExists(fsys, "/project/public/coverage")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReporter_MissingViewerAsset(t *testing.T) {
	fsys := afero.NewMemMapFs()
	r := NewReporter(root, stubLocator{src: instrumented, report: "public/coverage"}, fsys, event.NewBus())

	_, err := r.Save([]byte(`{"a.js":[1]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jscoverage.css")

	// The data file is written before assets are copied.
	exists, err := afero.Exists(fsys, "/project/public/coverage/jscoverage.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReporter_UnwritableReportDir(t *testing.T) {
	fsys := afero.NewReadOnlyFs(viewerFS(t))
	r := NewReporter(root, stubLocator{src: instrumented, report: "public/coverage"}, fsys, event.NewBus())

	_, err := r.Save([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create report dir")
}
