package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupWithWriters_FansOut(t *testing.T) {
	var stderr, file bytes.Buffer
	log := SetupWithWriters(&stderr, &file, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("export finished", "rows", 3)

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), `msg="export finished" rows=3`)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "export finished", entry["msg"])
	assert.Equal(t, float64(3), entry["rows"])
}

func TestSetup_AppendsToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, cleanup, err := Setup(path, slog.LevelWarn)
	require.NoError(t, err)
	log.Warn("row skipped", "row", 7)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"row skipped"`)
	assert.Contains(t, string(data), `"row":7`)
}

func TestSetup_NoFile(t *testing.T) {
	log, cleanup, err := Setup("", slog.LevelInfo)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, cleanup())
}
