package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mvr/internal/config"
)

func TestValidateValidConfigs(t *testing.T) {
	dir := t.TempDir()
	desk := writeFile(t, dir, "desk.yaml", deskConfig)
	cave := writeFile(t, dir, "cave.toml", `[engine]
frame_rate = 90.0

[[windows]]
title = "front"
stereo_type = "quad-buffered"

[[devices]]
name = "Wand"
kind = "null"
`)

	out, err := execute(t, "validate", desk, cave)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+desk+": 2 window(s), 3 viewport(s), 0 device(s)")
	assert.Contains(t, out, "✓ "+cave+": 1 window(s), 2 viewport(s), 1 device(s)")
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	desk := writeFile(t, dir, "desk.yaml", deskConfig)

	out, err := execute(t, "--format", "json", "validate", desk)
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Configs, 1)
	assert.Equal(t, 3, result.Configs[0].Viewports)
}

func TestValidateInvalidConfigs(t *testing.T) {
	dir := t.TempDir()
	desk := writeFile(t, dir, "desk.yaml", deskConfig)
	tooManyCameras := writeFile(t, dir, "cameras.yaml", `windows:
  - title: mono
    cameras:
      - eye: cyclops
      - eye: left
`)
	duplicate := writeFile(t, dir, "devices.yaml", `windows:
  - title: main
devices:
  - name: Wand
    kind: "null"
  - name: Wand
    kind: script
`)

	tests := []struct {
		name  string
		path  string
		code  config.LoadErrorCode
		field string
		msg   string
	}{
		{"camera count", tooManyCameras, config.LoadErrorInvalid, "windows.0.cameras", "1 viewports"},
		{"duplicate device", duplicate, config.LoadErrorInvalid, "devices.1.name", `duplicate device name "Wand"`},
		{"missing file", filepath.Join(dir, "missing.yaml"), config.LoadErrorRead, "", ""},
		{"unknown extension", filepath.Join(dir, "desk.json"), config.LoadErrorUnknownFormat, "", ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "validate", desk, tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var result ValidationResult
			resp := decodeData(t, out, &result)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeConfig, resp.Error.Code)

			assert.False(t, result.Valid)
			require.Len(t, result.Configs, 2)
			assert.True(t, result.Configs[0].Valid)

			report := result.Configs[1]
			assert.False(t, report.Valid)
			assert.Equal(t, string(tt.code), report.Code)
			assert.Equal(t, tt.field, report.Field)
			assert.Contains(t, report.Message, tt.msg)
		})
	}
}

func TestValidateTextFailure(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "windows: []\n")

	out, err := execute(t, "validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "[SCHEMA]")
}

func TestValidateMissingArgs(t *testing.T) {
	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
