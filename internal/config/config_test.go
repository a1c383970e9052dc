package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xmldiffview.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
format = "html"
title = "Config diff"
indent = 4
show_ignored = false
`)
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, cfg.Format)
	assert.Equal(t, "Config diff", cfg.Title)
	assert.Equal(t, 4, cfg.Indent)
	assert.False(t, cfg.ShowIgnored)
	assert.Equal(t, 60, cfg.PaneWidth, "unset keys keep their defaults")
}

func TestLoadFromPathErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: `format = `},
		{name: "unknown key", content: `colour = true`},
		{name: "wrong type", content: `indent = "four"`},
		{name: "invalid value", content: `format = "pdf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Format = "pdf"
	cfg.Indent = -1
	cfg.SideBySide = true
	cfg.PaneWidth = 4

	err := cfg.Validate()
	require.Error(t, err)

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve ValidationError
		require.True(t, errors.As(e, &ve))
		fields = append(fields, ve.Field)
	}
	assert.Equal(t, []string{"format", "indent", "pane_width"}, fields)

	cfg.SideBySide = false
	cfg.Format, cfg.Indent = FormatText, 2
	assert.NoError(t, cfg.Validate())
}
