package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ calculation.Logger = (*ZerologLogger)(nil)
	_ calculation.Logger = NopLogger{}
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "test", "debug")
	require.NoError(t, err)
	l.Debugf("debug %d", 1)
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")

	out := buf.String()
	assert.Contains(t, out, "debug 1")
	assert.Contains(t, out, "info test")
	assert.Contains(t, out, "component=")
	assert.False(t, json.Valid([]byte(strings.Split(out, "\n")[0])), "dev output is not JSON")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "engine", "warn")
	require.NoError(t, err)

	l.Debugf("dropped")
	l.Infof("dropped")
	l.Warnf("baseline %s missing", "stated_policies")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "baseline stated_policies missing", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "cli", "")
	require.NoError(t, err)
	l.With("scenario", "net_zero").Infof("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "net_zero", entry["scenario"])
	assert.Equal(t, "cli", entry["component"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARNING ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWithWriterRejectsUnknownLevel(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "x", "loud")
	assert.Error(t, err)
}
