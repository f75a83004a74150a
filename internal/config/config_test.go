package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervals_SortsAscending(t *testing.T) {
	days, err := ParseIntervals("7, 1,15,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7, 15}, days)
}

func TestParseIntervals_RejectsDuplicates(t *testing.T) {
	_, err := ParseIntervals("1,3,3")
	assert.ErrorIs(t, err, ErrInvalidIntervals)
}

func TestParseIntervals_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "a,b", "-1", " , "} {
		_, err := ParseIntervals(raw)
		assert.ErrorIs(t, err, ErrInvalidIntervals, raw)
	}
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("REVISION_INTERVALS", "2,4")
	t.Setenv("UNDO_WINDOW", "10m")
	t.Setenv("TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)

	days, err := cfg.Intervals()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, days)
	assert.Equal(t, 10*time.Minute, cfg.UndoWindow)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.RefreshOriginalOnSolve)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

func TestLocation_NilConfig(t *testing.T) {
	var cfg *Config
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_InvalidMailFrom(t *testing.T) {
	t.Setenv("MAIL_FROM", "Revision Mania no-reply")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_FROM")
}
