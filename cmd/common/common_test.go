package common

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
)

func TestLogger_SilentAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Level: LogLevelInfo, Out: &buf}

	l.Info("hello %d", 1)
	l.Debug("hidden")
	assert.Contains(t, buf.String(), "[INFO]  hello 1")
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	l.SetSilentMode(true)
	l.Info("quiet")
	l.Success("quiet")
	l.Error("boom")
	assert.Equal(t, "[ERROR] boom\n", buf.String())
}

func TestEnvLoader_Connections(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BYBIT_TESTNET", "true")
	t.Setenv("BYBIT_API_KEY", " key ")

	e := NewEnvLoader(&Logger{Out: &bytes.Buffer{}})
	conn := e.Connections()

	assert.Equal(t, "redis://localhost:6379/0", conn.RedisURL)
	assert.Empty(t, conn.DatabaseURL)
	assert.True(t, conn.BybitTestnet)
	assert.Equal(t, "key", conn.BybitAPIKey)
}

func TestEnvLoader_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GRID_SIM_WORKERS", "many")
	t.Setenv("GRID_SIM_FLAG", "maybe")

	var buf bytes.Buffer
	e := NewEnvLoader(&Logger{Level: LogLevelWarn, Out: &buf})

	assert.Equal(t, 4, e.GetEnvInt("GRID_SIM_WORKERS", 4))
	assert.True(t, e.GetEnvBool("GRID_SIM_FLAG", true))
	assert.Contains(t, buf.String(), "GRID_SIM_WORKERS")
}

func TestEnvLoader_ValidateRequiredEnvVars(t *testing.T) {
	t.Setenv("GRID_SIM_PRESENT", "yes")
	t.Setenv("GRID_SIM_BLANK", "  ")
	e := NewEnvLoader(&Logger{Out: &bytes.Buffer{}})

	assert.NoError(t, e.ValidateRequiredEnvVars([]string{"GRID_SIM_PRESENT"}))

	err := e.ValidateRequiredEnvVars([]string{"GRID_SIM_PRESENT", "GRID_SIM_BLANK", "GRID_SIM_UNSET_VALUE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRID_SIM_BLANK, GRID_SIM_UNSET_VALUE")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorCategoryConfiguration, appErr.Category)
	assert.Equal(t, 2, appErr.ExitCode())
}

func TestEnvLoader_LoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRID_SIM_TEST_VALUE=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GRID_SIM_TEST_VALUE") })

	e := NewEnvLoader(&Logger{Out: &bytes.Buffer{}})
	require.NoError(t, e.LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("GRID_SIM_TEST_VALUE"))

	assert.NoError(t, e.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator().
		ValidateInt("grids", 0, 5, 200).
		ValidateChoice("source", "", []string{"csv"})
	assert.NoError(t, v.GetError())

	v.ValidateInt("grids", 3, 5, 200).ValidateChoice("report", "pdf", []string{"xlsx", "csv"})
	err := v.GetError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grids must be between 5 and 200")
	assert.Contains(t, err.Error(), "report must be one of [xlsx, csv]")
}

func TestCheckHelpAndVersion(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse([]string{"-version"}))

	var buf bytes.Buffer
	done := CheckHelpAndVersion(&buf, "grid-backtest", flags, NewUsageFormatter("grid-backtest", "test"), fs)
	assert.True(t, done)
	assert.Contains(t, buf.String(), "grid-backtest v"+ProjectVersion)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0ms", FormatDuration(0))
	assert.Equal(t, "1.5s", FormatDuration(1500*1e6))
}
