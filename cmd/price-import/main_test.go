package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
)

const priceFile = `timestamp,price
2024-01-01T00:00:00Z,42000
2024-01-01T01:00:00Z,42150.5
2024-01-01T02:00:00Z,41980
`

func runImport(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Setenv("LOG_FILE", "")

	base := []string{"-env", filepath.Join(t.TempDir(), "missing.env"), "-from", "2024-01-01", "-to", "2024-01-02"}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(base, args...), &stdout, &stderr)
	return code, stdout.String() + stderr.String()
}

func TestRun_FileToArchive(t *testing.T) {
	src := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(src, []byte(priceFile), 0644))
	root := t.TempDir()

	code, output := runImport(t, "-assets", "btc", "-file", src, "-data-root", root)
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "BTC/USDT: 3 samples")

	archived, attempted := data.FindDataFile(root, "bybit", "BTCUSDT", "1h")
	require.NotEmpty(t, archived, attempted)

	samples, err := data.NewCSVFileProvider(archived, nil).LoadFile(archived)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 42150.5, samples[1].Price)
}

func TestRun_FileOutsideRange(t *testing.T) {
	src := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(src, []byte(priceFile), 0644))

	code, output := runImport(t, "-assets", "BTC", "-file", src, "-data-root", t.TempDir(), "-from", "2023-01-01", "-to", "2023-02-01")
	assert.Equal(t, 3, code, output)
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown target", []string{"-target", "s3"}},
		{"bad interval", []string{"-interval", "7m"}},
		{"no assets", []string{"-assets", " , "}},
		{"file with many assets", []string{"-assets", "BTC,ETH", "-file", os.Args[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, output := runImport(t, tt.args...)
			assert.Equal(t, 2, code, output)
		})
	}
}

func TestRun_PostgresNeedsDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	src := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(src, []byte(priceFile), 0644))

	code, output := runImport(t, "-assets", "BTC", "-file", src, "-target", "postgres")
	assert.Equal(t, 2, code, output)
	assert.Contains(t, output, "DATABASE_URL")
}
