package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrices = []float64{100, 94, 89, 101, 106, 111, 99, 104}

func writePrices(t *testing.T) string {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var b strings.Builder
	b.WriteString("time,price\n")
	for i, p := range testPrices {
		fmt.Fprintf(&b, "%d,%g\n", start.Add(time.Duration(i)*time.Hour).UnixMilli(), p)
	}

	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func runCommand(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Setenv("LOG_FILE", "")

	base := []string{"-env", filepath.Join(t.TempDir(), "missing.env"), "-from", "2024-01-01", "-to", "2024-01-02"}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(base, args...), &stdout, &stderr)
	return code, stdout.String() + stderr.String()
}

func TestRun_Simulation(t *testing.T) {
	data := writePrices(t)
	out := t.TempDir()

	code, output := runCommand(t,
		"-data", data, "-lower", "90", "-upper", "110", "-grids", "5", "-investment", "1000", "-output", out)

	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "GRID SIMULATION RESULTS")
	assert.FileExists(t, filepath.Join(out, "result.json"))
	assert.FileExists(t, filepath.Join(out, "transactions.csv"))
	assert.FileExists(t, filepath.Join(out, "grid_report.xlsx"))
	assert.NoFileExists(t, filepath.Join(out, "sweep.csv"))

	raw, err := os.ReadFile(filepath.Join(out, "result.json"))
	require.NoError(t, err)
	var doc struct {
		Config struct {
			NumGrids int `json:"num_grids"`
		} `json:"config"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 5, doc.Config.NumGrids)
}

func TestRun_ResolvesBoundsFromSeries(t *testing.T) {
	data := writePrices(t)

	code, output := runCommand(t, "-data", data, "-grids", "5", "-console-only")

	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "$89.00 - $111.00")
}

func TestRun_Sweep(t *testing.T) {
	data := writePrices(t)
	out := t.TempDir()

	code, output := runCommand(t,
		"-data", data, "-lower", "90", "-upper", "110",
		"-sweep", "grids=5:10:5,investment=1000:2000:1000", "-report", "csv", "-output", out)

	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "Best of 4 configurations")
	assert.FileExists(t, filepath.Join(out, "sweep.csv"))
	assert.FileExists(t, filepath.Join(out, "transactions.csv"))
	assert.NoFileExists(t, filepath.Join(out, "result.json"))
}

func TestRun_ExitCodes(t *testing.T) {
	data := writePrices(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"grid count below limit", []string{"-data", data, "-grids", "3"}, 2},
		{"unknown report format", []string{"-data", data, "-report", "pdf"}, 2},
		{"inverted bounds", []string{"-data", data, "-lower", "120", "-upper", "100"}, 2},
		{"bad sweep", []string{"-data", data, "-sweep", "levels=1:2"}, 2},
		{"no samples in range", []string{"-data", data, "-from", "2023-01-01", "-to", "2023-02-01"}, 3},
		{"missing archive", []string{"-data-root", t.TempDir(), "-asset", "DOGE"}, 3},
		{"unknown flag", []string{"-nope"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, output := runCommand(t, append(tt.args, "-console-only")...)
			assert.Equal(t, tt.code, code, output)
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, output := runCommand(t, "-version")

	assert.Equal(t, 0, code)
	assert.Contains(t, output, appName+" v")
}
