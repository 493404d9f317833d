package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// WriteCSV saves samples as a timestamp,price file that CSVProvider reads back.
// Parent directories are created.
func WriteCSV(path string, samples []types.PriceSample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"timestamp", "price"}); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
