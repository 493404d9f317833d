package data

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// archiveFileName is the file holding one symbol/interval series inside the archive
const archiveFileName = "candles.csv"

// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers
func ConvertIntervalToMinutes(interval string) string {
	if _, err := strconv.Atoi(interval); err == nil {
		return interval
	}

	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return interval
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil {
		return interval
	}

	switch interval[len(interval)-1:] {
	case "m":
		return strconv.Itoa(num)
	case "h":
		return strconv.Itoa(num * 60)
	case "d":
		return strconv.Itoa(num * 24 * 60)
	case "w":
		return strconv.Itoa(num * 7 * 24 * 60)
	default:
		return interval
	}
}

// categoriesFor lists the market categories searched for an exchange
func categoriesFor(exchange string) []string {
	switch strings.ToLower(exchange) {
	case "bybit":
		return []string{"spot", "linear", "inverse"}
	case "binance":
		return []string{"spot", "futures"}
	default:
		return []string{"spot", "futures", "linear", "inverse"}
	}
}

// ArchivePath is where a series lives in the archive:
// {dataRoot}/{exchange}/{category}/{symbol}/{intervalMinutes}/candles.csv
func ArchivePath(dataRoot, exchange, category, symbol, interval string) string {
	return filepath.Join(dataRoot, exchange, category, strings.ToUpper(symbol), ConvertIntervalToMinutes(interval), archiveFileName)
}

// FindDataFile returns the first existing archive file for the symbol along
// with every path that was tried. The path is empty when nothing exists.
func FindDataFile(dataRoot, exchange, symbol, interval string) (string, []string) {
	var attempted []string
	for _, category := range categoriesFor(exchange) {
		path := ArchivePath(dataRoot, exchange, category, symbol, interval)
		attempted = append(attempted, path)
		if _, err := os.Stat(path); err == nil {
			return path, attempted
		}
	}
	return "", attempted
}

// ArchivedSymbols lists the symbols that have a series for the interval, in directory order
func ArchivedSymbols(dataRoot, exchange, interval string) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, category := range categoriesFor(exchange) {
		entries, err := os.ReadDir(filepath.Join(dataRoot, exchange, category))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || seen[entry.Name()] {
				continue
			}
			if _, err := os.Stat(ArchivePath(dataRoot, exchange, category, entry.Name(), interval)); err == nil {
				seen[entry.Name()] = true
				symbols = append(symbols, entry.Name())
			}
		}
	}
	return symbols
}
