package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// CSVProvider serves price series from CSV files, either a single file or an
// archive laid out as {root}/{exchange}/{category}/{symbol}/{interval}/candles.csv
type CSVProvider struct {
	dataRoot string
	exchange string
	interval string
	file     string
	log      *zap.Logger
}

// NewCSVProvider creates a provider reading from a data archive
func NewCSVProvider(dataRoot, exchange, interval string, log *zap.Logger) *CSVProvider {
	return &CSVProvider{
		dataRoot: dataRoot,
		exchange: strings.ToLower(exchange),
		interval: interval,
		log:      logger.OrNop(log),
	}
}

// NewCSVFileProvider creates a provider that serves one file for every query
func NewCSVFileProvider(path string, log *zap.Logger) *CSVProvider {
	return &CSVProvider{
		file: path,
		log:  logger.OrNop(log),
	}
}

// Name returns the name of the data provider
func (p *CSVProvider) Name() string {
	if p.file != "" {
		return "CSV File " + filepath.Base(p.file)
	}
	return "CSV Archive " + p.exchange
}

// FetchPrices loads the series for the query's symbol and trims it to the query range
func (p *CSVProvider) FetchPrices(ctx context.Context, q PriceQuery) ([]types.PriceSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	path := p.file
	if path == "" {
		var attempted []string
		path, attempted = FindDataFile(p.dataRoot, p.exchange, q.Symbol(), p.interval)
		if path == "" {
			p.log.Warn("no archive file found",
				zap.String("symbol", q.Symbol()),
				zap.String("interval", p.interval),
				zap.Strings("attempted", attempted))
			return nil, fmt.Errorf("%s %s interval %s: %w", p.exchange, q.Symbol(), p.interval, ErrDataNotFound)
		}
	}

	samples, err := p.LoadFile(path)
	if err != nil {
		return nil, err
	}

	return Normalize(samples, q.From, q.To), nil
}

// ListAssets lists archived symbols quoted in currency. A single file provider lists nothing.
func (p *CSVProvider) ListAssets(ctx context.Context, currency string, limit int) ([]types.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.file != "" {
		return []types.Asset{}, nil
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	assets := make([]types.Asset, 0)
	for _, symbol := range ArchivedSymbols(p.dataRoot, p.exchange, p.interval) {
		if currency != "" && (!strings.HasSuffix(symbol, currency) || symbol == currency) {
			continue
		}
		id := strings.TrimSuffix(symbol, currency)
		assets = append(assets, types.Asset{
			ID:       id,
			Symbol:   symbol,
			Name:     id,
			Currency: currency,
		})
		if limit > 0 && len(assets) >= limit {
			break
		}
	}
	return assets, nil
}

// LoadFile parses a CSV price file, skipping malformed rows
func (p *CSVProvider) LoadFile(path string) ([]types.PriceSample, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrDataNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s is empty: %w", path, ErrDataNotFound)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	format := p.formatFor(header)

	var samples []types.PriceSample
	lineNum := 1
	skipped := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			skipped++
			p.log.Debug("insufficient columns", zap.Int("line", lineNum), zap.Int("columns", len(record)))
			continue
		}

		timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat)
		if err != nil {
			skipped++
			p.log.Debug("invalid timestamp", zap.Int("line", lineNum), zap.Error(err))
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[format.PriceCol]), 64)
		if err != nil || price <= 0 {
			skipped++
			p.log.Debug("invalid price", zap.Int("line", lineNum), zap.String("value", record[format.PriceCol]))
			continue
		}

		samples = append(samples, types.PriceSample{Timestamp: timestamp, Price: price})
	}

	if skipped > 0 {
		p.log.Warn("skipped malformed rows", zap.String("file", filepath.Base(path)), zap.Int("rows", skipped))
	}
	p.log.Debug("loaded price file", zap.String("file", filepath.Base(path)), zap.Int("samples", len(samples)))

	return samples, nil
}

// formatFor picks the column mapping from the header names
func (p *CSVProvider) formatFor(header []string) CSVColumnMapping {
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "close":
			format := CandleCSVFormat
			format.PriceCol = i
			format.MinColumns = max(i+1, 2)
			return format
		case "price":
			format := PriceCSVFormat
			format.PriceCol = i
			format.MinColumns = max(i+1, 2)
			return format
		}
	}

	if len(header) >= CandleCSVFormat.MinColumns {
		return CandleCSVFormat
	}
	return PriceCSVFormat
}

// parseTimestamp accepts unix milliseconds, the given layout, RFC3339 or a plain date
func parseTimestamp(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, l := range []string{layout, time.RFC3339, "2006-01-02"} {
		if l == "" {
			continue
		}
		if t, err := time.Parse(l, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
