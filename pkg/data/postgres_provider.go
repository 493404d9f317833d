package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

const priceSchema = `
CREATE TABLE IF NOT EXISTS price_samples (
	asset    TEXT             NOT NULL,
	currency TEXT             NOT NULL,
	ts       TIMESTAMPTZ      NOT NULL,
	price    DOUBLE PRECISION NOT NULL CHECK (price > 0),
	PRIMARY KEY (asset, currency, ts)
)`

const (
	importStagingTable = "price_samples_import"

	createImportStaging = `CREATE TEMP TABLE price_samples_import
	(LIKE price_samples INCLUDING DEFAULTS) ON COMMIT DROP`

	mergeImportStaging = `INSERT INTO price_samples (asset, currency, ts, price)
	SELECT asset, currency, ts, price FROM price_samples_import
	ON CONFLICT (asset, currency, ts) DO NOTHING`
)

// DB is the subset of pgxpool.Pool used by the provider
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresProvider serves archived price series from the price_samples table
type PostgresProvider struct {
	db  DB
	log *zap.Logger
}

// NewPostgresPool creates a connection pool and verifies it
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresProvider creates a provider on an existing pool
func NewPostgresProvider(db DB, log *zap.Logger) *PostgresProvider {
	return &PostgresProvider{db: db, log: logger.OrNop(log)}
}

// Name returns the name of the data provider
func (p *PostgresProvider) Name() string {
	return "Postgres"
}

// EnsureSchema creates the price table when missing
func (p *PostgresProvider) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, priceSchema); err != nil {
		return fmt.Errorf("create price_samples: %w", err)
	}
	return nil
}

// FetchPrices reads the query range ordered by timestamp
func (p *PostgresProvider) FetchPrices(ctx context.Context, q PriceQuery) ([]types.PriceSample, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.Normalize()

	sql, args := priceRangeQuery(q)
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", q.Symbol(), err)
	}
	defer rows.Close()

	var samples []types.PriceSample
	for rows.Next() {
		var s types.PriceSample
		if err := rows.Scan(&s.Timestamp, &s.Price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		s.Timestamp = s.Timestamp.UTC()
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read prices %s: %w", q.Symbol(), err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", q.Symbol(), ErrDataNotFound)
	}
	return samples, nil
}

// priceRangeQuery builds the select for a query; zero bounds are open
func priceRangeQuery(q PriceQuery) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ts, price FROM price_samples WHERE asset = $1 AND currency = $2`)
	args := []any{q.AssetID, q.Currency}

	if !q.From.IsZero() {
		args = append(args, q.From.UTC())
		fmt.Fprintf(&sb, " AND ts >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To.UTC())
		fmt.Fprintf(&sb, " AND ts <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY ts")
	return sb.String(), args
}

// ListAssets lists archived assets quoted in currency, largest archives first
func (p *PostgresProvider) ListAssets(ctx context.Context, currency string, limit int) ([]types.Asset, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.Query(ctx,
		`SELECT asset, currency,
		        (SELECT price FROM price_samples l
		          WHERE l.asset = s.asset AND l.currency = s.currency
		          ORDER BY ts DESC LIMIT 1) AS last_price
		 FROM price_samples s
		 WHERE $1 = '' OR currency = $1
		 GROUP BY asset, currency
		 ORDER BY COUNT(*) DESC, asset
		 LIMIT $2`, currency, limit)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]types.Asset, 0)
	for rows.Next() {
		var a types.Asset
		if err := rows.Scan(&a.ID, &a.Currency, &a.LastPrice); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		a.Symbol = a.ID + a.Currency
		a.Name = a.ID
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Import bulk-loads samples for an asset. Rows are copied into a staging
// table and merged, so samples already stored are skipped and overlapping
// ranges can be imported again. Returns the number of new rows.
func (p *PostgresProvider) Import(ctx context.Context, asset, currency string, samples []types.PriceSample) (int64, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	currency = strings.ToUpper(strings.TrimSpace(currency))

	start := time.Now()
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin %s%s import: %w", asset, currency, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createImportStaging); err != nil {
		return 0, fmt.Errorf("create import staging table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{importStagingTable},
		[]string{"asset", "currency", "ts", "price"},
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			return []any{asset, currency, samples[i].Timestamp.UTC(), samples[i].Price}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy %s%s prices: %w", asset, currency, err)
	}

	tag, err := tx.Exec(ctx, mergeImportStaging)
	if err != nil {
		return 0, fmt.Errorf("merge %s%s prices: %w", asset, currency, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s%s import: %w", asset, currency, err)
	}

	inserted := tag.RowsAffected()
	p.log.Info("imported price samples",
		zap.String("asset", asset),
		zap.String("currency", currency),
		zap.Int64("copied", copied),
		zap.Int64("inserted", inserted),
		zap.Duration("elapsed", time.Since(start)))
	return inserted, nil
}
