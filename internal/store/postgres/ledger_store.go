package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// LedgerStore implements domain.LedgerStore using PostgreSQL. Rows are only
// ever inserted; the table is the durable form of the append-only ledger.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a LedgerStore backed by the given connection pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

var _ domain.LedgerStore = (*LedgerStore)(nil)

// Append inserts one closed trade.
func (s *LedgerStore) Append(ctx context.Context, e domain.LedgerEntry) error {
	const query = `
		INSERT INTO trade_ledger (
			id, asset, direction, token_id, market_type,
			entry_underlying_price, entry_token_price, exit_price,
			size_usd, pnl_pct, pnl_usd, close_reason,
			opened_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14
		)`

	p := e.Position
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Asset.String(), p.Direction.String(), p.TokenID, string(p.MarketType),
		p.EntryUnderlyingPrice, p.EntryTokenPrice, e.ExitPrice,
		p.SizeUSD, e.PnLPct, e.PnLUSD, string(e.CloseReason),
		p.OpenedAt, e.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append ledger entry: %w", err)
	}
	return nil
}

// List returns the most recent closed trades, newest first.
func (s *LedgerStore) List(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	const query = `
		SELECT id, asset, direction, token_id, market_type,
			entry_underlying_price, entry_token_price, exit_price,
			size_usd, pnl_pct, pnl_usd, close_reason,
			opened_at, closed_at
		FROM trade_ledger
		ORDER BY closed_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ledger: %w", err)
	}
	return entries, nil
}

func scanLedgerRows(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var asset, direction, marketType, closeReason string

		if err := rows.Scan(
			&e.Position.ID, &asset, &direction, &e.Position.TokenID, &marketType,
			&e.Position.EntryUnderlyingPrice, &e.Position.EntryTokenPrice, &e.ExitPrice,
			&e.Position.SizeUSD, &e.PnLPct, &e.PnLUSD, &closeReason,
			&e.Position.OpenedAt, &e.ClosedAt,
		); err != nil {
			return nil, err
		}

		a, err := domain.ParseAsset(asset)
		if err != nil {
			return nil, err
		}
		e.Position.Asset = a
		if direction == domain.DirectionDown.String() {
			e.Position.Direction = domain.DirectionDown
		}
		e.Position.MarketType = domain.MarketType(marketType)
		e.Position.State = domain.PositionClosed
		e.CloseReason = domain.CloseReason(closeReason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
