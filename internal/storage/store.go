package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holiuunc/etf-justification-engine/internal/domain"
)

// ErrNoSnapshot is returned when an operation needs a portfolio snapshot
// but none has been persisted yet.
var ErrNoSnapshot = errors.New("no portfolio snapshot exists")

// Store is the persistence layer for runs, snapshots, and transactions.
type Store struct {
	db  *DB
	log zerolog.Logger
}

// NewStore creates a store over an open database.
func NewStore(db *DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("module", "storage").Logger(),
	}
}

// SaveRun persists a run result and the repriced snapshot it carries in one
// transaction. Runs are immutable; re-running a day inserts a new row.
func (s *Store) SaveRun(result *domain.RunResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}
	snapPayload, err := json.Marshal(result.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO runs (id, run_date, regime, payload) VALUES (?, ?, ?, ?)`,
			result.ID, result.Date, string(result.Regime), string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO snapshots (as_of, total_value, payload) VALUES (?, ?, ?)`,
			result.Snapshot.AsOf.Format(time.RFC3339), result.Snapshot.TotalValue, string(snapPayload),
		); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		return nil
	})
}

// LatestRun returns the most recently saved run, or nil when none exists.
func (s *Store) LatestRun() (*domain.RunResult, error) {
	row := s.db.Conn().QueryRow(`SELECT payload FROM runs ORDER BY rowid DESC LIMIT 1`)
	return scanRun(row)
}

// RunByID returns one run by its identifier, or nil when not found.
func (s *Store) RunByID(id string) (*domain.RunResult, error) {
	row := s.db.Conn().QueryRow(`SELECT payload FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// RunsByDate returns all runs for a calendar date, newest first.
func (s *Store) RunsByDate(date string) ([]*domain.RunResult, error) {
	rows, err := s.db.Conn().Query(`SELECT payload FROM runs WHERE run_date = ? ORDER BY rowid DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []*domain.RunResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var result domain.RunResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// LatestSnapshot returns the most recent portfolio snapshot, or nil when
// none has been saved yet.
func (s *Store) LatestSnapshot() (*domain.Snapshot, error) {
	var payload string
	err := s.db.Conn().QueryRow(`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// ApplyRecommendation executes a recommendation against the latest
// snapshot: it adjusts the position and cash balance, journals the trade,
// and persists the new snapshot, all in one transaction.
func (s *Store) ApplyRecommendation(rec domain.Recommendation) (*domain.Transaction, error) {
	if !rec.Action.IsTrade() || rec.Allocation.SharesToTrade == 0 {
		return nil, fmt.Errorf("recommendation for %s has no trade to apply", rec.Symbol)
	}

	snap, err := s.LatestSnapshot()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	next, txn, err := applyTrade(*snap, rec)
	if err != nil {
		return nil, err
	}

	snapPayload, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO transactions (id, tx_date, symbol, action, shares, price, commission, total_cost, thesis)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.Date, txn.Symbol, string(txn.Action), txn.Shares, txn.Price, txn.Commission, txn.TotalCost, txn.Thesis,
		); err != nil {
			return fmt.Errorf("failed to journal transaction: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO snapshots (as_of, total_value, payload) VALUES (?, ?, ?)`,
			next.AsOf.Format(time.RFC3339), next.TotalValue, string(snapPayload),
		); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("symbol", txn.Symbol).
		Str("action", string(txn.Action)).
		Int64("shares", txn.Shares).
		Float64("total_cost", txn.TotalCost).
		Msg("Applied recommendation")
	return &txn, nil
}

// Transactions returns the journal, newest first, capped at limit.
func (s *Store) Transactions(limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Conn().Query(
		`SELECT id, tx_date, symbol, action, shares, price, commission, total_cost, thesis, created_at
		 FROM transactions ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var action, createdAt string
		if err := rows.Scan(&txn.ID, &txn.Date, &txn.Symbol, &action, &txn.Shares,
			&txn.Price, &txn.Commission, &txn.TotalCost, &txn.Thesis, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Action = domain.Action(action)
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			txn.CreatedAt = ts
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

// applyTrade returns the snapshot after executing a recommendation, plus
// the journal entry describing it. It validates shares and cash before
// touching anything.
func applyTrade(snap domain.Snapshot, rec domain.Recommendation) (domain.Snapshot, domain.Transaction, error) {
	shares := rec.Allocation.SharesToTrade
	price := rec.Cost.Price
	if price <= 0 {
		return snap, domain.Transaction{}, fmt.Errorf("recommendation for %s has no price", rec.Symbol)
	}

	pos := snap.Positions[rec.Symbol]
	pos.Symbol = rec.Symbol

	if shares > 0 {
		outlay := float64(shares)*price + rec.Cost.Commission
		if outlay > snap.CashBalance {
			return snap, domain.Transaction{}, fmt.Errorf("insufficient cash for %s: need %.2f, have %.2f",
				rec.Symbol, outlay, snap.CashBalance)
		}
		// Weighted average cost basis across the old and new lots.
		totalShares := pos.Shares + shares
		pos.CostBasis = (float64(pos.Shares)*pos.CostBasis + float64(shares)*price) / float64(totalShares)
		pos.Shares = totalShares
		snap.CashBalance -= outlay
	} else {
		sell := -shares
		if sell > pos.Shares {
			return snap, domain.Transaction{}, fmt.Errorf("insufficient shares of %s: selling %d, hold %d",
				rec.Symbol, sell, pos.Shares)
		}
		pos.Shares -= sell
		snap.CashBalance += float64(sell)*price - rec.Cost.Commission
	}

	pos.CurrentPrice = price
	pos.MarketValue = float64(pos.Shares) * price

	positions := make(map[string]domain.Position, len(snap.Positions)+1)
	for sym, p := range snap.Positions {
		positions[sym] = p
	}
	if pos.Shares > 0 {
		positions[rec.Symbol] = pos
	} else {
		delete(positions, rec.Symbol)
	}
	snap.Positions = positions

	total := snap.CashBalance
	for _, p := range positions {
		total += p.MarketValue
	}
	snap.TotalValue = total
	for sym, p := range positions {
		if total > 0 {
			p.Weight = p.MarketValue / total
		}
		positions[sym] = p
	}
	snap.AsOf = time.Now()

	txn := domain.Transaction{
		ID:         uuid.NewString(),
		Date:       time.Now().Format("2006-01-02"),
		Symbol:     rec.Symbol,
		Action:     rec.Action,
		Shares:     shares,
		Price:      price,
		Commission: rec.Cost.Commission,
		TotalCost:  rec.Cost.TotalCost,
		Thesis:     rec.Justification.Thesis,
		CreatedAt:  time.Now(),
	}
	return snap, txn, nil
}

func scanRun(row *sql.Row) (*domain.RunResult, error) {
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	var result domain.RunResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &result, nil
}
