package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrNegativeUsage is returned when a caller tries to commit a non-positive
// duration. Failed or zero-duration jobs must not be charged.
var ErrNegativeUsage = errors.New("usage seconds must be positive")

// LedgerRepository is the durable per-user, per-day usage ledger.
//
// Read methods degrade to safe defaults (zero / false / empty) and log on
// storage failure. Write methods report failure to the caller.
type LedgerRepository interface {
	// EnsureAccount returns the account's tier flag, creating the account
	// with the default tier on first sight. Safe to call repeatedly.
	EnsureAccount(ctx context.Context, userID int64) bool
	// GetDailyUsage returns the seconds used on the given day, 0 if none.
	GetDailyUsage(ctx context.Context, userID int64, day time.Time) int
	// CommitUsage atomically increments the day's record, creating it if
	// absent. Concurrent commits for the same (user, day) never lose updates.
	CommitUsage(ctx context.Context, userID int64, day time.Time, seconds int) error
	// SetTier creates the account if absent, then sets the tier flag.
	SetTier(ctx context.Context, userID int64, isPro bool) error
	// TotalUsage returns the summed seconds across all days.
	TotalUsage(ctx context.Context, userID int64) int

	OverallStats(ctx context.Context) model.OverallStats
	TopByUsage(ctx context.Context, limit int) []model.AccountUsage
	TodayAggregate(ctx context.Context, day time.Time) model.DailyAggregate
	UserDetail(ctx context.Context, userID int64, today time.Time) (model.UserDetail, bool)
	ExportAll(ctx context.Context) []model.ExportRow

	// InitSchema creates the ledger tables. Failure here is fatal.
	InitSchema(ctx context.Context) error
}

type ledgerRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewLedgerRepo creates a new LedgerRepository backed by the given pool.
func NewLedgerRepo(pool *pgxpool.Pool, logger zerolog.Logger) LedgerRepository {
	return &ledgerRepo{
		pool:   pool,
		logger: logger.With().Str("service", "LedgerRepository").Logger(),
	}
}

func (r *ledgerRepo) InitSchema(ctx context.Context) error {
	const q = `
        CREATE TABLE IF NOT EXISTS accounts (
            user_id    BIGINT PRIMARY KEY,
            is_pro     BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS usage_records (
            user_id      BIGINT NOT NULL REFERENCES accounts (user_id),
            usage_date   DATE NOT NULL,
            seconds_used INTEGER NOT NULL DEFAULT 0,
            UNIQUE (user_id, usage_date)
        );
    `
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("initializing ledger schema: %w", err)
	}
	return nil
}

func (r *ledgerRepo) EnsureAccount(ctx context.Context, userID int64) bool {
	const insertQ = `INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insertQ, userID); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to ensure account")
		return false
	}
	const selectQ = `SELECT is_pro FROM accounts WHERE user_id = $1`
	var isPro bool
	if err := r.pool.QueryRow(ctx, selectQ, userID).Scan(&isPro); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read account tier")
		return false
	}
	return isPro
}

func (r *ledgerRepo) GetDailyUsage(ctx context.Context, userID int64, day time.Time) int {
	const q = `SELECT seconds_used FROM usage_records WHERE user_id = $1 AND usage_date = $2::date`
	var seconds int
	err := r.pool.QueryRow(ctx, q, userID, day).Scan(&seconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read daily usage")
		return 0
	}
	return seconds
}

func (r *ledgerRepo) CommitUsage(ctx context.Context, userID int64, day time.Time, seconds int) error {
	if seconds <= 0 {
		return ErrNegativeUsage
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting usage commit for user %d: %w", userID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	const accountQ = `INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, accountQ, userID); err != nil {
		return fmt.Errorf("ensuring account for usage commit %d: %w", userID, err)
	}
	// Single upsert-increment so concurrent commits for the same key
	// serialize on the unique constraint instead of racing a read.
	const upsertQ = `
        INSERT INTO usage_records (user_id, usage_date, seconds_used)
        VALUES ($1, $2::date, $3)
        ON CONFLICT (user_id, usage_date)
        DO UPDATE SET seconds_used = usage_records.seconds_used + EXCLUDED.seconds_used
    `
	if _, err := tx.Exec(ctx, upsertQ, userID, day, seconds); err != nil {
		return fmt.Errorf("committing %ds of usage for user %d: %w", seconds, userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing usage transaction for user %d: %w", userID, err)
	}
	return nil
}

func (r *ledgerRepo) SetTier(ctx context.Context, userID int64, isPro bool) error {
	const q = `
        INSERT INTO accounts (user_id, is_pro) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET is_pro = EXCLUDED.is_pro
    `
	if _, err := r.pool.Exec(ctx, q, userID, isPro); err != nil {
		return fmt.Errorf("setting tier for user %d: %w", userID, err)
	}
	return nil
}

func (r *ledgerRepo) TotalUsage(ctx context.Context, userID int64) int {
	const q = `SELECT COALESCE(SUM(seconds_used), 0) FROM usage_records WHERE user_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&total); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read total usage")
		return 0
	}
	return total
}

func (r *ledgerRepo) OverallStats(ctx context.Context) model.OverallStats {
	const q = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_pro) FROM accounts`
	var stats model.OverallStats
	if err := r.pool.QueryRow(ctx, q).Scan(&stats.TotalAccounts, &stats.ProAccounts); err != nil {
		r.logger.Error().Err(err).Msg("Failed to read overall stats")
		return model.OverallStats{}
	}
	return stats
}

func (r *ledgerRepo) TopByUsage(ctx context.Context, limit int) []model.AccountUsage {
	const q = `
        SELECT a.user_id, a.is_pro, COALESCE(SUM(u.seconds_used), 0) AS total
        FROM accounts a
        LEFT JOIN usage_records u ON a.user_id = u.user_id
        GROUP BY a.user_id, a.is_pro
        ORDER BY total DESC, a.user_id ASC
        LIMIT $1
    `
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query top accounts")
		return nil
	}
	defer rows.Close()

	var out []model.AccountUsage
	for rows.Next() {
		var au model.AccountUsage
		if err := rows.Scan(&au.UserID, &au.IsPro, &au.TotalSeconds); err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan top account row")
			return nil
		}
		out = append(out, au)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("Top accounts rows error")
		return nil
	}
	return out
}

func (r *ledgerRepo) TodayAggregate(ctx context.Context, day time.Time) model.DailyAggregate {
	const q = `
        SELECT COUNT(DISTINCT user_id),
               COALESCE(SUM(seconds_used), 0),
               COUNT(*) FILTER (WHERE seconds_used > 0)
        FROM usage_records
        WHERE usage_date = $1::date
    `
	var agg model.DailyAggregate
	if err := r.pool.QueryRow(ctx, q, day).Scan(&agg.ActiveUsers, &agg.TotalSeconds, &agg.NonZeroRecords); err != nil {
		r.logger.Error().Err(err).Msg("Failed to read today's aggregate")
		return model.DailyAggregate{}
	}
	return agg
}

func (r *ledgerRepo) UserDetail(ctx context.Context, userID int64, today time.Time) (model.UserDetail, bool) {
	const accountQ = `SELECT user_id, is_pro, created_at FROM accounts WHERE user_id = $1`
	var detail model.UserDetail
	err := r.pool.QueryRow(ctx, accountQ, userID).Scan(
		&detail.Account.UserID,
		&detail.Account.IsPro,
		&detail.Account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UserDetail{}, false
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read account detail")
		return model.UserDetail{}, false
	}

	detail.TodaySeconds = r.GetDailyUsage(ctx, userID, today)
	detail.TotalSeconds = r.TotalUsage(ctx, userID)

	const daysQ = `
        SELECT usage_date, seconds_used
        FROM usage_records
        WHERE user_id = $1 AND usage_date > $2::date - 7
        ORDER BY usage_date DESC
    `
	rows, err := r.pool.Query(ctx, daysQ, userID, today)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to query recent usage")
		return detail, true
	}
	defer rows.Close()
	for rows.Next() {
		var du model.DayUsage
		if err := rows.Scan(&du.Date, &du.Seconds); err != nil {
			r.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to scan recent usage row")
			return detail, true
		}
		detail.LastDays = append(detail.LastDays, du)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("Recent usage rows error")
	}
	return detail, true
}

func (r *ledgerRepo) ExportAll(ctx context.Context) []model.ExportRow {
	// LEFT JOIN keeps zero-usage accounts in the export: they appear once
	// with a NULL usage_date.
	const q = `
        SELECT a.user_id, a.is_pro, a.created_at, u.usage_date, COALESCE(u.seconds_used, 0)
        FROM accounts a
        LEFT JOIN usage_records u ON a.user_id = u.user_id
        ORDER BY a.user_id ASC, u.usage_date ASC
    `
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query usage export")
		return nil
	}
	defer rows.Close()

	var out []model.ExportRow
	for rows.Next() {
		var row model.ExportRow
		if err := rows.Scan(&row.UserID, &row.IsPro, &row.CreatedAt, &row.UsageDate, &row.Seconds); err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan export row")
			return nil
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("Usage export rows error")
		return nil
	}
	return out
}
