package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/courtesyinspect/courtesyinspect/internal/config"
	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every query
// method is written once and works inside and outside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier // pool normally; the active tx inside WithTx
}

// NewPostgres connects a pool and verifies reachability. Migrations are a
// separate step so startup can log between the two.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		pc.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.AcquireTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.QueryTimeout > 0 {
		// Enforced server-side so every query path is covered without
		// per-call context plumbing. Exceeding it surfaces as SQLSTATE
		// 57014, which translate maps to Timeout.
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(int(cfg.QueryTimeout.Milliseconds()))
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	log.Info().Int("max_conns", cfg.MaxConnections).Msg("postgres pool initialized")
	return &Postgres{pool: pool, q: pool}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// WithTx begins a transaction and hands fn a Store bound to it. A nested
// call inside an open transaction reuses it.
func (p *Postgres) WithTx(ctx context.Context, fn func(Store) error) error {
	if _, inTx := p.q.(pgx.Tx); inTx {
		return fn(p)
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Postgres{pool: p.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ── Error translation ───────────────────────────────────────

// uniqueConstraintMessages maps constraint names to client-safe messages so
// services never surface driver detail.
var uniqueConstraintMessages = map[string]string{
	"users_email_key":             "email already registered",
	"inspections_shop_number_key": "inspection number already issued",
	"inspection_items_row_key":    "item already exists for category/component",
	"customers_shop_phone_key":    "phone already registered for this shop",
}

// translate converts driver errors into the apperr taxonomy at the store
// boundary. Context cancellation passes through so callers can tell a
// client disconnect from a real failure.
func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.Timeout, "query timed out", err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.E(apperr.NotFound, notFoundMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			msg, ok := uniqueConstraintMessages[pgErr.ConstraintName]
			if !ok {
				msg = "duplicate value"
			}
			return apperr.Wrap(apperr.AlreadyExists, msg, err)
		case "23503": // foreign_key_violation
			return apperr.Wrap(apperr.Invalid, "referenced entity does not exist", err)
		case "57014": // query_canceled, raised by statement_timeout
			return apperr.Wrap(apperr.Timeout, "query timed out", err)
		}
	}
	return err
}

// nullStr maps empty strings to NULL so optional text columns stay NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// utc normalizes a timestamp before writing.
func utc(t time.Time) time.Time { return t.UTC() }
