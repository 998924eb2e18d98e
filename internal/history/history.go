package history

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"yousef/internal/protocol"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Result is one finished game.
type Result struct {
	ID         uuid.UUID
	RoomCode   string
	Rounds     int
	Scores     []protocol.PlayerScore
	Losers     []string
	FinishedAt time.Time
}

// Recorder archives finished games. It never restores a session.
type Recorder interface {
	SaveResult(ctx context.Context, res Result) error
	Recent(ctx context.Context, limit int) ([]Result, error)
	Close()
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) SaveResult(context.Context, Result) error      { return nil }
func (Nop) Recent(context.Context, int) ([]Result, error) { return nil, nil }
func (Nop) Close()                                        {}

// Postgres keeps results in the game_results table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	glog.Info("Database migrations applied successfully")
	return nil
}

// SaveResult inserts res, filling in ID and FinishedAt when unset.
func (p *Postgres) SaveResult(ctx context.Context, res Result) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}

	scores, err := json.Marshal(res.Scores)
	if err != nil {
		return fmt.Errorf("failed to serialize scores: %w", err)
	}
	losers, err := json.Marshal(res.Losers)
	if err != nil {
		return fmt.Errorf("failed to serialize losers: %w", err)
	}

	query := `
		INSERT INTO game_results (id, room_code, rounds, scores, losers, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = p.pool.Exec(ctx, query, res.ID.String(), res.RoomCode, res.Rounds, scores, losers, res.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save result for room %s: %w", res.RoomCode, err)
	}
	return nil
}

// Recent lists up to limit results, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Result, error) {
	query := `
		SELECT id::text, room_code, rounds, scores, losers, finished_at
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1
	`
	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			res            Result
			id             string
			scores, losers []byte
		)
		if err := rows.Scan(&id, &res.RoomCode, &res.Rounds, &scores, &losers, &res.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if res.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid result id %q: %w", id, err)
		}
		if err := json.Unmarshal(scores, &res.Scores); err != nil {
			return nil, fmt.Errorf("failed to deserialize scores: %w", err)
		}
		if err := json.Unmarshal(losers, &res.Losers); err != nil {
			return nil, fmt.Errorf("failed to deserialize losers: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (p *Postgres) Close() {
	p.pool.Close()
}
