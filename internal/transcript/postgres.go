package transcript

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

const (
	insertEpisodeSQL = `INSERT INTO episodes (id, started_at, ended_at, end_reason, turn_count)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET ended_at = EXCLUDED.ended_at, end_reason = EXCLUDED.end_reason, turn_count = EXCLUDED.turn_count`

	deleteTurnsSQL = `DELETE FROM episode_turns WHERE episode_id = $1`

	insertTurnSQL = `INSERT INTO episode_turns (episode_id, position, speaker, text, episode_done, bot_offensive, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// txBeginner is satisfied by *pgxpool.Pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresSink stores episodes and their turns in one transaction.
type PostgresSink struct {
	db     txBeginner
	ping   func(context.Context) error
	close  func()
	logger logger.Logger
}

// NewPostgresSink connects to dsn and applies the schema when migrate is set.
func NewPostgresSink(ctx context.Context, dsn string, migrate bool, log logger.Logger) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required when using postgres transcripts")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		mm := NewMigrationManager(pool, log)
		err := mm.RunMigrations()
		_ = mm.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &PostgresSink{db: pool, ping: pool.Ping, close: pool.Close, logger: log}, nil
}

func (s *PostgresSink) Save(ctx context.Context, ep *Episode) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertEpisodeSQL, ep.ID, ep.StartedAt, ep.EndedAt, ep.EndReason, len(ep.Turns)); err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		if _, err := tx.Exec(ctx, deleteTurnsSQL, ep.ID); err != nil {
			return fmt.Errorf("clear turns: %w", err)
		}
		for i, t := range ep.Turns {
			if _, err := tx.Exec(ctx, insertTurnSQL, ep.ID, i, t.Speaker, t.Text, t.EpisodeDone, t.BotOffensive, t.At); err != nil {
				return fmt.Errorf("insert turn %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save episode", logger.EpisodeIDField(ep.ID), logger.ErrorField(err))
		return fmt.Errorf("save episode %s: %w", ep.ID, err)
	}
	s.logger.Debug("Saved episode", logger.EpisodeIDField(ep.ID), logger.IntField("turns", len(ep.Turns)))
	return nil
}

// Ping checks the database connection.
func (s *PostgresSink) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
