// Package store holds the external collaborators the signaling core writes
// to: the durable presence flag on the users table and the write-only
// message archive. The core never reads either back.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/domain"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to postgres and returns a pool wrapper.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// SetOnline records the durable online flag for a user.
func (p *Postgres) SetOnline(ctx context.Context, id domain.UserID, online bool) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE users
		SET is_online = $2, last_seen = NOW()
		WHERE id = $1
	`, string(id), online)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "adapters.store").Str("user", string(id)).Bool("online", online).Msg("presence flag written")
	return nil
}

// SaveMessage archives a chat message. Live fan-out does not wait on this.
func (p *Postgres) SaveMessage(ctx context.Context, m domain.ChatMessage) error {
	sentAt := m.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO messages (sender_id, receiver_id, body, sent_at)
		VALUES ($1, $2, $3, $4)
	`, string(m.SenderID), string(m.ReceiverID), m.Text, sentAt)
	return err
}
