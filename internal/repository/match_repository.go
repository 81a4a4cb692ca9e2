package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository answers whether two users matched. Matches are written by the swipe flow.
type MatchRepository interface {
	AreMatched(ctx context.Context, userA, userB string) (bool, error)
}

type matchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository constructs repository.
func NewMatchRepository(pool *pgxpool.Pool) MatchRepository {
	return &matchRepository{pool: pool}
}

func (r *matchRepository) AreMatched(ctx context.Context, userA, userB string) (bool, error) {
	if r.pool == nil {
		return false, ErrNoDatabase
	}
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM matches
            WHERE (user_a::text=$1 AND user_b::text=$2) OR (user_a::text=$2 AND user_b::text=$1)
        )`
	var matched bool
	if err := r.pool.QueryRow(ctx, query, userA, userB).Scan(&matched); err != nil {
		return false, err
	}
	return matched, nil
}
