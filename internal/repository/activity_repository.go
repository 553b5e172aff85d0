package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// ActivityRepository appends audit entries. Entries are never updated.
type ActivityRepository interface {
	Create(ctx context.Context, activity domain.Activity) error
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity domain.Activity) error {
	const query = `
        INSERT INTO activities (id, user_id, action_type, detail, occurred_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query,
		activity.ID,
		activity.UserID,
		string(activity.Action),
		activity.Detail,
		activity.OccurredAt,
	)
	return err
}
