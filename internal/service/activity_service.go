package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
)

// ActivityRecorder appends audit entries and announces them. Both steps run
// after the durability point and only log on failure.
type ActivityRecorder struct {
	repo      repository.ActivityRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewActivityRecorder builds the recorder.
func NewActivityRecorder(repo repository.ActivityRepository, publisher events.Publisher, logger *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Record stores the entry, then publishes ActivityRegistered.
func (r *ActivityRecorder) Record(ctx context.Context, userID string, action domain.ActionType, detail string) {
	activity := domain.NewActivity(userID, action, detail, r.now())
	if err := r.repo.Create(ctx, activity); err != nil {
		r.logger.Error("activity not recorded",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err))
		return
	}

	ev := events.ActivityRegistered{
		ID:         activity.ID,
		UserID:     activity.UserID,
		Action:     string(activity.Action),
		Detail:     activity.Detail,
		OccurredAt: activity.OccurredAt,
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Warn("event publish failed",
			zap.String("event", ev.EventType()),
			zap.String("activity_id", activity.ID),
			zap.Error(err))
	}
}
