package services

import (
	"context"

	"go.uber.org/zap"

	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
)

// pointsAward is the outcome of crediting points to a user
type pointsAward struct {
	User          *models.User
	PreviousBadge models.Badge
}

// BadgeChanged reports whether the award crossed a tier
func (a *pointsAward) BadgeChanged() bool {
	return a.PreviousBadge != a.User.Badge
}

// awardPoints increments a user's points and re-derives the badge. It is the
// only place points change, so Badge == BadgeFor(Points) holds after every
// donation and task approval. Callers run it inside the transaction that
// records the reason for the award.
func awardPoints(ctx context.Context, users repositories.UserRepository, userID, points int64) (*pointsAward, error) {
	user, err := users.AddPoints(ctx, userID, points)
	if err != nil {
		return nil, err
	}

	award := &pointsAward{User: user, PreviousBadge: user.Badge}
	if badge := models.BadgeFor(user.Points); badge != user.Badge {
		if err := users.SetBadge(ctx, userID, badge); err != nil {
			return nil, err
		}
		user.Badge = badge
	}
	return award, nil
}

// publishEvent delivers a post-commit event. Delivery failures are logged
// and never undo the committed write.
func publishEvent(ctx context.Context, bus events.EventBus, logger *zap.Logger, event events.Event) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("event_id", event.GetEventID()),
			zap.Error(err),
		)
	}
}
