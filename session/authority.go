package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/services"
	"go.uber.org/zap"
)

// UserFinder loads the user a session points at. A missing user is nil, nil.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authority issues and checks sessions
type Authority struct {
	store   Store
	users   UserFinder
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuthority creates a new Authority. metrics may be nil.
func NewAuthority(store Store, users UserFinder, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Authority {
	return &Authority{
		store:   store,
		users:   users,
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// Establish creates a session for userID that lives for the configured TTL
func (a *Authority) Establish(ctx context.Context, userID uuid.UUID) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, services.WrapInternal("failed to generate session id", err)
	}

	now := a.now().UTC()
	s := &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.store.Save(ctx, s); err != nil {
		return nil, unavailable(err)
	}

	a.metrics.RecordSession()
	a.logger.Info("session established",
		zap.String("user_id", userID.String()),
		zap.String("session", observability.Redact(id)),
		zap.Time("expires_at", s.ExpiresAt))
	return s, nil
}

// Validate returns the user behind sessionID, or nil when the session is
// unknown, expired, or points at a user that no longer exists.
func (a *Authority) Validate(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	s, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, unavailable(err)
	}
	if s == nil {
		return nil, nil
	}

	if s.Expired(a.now()) {
		if err := a.store.Delete(ctx, sessionID); err != nil {
			a.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, nil
	}

	user, err := a.users.FindByID(ctx, s.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		a.logger.Info("session references missing user, destroying",
			zap.String("user_id", s.UserID.String()))
		if err := a.store.Delete(ctx, sessionID); err != nil {
			a.logger.Warn("failed to delete orphaned session", zap.Error(err))
		}
		return nil, nil
	}
	return user, nil
}

// Destroy removes the session. Destroying an unknown session succeeds.
func (a *Authority) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.store.Delete(ctx, sessionID); err != nil {
		return unavailable(err)
	}
	a.logger.Info("session destroyed", zap.String("session", observability.Redact(sessionID)))
	return nil
}

func unavailable(err error) error {
	return services.NewDomainError(services.ErrorTypeInternal, "session store unavailable", err)
}
