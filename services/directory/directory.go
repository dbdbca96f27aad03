// Package directory maps identity-provider subjects to local users.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/idp"
	"github.com/upb/campus-eats/internal/observability"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"github.com/upb/campus-eats/services"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Directory reconciles external identities with local user records
type Directory struct {
	users   repositories.UserRepository
	flight  singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger
}

// New creates a new Directory. metrics may be nil.
func New(users repositories.UserRepository, metrics *observability.Metrics, logger *zap.Logger) *Directory {
	return &Directory{
		users:   users,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve returns the local user for identity, creating it on first sign-in and
// refreshing email and display name when the provider reports new values.
// Concurrent calls carrying the same subject and profile share a single store
// round trip.
func (d *Directory) Resolve(ctx context.Context, identity *idp.ExternalIdentity) (*models.User, error) {
	if identity == nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "identity is missing a subject or email", nil)
	}
	if err := utils.ValidateStruct(identity); err != nil {
		derr := services.NewDomainError(services.ErrorTypeValidation, "identity is missing a subject or email", err)
		for field, msg := range utils.GetValidationFields(err) {
			derr.WithDetail(field, msg)
		}
		d.metrics.RecordResolution(observability.ResolutionFailed)
		return nil, derr
	}

	v, err, shared := d.flight.Do(flightKey(identity), func() (interface{}, error) {
		return d.resolve(ctx, identity)
	})
	if err != nil {
		d.metrics.RecordResolution(observability.ResolutionFailed)
		return nil, err
	}
	if shared {
		d.logger.Debug("identity resolution shared with concurrent caller")
	}

	user := *v.(*models.User)
	return &user, nil
}

func (d *Directory) resolve(ctx context.Context, identity *idp.ExternalIdentity) (*models.User, error) {
	existing, err := d.users.GetByExternalSubject(ctx, identity.Subject)
	if err == nil {
		return d.reconcile(ctx, existing, identity)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, unavailable(err)
	}

	user := models.NewUser(identity.Subject, identity.Email, identity.DisplayName)
	err = d.users.Create(ctx, user)
	if err == nil {
		d.metrics.RecordResolution(observability.ResolutionCreated)
		d.logger.Info("user created from external identity",
			zap.String("user_id", user.ID.String()),
			zap.String("issuer", identity.Issuer))
		return user, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, unavailable(err)
	}

	// Another process inserted the subject between our lookup and insert.
	existing, err = d.users.GetByExternalSubject(ctx, identity.Subject)
	if err != nil {
		return nil, unavailable(err)
	}
	d.metrics.RecordResolution(observability.ResolutionRaced)
	d.logger.Info("recovered from concurrent user creation", zap.String("user_id", existing.ID.String()))
	return d.reconcile(ctx, existing, identity)
}

func (d *Directory) reconcile(ctx context.Context, user *models.User, identity *idp.ExternalIdentity) (*models.User, error) {
	if !user.ProfileDrifted(identity.Email, identity.DisplayName) {
		d.metrics.RecordResolution(observability.ResolutionUnchanged)
		return user, nil
	}

	user.ApplyProfile(identity.Email, identity.DisplayName)
	if err := d.users.UpdateProfile(ctx, user); err != nil {
		return nil, unavailable(err)
	}

	d.metrics.RecordResolution(observability.ResolutionUpdated)
	d.logger.Info("user profile refreshed from identity provider", zap.String("user_id", user.ID.String()))
	return user, nil
}

// FindByID returns the user with id, or nil when there is none
func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := d.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return user, nil
}

// flightKey groups callers whose resolution would write the same row state
func flightKey(identity *idp.ExternalIdentity) string {
	return identity.Subject + "\x00" + identity.Email + "\x00" + identity.DisplayName
}

func unavailable(err error) error {
	return services.NewDomainError(services.ErrorTypeInternal, "user directory unavailable", err)
}
