package readmodel

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
)

// Projector applies committed events to the read store. Every projection is
// idempotent: creates upsert without overwriting, updates set fields by id.
type Projector struct {
	store  Store
	cache  *Cache
	logger *zap.Logger
}

// NewProjector builds a projector; cache may be nil.
func NewProjector(store Store, cache *Cache, logger *zap.Logger) *Projector {
	return &Projector{store: store, cache: cache, logger: logger}
}

// Handlers maps each event type to its consumer handler.
func (p *Projector) Handlers() map[string]events.HandlerFunc {
	return map[string]events.HandlerFunc{
		events.TypeUserCreated:        events.Handle(p.logger, p.UserCreated),
		events.TypeProfileUpdated:     events.Handle(p.logger, p.ProfileUpdated),
		events.TypePasswordChanged:    events.Handle(p.logger, p.PasswordChanged),
		events.TypeRoleAssigned:       events.Handle(p.logger, p.RoleAssigned),
		events.TypeUserConfirmed:      events.Handle(p.logger, p.UserConfirmed),
		events.TypeActivityRegistered: events.Handle(p.logger, p.ActivityRegistered),
	}
}

// UserCreated inserts the user document. A replay leaves the existing
// document as is, so later updates are never rolled back.
func (p *Projector) UserCreated(ctx context.Context, ev events.UserCreated) error {
	doc := UserDocument{
		ID:           ev.ID,
		Name:         ev.Name,
		LastName:     ev.LastName,
		Email:        ev.Email,
		Phone:        ev.Phone,
		Address:      ev.Address,
		PasswordHash: ev.PasswordHash,
		RoleID:       ev.RoleID,
		Verified:     ev.Verified,
	}
	if err := p.store.InsertUser(ctx, doc); err != nil {
		return err
	}
	p.cache.InvalidateUser(ctx, ev.ID)
	return nil
}

func (p *Projector) ProfileUpdated(ctx context.Context, ev events.ProfileUpdated) error {
	return p.update(ctx, ev.ID, UserPatch{
		Name:     &ev.Name,
		LastName: &ev.LastName,
		Email:    &ev.Email,
		Phone:    &ev.Phone,
		Address:  &ev.Address,
	})
}

func (p *Projector) PasswordChanged(ctx context.Context, ev events.PasswordChanged) error {
	return p.update(ctx, ev.ID, UserPatch{PasswordHash: &ev.PasswordHash})
}

func (p *Projector) RoleAssigned(ctx context.Context, ev events.RoleAssigned) error {
	return p.update(ctx, ev.ID, UserPatch{RoleID: &ev.RoleID})
}

func (p *Projector) UserConfirmed(ctx context.Context, ev events.UserConfirmed) error {
	return p.update(ctx, ev.ID, UserPatch{Verified: &ev.Verified})
}

func (p *Projector) ActivityRegistered(ctx context.Context, ev events.ActivityRegistered) error {
	return p.store.InsertActivity(ctx, ActivityDocument{
		ID:         ev.ID,
		UserID:     ev.UserID,
		Action:     ev.Action,
		Detail:     ev.Detail,
		OccurredAt: ev.OccurredAt.UTC(),
	})
}

func (p *Projector) update(ctx context.Context, id string, patch UserPatch) error {
	if err := p.store.UpdateUser(ctx, id, patch); err != nil {
		return err
	}
	p.cache.InvalidateUser(ctx, id)
	return nil
}
