package service

import (
	"context"
	"errors"

	"github.com/spec-kit/user-service/internal/readmodel"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// QueryService answers reads from the document store only.
type QueryService struct {
	store readmodel.Store
	cache *readmodel.Cache
}

// NewQueryService builds the service; cache may be nil.
func NewQueryService(store readmodel.Store, cache *readmodel.Cache) *QueryService {
	return &QueryService{store: store, cache: cache}
}

// UserByID reads through the cache. The generation is sampled before the
// store read so a document loaded across an invalidation is cached where
// nothing reads it.
func (s *QueryService) UserByID(ctx context.Context, id string) (*readmodel.UserDocument, error) {
	gen, cacheable := s.cache.Generation(ctx, id)
	if cacheable {
		if doc, ok := s.cache.GetUser(ctx, id, gen); ok {
			return doc, nil
		}
	}
	doc, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if cacheable {
		s.cache.SetUser(ctx, *doc, gen)
	}
	return doc, nil
}

func (s *QueryService) UserByEmail(ctx context.Context, email string) (*readmodel.UserDocument, error) {
	doc, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return doc, nil
}

func (s *QueryService) Users(ctx context.Context) ([]readmodel.UserDocument, error) {
	docs, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("users", "list", err)
	}
	return docs, nil
}

// Activities lists audit entries, newest first.
func (s *QueryService) Activities(ctx context.Context, filter readmodel.ActivityFilter) ([]readmodel.ActivityDocument, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, apperrors.NewValidationError("from must not be after to", nil)
	}
	docs, err := s.store.ListActivities(ctx, filter)
	if err != nil {
		return nil, apperrors.NewPersistenceError("activities", "list", err)
	}
	return docs, nil
}

func (s *QueryService) RoleByID(ctx context.Context, id int) (*readmodel.RoleDocument, error) {
	doc, err := s.store.FindRoleByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "role")
	}
	return doc, nil
}

func (s *QueryService) Roles(ctx context.Context) ([]readmodel.RoleDocument, error) {
	docs, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("roles", "list", err)
	}
	return docs, nil
}

func notFoundOr(err error, entity string) error {
	if errors.Is(err, readmodel.ErrDocumentNotFound) {
		return apperrors.NewNotFound(entity, nil)
	}
	return apperrors.NewPersistenceError(entity, "load", err)
}
