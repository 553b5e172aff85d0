package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/readmodel"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

func TestQueryService(t *testing.T) {
	store := readmodel.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUser(ctx, readmodel.UserDocument{ID: "u1", Name: "Ana", Email: "ana@x.com", RoleID: 3}))
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertActivity(ctx, readmodel.ActivityDocument{ID: "a1", UserID: "u1", Action: "Usuario Registrado", OccurredAt: at}))

	q := NewQueryService(store, nil)

	doc, err := q.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", doc.Name)

	_, err = q.UserByID(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	byEmail, err := q.UserByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	acts, err := q.Activities(ctx, readmodel.ActivityFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, acts, 1)

	_, err = q.Activities(ctx, readmodel.ActivityFilter{From: at, To: at.Add(-time.Hour)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	role, err := q.RoleByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Administrador", role.Name)

	roles, err := q.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 4)
}

func TestUserByIDServesFreshDocumentAfterProjection(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	cache := readmodel.NewCache(client, time.Minute, "users", zap.NewNop())
	projector := readmodel.NewProjector(store, cache, zap.NewNop())
	q := NewQueryService(store, cache)

	require.NoError(t, projector.UserCreated(ctx, events.UserCreated{ID: "u1", Email: "ana@x.com"}))
	doc, err := q.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", doc.Email)

	require.NoError(t, projector.ProfileUpdated(ctx, events.ProfileUpdated{ID: "u1", Email: "ana.maria@x.com"}))
	doc, err = q.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana.maria@x.com", doc.Email)
}
