package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusFansOutAndFiltersByType(t *testing.T) {
	bus := NewBus(zap.NewNop(), nil)

	var created []UserCreated
	var confirmed []UserConfirmed
	createdRoute, _ := RouteFor(TypeUserCreated)
	confirmedRoute, _ := RouteFor(TypeUserConfirmed)
	bus.Subscribe(createdRoute, Handle(zap.NewNop(), func(_ context.Context, ev UserCreated) error {
		created = append(created, ev)
		return nil
	}))
	bus.Subscribe(confirmedRoute, Handle(zap.NewNop(), func(_ context.Context, ev UserConfirmed) error {
		confirmed = append(confirmed, ev)
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), UserCreated{ID: "u1", Email: "ana@x.com"}))
	require.NoError(t, bus.Publish(context.Background(), UserConfirmed{ID: "u1", Verified: true}))

	require.Len(t, created, 1)
	assert.Equal(t, "ana@x.com", created[0].Email)
	require.Len(t, confirmed, 1)
	assert.True(t, confirmed[0].Verified)
}

func TestBusRejectionDoesNotFailPublish(t *testing.T) {
	bus := NewBus(zap.NewNop(), nil)
	route, _ := RouteFor(TypeRoleAssigned)
	bus.Subscribe(route, func(context.Context, Message) Result { return Reject })

	assert.NoError(t, bus.Publish(context.Background(), RoleAssigned{ID: "u1", RoleID: 1}))
}
