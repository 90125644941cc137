package gateway

import (
	"context"
	"testing"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t entity.IdentityType, id, connId string) *Client {
	return &Client{
		Identity: entity.Identity{Type: t, Id: id},
		ConnId:   connId,
		joined:   make(map[string]struct{}),
	}
}

func TestRegistryRegisterUnregister(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	c1 := testClient(entity.IdentityConsumer, "u1", "conn1")
	c2 := testClient(entity.IdentityConsumer, "u1", "conn2")

	reg.Register(ctx, c1)
	reg.Register(ctx, c2)

	assert.Equal(t, 1, reg.OnlineMemberCount())
	assert.Equal(t, 2, reg.OnlineConnCount())

	clients, ok := reg.GetAll(c1.Identity)
	require.True(t, ok)
	assert.Len(t, clients, 2)

	// Dropping one connection keeps the identity online.
	offline := reg.Unregister(ctx, c1)
	assert.False(t, offline)
	assert.True(t, reg.HasConnection(c1.Identity))

	offline = reg.Unregister(ctx, c2)
	assert.True(t, offline)
	assert.False(t, reg.HasConnection(c1.Identity))
	assert.Equal(t, 0, reg.OnlineMemberCount())
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	ghost := testClient(entity.IdentityOwner, "nobody", "conn1")
	assert.False(t, reg.Unregister(ctx, ghost))
}

func TestRegistryRoleClients(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	reg.Register(ctx, testClient(entity.IdentityConsumer, "u1", "conn1"))
	reg.Register(ctx, testClient(entity.IdentityAdmin, "a1", "conn2"))
	reg.Register(ctx, testClient(entity.IdentityAdmin, "a2", "conn3"))

	admins := reg.RoleClients(entity.IdentityAdmin)
	assert.Len(t, admins, 2)
	for _, c := range admins {
		assert.Equal(t, entity.IdentityAdmin, c.Identity.Type)
	}

	assert.Len(t, reg.RoleClients(entity.IdentityConsumer), 1)
	assert.Empty(t, reg.RoleClients(entity.IdentityOwner))

	assert.Len(t, reg.AllClients(), 3)
}

func TestRegistryRoleIndexCleanup(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	c := testClient(entity.IdentityAdmin, "a1", "conn1")
	reg.Register(ctx, c)
	reg.Unregister(ctx, c)

	assert.Empty(t, reg.RoleClients(entity.IdentityAdmin))
}

func TestRegistryIsOnlineWithoutRedis(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	id := entity.Identity{Type: entity.IdentityConsumer, Id: "u1"}
	assert.False(t, reg.IsOnline(ctx, id))

	c := testClient(entity.IdentityConsumer, "u1", "conn1")
	reg.Register(ctx, c)
	assert.True(t, reg.IsOnline(ctx, id))
}

func TestSeparateIdentitiesSameId(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	// A consumer and an owner sharing a raw id are distinct identities.
	reg.Register(ctx, testClient(entity.IdentityConsumer, "42", "conn1"))
	reg.Register(ctx, testClient(entity.IdentityOwner, "42", "conn2"))

	assert.Equal(t, 2, reg.OnlineMemberCount())
	assert.Len(t, reg.RoleClients(entity.IdentityConsumer), 1)
	assert.Len(t, reg.RoleClients(entity.IdentityOwner), 1)
}
