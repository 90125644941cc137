package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Registry tracks live connections per identity. Process local; the redis
// online keys mirror presence for other instances but the socket set is
// rebuilt from zero on restart.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*memberConns              // identity key -> connections
	roles   map[entity.IdentityType]map[string]struct{} // role -> identity keys
	rdb     *redis.Client
}

type memberConns struct {
	Clients []*Client
	Time    time.Time
}

// NewRegistry creates a new Registry
func NewRegistry(rdb *redis.Client) *Registry {
	return &Registry{
		members: make(map[string]*memberConns),
		roles:   make(map[entity.IdentityType]map[string]struct{}),
		rdb:     rdb,
	}
}

// Register registers a client under its identity
func (m *Registry) Register(ctx context.Context, client *Client) {
	key := client.Identity.Key()

	m.mu.Lock()
	conns, exists := m.members[key]
	if !exists {
		conns = &memberConns{Clients: make([]*Client, 0, 4)}
		m.members[key] = conns

		role, ok := m.roles[client.Identity.Type]
		if !ok {
			role = make(map[string]struct{})
			m.roles[client.Identity.Type] = role
		}
		role[key] = struct{}{}
	}
	conns.Clients = append(conns.Clients, client)
	conns.Time = time.Now()
	m.mu.Unlock()

	m.setOnline(ctx, key)
}

// Unregister removes a client, reporting whether the identity went fully
// offline.
func (m *Registry) Unregister(ctx context.Context, client *Client) bool {
	key := client.Identity.Key()

	m.mu.Lock()
	conns, exists := m.members[key]
	if !exists {
		m.mu.Unlock()
		return false
	}

	kept := make([]*Client, 0, len(conns.Clients))
	for _, c := range conns.Clients {
		if c.ConnId != client.ConnId {
			kept = append(kept, c)
		}
	}
	conns.Clients = kept

	offline := len(conns.Clients) == 0
	if offline {
		delete(m.members, key)
		if role, ok := m.roles[client.Identity.Type]; ok {
			delete(role, key)
		}
	}
	m.mu.Unlock()

	if offline {
		m.setOffline(ctx, key)
	}
	return offline
}

// GetAll gets all clients for an identity
func (m *Registry) GetAll(id entity.Identity) ([]*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns, exists := m.members[id.Key()]
	if !exists {
		return nil, false
	}

	clients := make([]*Client, len(conns.Clients))
	copy(clients, conns.Clients)
	return clients, true
}

// RoleClients returns every client whose identity has the given type
func (m *Registry) RoleClients(t entity.IdentityType) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	role, ok := m.roles[t]
	if !ok {
		return nil
	}

	var clients []*Client
	for key := range role {
		if conns, exists := m.members[key]; exists {
			clients = append(clients, conns.Clients...)
		}
	}
	return clients
}

// AllClients returns every connected client
func (m *Registry) AllClients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var clients []*Client
	for _, conns := range m.members {
		clients = append(clients, conns.Clients...)
	}
	return clients
}

// HasConnection checks if the identity has any live connection
func (m *Registry) HasConnection(id entity.Identity) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns, exists := m.members[id.Key()]
	return exists && len(conns.Clients) > 0
}

// OnlineMemberCount returns the number of online identities
func (m *Registry) OnlineMemberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members)
}

// OnlineConnCount returns the total number of connections
func (m *Registry) OnlineConnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, conns := range m.members {
		count += len(conns.Clients)
	}
	return count
}

// IsOnline checks presence, falling back to redis for other instances
func (m *Registry) IsOnline(ctx context.Context, id entity.Identity) bool {
	if m.HasConnection(id) {
		return true
	}

	if m.rdb != nil {
		key := fmt.Sprintf(constant.RedisKeyOnline(), id.Key())
		exists, _ := m.rdb.Exists(ctx, key).Result()
		return exists > 0
	}
	return false
}

// RefreshOnlineStatus extends the online key TTL while connections remain
func (m *Registry) RefreshOnlineStatus(ctx context.Context, id entity.Identity) {
	if m.rdb == nil {
		return
	}
	if m.HasConnection(id) {
		key := fmt.Sprintf(constant.RedisKeyOnline(), id.Key())
		m.rdb.Expire(ctx, key, 60*time.Second)
	}
}

func (m *Registry) setOnline(ctx context.Context, identityKey string) {
	if m.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), identityKey)
	m.rdb.Set(ctx, key, "1", 60*time.Second)
}

func (m *Registry) setOffline(ctx context.Context, identityKey string) {
	if m.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), identityKey)
	m.rdb.Del(ctx, key)
}
