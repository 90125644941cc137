package entity

import (
	"fmt"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/constant"
)

// IdentityType tags an authenticated actor.
type IdentityType string

const (
	IdentityConsumer IdentityType = constant.IdentityConsumer
	IdentityOwner    IdentityType = constant.IdentityOwner
	IdentityAdmin    IdentityType = constant.IdentityAdmin
)

// Valid reports whether the type is one of the known tags.
func (t IdentityType) Valid() bool {
	switch t {
	case IdentityConsumer, IdentityOwner, IdentityAdmin:
		return true
	}
	return false
}

// Counterpart returns the other side of a conversation. Only meaningful
// for consumer/owner.
func (t IdentityType) Counterpart() IdentityType {
	if t == IdentityConsumer {
		return IdentityOwner
	}
	return IdentityConsumer
}

// Identity is an authenticated actor: a tagged (type, id) pair. All room
// addressing and access checks key off this pair.
type Identity struct {
	Type IdentityType `json:"type"`
	Id   string       `json:"id"`
}

// Key returns the deterministic room key "{type}:{id}".
func (i Identity) Key() string {
	return fmt.Sprintf("%s:%s", i.Type, i.Id)
}

// ParseIdentityKey parses a "{type}:{id}" key back into an Identity.
func ParseIdentityKey(key string) (Identity, error) {
	idx := strings.Index(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return Identity{}, fmt.Errorf("invalid identity key: %q", key)
	}
	id := Identity{Type: IdentityType(key[:idx]), Id: key[idx+1:]}
	if !id.Type.Valid() {
		return Identity{}, fmt.Errorf("unknown identity type: %q", key[:idx])
	}
	return id, nil
}

// RoleRoom returns the room key shared by every identity of a type.
func RoleRoom(t IdentityType) string {
	return "type:" + string(t)
}
