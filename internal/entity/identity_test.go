package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyRoundTrip(t *testing.T) {
	cases := []Identity{
		{Type: IdentityConsumer, Id: "c1"},
		{Type: IdentityOwner, Id: "owner-42"},
		{Type: IdentityAdmin, Id: "a:with:colons"},
	}
	for _, id := range cases {
		parsed, err := ParseIdentityKey(id.Key())
		require.NoError(t, err, "key %q", id.Key())
		assert.Equal(t, id, parsed)
	}
}

func TestParseIdentityKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "consumer", "consumer:", ":c1", "robot:c1"} {
		_, err := ParseIdentityKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestCounterpart(t *testing.T) {
	assert.Equal(t, IdentityOwner, IdentityConsumer.Counterpart())
	assert.Equal(t, IdentityConsumer, IdentityOwner.Counterpart())
}

func TestConversationParticipants(t *testing.T) {
	conv := &Conversation{Id: "cv1", ConsumerId: "c1", OwnerId: "o1", PlantId: "p1"}

	assert.Equal(t, "c1", conv.Participant(IdentityConsumer))
	assert.Equal(t, "o1", conv.Participant(IdentityOwner))

	assert.True(t, conv.HasParticipant(Identity{Type: IdentityConsumer, Id: "c1"}))
	assert.True(t, conv.HasParticipant(Identity{Type: IdentityOwner, Id: "o1"}))
	assert.False(t, conv.HasParticipant(Identity{Type: IdentityConsumer, Id: "o1"}))
	assert.False(t, conv.HasParticipant(Identity{Type: IdentityAdmin, Id: "a1"}))
}
