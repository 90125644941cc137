package gateway

import (
	"encoding/json"
	"testing"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	raw := []byte(`{"action":"send_message","req_id":"7","data":{"conversation_id":"cv1","content":"hi"}}`)

	var req WSRequest
	require.NoError(t, Decode(raw, &req))
	assert.Equal(t, ActionSendMessage, req.Action)
	assert.Equal(t, "7", req.ReqId)

	var payload SendMessageReq
	require.NoError(t, Decode(req.Data, &payload))
	assert.Equal(t, "cv1", payload.ConversationId)
	assert.Equal(t, "hi", payload.Content)
}

func TestEncodeResponseOmitsEmptyFields(t *testing.T) {
	out, err := Encode(&WSResponse{Action: ActionTyping, ReqId: "1"})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "err_msg")
	assert.NotContains(t, m, "data")
	assert.EqualValues(t, 0, m["err_code"])
}

func TestEventFrameShape(t *testing.T) {
	out, err := Encode(&EventFrame{Event: "message:new", Data: map[string]string{"id": "m1"}})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "message:new", m["event"])
	require.NotNil(t, m["data"])
	// No action field: clients tell pushes from replies by its absence.
	assert.NotContains(t, m, "action")
}

func TestClientJoinTracking(t *testing.T) {
	c := testClient(entity.IdentityConsumer, "u1", "conn1")

	assert.False(t, c.InConversation("cv1"))
	c.JoinConversation("cv1")
	assert.True(t, c.InConversation("cv1"))
	c.LeaveConversation("cv1")
	assert.False(t, c.InConversation("cv1"))
}
