package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEventVisibleToSender(t *testing.T) {
	assert.True(t, ReadEventVisibleToSender(true))
	assert.False(t, ReadEventVisibleToSender(false))
}

func TestShowReadAt(t *testing.T) {
	t.Run("received messages always show read_at", func(t *testing.T) {
		assert.True(t, ShowReadAt(false, true))
		assert.True(t, ShowReadAt(false, false))
	})

	t.Run("sent messages follow the counterpart flag", func(t *testing.T) {
		assert.True(t, ShowReadAt(true, true))
		assert.False(t, ShowReadAt(true, false))
	})
}
