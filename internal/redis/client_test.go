package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "classroom:ABC234", ClassroomKey("ABC234"))
	assert.Equal(t, "classroom:ABC234:students", RosterKey("ABC234"))
	assert.Equal(t, "classroom:ABC234:broadcast", BroadcastKey("ABC234"))
	assert.Equal(t, "teacher:t-1:classes", TeacherClassesKey("t-1"))
	assert.Equal(t, "broadcast:ABC234", BroadcastChannel("ABC234"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not-a-redis-url")
	assert.Error(t, err)
}
