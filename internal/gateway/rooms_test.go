package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomHubJoinIdempotent(t *testing.T) {
	hub := NewRoomHub()
	client := testClient("u1", "c1")

	hub.Join("room1", client)
	hub.Join("room1", client)

	assert.Len(t, hub.Members("room1"), 1)
	assert.Equal(t, 1, hub.RoomCount())
}

func TestRoomHubMembersPerConnection(t *testing.T) {
	hub := NewRoomHub()

	// two connections of the same user join independently
	hub.Join("room1", testClient("u1", "c1"))
	hub.Join("room1", testClient("u1", "c2"))
	hub.Join("room1", testClient("u2", "c3"))

	assert.Len(t, hub.Members("room1"), 3)
	assert.Nil(t, hub.Members("unknown"))
}

func TestRoomHubLeaveAll(t *testing.T) {
	hub := NewRoomHub()
	client := testClient("u1", "c1")
	other := testClient("u2", "c2")

	hub.Join("room1", client)
	hub.Join("room2", client)
	hub.Join("room1", other)

	hub.LeaveAll("c1")

	assert.Len(t, hub.Members("room1"), 1)
	assert.Nil(t, hub.Members("room2"), "emptied room should be dropped")
	assert.Equal(t, 1, hub.RoomCount())

	// leaving again is a no-op
	hub.LeaveAll("c1")
	assert.Equal(t, 1, hub.RoomCount())
}

func TestRoomHubLeave(t *testing.T) {
	hub := NewRoomHub()
	client := testClient("u1", "c1")

	hub.Join("room1", client)
	hub.Leave("room1", "c1")

	assert.Nil(t, hub.Members("room1"))
	assert.Equal(t, 0, hub.RoomCount())
}
