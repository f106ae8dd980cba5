package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_JoinCreatesRoom(t *testing.T) {
	d := newDirectory()

	added, size := d.join("user-a", "BTCUSD-1")
	assert.True(t, added)
	assert.Equal(t, 1, size)
	assert.Equal(t, 1, d.roomCount())
	assert.True(t, d.isMember("user-a", "BTCUSD-1"))
}

func TestDirectory_JoinIsIdempotent(t *testing.T) {
	d := newDirectory()

	d.join("user-a", "BTCUSD-1")
	added, size := d.join("user-a", "BTCUSD-1")

	assert.False(t, added)
	assert.Equal(t, 1, size)
	assert.Len(t, d.members("BTCUSD-1"), 1)
}

func TestDirectory_LeaveRemovesEmptyRoom(t *testing.T) {
	d := newDirectory()

	d.join("user-a", "BTCUSD-1")
	d.join("user-b", "BTCUSD-1")

	require.True(t, d.leave("user-a", "BTCUSD-1"))
	assert.NotContains(t, d.members("BTCUSD-1"), SessionID("user-a"))
	assert.Equal(t, 1, d.roomCount())

	require.True(t, d.leave("user-b", "BTCUSD-1"))
	assert.Equal(t, 0, d.roomCount())
}

func TestDirectory_LeaveUnknownIsNoop(t *testing.T) {
	d := newDirectory()

	assert.False(t, d.leave("user-a", "BTCUSD-1"))

	d.join("user-b", "BTCUSD-1")
	assert.False(t, d.leave("user-a", "BTCUSD-1"))
	assert.Len(t, d.members("BTCUSD-1"), 1)
}

func TestDirectory_LeaveAllCoversEveryRoom(t *testing.T) {
	d := newDirectory()

	// A session may accumulate membership in several rooms; leaveAll must
	// clean up all of them.
	d.join("user-a", "X")
	d.join("user-a", "Y")
	d.join("user-b", "X")

	left := d.leaveAll("user-a")
	assert.ElementsMatch(t, []string{"X", "Y"}, left)
	assert.False(t, d.isMember("user-a", "X"))
	assert.False(t, d.isMember("user-a", "Y"))
	assert.Empty(t, d.roomsOf("user-a"))

	// Y had no other member and is gone; X survives with user-b.
	assert.Equal(t, 1, d.roomCount())
	assert.Equal(t, []SessionID{"user-b"}, d.members("X"))
}

func TestDirectory_LeaveAllUnknownSession(t *testing.T) {
	d := newDirectory()
	assert.Nil(t, d.leaveAll("user-a"))
}

func TestDirectory_MembersOfUnknownRoomIsEmpty(t *testing.T) {
	d := newDirectory()
	assert.Empty(t, d.members("nope"))
	assert.Equal(t, 0, d.memberCount("nope"))
}
