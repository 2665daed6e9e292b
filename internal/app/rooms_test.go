package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

func TestRoomManager_JoinAndMembers(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager()

	rooms.Join("r1", "c1")
	rooms.Join("r1", "c2")
	rooms.Join("r2", "c1")

	req.ElementsMatch([]string{"c1", "c2"}, connIDs(rooms.Members("r1")))
	req.Equal(2, rooms.MemberCount("r1"))
	req.Equal(1, rooms.MemberCount("r2"))
	req.Nil(rooms.Members("missing"))
}

func TestRoomManager_LeaveDissolvesEmptyRoom(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager()

	rooms.Join("r1", "c1")
	rooms.Leave("r1", "c1")

	req.Nil(rooms.Members("r1"))
	req.Empty(rooms.List())
}

func TestRoomManager_LeaveAll(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager()

	rooms.Join("r1", "c1")
	rooms.Join("r2", "c1")
	rooms.Join("r2", "c2")

	affected := rooms.LeaveAll("c1")
	req.ElementsMatch([]domain.RoomID{"r1", "r2"}, affected)

	// r1 dissolved, r2 keeps its other member
	req.Nil(rooms.Members("r1"))
	req.Equal([]string{"c2"}, connIDs(rooms.Members("r2")))

	// Second LeaveAll is a no-op
	req.Nil(rooms.LeaveAll("c1"))
}

func TestRoomManager_List(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomManager()

	rooms.Join("r1", "c1")
	rooms.Join("r1", "c2")

	list := rooms.List()
	req.Len(list, 1)
	req.Equal(domain.RoomID("r1"), list[0].ID)
	req.Equal(2, list[0].MemberCount)
}

func connIDs(in []core.ConnID) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, string(id))
	}
	return out
}
