package app

import (
	"sync"

	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

// RoomManager tracks room membership with both forward and reverse indexes.
// Forward: room → set of connection ids (for broadcasts)
// Reverse: connection → set of rooms (for O(1) LeaveAll on disconnect)
// Rooms are a derived view: created implicitly on first join, dissolved
// when the last member leaves.
type RoomManager struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]map[core.ConnID]struct{}
	byConn map[core.ConnID]map[domain.RoomID]struct{}
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[domain.RoomID]map[core.ConnID]struct{}),
		byConn: make(map[core.ConnID]map[domain.RoomID]struct{}),
	}
}

func (m *RoomManager) Join(room domain.RoomID, cid core.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[core.ConnID]struct{})
	}
	m.rooms[room][cid] = struct{}{}
	if m.byConn[cid] == nil {
		m.byConn[cid] = make(map[domain.RoomID]struct{})
	}
	m.byConn[cid][room] = struct{}{}
}

func (m *RoomManager) Leave(room domain.RoomID, cid core.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(room, cid)
}

func (m *RoomManager) leaveLocked(room domain.RoomID, cid core.ConnID) {
	if members, ok := m.rooms[room]; ok {
		delete(members, cid)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	if rooms, ok := m.byConn[cid]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(m.byConn, cid)
		}
	}
}

// LeaveAll removes the connection from every room it joined and returns the
// affected rooms.
func (m *RoomManager) LeaveAll(cid core.ConnID) []domain.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms, ok := m.byConn[cid]
	if !ok {
		return nil
	}
	affected := make([]domain.RoomID, 0, len(rooms))
	for room := range rooms {
		affected = append(affected, room)
		if members, ok := m.rooms[room]; ok {
			delete(members, cid)
			if len(members) == 0 {
				delete(m.rooms, room)
			}
		}
	}
	delete(m.byConn, cid)
	return affected
}

func (m *RoomManager) Members(room domain.RoomID) []core.ConnID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members := m.rooms[room]
	if len(members) == 0 {
		return nil
	}
	out := make([]core.ConnID, 0, len(members))
	for cid := range members {
		out = append(out, cid)
	}
	return out
}

func (m *RoomManager) MemberCount(room domain.RoomID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, members := range m.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}
