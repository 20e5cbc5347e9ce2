package game

import (
	"slices"
)

// RoomStore 保存所有房间以及玩家所在房间的索引。
// 成员关系以这里为准，广播时总是实时查询，不缓存成员列表
type RoomStore struct {
	rooms      map[string]*Room
	membership map[string]string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:      make(map[string]*Room),
		membership: make(map[string]string),
	}
}

// EnsureRoom 返回已有房间，不存在则创建一个空房间
func (rs *RoomStore) EnsureRoom(roomID string) *Room {
	if room, ok := rs.rooms[roomID]; ok {
		return room
	}

	room := newRoom(roomID)
	rs.rooms[roomID] = room

	return room
}

func (rs *RoomStore) Room(roomID string) (*Room, bool) {
	room, ok := rs.rooms[roomID]
	return room, ok
}

func (rs *RoomStore) AddPlayer(roomID string, player *Player) *Room {
	room := rs.EnsureRoom(roomID)
	room.Players[player.ID] = player
	rs.membership[player.ID] = roomID

	return room
}

// RemovePlayer 只移除成员关系，目标角色的转移由抓捕引擎负责
func (rs *RoomStore) RemovePlayer(roomID, playerID string) (*Player, bool) {
	room, ok := rs.rooms[roomID]
	if !ok {
		return nil, false
	}

	player, ok := room.Players[playerID]
	if !ok {
		return nil, false
	}

	delete(room.Players, playerID)
	if rs.membership[playerID] == roomID {
		delete(rs.membership, playerID)
	}

	return player, true
}

// RoomOf 根据成员关系查找玩家所在房间和玩家本身
func (rs *RoomStore) RoomOf(playerID string) (*Room, *Player, bool) {
	roomID, ok := rs.membership[playerID]
	if !ok {
		return nil, nil, false
	}

	room, ok := rs.rooms[roomID]
	if !ok {
		return nil, nil, false
	}

	player, ok := room.Players[playerID]
	if !ok {
		return nil, nil, false
	}

	return room, player, true
}

// Snapshot 对未知房间返回空快照而不是错误
func (rs *RoomStore) Snapshot(roomID string) RoomSnapshot {
	room, ok := rs.rooms[roomID]
	if !ok {
		return emptySnapshot(roomID)
	}

	return room.Snapshot()
}

func (rs *RoomStore) RoomIDs() []string {
	ids := make([]string, 0, len(rs.rooms))
	for id := range rs.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (rs *RoomStore) MemberCount() int {
	return len(rs.membership)
}
