package game

import (
	"math"
	"time"
)

// 玩家动画状态
const (
	ANIM_IDLE     = "idle"
	ANIM_WALKING  = "walking"
	ANIM_CLIMBING = "climbing"
	ANIM_KICKING  = "kicking"
	ANIM_FALLING  = "falling"
)

func isValidAnimation(anim string) bool {
	switch anim {
	case ANIM_IDLE, ANIM_WALKING, ANIM_CLIMBING, ANIM_KICKING, ANIM_FALLING:
		return true
	}

	return false
}

type Position struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	RotationY float64 `json:"rotation_y"`
}

// 三维欧氏距离，不考虑朝向
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z

	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

type Player struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	WalletAddress string   `json:"wallet_address"`
	Position      Position `json:"position"`
	Animation     string   `json:"animation_state"`
	IsEliminated  bool     `json:"is_eliminated"`
	IsTarget      bool     `json:"is_target"`
	IsSpectator   bool     `json:"is_spectator"`
	LastUpdated   float64  `json:"last_updated"`

	// 玩家主动要求观战；为 false 时的观战身份只是因为中途加入，回合重置时会被取消
	wantsSpectate bool
	lastActive    time.Time
}

// 可参与抓捕的玩家：未被淘汰且不是观战者
func (p *Player) IsEligible() bool {
	return !p.IsEliminated && !p.IsSpectator
}

func (p *Player) touch(now time.Time) {
	p.lastActive = now
	p.LastUpdated = unixSeconds(now)
}

type Room struct {
	ID            string
	Players       map[string]*Player
	IsActive      bool
	GameStartTime time.Time
	TargetID      string
	ChatHistory   []ChatMessageEvent

	// 出生点序号只增不减，避免玩家离开后新玩家与现有玩家重叠
	spawnSeq int

	// 最近一次换目标前的目标及换目标的时刻
	prevTargetID    string
	targetChangedAt time.Time
}

func newRoom(roomID string) *Room {
	return &Room{
		ID:          roomID,
		Players:     make(map[string]*Player),
		ChatHistory: make([]ChatMessageEvent, 0),
	}
}

// 当前目标玩家，目标不存在时返回 nil
func (r *Room) Target() *Player {
	if r.TargetID == "" {
		return nil
	}

	return r.Players[r.TargetID]
}

func (r *Room) appendChat(msg ChatMessageEvent, limit int) {
	r.ChatHistory = append(r.ChatHistory, msg)

	if limit > 0 && len(r.ChatHistory) > limit {
		overflow := len(r.ChatHistory) - limit
		r.ChatHistory = append(r.ChatHistory[:0:0], r.ChatHistory[overflow:]...)
	}
}

// 房间快照，查询接口和多个广播事件都会内嵌它
type RoomSnapshot struct {
	RoomID        string            `json:"room_id"`
	IsActive      bool              `json:"is_active"`
	PlayerCount   int               `json:"player_count"`
	Players       map[string]Player `json:"players"`
	TargetID      *string           `json:"target_id"`
	GameStartTime float64           `json:"game_start_time"`
}

func (r *Room) Snapshot() RoomSnapshot {
	players := make(map[string]Player, len(r.Players))
	for id, p := range r.Players {
		players[id] = *p
	}

	snapshot := RoomSnapshot{
		RoomID:        r.ID,
		IsActive:      r.IsActive,
		PlayerCount:   len(r.Players),
		Players:       players,
		GameStartTime: unixSeconds(r.GameStartTime),
	}

	if r.TargetID != "" {
		targetID := r.TargetID
		snapshot.TargetID = &targetID
	}

	return snapshot
}

func emptySnapshot(roomID string) RoomSnapshot {
	return RoomSnapshot{
		RoomID:  roomID,
		Players: map[string]Player{},
	}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}

	return float64(t.UnixNano()) / float64(time.Second)
}
