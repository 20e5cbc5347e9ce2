package game

import (
	"time"

	"go.uber.org/zap"
)

const DEFAULT_ROOM = "main"

// 出生点沿 X 轴排开，贴近攀岩墙
const (
	SPAWN_ORIGIN_X = -10.0
	SPAWN_SPACING  = 2.0
	SPAWN_Z        = -2.0
)

func spawnPosition(seq int) Position {
	return Position{
		X: float64(seq)*SPAWN_SPACING + SPAWN_ORIGIN_X,
		Y: 0,
		Z: SPAWN_Z,
	}
}

type RoomSummary struct {
	RoomID      string `json:"room_id"`
	PlayerCount int    `json:"player_count"`
	IsActive    bool   `json:"is_active"`
	Stage       string `json:"stage"`
}

type Option func(*Coordinator)

func WithRandom(random Random) Option {
	return func(c *Coordinator) {
		c.ctx.Random = random
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.ctx.Now = now
	}
}

func WithEventSink(sink EventSink) Option {
	return func(c *Coordinator) {
		c.ctx.Sink = sink
	}
}

func WithChatHistoryLimit(limit int) Option {
	return func(c *Coordinator) {
		c.ctx.ChatHistoryLimit = limit
	}
}

func WithRetargetGrace(grace time.Duration) Option {
	return func(c *Coordinator) {
		c.ctx.RetargetGrace = grace
	}
}

func WithDefaultRoom(roomID string) Option {
	return func(c *Coordinator) {
		if roomID != "" {
			c.defaultRoom = roomID
		}
	}
}

// Coordinator 是连接层使用的门面，组合房间存储、连接登记表和三个业务组件。
// 它本身不加锁，调用方必须保证同一时刻只有一个 goroutine 在使用它
type Coordinator struct {
	ctx    *RoomContext
	sync   *StateSynchronizer
	chat   *ChatRelay
	engine *EliminationEngine

	defaultRoom string
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		ctx: &RoomContext{
			Store:            NewRoomStore(),
			Registry:         NewConnRegistry(),
			Sink:             noopSink{},
			Random:           NewRandom(0),
			Now:              time.Now,
			ChatHistoryLimit: 100,
			RetargetGrace:    DEFAULT_RETARGET_GRACE,
		},
		defaultRoom: DEFAULT_ROOM,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sync = NewStateSynchronizer(c.ctx)
	c.engine = NewEliminationEngine(c.ctx)
	c.chat = NewChatRelay(c.ctx, c.engine)

	return c
}

// Join 登记连接、把玩家放入房间并通知房间成员，返回加入后的房间快照
func (c *Coordinator) Join(req JoinRequest, conn Conn) RoomSnapshot {
	roomID := req.RoomID
	if roomID == "" {
		roomID = c.defaultRoom
	}

	if displaced := c.ctx.Registry.Register(req.PlayerID, req.SessionID, conn); displaced != nil {
		zap.L().Info(
			"同一玩家 ID 重新连接，关闭旧连接",
			zap.String("player_id", req.PlayerID),
			zap.String("session_id", req.SessionID),
		)
		if err := displaced.Close(); err != nil {
			zap.L().Debug("关闭旧连接失败", zap.String("player_id", req.PlayerID), zap.Error(err))
		}
	}

	now := c.ctx.Now()

	if room, player, ok := c.ctx.Store.RoomOf(req.PlayerID); ok {
		if room.ID == roomID {
			// 按 ID 重连同一房间：保留原有状态
			if req.Name != "" {
				player.Username = req.Name
			}
			player.touch(now)

			zap.L().Info(
				"玩家重连房间",
				zap.String("room_id", room.ID),
				zap.String("player_id", player.ID),
			)

			return c.announceJoin(room, player)
		}

		c.removeFromRoom(room, player)
	}

	room := c.ctx.Store.EnsureRoom(roomID)

	username := req.Name
	if username == "" {
		username = "Player_" + req.PlayerID
	}

	player := &Player{
		ID:        req.PlayerID,
		Username:  username,
		Position:  spawnPosition(room.spawnSeq),
		Animation: ANIM_IDLE,
		// 对局进行中加入的玩家本回合只能观战
		IsSpectator:   req.Spectator || room.IsActive,
		wantsSpectate: req.Spectator,
	}
	player.touch(now)
	room.spawnSeq++

	c.ctx.Store.AddPlayer(room.ID, player)

	zap.L().Info(
		"玩家加入房间",
		zap.String("room_id", room.ID),
		zap.String("player_id", player.ID),
		zap.String("username", player.Username),
		zap.Bool("spectator", player.IsSpectator),
		zap.Int("player_count", len(room.Players)),
	)

	return c.announceJoin(room, player)
}

// announceJoin 先向全房间（包括加入者）广播 player_joined，再单独给加入者发送 room_joined
func (c *Coordinator) announceJoin(room *Room, player *Player) RoomSnapshot {
	snapshot := room.Snapshot()

	c.ctx.BroadcastResp(room.ID, PlayerJoinedEvent{
		EventHeader: header(RESP_PLAYER_JOINED),
		Player:      *player,
		RoomState:   snapshot,
	})

	c.ctx.UnicastResp(player.ID, RoomJoinedEvent{
		EventHeader: header(RESP_ROOM_JOINED),
		PlayerID:    player.ID,
		RoomState:   snapshot,
	})

	return snapshot
}

// Leave 注销连接并把玩家移出房间。sessionID 不是当前登记的会话时视为过期的断开事件，直接忽略；
// 玩家不在任何房间时静默返回。返回是否真的移除了玩家
func (c *Coordinator) Leave(playerID, sessionID string) bool {
	if sessionID != "" {
		if current, ok := c.ctx.Registry.Session(playerID); ok && current != sessionID {
			zap.L().Debug(
				"忽略已被顶替的连接的断开事件",
				zap.String("player_id", playerID),
				zap.String("session_id", sessionID),
			)
			return false
		}
	}

	c.ctx.Registry.Unregister(playerID)

	room, player, ok := c.ctx.Store.RoomOf(playerID)
	if !ok {
		return false
	}

	c.removeFromRoom(room, player)

	return true
}

func (c *Coordinator) removeFromRoom(room *Room, player *Player) {
	wasTarget := c.engine.ReleaseTarget(room, player)

	c.ctx.Store.RemovePlayer(room.ID, player.ID)

	zap.L().Info(
		"玩家离开房间",
		zap.String("room_id", room.ID),
		zap.String("player_id", player.ID),
		zap.Bool("was_target", wasTarget),
		zap.Int("player_count", len(room.Players)),
	)

	c.ctx.BroadcastResp(room.ID, PlayerLeftEvent{
		EventHeader: header(RESP_PLAYER_LEFT),
		PlayerID:    player.ID,
		RoomState:   room.Snapshot(),
	})

	c.engine.OnPlayerRemoved(room, player.ID, wasTarget)
}

// Dispatch 按消息类型分发，未知类型直接忽略
func (c *Coordinator) Dispatch(playerID string, req RequestWrapper) {
	if _, player, ok := c.ctx.Store.RoomOf(playerID); ok {
		player.lastActive = c.ctx.Now()
	}

	if r := TryUnwrapPositionUpdateRequest(req); r != nil {
		c.sync.UpdatePosition(playerID, *r)
		return
	}

	if r := TryUnwrapChatMessageRequest(req); r != nil {
		c.chat.HandleChat(playerID, *r)
		return
	}

	if r := TryUnwrapStartGameRequest(req); r != nil {
		c.engine.StartGame(playerID)
		return
	}

	zap.L().Debug(
		"忽略无法处理的消息",
		zap.String("player_id", playerID),
		zap.String("type", req.ReqType),
	)
}

// RoomState 对未知房间返回空快照
func (c *Coordinator) RoomState(roomID string) RoomSnapshot {
	if roomID == "" {
		roomID = c.defaultRoom
	}

	return c.ctx.Store.Snapshot(roomID)
}

func (c *Coordinator) ChatHistory(roomID string) []ChatMessageEvent {
	room, ok := c.ctx.Store.Room(roomID)
	if !ok {
		return []ChatMessageEvent{}
	}

	history := make([]ChatMessageEvent, len(room.ChatHistory))
	copy(history, room.ChatHistory)

	return history
}

func (c *Coordinator) Rooms() []RoomSummary {
	ids := c.ctx.Store.RoomIDs()
	summaries := make([]RoomSummary, 0, len(ids))

	for _, id := range ids {
		room, _ := c.ctx.Store.Room(id)
		summaries = append(summaries, RoomSummary{
			RoomID:      room.ID,
			PlayerCount: len(room.Players),
			IsActive:    room.IsActive,
			Stage:       StageOf(room),
		})
	}

	return summaries
}

func (c *Coordinator) ConnectionCount() int {
	return c.ctx.Registry.Len()
}

// EvictIdle 移除超过 maxIdle 没有任何上行消息的玩家，并关闭其连接
func (c *Coordinator) EvictIdle(maxIdle time.Duration) []string {
	if maxIdle <= 0 {
		return nil
	}

	now := c.ctx.Now()
	evicted := make([]string, 0)

	for _, roomID := range c.ctx.Store.RoomIDs() {
		room, _ := c.ctx.Store.Room(roomID)
		for id, p := range room.Players {
			if now.Sub(p.lastActive) > maxIdle {
				evicted = append(evicted, id)
			}
		}
	}

	for _, playerID := range evicted {
		conn, hasConn := c.ctx.Registry.Conn(playerID)

		zap.L().Info("玩家长时间无活动，移出房间", zap.String("player_id", playerID))
		c.Leave(playerID, "")

		if hasConn {
			if err := conn.Close(); err != nil {
				zap.L().Debug("关闭空闲连接失败", zap.String("player_id", playerID), zap.Error(err))
			}
		}
	}

	return evicted
}
