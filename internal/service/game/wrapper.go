package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_POSITION_UPDATE = "position_update"
	REQ_CHAT_MESSAGE    = "chat_message"
	REQ_START_GAME      = "start_game"
)

// 客户端发来的消息信封。聊天消息的 message 可以放在顶层，也可以放在 data 中
type RequestWrapper struct {
	ReqType  string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Message  string          `json:"message,omitempty"`
	TargetID string          `json:"target_id,omitempty"`
}

func TryUnwrapPositionUpdateRequest(wrapper RequestWrapper) *PositionUpdateRequest {
	if wrapper.ReqType != REQ_POSITION_UPDATE {
		return nil
	}

	var positionUpdateRequest PositionUpdateRequest

	if len(wrapper.Data) == 0 {
		return &positionUpdateRequest
	}

	err := json.Unmarshal(wrapper.Data, &positionUpdateRequest)
	if err != nil {
		zap.L().Warn(
			"解析 PositionUpdateRequest 失败",
			zap.Error(err),
			zap.ByteString("data", wrapper.Data),
		)
		return nil
	}

	return &positionUpdateRequest
}

func TryUnwrapChatMessageRequest(wrapper RequestWrapper) *ChatMessageRequest {
	if wrapper.ReqType != REQ_CHAT_MESSAGE {
		return nil
	}

	var chatMessageRequest ChatMessageRequest

	if len(wrapper.Data) != 0 {
		err := json.Unmarshal(wrapper.Data, &chatMessageRequest)
		if err != nil {
			zap.L().Warn(
				"解析 ChatMessageRequest 失败",
				zap.Error(err),
				zap.ByteString("data", wrapper.Data),
			)
			return nil
		}
	}

	// 顶层字段优先
	if wrapper.Message != "" {
		chatMessageRequest.Message = wrapper.Message
	}
	if wrapper.TargetID != "" {
		chatMessageRequest.TargetID = wrapper.TargetID
	}

	return &chatMessageRequest
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	if wrapper.ReqType != REQ_START_GAME {
		return nil
	}

	return &StartGameRequest{}
}

// 响应（广播事件）类型
const (
	RESP_ROOM_JOINED   = "room_joined"
	RESP_PLAYER_JOINED = "player_joined"
	RESP_PLAYER_LEFT   = "player_left"
	RESP_PLAYER_MOVED  = "player_moved"
	RESP_CHAT_MESSAGE  = "chat_message"
	RESP_BAN_FAILED    = "ban_failed"
	RESP_PLAYER_BANNED = "player_banned"
	RESP_NEW_TARGET    = "new_target"
	RESP_GAME_STARTED  = "game_started"
	RESP_GAME_ENDED    = "game_ended"
	RESP_START_FAILED  = "start_failed"
)

// 所有下行消息都实现 Event，序列化后是带 type 字段的扁平 JSON 对象
type Event interface {
	EventType() string
}

type EventHeader struct {
	Type string `json:"type"`
}

func (h EventHeader) EventType() string {
	return h.Type
}

func header(respType string) EventHeader {
	return EventHeader{Type: respType}
}

type RoomJoinedEvent struct {
	EventHeader
	PlayerID  string       `json:"player_id"`
	RoomState RoomSnapshot `json:"room_state"`
}

type PlayerJoinedEvent struct {
	EventHeader
	Player    Player       `json:"player"`
	RoomState RoomSnapshot `json:"room_state"`
}

type PlayerLeftEvent struct {
	EventHeader
	PlayerID  string       `json:"player_id"`
	RoomState RoomSnapshot `json:"room_state"`
}

type PlayerMovedEvent struct {
	EventHeader
	PlayerID  string   `json:"player_id"`
	Position  Position `json:"position"`
	Animation string   `json:"animation_state"`
}

type ChatMessageEvent struct {
	EventHeader
	ID        string  `json:"id"`
	PlayerID  string  `json:"player_id"`
	Username  string  `json:"username"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

type BanFailedEvent struct {
	EventHeader
	Reason string `json:"reason"`
}

type PlayerBannedEvent struct {
	EventHeader
	AttackerID       string   `json:"attacker_id"`
	TargetID         string   `json:"target_id"`
	AttackerUsername string   `json:"attacker_username"`
	TargetUsername   string   `json:"target_username"`
	Position         Position `json:"position"`
}

type NewTargetEvent struct {
	EventHeader
	TargetID       string `json:"target_id"`
	TargetUsername string `json:"target_username"`
}

type GameStartedEvent struct {
	EventHeader
	TargetID       string  `json:"target_id"`
	TargetUsername string  `json:"target_username"`
	GameStartTime  float64 `json:"game_start_time"`
}

// 没有幸存者时 winner 两个字段都是 null
type GameEndedEvent struct {
	EventHeader
	WinnerID       *string `json:"winner_id"`
	WinnerUsername *string `json:"winner_username"`
}

type StartFailedEvent struct {
	EventHeader
	Reason string `json:"reason"`
}
