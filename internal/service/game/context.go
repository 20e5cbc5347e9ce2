package game

import (
	"time"

	"go.uber.org/zap"
)

// EventSink 接收每一次房间广播的副本（例如转发到消息总线）
type EventSink interface {
	RoomEvent(roomID string, evt Event)
}

type noopSink struct{}

func (noopSink) RoomEvent(string, Event) {}

// RoomContext 是各组件共享的依赖：房间存储、连接登记表和时间、随机源
type RoomContext struct {
	Store    *RoomStore
	Registry *ConnRegistry

	Sink             EventSink
	Random           Random
	Now              func() time.Time
	ChatHistoryLimit int
	// 换目标后的这段时间内，未指明目标的抓捕视为针对上一个目标
	RetargetGrace time.Duration
}

// BroadcastResp 以发送时刻的房间成员为准进行广播，excludeIDs 中的玩家不会收到
func (rc *RoomContext) BroadcastResp(roomID string, evt Event, excludeIDs ...string) {
	room, ok := rc.Store.Room(roomID)
	if !ok {
		zap.L().Debug(
			"房间不存在，跳过广播",
			zap.String("room_id", roomID),
			zap.String("event", evt.EventType()),
		)
		return
	}

	for playerID := range room.Players {
		if isExcluded(playerID, excludeIDs) {
			continue
		}

		rc.Registry.Send(playerID, evt)
	}

	rc.Sink.RoomEvent(roomID, evt)
}

// UnicastResp 只发给单个玩家，规则错误等私有消息走这里
func (rc *RoomContext) UnicastResp(playerID string, evt Event) {
	rc.Registry.Send(playerID, evt)
}

func isExcluded(playerID string, excludeIDs []string) bool {
	for _, id := range excludeIDs {
		if id == playerID {
			return true
		}
	}

	return false
}
