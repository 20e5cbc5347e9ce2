package game

import (
	"go.uber.org/zap"
)

// StateSynchronizer 负责位置和动画的局部更新，并同步给同房间的其他玩家
type StateSynchronizer struct {
	ctx *RoomContext
}

func NewStateSynchronizer(ctx *RoomContext) *StateSynchronizer {
	return &StateSynchronizer{ctx: ctx}
}

// UpdatePosition 只覆盖请求中提供的字段。
// 玩家已不在任何房间时静默忽略（断开流程和位置更新之间的竞争）
func (ss *StateSynchronizer) UpdatePosition(playerID string, delta PositionUpdateRequest) {
	room, player, ok := ss.ctx.Store.RoomOf(playerID)
	if !ok {
		zap.L().Debug("玩家不在房间中，忽略位置更新", zap.String("player_id", playerID))
		return
	}

	if delta.X != nil {
		player.Position.X = *delta.X
	}
	if delta.Y != nil {
		player.Position.Y = *delta.Y
	}
	if delta.Z != nil {
		player.Position.Z = *delta.Z
	}
	if delta.RotationY != nil {
		player.Position.RotationY = *delta.RotationY
	}
	if delta.Animation != nil {
		if isValidAnimation(*delta.Animation) {
			player.Animation = *delta.Animation
		} else {
			zap.L().Debug(
				"未知的动画状态，保留原值",
				zap.String("player_id", playerID),
				zap.String("animation_state", *delta.Animation),
			)
		}
	}

	player.touch(ss.ctx.Now())

	// 发送者本地已有自己的权威状态，不回显
	ss.ctx.BroadcastResp(
		room.ID,
		PlayerMovedEvent{
			EventHeader: header(RESP_PLAYER_MOVED),
			PlayerID:    player.ID,
			Position:    player.Position,
			Animation:   player.Animation,
		},
		player.ID,
	)
}
