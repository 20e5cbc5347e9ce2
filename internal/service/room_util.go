package service

import (
	"time"

	"banall-be/internal/service/game"
)

const DEFAULT_REQUEST_TIMEOUT = 5 * time.Second

type RoomServiceOptions struct {
	// 提交请求和等待结果共用的超时
	RequestTimeout time.Duration
	// 为 0 时不清理空闲玩家
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

type roomRequestAction struct {
	run func(c *game.Coordinator)
}

type RoomStats struct {
	Rooms        int `json:"rooms"`
	Players      int `json:"players"`
	Connections  int `json:"connections"`
	ActiveRounds int `json:"active_rounds"`
}
