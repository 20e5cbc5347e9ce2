package dto

import "banall-be/internal/service/game"

type RoomListResponse struct {
	Rooms []game.RoomSummary `json:"rooms"`
}

type ChatHistoryResponse struct {
	RoomID   string                  `json:"room_id"`
	Messages []game.ChatMessageEvent `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
