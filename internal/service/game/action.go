package game

// 字段均为可选，未提供的字段保留玩家原值
type PositionUpdateRequest struct {
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Z         *float64 `json:"z"`
	RotationY *float64 `json:"rotation_y"`
	Animation *string  `json:"animation_state"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
	// 可选：发起抓捕时客户端认为的目标，用于识别目标已经变化的情况
	TargetID string `json:"target_id,omitempty"`
}

type StartGameRequest struct{}

// 连接层加入房间时提供的参数
type JoinRequest struct {
	PlayerID  string
	RoomID    string
	Name      string
	Spectator bool
	SessionID string
}
