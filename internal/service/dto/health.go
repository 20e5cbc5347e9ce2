package dto

const STATUS_HEALTHY = "healthy"

type HealthResponse struct {
	Status            string `json:"status"`
	GameRooms         int    `json:"game_rooms"`
	ActiveConnections int    `json:"active_connections"`
	Players           int    `json:"players"`
	ActiveRounds      int    `json:"active_rounds"`
}

type LivenessResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}
