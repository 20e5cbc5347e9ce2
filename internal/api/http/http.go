package http

import (
	"banall-be/internal/api/http/websocket"
	"banall-be/internal/state"

	"github.com/kataras/iris/v12"
)

func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	app.Get("/health", Liveness())
	app.Get("/ws/{playerId}", websocket.JoinGame(appState))

	api := app.Party("/api")

	api.Get("/health", Health(appState))
	api.Get("/game_state/{roomId}", GetRoomState(appState))

	v1 := api.Party("/v1")

	v1.Get("/rooms", ListRooms(appState))
	v1.Get("/rooms/{roomId}", GetRoomState(appState))
	v1.Get("/rooms/{roomId}/chat", GetChatHistory(appState))

	return app
}

// RunServer 阻塞直到服务器关闭，中断信号由 iris 处理
func RunServer(appState *state.AppState) error {
	app := NewApp(appState)

	return app.Listen(appState.Cfg.Addr())
}
