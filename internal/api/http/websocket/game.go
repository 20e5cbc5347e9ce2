package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"banall-be/internal/service"
	"banall-be/internal/service/game"
	"banall-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// JoinGame 处理 /ws/{playerId}?room=&name=&spectator=
// 连接建立后立即加入房间，读循环退出时带着本次会话 ID 离开房间
func JoinGame(appState *state.AppState) iris.Handler {
	heartbeat := Heartbeat{
		Interval: appState.Cfg.HeartbeatInterval,
		Timeout:  appState.Cfg.HeartbeatTimeout,
	}.withDefaults()

	return func(ctx iris.Context) {
		playerID := ctx.Params().Get("playerId")
		if playerID == "" {
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		req := game.JoinRequest{
			PlayerID:  playerID,
			RoomID:    ctx.URLParamDefault("room", appState.Cfg.DefaultRoom),
			Name:      ctx.URLParam("name"),
			Spectator: ctx.URLParamBoolDefault("spectator", false),
			SessionID: game.GenID(),
		}

		clientIP := ctx.RemoteAddr()

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error(
				"升级到WebSocket失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		conn.SetReadLimit(MAX_MESSAGE_SIZE)
		conn.SetReadDeadline(time.Now().Add(heartbeat.Timeout))
		conn.SetPongHandler(heartbeatHandler(conn, heartbeat.Timeout))

		wsc := newWSConn(conn, req.PlayerID, req.SessionID, appState.Cfg.SendBuffer)

		writeDoneCh := make(chan struct{})
		go func() {
			defer close(writeDoneCh)
			wsc.writeLoop(heartbeat)
		}()

		defer func() {
			wsc.Close()
			<-writeDoneCh

			zap.L().Info(
				"WebSocket连接处理完成",
				zap.String("client_ip", clientIP),
				zap.String("player_id", req.PlayerID),
				zap.String("session_id", req.SessionID),
			)
		}()

		if _, err := appState.RoomSvc.Join(req, wsc); err != nil {
			zap.L().Error(
				"加入房间失败",
				zap.String("client_ip", clientIP),
				zap.String("player_id", req.PlayerID),
				zap.Error(err),
			)
			return
		}

		zap.L().Info(
			"玩家成功加入房间",
			zap.String("client_ip", clientIP),
			zap.String("player_id", req.PlayerID),
			zap.String("room_id", req.RoomID),
			zap.String("session_id", req.SessionID),
		)

		readLoop(appState.RoomSvc, conn, req.PlayerID)

		// 读循环退出，表示客户端断开连接或被服务端关闭
		removed, err := appState.RoomSvc.Leave(req.PlayerID, req.SessionID)
		if err != nil {
			zap.L().Warn(
				"离开房间失败",
				zap.String("player_id", req.PlayerID),
				zap.Error(err),
			)
			return
		}

		zap.L().Debug(
			"客户端连接断开",
			zap.String("player_id", req.PlayerID),
			zap.Bool("removed", removed),
		)
	}
}

func readLoop(roomSvc *service.RoomService, conn *websocket.Conn, playerID string) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				zap.L().Warn(
					"读取消息失败",
					zap.String("player_id", playerID),
					zap.Error(err),
				)
			}
			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			// 格式错误的帧直接丢弃，不断开连接
			zap.L().Warn(
				"解析消息失败",
				zap.String("player_id", playerID),
				zap.Error(err),
			)
			continue
		}

		if err := roomSvc.Dispatch(playerID, wrapper); err != nil {
			if errors.Is(err, service.ErrServiceClosed) {
				return
			}

			zap.L().Warn(
				"处理消息失败",
				zap.String("player_id", playerID),
				zap.String("type", wrapper.ReqType),
				zap.Error(err),
			)
		}
	}
}
