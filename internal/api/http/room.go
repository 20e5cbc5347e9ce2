package http

import (
	"strings"
	"time"

	"banall-be/internal/messaging"
	"banall-be/internal/service/dto"
	"banall-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const CONTENT_TYPE_MSGPACK = "application/msgpack"

func Liveness() iris.Handler {
	return func(ctx iris.Context) {
		ctx.JSON(dto.LivenessResponse{
			Status:    dto.STATUS_HEALTHY,
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		})
	}
}

func Health(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		stats, err := appState.RoomSvc.Stats()
		if err != nil {
			serviceUnavailable(ctx, err)
			return
		}

		ctx.JSON(dto.HealthResponse{
			Status:            dto.STATUS_HEALTHY,
			GameRooms:         stats.Rooms,
			ActiveConnections: stats.Connections,
			Players:           stats.Players,
			ActiveRounds:      stats.ActiveRounds,
		})
	}
}

func ListRooms(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		rooms, err := appState.RoomSvc.Rooms()
		if err != nil {
			serviceUnavailable(ctx, err)
			return
		}

		ctx.JSON(dto.RoomListResponse{Rooms: rooms})
	}
}

// GetRoomState 对未知房间返回空快照；Accept 为 application/msgpack 时返回 msgpack
func GetRoomState(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("roomId")

		snapshot, err := appState.RoomSvc.RoomState(roomID)
		if err != nil {
			serviceUnavailable(ctx, err)
			return
		}

		if !strings.Contains(ctx.GetHeader("Accept"), CONTENT_TYPE_MSGPACK) {
			ctx.JSON(snapshot)
			return
		}

		data, err := messaging.EncodeMsgpack(snapshot)
		if err != nil {
			zap.L().Error("编码房间快照失败", zap.String("room_id", roomID), zap.Error(err))
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(dto.ErrorResponse{Error: "编码失败"})
			return
		}

		ctx.ContentType(CONTENT_TYPE_MSGPACK)
		ctx.Write(data)
	}
}

func GetChatHistory(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("roomId")

		messages, err := appState.RoomSvc.ChatHistory(roomID)
		if err != nil {
			serviceUnavailable(ctx, err)
			return
		}

		ctx.JSON(dto.ChatHistoryResponse{
			RoomID:   roomID,
			Messages: messages,
		})
	}
}

func serviceUnavailable(ctx iris.Context, err error) {
	zap.L().Warn("房间服务不可用", zap.String("path", ctx.Path()), zap.Error(err))

	ctx.StatusCode(iris.StatusServiceUnavailable)
	ctx.JSON(dto.ErrorResponse{Error: err.Error()})
}
