package state

import (
	"banall-be/internal/config"
	"banall-be/internal/messaging"
	"banall-be/internal/service"

	"go.uber.org/zap"
)

type AppState struct {
	Cfg     *config.AppConfig
	RoomSvc *service.RoomService
	// 未开启事件镜像时为 nil
	Nats *messaging.NatsServer
}

func NewAppState(
	cfg *config.AppConfig,
	roomSvc *service.RoomService,
	natsServer *messaging.NatsServer,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		RoomSvc: roomSvc,
		Nats:    natsServer,
	}
}

// Shutdown 在 HTTP 服务器退出后调用：先停止房间协程，再关闭 NATS
func (s *AppState) Shutdown() {
	s.RoomSvc.Close()
	zap.L().Info("房间服务已关闭")

	if s.Nats != nil {
		s.Nats.Shutdown()
	}
}
