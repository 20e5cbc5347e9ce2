package main

import (
	"errors"

	"banall-be/internal/api/http"
	"banall-be/internal/config"
	"banall-be/internal/logger"
	"banall-be/internal/messaging"
	"banall-be/internal/service"
	"banall-be/internal/service/game"
	"banall-be/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogEncoding)
	defer zap.L().Sync()

	opts := []game.Option{
		game.WithRandom(game.NewRandom(cfg.RandomSeed)),
		game.WithChatHistoryLimit(cfg.ChatHistoryLimit),
		game.WithRetargetGrace(cfg.RetargetGrace),
		game.WithDefaultRoom(cfg.DefaultRoom),
	}

	// 可选：把房间广播镜像到内嵌的 NATS
	var natsServer *messaging.NatsServer
	if cfg.Nats.Enabled {
		ns, err := messaging.NewNatsServer(
			messaging.WithHost(cfg.Nats.Host),
			messaging.WithPort(cfg.Nats.Port),
			messaging.WithStartTimeout(cfg.Nats.StartTimeout),
		)
		if err != nil {
			zap.L().Fatal("创建 nats 服务失败", zap.Error(err))
		}
		if err := ns.Start(); err != nil {
			zap.L().Fatal("启动 nats 服务失败", zap.Error(err))
		}

		natsServer = ns
		opts = append(opts, game.WithEventSink(messaging.NewMirror(ns, cfg.Nats.SubjectPrefix)))
	}

	roomSvc := service.NewRoomService(
		game.NewCoordinator(opts...),
		service.RoomServiceOptions{
			RequestTimeout:  cfg.RequestTimeout,
			IdleTimeout:     cfg.IdleTimeout,
			CleanupInterval: cfg.CleanupInterval,
		},
	)

	// 组装应用状态
	appState := state.NewAppState(cfg, roomSvc, natsServer)

	// 启动服务器，收到中断信号后 iris 会优雅关闭并返回
	if err := http.RunServer(appState); err != nil && !errors.Is(err, iris.ErrServerClosed) {
		zap.L().Error("服务器异常退出", zap.Error(err))
	}

	appState.Shutdown()
}
