package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var ErrNotStarted = errors.New("nats 服务尚未启动")

// NatsServer 是进程内嵌的 NATS 服务以及一条供本进程发布消息的客户端连接
type NatsServer struct {
	ns   *server.Server
	conn *nats.Conn

	startupTimeout time.Duration
	host           string
	port           int
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           4222,
	}

	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host: s.host,
		Port: s.port,
		// 信号由 iris 统一处理
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 nats 服务失败: %w", err)
	}

	s.ns = ns

	return s, nil
}

// Start 启动服务并等待可以接受连接，然后建立内部客户端连接
func (n *NatsServer) Start() error {
	n.ns.Start()

	if !n.ns.ReadyForConnections(n.startupTimeout) {
		return fmt.Errorf("nats 服务在 %s 内未就绪", n.startupTimeout)
	}

	conn, err := nats.Connect(n.ns.ClientURL(), nats.Name("banall-be"))
	if err != nil {
		n.ns.Shutdown()
		return fmt.Errorf("创建 nats 客户端连接失败: %w", err)
	}
	n.conn = conn

	zap.L().Info("nats 服务已启动", zap.String("addr", n.ns.ClientURL()))

	return nil
}

func (n *NatsServer) Shutdown() {
	if n.conn != nil {
		if err := n.conn.Drain(); err != nil {
			zap.L().Warn("关闭 nats 客户端连接失败", zap.Error(err))
		}
	}

	n.ns.Shutdown()
	n.ns.WaitForShutdown()

	zap.L().Info("nats 服务已关闭")
}

func (n *NatsServer) ClientURL() string {
	return n.ns.ClientURL()
}

// Subscribe 订阅 subject，返回取消订阅的函数
func (n *NatsServer) Subscribe(subject string, handler func(subject string, data []byte)) (func(), error) {
	if n.conn == nil {
		return nil, ErrNotStarted
	}

	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("订阅 %s 失败: %w", subject, err)
	}

	// 确保订阅已到达服务端，之后发布的消息不会丢失
	if err := n.conn.Flush(); err != nil {
		return nil, fmt.Errorf("刷新 nats 连接失败: %w", err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			zap.L().Debug("取消订阅失败", zap.String("subject", subject), zap.Error(err))
		}
	}, nil
}

func (n *NatsServer) Publish(subject string, data []byte) error {
	if n.conn == nil {
		return ErrNotStarted
	}

	return n.conn.Publish(subject, data)
}
