package messaging

import "time"

type NatsServerOpt func(*NatsServer)

// WithStartTimeout 设置内嵌 NATS 服务启动的最长等待时间
func WithStartTimeout(d time.Duration) NatsServerOpt {
	return func(n *NatsServer) {
		n.startupTimeout = d
	}
}

func WithHost(host string) NatsServerOpt {
	return func(n *NatsServer) {
		n.host = host
	}
}

// WithPort 设置监听端口，-1 表示随机端口
func WithPort(port int) NatsServerOpt {
	return func(n *NatsServer) {
		n.port = port
	}
}
