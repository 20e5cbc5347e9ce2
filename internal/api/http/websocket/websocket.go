package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	DEFAULT_HEARTBEAT_INTERVAL = 30 * time.Second
	DEFAULT_HEARTBEAT_TIMEOUT  = 45 * time.Second
	DEFAULT_SEND_BUFFER        = 64

	// 单帧写入的最长时间
	WRITE_WAIT = 10 * time.Second
	// 入站消息上限
	MAX_MESSAGE_SIZE = 16 * 1024
)

// Heartbeat 控制写协程的 ping 间隔和读超时，每收到一次 pong 读超时就顺延
type Heartbeat struct {
	Interval time.Duration
	Timeout  time.Duration
}

func (h Heartbeat) withDefaults() Heartbeat {
	if h.Interval <= 0 {
		h.Interval = DEFAULT_HEARTBEAT_INTERVAL
	}
	if h.Timeout <= 0 {
		h.Timeout = DEFAULT_HEARTBEAT_TIMEOUT
	}

	return h
}

var heartbeatHandler = func(conn *websocket.Conn, timeout time.Duration) func(string) error {
	return func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeout))
	}
}
