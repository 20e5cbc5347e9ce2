package websocket

import (
	"errors"
	"sync"
	"time"

	"banall-be/internal/service/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnClosed  = errors.New("连接已关闭")
	ErrConnBacklog = errors.New("下行缓冲已满")
)

// wsConn 实现 game.Conn。Send 只做非阻塞入队，真正的写入由 writeLoop 完成，
// 慢客户端不会拖住房间协程
type wsConn struct {
	conn      *websocket.Conn
	playerID  string
	sessionID string

	out  chan game.Event
	done chan struct{}

	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, playerID, sessionID string, sendBuffer int) *wsConn {
	if sendBuffer <= 0 {
		sendBuffer = DEFAULT_SEND_BUFFER
	}

	return &wsConn{
		conn:      conn,
		playerID:  playerID,
		sessionID: sessionID,
		out:       make(chan game.Event, sendBuffer),
		done:      make(chan struct{}),
	}
}

func (c *wsConn) Send(evt game.Event) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.out <- evt:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrConnBacklog
	}
}

// Close 通知写协程发送关闭帧并断开底层连接，可以重复调用
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})

	return nil
}

func (c *wsConn) writeLoop(heartbeat Heartbeat) {
	ticker := time.NewTicker(heartbeat.Interval)

	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()

		zap.L().Debug(
			"WebSocket写入协程退出",
			zap.String("player_id", c.playerID),
			zap.String("session_id", c.sessionID),
		)
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(WRITE_WAIT),
			)
			return

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WRITE_WAIT)); err != nil {
				zap.L().Warn(
					"发送心跳失败",
					zap.String("player_id", c.playerID),
					zap.Error(err),
				)
				return
			}

		case evt := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))

			if err := c.conn.WriteJSON(evt); err != nil {
				zap.L().Warn(
					"发送消息失败",
					zap.String("player_id", c.playerID),
					zap.String("event", evt.EventType()),
					zap.Error(err),
				)
				return
			}
		}
	}
}
