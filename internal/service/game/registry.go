package game

import (
	"go.uber.org/zap"
)

// Conn 是单个玩家的下行通道，由连接层实现
type Conn interface {
	Send(evt Event) error
	Close() error
}

type connEntry struct {
	conn      Conn
	sessionID string
}

// ConnRegistry 维护玩家 ID 到下行通道的映射。
// 房间和玩家只保存玩家 ID，不直接持有连接
type ConnRegistry struct {
	conns map[string]connEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		conns: make(map[string]connEntry),
	}
}

// Register 登记（或覆盖）玩家的下行通道，返回被顶替的旧连接
func (cr *ConnRegistry) Register(playerID, sessionID string, conn Conn) Conn {
	prev, ok := cr.conns[playerID]
	cr.conns[playerID] = connEntry{conn: conn, sessionID: sessionID}

	if ok && prev.conn != conn {
		return prev.conn
	}

	return nil
}

func (cr *ConnRegistry) Unregister(playerID string) {
	delete(cr.conns, playerID)
}

func (cr *ConnRegistry) Session(playerID string) (string, bool) {
	entry, ok := cr.conns[playerID]
	return entry.sessionID, ok
}

func (cr *ConnRegistry) Conn(playerID string) (Conn, bool) {
	entry, ok := cr.conns[playerID]
	return entry.conn, ok
}

func (cr *ConnRegistry) Len() int {
	return len(cr.conns)
}

// Send 写入失败只记录日志，不向上传播；失效的登记由断开流程负责清理
func (cr *ConnRegistry) Send(playerID string, evt Event) {
	entry, ok := cr.conns[playerID]
	if !ok {
		zap.L().Debug(
			"玩家未登记连接，跳过发送",
			zap.String("player_id", playerID),
			zap.String("event", evt.EventType()),
		)
		return
	}

	if err := entry.conn.Send(evt); err != nil {
		zap.L().Warn(
			"发送消息失败",
			zap.String("player_id", playerID),
			zap.String("event", evt.EventType()),
			zap.Error(err),
		)
		return
	}

	zap.L().Debug(
		"发送消息成功",
		zap.String("player_id", playerID),
		zap.String("event", evt.EventType()),
	)
}
