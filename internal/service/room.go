package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"banall-be/internal/service/game"

	"go.uber.org/zap"
)

var (
	ErrServiceClosed  = errors.New("房间服务已关闭")
	ErrRequestTimeout = errors.New("房间服务未能及时处理请求")
)

// RoomService 把所有房间状态交给唯一的协程持有。
// 每个操作都作为闭包提交到请求通道，在下一个操作开始前完整执行（包括广播）
type RoomService struct {
	coord *game.Coordinator
	opts  RoomServiceOptions

	reqCh    chan roomRequestAction
	closed   chan struct{}
	loopDone chan struct{}

	closeOnce sync.Once
}

func NewRoomService(coord *game.Coordinator, opts RoomServiceOptions) *RoomService {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DEFAULT_REQUEST_TIMEOUT
	}

	rs := &RoomService{
		coord:    coord,
		opts:     opts,
		reqCh:    make(chan roomRequestAction),
		closed:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	go rs.roomLoop()

	return rs
}

func (rs *RoomService) roomLoop() {
	defer func() {
		close(rs.loopDone)
		zap.S().Infof("房间协程退出")
	}()

	// 未开启空闲清理时 cleanupC 为 nil，对应分支永远不会被选中
	var cleanupC <-chan time.Time
	if rs.opts.IdleTimeout > 0 && rs.opts.CleanupInterval > 0 {
		ticker := time.NewTicker(rs.opts.CleanupInterval)
		defer ticker.Stop()
		cleanupC = ticker.C
	}

	for {
		select {
		case <-rs.closed:
			zap.S().Infof("房间协程收到关闭指令")
			return

		case req := <-rs.reqCh:
			req.run(rs.coord)

		case <-cleanupC:
			evicted := rs.coord.EvictIdle(rs.opts.IdleTimeout)
			if len(evicted) > 0 {
				zap.S().Infof("清理了 %d 名长时间无活动的玩家", len(evicted))
			}
		}
	}
}

// Close 停止房间协程，之后提交的请求都会返回 ErrServiceClosed
func (rs *RoomService) Close() {
	rs.closeOnce.Do(func() {
		close(rs.closed)
	})

	<-rs.loopDone
}

// 一次请求的结局：调用方拿到结果，或者调用方已超时放弃
const (
	callPending int32 = iota
	callDelivered
	callAbandoned
)

// call 把 fn 提交给房间协程并等待结果。
// 结果通过带缓冲的通道返回，超时后房间协程仍会执行完 fn，但不会阻塞
func call[T any](rs *RoomService, fn func(c *game.Coordinator) T) (T, error) {
	return callOrUndo(rs, fn, nil)
}

// callOrUndo 与 call 相同，但调用方超时放弃后 fn 仍被执行时，房间协程会紧接着执行 undo 撤销其效果
func callOrUndo[T any](rs *RoomService, fn func(c *game.Coordinator) T, undo func(c *game.Coordinator)) (T, error) {
	var zero T

	var outcome atomic.Int32
	resCh := make(chan T, 1)
	action := roomRequestAction{
		run: func(c *game.Coordinator) {
			res := fn(c)
			if outcome.CompareAndSwap(callPending, callDelivered) {
				resCh <- res
				return
			}
			if undo != nil {
				undo(c)
			}
		},
	}

	reqTimer := time.NewTimer(rs.opts.RequestTimeout)
	defer reqTimer.Stop()

	select {
	case <-rs.closed:
		return zero, ErrServiceClosed

	case rs.reqCh <- action:

	case <-reqTimer.C:
		return zero, ErrRequestTimeout
	}

	select {
	case res := <-resCh:
		return res, nil

	case <-reqTimer.C:
		if outcome.CompareAndSwap(callPending, callAbandoned) {
			return zero, ErrRequestTimeout
		}

		// 计时器与结果同时就绪，结果已经生效
		return <-resCh, nil
	}
}

func (rs *RoomService) Join(req game.JoinRequest, conn game.Conn) (game.RoomSnapshot, error) {
	if req.PlayerID == "" {
		return game.RoomSnapshot{}, errors.New("玩家 ID 不能为空")
	}
	if conn == nil {
		return game.RoomSnapshot{}, errors.New("连接不能为空")
	}

	// 超时后调用方不会再进入读循环，也就不会发出 Leave，必须在房间协程里撤销这次加入
	snapshot, err := callOrUndo(
		rs,
		func(c *game.Coordinator) game.RoomSnapshot {
			return c.Join(req, conn)
		},
		func(c *game.Coordinator) {
			zap.S().Warnf("玩家 %s 的加入请求已超时，撤销加入", req.PlayerID)
			c.Leave(req.PlayerID, req.SessionID)
		},
	)
	if err != nil {
		zap.S().Warnf("玩家 %s 加入房间 %s 失败：%v", req.PlayerID, req.RoomID, err)
		return game.RoomSnapshot{}, err
	}

	return snapshot, nil
}

// Leave 返回玩家是否真的被移出房间；过期会话的断开事件返回 false
func (rs *RoomService) Leave(playerID, sessionID string) (bool, error) {
	return call(rs, func(c *game.Coordinator) bool {
		return c.Leave(playerID, sessionID)
	})
}

func (rs *RoomService) Dispatch(playerID string, req game.RequestWrapper) error {
	_, err := call(rs, func(c *game.Coordinator) struct{} {
		c.Dispatch(playerID, req)
		return struct{}{}
	})

	return err
}

func (rs *RoomService) RoomState(roomID string) (game.RoomSnapshot, error) {
	return call(rs, func(c *game.Coordinator) game.RoomSnapshot {
		return c.RoomState(roomID)
	})
}

func (rs *RoomService) Rooms() ([]game.RoomSummary, error) {
	return call(rs, func(c *game.Coordinator) []game.RoomSummary {
		return c.Rooms()
	})
}

func (rs *RoomService) ChatHistory(roomID string) ([]game.ChatMessageEvent, error) {
	return call(rs, func(c *game.Coordinator) []game.ChatMessageEvent {
		return c.ChatHistory(roomID)
	})
}

func (rs *RoomService) Stats() (RoomStats, error) {
	return call(rs, func(c *game.Coordinator) RoomStats {
		stats := RoomStats{Connections: c.ConnectionCount()}
		for _, summary := range c.Rooms() {
			stats.Rooms++
			stats.Players += summary.PlayerCount
			if summary.IsActive {
				stats.ActiveRounds++
			}
		}
		return stats
	})
}
