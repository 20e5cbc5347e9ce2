package game

import (
	"strings"

	"go.uber.org/zap"
)

// 抓捕指令，比较前会去掉首尾空白并转为小写
const ELIMINATE_PHRASE = "/ban @bastral"

func IsEliminatePhrase(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == ELIMINATE_PHRASE
}

// ChatRelay 转发聊天消息，并拦截抓捕指令交给抓捕引擎
type ChatRelay struct {
	ctx    *RoomContext
	engine *EliminationEngine
}

func NewChatRelay(ctx *RoomContext, engine *EliminationEngine) *ChatRelay {
	return &ChatRelay{ctx: ctx, engine: engine}
}

func (cr *ChatRelay) HandleChat(playerID string, req ChatMessageRequest) {
	room, player, ok := cr.ctx.Store.RoomOf(playerID)
	if !ok {
		zap.L().Debug("玩家不在房间中，忽略聊天消息", zap.String("player_id", playerID))
		return
	}

	now := cr.ctx.Now()
	player.touch(now)

	if IsEliminatePhrase(req.Message) {
		cr.engine.AttemptEliminate(playerID, req.TargetID)
		return
	}

	msg := ChatMessageEvent{
		EventHeader: header(RESP_CHAT_MESSAGE),
		ID:          GenID(),
		PlayerID:    player.ID,
		Username:    player.Username,
		Message:     req.Message,
		Timestamp:   unixSeconds(now),
	}

	room.appendChat(msg, cr.ctx.ChatHistoryLimit)

	// 聊天没有本地回显，发送者也需要收到自己的消息来确认顺序
	cr.ctx.BroadcastResp(room.ID, msg)
}
