package game

import (
	"time"

	"go.uber.org/zap"
)

// 每个房间的游戏分为 3 个阶段：
// 1. 大厅阶段（Lobby）：没有进行中的对局，也没有目标玩家
// 2. 进行阶段（Active）：已经指定目标玩家，玩家可以发起抓捕
// 3. 结束阶段（Ended）：只剩不超过一名可参与玩家时进入，广播结果后立即重置回大厅
const (
	STAGE_LOBBY  = "Lobby"
	STAGE_ACTIVE = "Active"
	STAGE_ENDED  = "Ended"
)

func StageOf(room *Room) string {
	if room.IsActive {
		return STAGE_ACTIVE
	}

	return STAGE_LOBBY
}

const (
	// 抓捕距离上限，恰好等于该值时可以抓捕
	PROXIMITY_THRESHOLD  = 3.0
	MIN_PLAYERS_TO_START = 2

	DEFAULT_RETARGET_GRACE = 500 * time.Millisecond
)

// 失败原因，只发送给发起者
const (
	REASON_NO_TARGET           = "No @bastral to ban!"
	REASON_ATTACKER_ELIMINATED = "You have already been banned!"
	REASON_SPECTATOR           = "Spectators cannot ban!"
	REASON_TARGET_ELIMINATED   = "@bastral has already been banned!"
	REASON_TARGET_CHANGED      = "@bastral has changed! Try again."
	REASON_SELF                = "Cannot ban yourself!"
	REASON_TOO_FAR             = "Too far from @bastral! Get closer to kick."

	REASON_GAME_IN_PROGRESS = "Game already in progress!"
	REASON_NOT_ENOUGH       = "Need at least 2 players to start!"
)

// EliminationEngine 持有抓捕游戏的状态机：选择目标、按距离判定抓捕、判定胜负并重置回合
type EliminationEngine struct {
	ctx *RoomContext
}

func NewEliminationEngine(ctx *RoomContext) *EliminationEngine {
	return &EliminationEngine{ctx: ctx}
}

func eligiblePlayers(room *Room) []*Player {
	players := make([]*Player, 0, len(room.Players))
	for _, p := range room.Players {
		if p.IsEligible() {
			players = append(players, p)
		}
	}

	return players
}

// StartGame 只能在大厅阶段、且至少有两名非观战玩家时开始
func (ee *EliminationEngine) StartGame(initiatorID string) {
	room, _, ok := ee.ctx.Store.RoomOf(initiatorID)
	if !ok {
		zap.L().Debug("玩家不在房间中，忽略开始请求", zap.String("player_id", initiatorID))
		return
	}

	if room.IsActive {
		ee.ctx.UnicastResp(initiatorID, StartFailedEvent{
			EventHeader: header(RESP_START_FAILED),
			Reason:      REASON_GAME_IN_PROGRESS,
		})
		return
	}

	eligible := eligiblePlayers(room)
	if len(eligible) < MIN_PLAYERS_TO_START {
		ee.ctx.UnicastResp(initiatorID, StartFailedEvent{
			EventHeader: header(RESP_START_FAILED),
			Reason:      REASON_NOT_ENOUGH,
		})
		return
	}

	target := pickPlayer(ee.ctx.Random, eligible)

	room.IsActive = true
	room.GameStartTime = ee.ctx.Now()
	room.TargetID = target.ID
	room.prevTargetID = ""
	target.IsTarget = true

	zap.L().Info(
		"游戏开始",
		zap.String("room_id", room.ID),
		zap.String("initiator_id", initiatorID),
		zap.String("target_id", target.ID),
		zap.Int("eligible", len(eligible)),
	)

	ee.ctx.BroadcastResp(room.ID, GameStartedEvent{
		EventHeader:    header(RESP_GAME_STARTED),
		TargetID:       target.ID,
		TargetUsername: target.Username,
		GameStartTime:  unixSeconds(room.GameStartTime),
	})
}

// AttemptEliminate 由聊天中的抓捕指令触发。
// expectedTargetID 为空时，刚换过目标则视为针对上一个目标，否则针对当前目标
func (ee *EliminationEngine) AttemptEliminate(attackerID, expectedTargetID string) {
	room, attacker, ok := ee.ctx.Store.RoomOf(attackerID)
	if !ok {
		return
	}

	if !room.IsActive {
		zap.L().Debug(
			"对局未开始，忽略抓捕指令",
			zap.String("room_id", room.ID),
			zap.String("player_id", attackerID),
		)
		return
	}

	target := room.Target()
	if target == nil {
		ee.banFailed(attackerID, REASON_NO_TARGET)
		return
	}

	if attacker.IsEliminated {
		ee.banFailed(attackerID, REASON_ATTACKER_ELIMINATED)
		return
	}

	if attacker.IsSpectator {
		ee.banFailed(attackerID, REASON_SPECTATOR)
		return
	}

	if expectedTargetID == "" {
		expectedTargetID = ee.impliedTarget(room)
	}

	if expectedTargetID != "" && expectedTargetID != target.ID {
		if expected, ok := room.Players[expectedTargetID]; ok && expected.IsEliminated {
			ee.banFailed(attackerID, REASON_TARGET_ELIMINATED)
		} else {
			ee.banFailed(attackerID, REASON_TARGET_CHANGED)
		}
		return
	}

	if target.IsEliminated {
		ee.banFailed(attackerID, REASON_TARGET_ELIMINATED)
		return
	}

	if attacker.ID == target.ID {
		ee.banFailed(attackerID, REASON_SELF)
		return
	}

	distance := attacker.Position.DistanceTo(target.Position)
	if distance > PROXIMITY_THRESHOLD {
		zap.L().Debug(
			"抓捕距离过远",
			zap.String("attacker_id", attacker.ID),
			zap.String("target_id", target.ID),
			zap.Float64("distance", distance),
		)
		ee.banFailed(attackerID, REASON_TOO_FAR)
		return
	}

	target.IsEliminated = true
	target.IsTarget = false
	room.TargetID = ""

	attacker.Animation = ANIM_KICKING
	target.Animation = ANIM_FALLING

	zap.L().Info(
		"抓捕成功",
		zap.String("room_id", room.ID),
		zap.String("attacker_id", attacker.ID),
		zap.String("target_id", target.ID),
		zap.Float64("distance", distance),
	)

	ee.ctx.BroadcastResp(room.ID, PlayerBannedEvent{
		EventHeader:      header(RESP_PLAYER_BANNED),
		AttackerID:       attacker.ID,
		TargetID:         target.ID,
		AttackerUsername: attacker.Username,
		TargetUsername:   target.Username,
		Position:         target.Position,
	})

	ee.reassignTarget(room, target.ID)
	ee.CheckGameEnd(room)
}

// ReleaseTarget 清除即将离开的玩家持有的目标角色，返回其是否为目标
func (ee *EliminationEngine) ReleaseTarget(room *Room, player *Player) bool {
	if room.TargetID != player.ID {
		return false
	}

	player.IsTarget = false
	room.TargetID = ""

	return true
}

// OnPlayerRemoved 在玩家离开房间后调用：离开的若是目标则转移目标角色，然后检查胜负
func (ee *EliminationEngine) OnPlayerRemoved(room *Room, departedID string, wasTarget bool) {
	if !room.IsActive {
		return
	}

	if wasTarget {
		ee.reassignTarget(room, departedID)
	}

	ee.CheckGameEnd(room)
}

// impliedTarget 返回换目标宽限期内的上一个目标。
// 宽限期内发出的指令很可能是在客户端收到 new_target 之前发出的
func (ee *EliminationEngine) impliedTarget(room *Room) string {
	if room.prevTargetID == "" || ee.ctx.RetargetGrace <= 0 {
		return ""
	}

	if ee.ctx.Now().Sub(room.targetChangedAt) >= ee.ctx.RetargetGrace {
		return ""
	}

	return room.prevTargetID
}

// reassignTarget 在剩余可参与的玩家中随机选出新目标；没有候选时不指定。
// prevID 是被淘汰或离开的旧目标
func (ee *EliminationEngine) reassignTarget(room *Room, prevID string) {
	if prev := room.Target(); prev != nil {
		prev.IsTarget = false
	}
	room.TargetID = ""
	room.prevTargetID = prevID
	room.targetChangedAt = ee.ctx.Now()

	next := pickPlayer(ee.ctx.Random, eligiblePlayers(room))
	if next == nil {
		return
	}

	room.TargetID = next.ID
	next.IsTarget = true

	ee.ctx.BroadcastResp(room.ID, NewTargetEvent{
		EventHeader:    header(RESP_NEW_TARGET),
		TargetID:       next.ID,
		TargetUsername: next.Username,
	})
}

// CheckGameEnd 在可参与玩家不超过一人时结束对局并重置所有玩家状态，返回是否结束
func (ee *EliminationEngine) CheckGameEnd(room *Room) bool {
	if !room.IsActive {
		return false
	}

	remaining := eligiblePlayers(room)
	if len(remaining) > 1 {
		return false
	}

	room.IsActive = false

	evt := GameEndedEvent{EventHeader: header(RESP_GAME_ENDED)}
	if len(remaining) == 1 {
		winnerID := remaining[0].ID
		winnerName := remaining[0].Username
		evt.WinnerID = &winnerID
		evt.WinnerUsername = &winnerName
	}

	zap.L().Info(
		"进入结束阶段",
		zap.String("room_id", room.ID),
		zap.String("stage", STAGE_ENDED),
		zap.Stringp("winner_id", evt.WinnerID),
	)

	ee.ctx.BroadcastResp(room.ID, evt)

	ee.resetRound(room)

	return true
}

func (ee *EliminationEngine) resetRound(room *Room) {
	for _, p := range room.Players {
		p.IsEliminated = false
		p.IsTarget = false
		p.Animation = ANIM_IDLE
		// 中途加入而被动观战的玩家在新回合恢复参与
		p.IsSpectator = p.wantsSpectate
	}
	room.TargetID = ""
	room.prevTargetID = ""

	zap.L().Debug(
		"回合已重置",
		zap.String("room_id", room.ID),
		zap.String("stage", StageOf(room)),
	)
}

func (ee *EliminationEngine) banFailed(attackerID, reason string) {
	ee.ctx.UnicastResp(attackerID, BanFailedEvent{
		EventHeader: header(RESP_BAN_FAILED),
		Reason:      reason,
	})
}
