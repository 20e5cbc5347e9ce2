package game

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// Random 是可替换的随机源，测试中可以注入确定性的实现
type Random interface {
	IntN(n int) int
}

// NewRandom 在 seed 为 0 时使用全局随机源，否则返回可复现的随机源
func NewRandom(seed uint64) Random {
	if seed == 0 {
		return globalRandom{}
	}

	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int {
	return rand.IntN(n)
}

// pickPlayer 在按 ID 排序后的候选集合中均匀随机选择一名玩家，
// 排序保证相同的随机序列得到相同的结果
func pickPlayer(random Random, candidates []*Player) *Player {
	if len(candidates) == 0 {
		return nil
	}

	slices.SortFunc(candidates, func(a, b *Player) int {
		return strings.Compare(a.ID, b.ID)
	})

	return candidates[random.IntN(len(candidates))]
}
