package game

import (
	"log"
	"time"
)

// SpawnScheduler 按固定间隔刷怪，累计时间带余数结转
type SpawnScheduler struct {
	interval time.Duration
	acc      time.Duration
	spawn    func() error
}

// NewSpawnScheduler 创建刷怪调度器，spawn 每次生成一个敌人
func NewSpawnScheduler(interval time.Duration, spawn func() error) *SpawnScheduler {
	return &SpawnScheduler{interval: interval, spawn: spawn}
}

// Advance 推进 dt，返回本次生成的敌人数量
func (s *SpawnScheduler) Advance(dt time.Duration) int {
	if s.interval <= 0 || dt <= 0 {
		return 0
	}
	s.acc += dt

	spawned := 0
	for s.acc >= s.interval {
		s.acc -= s.interval
		if err := s.spawn(); err != nil {
			log.Printf("刷怪失败: %v", err)
			continue
		}
		spawned++
	}
	return spawned
}

// Remainder 尚未满一个间隔的累计时间
func (s *SpawnScheduler) Remainder() time.Duration {
	return s.acc
}
