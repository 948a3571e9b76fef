package game

import (
	"math"
	"testing"

	"github.com/jacl-coder/PixelStorm-Survivor/config"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// scriptRandom 按顺序返回预设值，用完后返回下界
type scriptRandom struct {
	vals []int
	i    int
}

func (s *scriptRandom) Between(lo, hi int) int {
	if s.i >= len(s.vals) {
		return lo
	}
	v := s.vals[s.i]
	s.i++
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func testSimulation() config.SimulationConfig {
	sim := config.DefaultSimulation()
	sim.SpawnIntervalMs = 1000000
	return sim
}

// newTestRoom 创建不刷怪、没有技能的房间
func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r, err := NewRoom(RoomOptions{
		Username:   "tester",
		Simulation: testSimulation(),
		Random:     &scriptRandom{},
	})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	r.skills, err = NewSkillSystem(r, r.player, nil)
	if err != nil {
		t.Fatalf("empty skill system: %v", err)
	}
	return r
}

// withSkills 替换技能栏
func withSkills(t *testing.T, r *Room, ids ...models.SkillID) *SkillSystem {
	t.Helper()
	sys, err := NewSkillSystem(r, r.player, ids)
	if err != nil {
		t.Fatalf("skill system: %v", err)
	}
	r.skills = sys
	return sys
}

// spawnEnemyAt 在玩家右侧 dx 处生成敌人
func spawnEnemyAt(t *testing.T, r *Room, dx, dy float64, health int) *models.EnemyEntity {
	t.Helper()
	pos := r.player.Position.Add(models.Vector2D{X: dx, Y: dy})
	e, err := r.registry.SpawnEnemy(&pos)
	if err != nil {
		t.Fatalf("spawn enemy: %v", err)
	}
	if health > 0 {
		e.Health = health
	}
	return e
}

func countEvents(r *Room, kind models.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
