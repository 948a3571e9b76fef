package game

import (
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// ProgressionTracker 把拾取的经验转换为等级
type ProgressionTracker struct {
	player    *models.PlayerEntity
	threshold int
	pending   int
	emit      func(models.Event)
}

// NewProgressionTracker 创建成长追踪器，threshold 为每级所需经验
func NewProgressionTracker(player *models.PlayerEntity, threshold int, emit func(models.Event)) *ProgressionTracker {
	if threshold <= 0 {
		threshold = 50
	}
	return &ProgressionTracker{
		player:    player,
		threshold: threshold,
		emit:      emit,
	}
}

// Enqueue 记录本 tick 拾取的经验，Flush 时统一结算
func (t *ProgressionTracker) Enqueue(amount int) {
	if amount > 0 {
		t.pending += amount
	}
}

// Flush 结算本 tick 的经验，返回升级次数
func (t *ProgressionTracker) Flush() int {
	amount := t.pending
	t.pending = 0
	return t.AddExperience(amount)
}

// AddExperience 增加经验，超出阈值的部分结转到下一级
func (t *ProgressionTracker) AddExperience(amount int) int {
	if amount <= 0 {
		return 0
	}
	p := t.player
	p.Exp += amount

	levels := 0
	for p.Exp >= t.threshold {
		p.Exp -= t.threshold
		p.Level++
		levels++
		if t.emit != nil {
			t.emit(models.Event{
				Type:     models.EventLevelUp,
				EntityID: p.ID,
				Position: p.Position,
				Value:    p.Level,
			})
		}
	}
	return levels
}

// Threshold 每级所需经验
func (t *ProgressionTracker) Threshold() int {
	return t.threshold
}

// ExpToNext 距离下一级还差的经验
func (t *ProgressionTracker) ExpToNext() int {
	return t.threshold - t.player.Exp
}

// Ratio 当前等级的经验进度，范围 [0, 1)
func (t *ProgressionTracker) Ratio() float64 {
	return float64(t.player.Exp) / float64(t.threshold)
}
