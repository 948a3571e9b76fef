package game

import (
	"log"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

const (
	knockbackSpeed    = 100.0
	knockbackDuration = 200 * time.Millisecond
	magnetSpeed       = 300.0
)

// updateMotion 移动玩家、敌人、经验球和子弹，然后处理普攻
func (r *Room) updateMotion(dt time.Duration) {
	secs := dt.Seconds()
	p := r.player
	arena := r.registry.Arena()

	if p.IsAlive {
		p.Velocity = p.MoveDirection.Normalize().Scale(p.Speed)
		p.Position = arena.Clamp(p.Position.Add(p.Velocity.Scale(secs)))
	} else {
		p.Velocity = models.Vector2D{}
	}

	r.registry.ForEachAlive(models.EntityEnemy, func(e models.Entity) bool {
		enemy := e.(*models.EnemyEntity)
		if !enemy.IsAlive {
			return true
		}
		if enemy.KnockbackLeft > 0 {
			enemy.KnockbackLeft -= dt
		} else if p.IsAlive {
			// 追击玩家
			dir := p.Position.Add(enemy.Position.Scale(-1)).Normalize()
			enemy.Velocity = dir.Scale(enemy.Speed)
		} else {
			enemy.Velocity = models.Vector2D{}
		}
		enemy.Position = arena.Clamp(enemy.Position.Add(enemy.Velocity.Scale(secs)))
		return true
	})

	r.registry.ForEachAlive(models.EntityExpOrb, func(e models.Entity) bool {
		orb := e.(*models.ExpOrbEntity)
		if orb.Collected || !p.IsAlive {
			return true
		}
		dist := orb.Position.DistanceTo(p.Position)
		if dist > p.MagnetRange || dist == 0 {
			orb.Velocity = models.Vector2D{}
			return true
		}
		step := magnetSpeed * secs
		if step >= dist {
			orb.Position = p.Position
			return true
		}
		dir := p.Position.Add(orb.Position.Scale(-1)).Normalize()
		orb.Velocity = dir.Scale(magnetSpeed)
		orb.Position = orb.Position.Add(orb.Velocity.Scale(secs))
		return true
	})

	r.registry.ForEachAlive(models.EntityBullet, func(e models.Entity) bool {
		b := e.(*models.BulletEntity)
		b.Position = b.Position.Add(b.Velocity.Scale(secs))
		if r.now >= b.ExpiresAt || !arena.Contains(b.Position) {
			// 未命中的子弹带着的附加效果一起消失
			_ = r.registry.Destroy(b.ID)
		}
		return true
	})

	r.autoAttack()
}

// autoAttack 冷却结束时向射程内最近的敌人发射子弹
func (r *Room) autoAttack() {
	p := r.player
	if !p.IsAlive {
		return
	}
	if p.HasAttacked && r.now-p.LastAttack < p.AttackCooldown {
		return
	}

	var target *models.EnemyEntity
	best := p.AttackRange
	for _, e := range r.registry.AliveEnemies() {
		if d := p.Position.DistanceTo(e.Position); d <= best && (target == nil || d < best) {
			target = e
			best = d
		}
	}
	if target == nil {
		return
	}

	angle := models.AngleBetween(p.Position, target.Position)
	velocity := models.FromAngle(angle, r.character.BulletSpeed)
	b, err := r.registry.SpawnBullet(p.Position, velocity, p.AttackDamage, p.ID, r.bulletLifetime)
	if err != nil {
		log.Printf("房间 %s 发射子弹失败: %v", r.ID, err)
		return
	}

	// 爆裂箭效果转移到这发子弹上
	b.Modifier = p.PendingAttack
	p.PendingAttack = nil
	p.LastAttack = r.now
	p.HasAttacked = true
}
