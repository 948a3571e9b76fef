package game

import (
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

func TestBulletHitsExactlyOneEnemy(t *testing.T) {
	r := newTestRoom(t)
	first := spawnEnemyAt(t, r, 200, 0, 100)
	second := spawnEnemyAt(t, r, 205, 0, 100)

	b, err := r.registry.SpawnBullet(first.Position, models.Vector2D{}, 10, r.player.ID, time.Second)
	if err != nil {
		t.Fatalf("spawn bullet: %v", err)
	}
	r.resolveBullets()
	r.resolveBullets()

	if first.Health != 90 || second.Health != 100 {
		t.Fatalf("hp first=%d second=%d", first.Health, second.Health)
	}
	if !b.Resolved || !b.Removed {
		t.Fatalf("bullet not consumed")
	}
	if countEvents(r, models.EventEnemyHit) != 1 {
		t.Fatalf("expected a single enemy_hit event")
	}
}

func TestEnemyDropsExactlyOneOrb(t *testing.T) {
	r := newTestRoom(t)
	e := spawnEnemyAt(t, r, 200, 0, 10)

	if !r.DamageEnemy(e, 15) {
		t.Fatalf("lethal hit not reported")
	}
	if r.DamageEnemy(e, 15) {
		t.Fatalf("dead enemy died twice")
	}
	if e.Health != 0 || e.IsAlive || !e.ExpDropped {
		t.Fatalf("enemy state %+v", e)
	}
	if n := r.registry.Count(models.EntityExpOrb); n != 1 {
		t.Fatalf("expected 1 orb, got %d", n)
	}
	if r.player.Kills != 1 || countEvents(r, models.EventEnemyDeath) != 1 {
		t.Fatalf("kills=%d deaths=%d", r.player.Kills, countEvents(r, models.EventEnemyDeath))
	}
}

func TestOrbDroppedAtClampedPosition(t *testing.T) {
	r := newTestRoom(t)
	pos := models.Vector2D{X: 0, Y: 0}
	e, _ := r.registry.SpawnEnemy(&pos)
	e.Position = models.Vector2D{X: -30, Y: 800}
	r.DamageEnemy(e, 100)

	var orb *models.ExpOrbEntity
	r.registry.ForEachAlive(models.EntityExpOrb, func(o models.Entity) bool {
		orb = o.(*models.ExpOrbEntity)
		return false
	})
	if orb == nil || orb.Position != (models.Vector2D{X: 0, Y: 720}) {
		t.Fatalf("orb %+v", orb)
	}
}

func TestPickupIsIdempotent(t *testing.T) {
	r := newTestRoom(t)
	orb, err := r.registry.SpawnExpOrb(r.player.Position, 10)
	if err != nil {
		t.Fatalf("spawn orb: %v", err)
	}

	if !r.collectOrb(orb) {
		t.Fatalf("first pickup failed")
	}
	if r.collectOrb(orb) {
		t.Fatalf("orb collected twice")
	}
	r.resolvePickups()
	r.progress.Flush()
	if r.player.Exp != 10 {
		t.Fatalf("exp %d want 10", r.player.Exp)
	}
}

func TestContactDamageCooldown(t *testing.T) {
	r := newTestRoom(t)
	e := spawnEnemyAt(t, r, 10, 0, 0)

	r.resolvePlayerEnemy()
	r.resolvePlayerEnemy()
	if r.player.Health != 90 {
		t.Fatalf("hp %d want 90 after one contact", r.player.Health)
	}
	if e.KnockbackLeft != knockbackDuration || e.Velocity.X <= 0 {
		t.Fatalf("knockback not away from player: %+v", e.Velocity)
	}

	r.now = 500 * time.Millisecond
	r.resolvePlayerEnemy()
	if r.player.Health != 80 {
		t.Fatalf("hp %d want 80 after cooldown", r.player.Health)
	}
}

func TestContactDamageEveryTickWithoutCooldown(t *testing.T) {
	r := newTestRoom(t)
	r.contactCooldown = 0
	spawnEnemyAt(t, r, 10, 0, 0)

	r.resolvePlayerEnemy()
	r.resolvePlayerEnemy()
	if r.player.Health != 80 {
		t.Fatalf("hp %d want 80", r.player.Health)
	}
}

func TestKnockbackThenChase(t *testing.T) {
	r := newTestRoom(t)
	e := spawnEnemyAt(t, r, 10, 0, 0)
	r.resolvePlayerEnemy()

	start := e.Position.X
	r.updateMotion(100 * time.Millisecond)
	if e.Position.X <= start {
		t.Fatalf("enemy should be pushed away during knockback")
	}
	r.updateMotion(100 * time.Millisecond)
	pushed := e.Position.X
	r.updateMotion(100 * time.Millisecond)
	if e.Position.X >= pushed {
		t.Fatalf("enemy should chase after knockback ends")
	}
}

func TestGolemStrikesOverlappingEnemies(t *testing.T) {
	r := newTestRoom(t)
	g, err := r.SpawnGolem(r.player.Position.Add(models.Vector2D{X: 40}), 200, 30, 20*time.Second, r.player.ID)
	if err != nil {
		t.Fatalf("spawn golem: %v", err)
	}
	e := spawnEnemyAt(t, r, 60, 0, 100)

	r.resolveGolems()
	r.resolveGolems()
	if e.Health != 70 {
		t.Fatalf("hp %d want 70", e.Health)
	}
	r.now = golemStrikeInterval
	r.resolveGolems()
	if e.Health != 40 || !g.HasStruck {
		t.Fatalf("hp %d want 40", e.Health)
	}
}

func TestPlayerDeathEndsRun(t *testing.T) {
	r := newTestRoom(t)
	r.player.Health = 5
	spawnEnemyAt(t, r, 10, 0, 0)

	var last *models.Snapshot
	r.Subscribe(ObserverFunc(func(s *models.Snapshot) { last = s }))
	r.Tick(time.Second / 60)

	if r.player.IsAlive || r.player.Health != 0 {
		t.Fatalf("player should be dead, hp=%d", r.player.Health)
	}
	if last == nil || last.Status != models.RoomEnded {
		t.Fatalf("final snapshot: %+v", last)
	}
	deaths := 0
	for _, ev := range last.Events {
		if ev.Type == models.EventPlayerDeath {
			deaths++
		}
	}
	if deaths != 1 {
		t.Fatalf("expected one player_death event, got %d", deaths)
	}
	if !r.IsEnded() {
		t.Fatalf("room info not ended")
	}

	tick := last.Tick
	r.Tick(time.Second / 60)
	if r.tick != tick {
		t.Fatalf("ended room kept ticking")
	}
}
