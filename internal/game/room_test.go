package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

func TestNewRoomUnknownCharacter(t *testing.T) {
	_, err := NewRoom(RoomOptions{Character: "nobody", Simulation: testSimulation()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestNewRoomDefaults(t *testing.T) {
	r, err := NewRoom(RoomOptions{Username: "a", Simulation: testSimulation(), Random: &scriptRandom{}})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	p := r.Player()
	if p.Level != 1 || p.Health != p.MaxHealth || p.Position != r.registry.Arena().Center() {
		t.Fatalf("player %+v", p)
	}
	if len(r.Skills().Roster(0)) != 6 {
		t.Fatalf("survivor should carry six skills")
	}
	if r.Info().Status != models.RoomWaiting {
		t.Fatalf("status %s", r.Info().Status)
	}
}

func TestTickPublishesSnapshot(t *testing.T) {
	r := newTestRoom(t)
	spawnEnemyAt(t, r, 250, 0, 0)

	var snaps []*models.Snapshot
	unsubscribe := r.Subscribe(ObserverFunc(func(s *models.Snapshot) { snaps = append(snaps, s) }))
	r.Tick(time.Second / 60)
	r.Tick(time.Second / 60)
	unsubscribe()
	r.Tick(time.Second / 60)

	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	s := snaps[1]
	if s.Tick != 2 || s.RoomID != r.ID || len(s.Enemies) != 1 || s.Player.Health != 100 {
		t.Fatalf("snapshot %+v", s)
	}
	if len(s.Bullets) != 1 {
		t.Fatalf("auto attack should have one bullet in flight, got %d", len(s.Bullets))
	}
	if r.Info().Tick != 3 {
		t.Fatalf("info tick %d", r.Info().Tick)
	}
}

func TestEventsClearedEachTick(t *testing.T) {
	r := newTestRoom(t)
	e := spawnEnemyAt(t, r, 250, 0, 100)

	var last *models.Snapshot
	r.Subscribe(ObserverFunc(func(s *models.Snapshot) { last = s }))
	r.DamageEnemy(e, 5)
	r.Tick(time.Millisecond)
	if len(last.Events) != 1 || last.Events[0].Type != models.EventEnemyHit {
		t.Fatalf("events %+v", last.Events)
	}
	r.Tick(time.Millisecond)
	if len(last.Events) != 0 {
		t.Fatalf("events leaked into next tick: %+v", last.Events)
	}
}

func TestMoveCommandAppliedNextTick(t *testing.T) {
	r := newTestRoom(t)
	start := r.player.Position

	if err := r.Post(MoveCommand{Direction: models.Vector2D{X: 3, Y: 0}}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if r.player.MoveDirection != (models.Vector2D{}) {
		t.Fatalf("command applied before tick")
	}
	r.Tick(time.Second)

	// 方向归一化后乘以速度
	if !almostEqual(r.player.Position.X, start.X+r.player.Speed) || r.player.Position.Y != start.Y {
		t.Fatalf("position %v", r.player.Position)
	}

	r.Post(MoveCommand{Direction: models.Vector2D{X: 1}})
	for i := 0; i < 10; i++ {
		r.Tick(time.Second)
	}
	if r.player.Position.X != r.registry.Arena().Width {
		t.Fatalf("player not clamped: %v", r.player.Position)
	}
}

func TestCastCommand(t *testing.T) {
	r := newTestRoom(t)
	withSkills(t, r, models.SkillHealingAura)
	r.player.Health = 10

	r.Post(CastCommand{SkillID: models.SkillHealingAura})
	// 指令在 tick 开始时以 0s 释放，第一次治疗在同一个 tick 的 1s 到期
	r.Tick(time.Second)
	if r.player.Health != 30 {
		t.Fatalf("hp %d want 30", r.player.Health)
	}
	r.Tick(time.Second)
	if r.player.Health != 50 {
		t.Fatalf("hp %d want 50", r.player.Health)
	}
}

func TestStopCancelsTimersAndReleasesEntities(t *testing.T) {
	r := newTestRoom(t)
	spawnEnemyAt(t, r, 200, 0, 0)
	fired := false
	r.timers.ScheduleAt(time.Second, r.player.ID, func(time.Duration) { fired = true })

	r.Stop()
	r.Stop()
	if r.timers.Len() != 0 || r.registry.Len() != 0 {
		t.Fatalf("teardown left timers=%d entities=%d", r.timers.Len(), r.registry.Len())
	}
	r.Tick(2 * time.Second)
	r.timers.Drain(time.Minute)
	if fired {
		t.Fatalf("timer fired after teardown")
	}
	if err := r.Post(MoveCommand{}); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("post after stop: %v", err)
	}
}

func TestRoomLoopRecordsRun(t *testing.T) {
	recorded := make(chan *models.RunRecord, 1)
	sim := testSimulation()
	sim.TickRate = 200
	r, err := NewRoom(RoomOptions{
		Username:   "looper",
		Simulation: sim,
		Random:     &scriptRandom{},
		Recorder: RecorderFunc(func(ctx context.Context, rec *models.RunRecord) error {
			recorded <- rec
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatalf("second start should fail")
	}

	deadline := time.After(2 * time.Second)
	for r.Info().Tick < 5 {
		select {
		case <-deadline:
			t.Fatalf("room loop did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	r.Stop()

	select {
	case rec := <-recorded:
		if rec.ID != r.ID || rec.Username != "looper" || rec.Survival <= 0 || rec.PlayerDied {
			t.Fatalf("record %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run was not recorded")
	}
	if !r.IsEnded() {
		t.Fatalf("room not ended after stop")
	}
}

func TestMultiRecorder(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	m := MultiRecorder{
		RecorderFunc(func(context.Context, *models.RunRecord) error { calls++; return boom }),
		RecorderFunc(func(context.Context, *models.RunRecord) error { calls++; return nil }),
	}
	if err := m.RecordRun(context.Background(), &models.RunRecord{ID: "x"}); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if calls != 2 {
		t.Fatalf("second recorder skipped")
	}
}
