package game

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

func newTestRegistry(rng RandomSource) (*EntityRegistry, *TimerQueue) {
	q := NewTimerQueue()
	arena := Arena{Width: 1280, Height: 720, Margin: 40}
	return NewEntityRegistry(arena, rng, q, q.Now), q
}

func TestRegistryDeferredRemoval(t *testing.T) {
	reg, _ := newTestRegistry(&scriptRandom{})
	e, err := reg.SpawnEnemy(&models.Vector2D{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if err := reg.Destroy(e.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := reg.Destroy(e.ID); err != nil {
		t.Fatalf("second destroy should be a no-op: %v", err)
	}
	if _, ok := reg.Get(e.ID); ok {
		t.Fatalf("destroyed entity still visible")
	}
	if reg.Count(models.EntityEnemy) != 0 {
		t.Fatalf("destroyed entity still iterated")
	}
	if reg.Len() != 1 {
		t.Fatalf("entity removed before flush, len=%d", reg.Len())
	}

	if n := reg.Flush(); n != 1 {
		t.Fatalf("flush removed %d, want 1", n)
	}
	if reg.Len() != 0 {
		t.Fatalf("entity survived flush")
	}
	if err := reg.Destroy(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after flush, got %v", err)
	}
}

func TestRegistryIterationIsFrozen(t *testing.T) {
	reg, _ := newTestRegistry(&scriptRandom{})
	var ids []string
	for i := 0; i < 3; i++ {
		e, _ := reg.SpawnEnemy(&models.Vector2D{X: float64(100 + i*10), Y: 100})
		ids = append(ids, e.ID)
	}

	var visited []string
	reg.ForEachAlive(models.EntityEnemy, func(e models.Entity) bool {
		visited = append(visited, e.GetID())
		if e.GetID() == ids[0] {
			// 遍历中新建和销毁
			_, _ = reg.SpawnEnemy(&models.Vector2D{X: 500, Y: 500})
			_ = reg.Destroy(ids[1])
		}
		return true
	})

	if len(visited) != 2 || visited[0] != ids[0] || visited[1] != ids[2] {
		t.Fatalf("unexpected visit order %v (ids %v)", visited, ids)
	}
	if reg.Count(models.EntityEnemy) != 3 {
		t.Fatalf("expected 3 alive enemies after spawn and destroy, got %d", reg.Count(models.EntityEnemy))
	}
}

func TestRegistryDestroyCancelsOwnedTimers(t *testing.T) {
	reg, q := newTestRegistry(&scriptRandom{})
	e, _ := reg.SpawnEnemy(&models.Vector2D{X: 100, Y: 100})
	fired := false
	q.ScheduleAt(time.Second, e.ID, func(time.Duration) { fired = true })

	_ = reg.Destroy(e.ID)
	q.Drain(2 * time.Second)
	if fired {
		t.Fatalf("timer owned by destroyed entity fired")
	}
}

func TestRegistrySpawnValidation(t *testing.T) {
	reg, _ := newTestRegistry(&scriptRandom{})

	if _, err := reg.SpawnExpOrb(models.Vector2D{X: 10, Y: 10}, 3); !errors.Is(err, ErrInvalidOrbValue) {
		t.Fatalf("orb value 3: got %v", err)
	}
	for _, v := range []int{1, 5, 10} {
		if _, err := reg.SpawnExpOrb(models.Vector2D{X: 10, Y: 10}, v); err != nil {
			t.Fatalf("orb value %d rejected: %v", v, err)
		}
	}

	bad := []models.Vector2D{
		{X: -1, Y: 10},
		{X: 10, Y: 721},
		{X: math.NaN(), Y: 10},
		{X: math.Inf(1), Y: 10},
	}
	for _, pos := range bad {
		p := pos
		if _, err := reg.SpawnEnemy(&p); !errors.Is(err, ErrInvalidPosition) {
			t.Fatalf("enemy at %v: got %v", pos, err)
		}
	}
}

func TestRegistrySpawnEnemyOnEdge(t *testing.T) {
	cases := []struct {
		name  string
		rolls []int
		want  models.Vector2D
	}{
		{"top", []int{0, 300}, models.Vector2D{X: 300, Y: 40}},
		{"bottom", []int{1, 500}, models.Vector2D{X: 500, Y: 680}},
		{"left", []int{2, 200}, models.Vector2D{X: 40, Y: 200}},
		{"right", []int{3, 600}, models.Vector2D{X: 1240, Y: 600}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg, _ := newTestRegistry(&scriptRandom{vals: tc.rolls})
			e, err := reg.SpawnEnemy(nil)
			if err != nil {
				t.Fatalf("spawn: %v", err)
			}
			if e.Position != tc.want {
				t.Fatalf("position: got %v want %v", e.Position, tc.want)
			}
		})
	}
}

func TestRegistryDuplicateIDPanics(t *testing.T) {
	reg, _ := newTestRegistry(&scriptRandom{})
	e, _ := reg.SpawnEnemy(&models.Vector2D{X: 100, Y: 100})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate id")
		}
	}()
	dup := &models.EnemyEntity{BaseEntity: models.BaseEntity{ID: e.ID, Type: models.EntityEnemy}}
	reg.insert(dup, &dup.BaseEntity)
}

func TestRegistryGolemExpires(t *testing.T) {
	reg, q := newTestRegistry(&scriptRandom{})
	g, err := reg.SpawnGolem(models.Vector2D{X: 100, Y: 100}, 200, 30, 20*time.Second, "player")
	if err != nil {
		t.Fatalf("spawn golem: %v", err)
	}
	q.Drain(19 * time.Second)
	if _, ok := reg.Get(g.ID); !ok {
		t.Fatalf("golem expired early")
	}
	q.Drain(20 * time.Second)
	if _, ok := reg.Get(g.ID); ok {
		t.Fatalf("golem still alive after ttl")
	}
}

func TestRegistryRelease(t *testing.T) {
	reg, q := newTestRegistry(&scriptRandom{})
	e, _ := reg.SpawnEnemy(&models.Vector2D{X: 100, Y: 100})
	q.ScheduleAt(time.Second, e.ID, func(time.Duration) { t.Fatalf("timer fired after release") })

	reg.Release()
	if reg.Len() != 0 || !e.Removed {
		t.Fatalf("release left entities behind")
	}
	q.Drain(time.Minute)
}

func TestRollOrbValue(t *testing.T) {
	cases := []struct {
		roll int
		want int
	}{
		{1, 1}, {60, 1}, {61, 5}, {90, 5}, {91, 10}, {100, 10},
	}
	for _, tc := range cases {
		if got := RollOrbValue(&scriptRandom{vals: []int{tc.roll}}); got != tc.want {
			t.Errorf("roll %d: got %d want %d", tc.roll, got, tc.want)
		}
	}
}

func TestMathRandomSourceInclusive(t *testing.T) {
	rng := NewRandomSource(42)
	seenLo, seenHi := false, false
	for i := 0; i < 1000; i++ {
		v := rng.Between(0, 3)
		if v < 0 || v > 3 {
			t.Fatalf("out of range: %d", v)
		}
		seenLo = seenLo || v == 0
		seenHi = seenHi || v == 3
	}
	if !seenLo || !seenHi {
		t.Fatalf("bounds never produced: lo=%v hi=%v", seenLo, seenHi)
	}
}
