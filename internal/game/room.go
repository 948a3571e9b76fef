package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/PixelStorm-Survivor/config"
	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// Observer 接收每个 tick 的快照，在模拟协程中调用，不能阻塞
type Observer interface {
	OnSnapshot(s *models.Snapshot)
}

// ObserverFunc 函数适配器
type ObserverFunc func(s *models.Snapshot)

// OnSnapshot 调用函数本身
func (f ObserverFunc) OnSnapshot(s *models.Snapshot) {
	f(s)
}

// MoveCommand 设置玩家移动方向
type MoveCommand struct {
	Direction models.Vector2D
}

// CastCommand 手动释放技能
type CastCommand struct {
	SkillID models.SkillID
}

// RoomOptions 创建房间的参数
type RoomOptions struct {
	Username   string
	Character  string
	Simulation config.SimulationConfig
	Random     RandomSource // 为空时按 Simulation.Seed 创建
	Recorder   RunRecorder
}

// Room 一局游戏，模拟状态只在模拟协程中访问
type Room struct {
	ID       string
	Username string

	// 指令通道，在下一个 tick 开始时处理
	Inbox chan any

	cfg             config.SimulationConfig
	character       models.Character
	rng             RandomSource
	timers          *TimerQueue
	registry        *EntityRegistry
	spawner         *SpawnScheduler
	skills          *SkillSystem
	progress        *ProgressionTracker
	player          *models.PlayerEntity
	contactCooldown time.Duration
	bulletLifetime  time.Duration

	now    time.Duration
	tick   int64
	events []models.Event
	status models.RoomStatus
	died   bool

	// 订阅者
	observers     map[int]Observer
	nextObserver  int
	observerMutex sync.Mutex

	// 对外状态
	info      models.RoomInfo
	infoMutex sync.RWMutex

	recorder     RunRecorder
	shutdown     chan struct{}
	done         chan struct{}
	running      bool
	shutdownOnce sync.Once
	teardownOnce sync.Once
}

// NewRoom 创建新房间并放置玩家
func NewRoom(opts RoomOptions) (*Room, error) {
	sim := opts.Simulation
	if err := sim.Validate(); err != nil {
		return nil, fmt.Errorf("创建房间: %w", err)
	}

	charID := opts.Character
	if charID == "" {
		charID = sim.DefaultCharacter
	}
	if charID == "" {
		charID = models.DefaultCharacterID
	}
	character, ok := models.GetCharacter(charID)
	if !ok {
		return nil, fmt.Errorf("角色 %s: %w", charID, ErrNotFound)
	}

	rng := opts.Random
	if rng == nil {
		rng = NewRandomSource(sim.Seed)
	}

	r := &Room{
		ID:              uuid.New().String(),
		Username:        opts.Username,
		Inbox:           make(chan any, 64),
		cfg:             sim,
		character:       character,
		rng:             rng,
		timers:          NewTimerQueue(),
		contactCooldown: time.Duration(sim.ContactCooldownMs) * time.Millisecond,
		bulletLifetime:  time.Duration(sim.BulletLifetimeMs) * time.Millisecond,
		status:          models.RoomWaiting,
		observers:       make(map[int]Observer),
		recorder:        opts.Recorder,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	arena := Arena{Width: sim.ArenaWidth, Height: sim.ArenaHeight, Margin: sim.SpawnMargin}
	r.registry = NewEntityRegistry(arena, rng, r.timers, r.timers.Now)

	player, err := r.registry.SpawnPlayer(character, arena.Center())
	if err != nil {
		return nil, fmt.Errorf("创建玩家: %w", err)
	}
	r.player = player

	r.skills, err = NewSkillSystem(r, player, character.Skills)
	if err != nil {
		return nil, err
	}
	r.progress = NewProgressionTracker(player, sim.ExpPerLevel, r.Emit)
	r.spawner = NewSpawnScheduler(time.Duration(sim.SpawnIntervalMs)*time.Millisecond, func() error {
		_, err := r.registry.SpawnEnemy(nil)
		return err
	})

	r.info = models.RoomInfo{
		ID:        r.ID,
		Username:  r.Username,
		Character: character.ID,
		Status:    models.RoomWaiting,
		CreatedAt: time.Now(),
		Level:     player.Level,
	}

	return r, nil
}

// Scheduler 定时器队列
func (r *Room) Scheduler() Scheduler {
	return r.timers
}

// Player 玩家实体
func (r *Room) Player() *models.PlayerEntity {
	return r.player
}

// AliveEnemies 存活敌人
func (r *Room) AliveEnemies() []*models.EnemyEntity {
	return r.registry.AliveEnemies()
}

// SpawnGolem 召唤傀儡
func (r *Room) SpawnGolem(pos models.Vector2D, health, attack int, ttl time.Duration, owner string) (*models.GolemEntity, error) {
	return r.registry.SpawnGolem(pos, health, attack, ttl, owner)
}

// Emit 记录一个离散事件，随本 tick 的快照发布
func (r *Room) Emit(ev models.Event) {
	ev.At = r.now
	r.events = append(r.events, ev)
}

// Registry 实体注册表
func (r *Room) Registry() *EntityRegistry {
	return r.registry
}

// Skills 技能栏
func (r *Room) Skills() *SkillSystem {
	return r.skills
}

// Character 房间使用的角色预设，创建后不再变化
func (r *Room) Character() models.Character {
	c := r.character
	c.Skills = append([]models.SkillID(nil), c.Skills...)
	return c
}

// Now 当前模拟时间
func (r *Room) Now() time.Duration {
	return r.now
}

// Start 启动模拟协程
func (r *Room) Start() error {
	r.infoMutex.Lock()
	if r.running || r.info.Status == models.RoomEnded {
		r.infoMutex.Unlock()
		return fmt.Errorf("房间 %s 已启动或已结束", r.ID)
	}
	r.running = true
	r.info.Status = models.RoomPlaying
	r.info.StartedAt = time.Now()
	r.infoMutex.Unlock()

	r.status = models.RoomPlaying
	go r.gameLoop()

	log.Printf("房间 %s 开始，玩家: %s，角色: %s", r.ID, r.Username, r.character.ID)
	return nil
}

// Stop 停止模拟并释放全部实体，可重复调用
func (r *Room) Stop() {
	r.shutdownOnce.Do(func() {
		close(r.shutdown)
	})

	r.infoMutex.RLock()
	running := r.running
	r.infoMutex.RUnlock()
	if running {
		<-r.done
		return
	}
	r.teardown()
}

// Done 模拟协程退出后关闭
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// gameLoop 固定步长的模拟循环
func (r *Room) gameLoop() {
	defer close(r.done)
	defer r.teardown()

	step := time.Second / time.Duration(r.cfg.TickRate)
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Tick(step)
			if r.status == models.RoomEnded {
				return
			}
		case <-r.shutdown:
			return
		}
	}
}

// Post 投递指令，队列满时返回错误
func (r *Room) Post(cmd any) error {
	select {
	case <-r.shutdown:
		return ErrRoomClosed
	default:
	}
	if r.IsEnded() {
		return ErrRoomClosed
	}
	select {
	case r.Inbox <- cmd:
		return nil
	default:
		return ErrInboxFull
	}
}

// drainInbox 处理已投递的指令
func (r *Room) drainInbox() {
	for {
		select {
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		default:
			return
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case MoveCommand:
		if !c.Direction.IsFinite() {
			return
		}
		r.player.MoveDirection = c.Direction
	case CastCommand:
		if err := r.skills.TryCast(c.SkillID, r.now); err != nil {
			log.Printf("房间 %s 释放技能失败: %v", r.ID, err)
		}
	default:
		log.Printf("房间 %s 收到未知指令: %T", r.ID, cmd)
	}
}

// Tick 推进一个模拟步长
func (r *Room) Tick(dt time.Duration) {
	if r.status == models.RoomEnded {
		return
	}
	if r.status == models.RoomWaiting {
		r.status = models.RoomPlaying
	}

	r.drainInbox()

	r.now += dt
	r.tick++

	r.spawner.Advance(dt)
	r.updateMotion(dt)
	r.resolveCombat()
	r.timers.Drain(r.now)
	r.skills.AutoCastTick(r.now)
	r.progress.Flush()
	r.registry.Flush()

	if !r.player.IsAlive {
		r.died = true
		r.status = models.RoomEnded
	}

	r.publish()
}

// Subscribe 注册订阅者，返回取消订阅函数
func (r *Room) Subscribe(o Observer) func() {
	r.observerMutex.Lock()
	id := r.nextObserver
	r.nextObserver++
	r.observers[id] = o
	r.observerMutex.Unlock()

	return func() {
		r.observerMutex.Lock()
		delete(r.observers, id)
		r.observerMutex.Unlock()
	}
}

// Snapshot 构建当前状态的只读快照
func (r *Room) Snapshot() *models.Snapshot {
	p := r.player
	s := &models.Snapshot{
		RoomID: r.ID,
		Tick:   r.tick,
		Time:   r.now,
		Status: r.status,
		Player: models.PlayerView{
			ID:        p.ID,
			Position:  p.Position,
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Exp:       p.Exp,
			ExpToNext: r.progress.ExpToNext(),
			Level:     p.Level,
			Kills:     p.Kills,
			IsAlive:   p.IsAlive,
			Shield:    activeShield(p, r.now),
		},
		Enemies: []models.EnemyView{},
		Bullets: []models.BulletView{},
		Orbs:    []models.OrbView{},
		Skills:  r.skills.Roster(r.now),
	}

	r.registry.ForEachAlive(models.EntityEnemy, func(e models.Entity) bool {
		enemy := e.(*models.EnemyEntity)
		if enemy.IsAlive {
			s.Enemies = append(s.Enemies, models.EnemyView{ID: enemy.ID, Position: enemy.Position, Health: enemy.Health})
		}
		return true
	})
	r.registry.ForEachAlive(models.EntityBullet, func(e models.Entity) bool {
		s.Bullets = append(s.Bullets, models.BulletView{ID: e.GetID(), Position: e.GetPosition()})
		return true
	})
	r.registry.ForEachAlive(models.EntityExpOrb, func(e models.Entity) bool {
		orb := e.(*models.ExpOrbEntity)
		s.Orbs = append(s.Orbs, models.OrbView{ID: orb.ID, Position: orb.Position, Value: orb.Value, Collected: orb.Collected})
		return true
	})
	r.registry.ForEachAlive(models.EntityGolem, func(e models.Entity) bool {
		g := e.(*models.GolemEntity)
		s.Golems = append(s.Golems, models.GolemView{ID: g.ID, Position: g.Position, Health: g.Health, ExpiresAt: g.ExpiresAt})
		return true
	})

	if len(r.events) > 0 {
		s.Events = make([]models.Event, len(r.events))
		copy(s.Events, r.events)
	}
	return s
}

// publish 发布本 tick 的快照并清空事件
func (r *Room) publish() {
	s := r.Snapshot()
	r.events = r.events[:0]

	r.infoMutex.Lock()
	r.info.Tick = r.tick
	r.info.Level = r.player.Level
	r.info.Kills = r.player.Kills
	r.info.Enemies = len(s.Enemies)
	if r.status == models.RoomEnded && r.info.Status != models.RoomEnded {
		r.info.Status = models.RoomEnded
		r.info.EndedAt = time.Now()
	}
	r.infoMutex.Unlock()

	r.observerMutex.Lock()
	observers := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	r.observerMutex.Unlock()

	for _, o := range observers {
		o.OnSnapshot(s)
	}
}

// Info 房间信息，可在任意协程调用
func (r *Room) Info() models.RoomInfo {
	r.infoMutex.RLock()
	defer r.infoMutex.RUnlock()
	return r.info
}

// IsEnded 房间是否已结束
func (r *Room) IsEnded() bool {
	return r.Info().Status == models.RoomEnded
}

// teardown 取消全部定时器、释放实体并记录结果，只执行一次
func (r *Room) teardown() {
	r.teardownOnce.Do(func() {
		rec := r.buildRecord()

		r.timers.Close()
		r.registry.Release()
		r.status = models.RoomEnded

		r.infoMutex.Lock()
		if r.info.Status != models.RoomEnded {
			r.info.Status = models.RoomEnded
			r.info.EndedAt = time.Now()
		}
		r.infoMutex.Unlock()

		log.Printf("房间 %s 结束，等级: %d，击杀: %d，存活: %v", r.ID, rec.Level, rec.Kills, rec.Survival)

		if r.tick > 0 {
			recordAsync(r.recorder, rec)
		}
	})
}

func (r *Room) buildRecord() *models.RunRecord {
	info := r.Info()
	start := info.StartedAt
	if start.IsZero() {
		start = info.CreatedAt
	}
	return &models.RunRecord{
		ID:         r.ID,
		Username:   r.Username,
		Character:  r.character.ID,
		StartTime:  start,
		EndTime:    time.Now(),
		Level:      r.player.Level,
		Exp:        r.player.Exp,
		Kills:      r.player.Kills,
		Survival:   r.now,
		PlayerDied: r.died,
	}
}
