package protocol

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// 二进制快照帧的字段编号
const (
	snapTick    protowire.Number = 1
	snapTimeMs  protowire.Number = 2
	snapStatus  protowire.Number = 3
	snapPlayer  protowire.Number = 4
	snapEnemy   protowire.Number = 5
	snapBullet  protowire.Number = 6
	snapOrb     protowire.Number = 7
	snapGolem   protowire.Number = 8
	snapSkill   protowire.Number = 9
	snapEvent   protowire.Number = 10
	snapRoomID  protowire.Number = 11
	vecX        protowire.Number = 1
	vecY        protowire.Number = 2
	fieldID     protowire.Number = 1
	fieldPos    protowire.Number = 2
	fieldHealth protowire.Number = 3
)

// ErrMalformedFrame 二进制帧无法解析
var ErrMalformedFrame = errors.New("无效的快照帧")

func appendVarint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func encodeVector(v models.Vector2D) []byte {
	var b []byte
	b = appendDouble(b, vecX, v.X)
	b = appendDouble(b, vecY, v.Y)
	return b
}

func encodePlayer(p models.PlayerView) []byte {
	var b []byte
	b = appendString(b, fieldID, p.ID)
	b = appendMessage(b, fieldPos, encodeVector(p.Position))
	b = appendVarint(b, fieldHealth, int64(p.Health))
	b = appendVarint(b, 4, int64(p.MaxHealth))
	b = appendVarint(b, 5, int64(p.Exp))
	b = appendVarint(b, 6, int64(p.ExpToNext))
	b = appendVarint(b, 7, int64(p.Level))
	b = appendVarint(b, 8, int64(p.Kills))
	b = appendBool(b, 9, p.IsAlive)
	b = appendVarint(b, 10, int64(p.Shield))
	return b
}

func encodeSkill(s models.SkillInfo) []byte {
	var b []byte
	b = appendString(b, 1, string(s.ID))
	b = appendString(b, 2, s.Name)
	b = appendVarint(b, 3, int64(s.Level))
	b = appendVarint(b, 4, s.CooldownMs)
	b = appendSint(b, 5, s.LastCastMs)
	b = appendVarint(b, 6, s.RemainingMs)
	b = appendBool(b, 7, s.AutoTriggered)
	return b
}

func encodeEvent(e models.Event) []byte {
	var b []byte
	b = appendString(b, 1, string(e.Type))
	b = appendVarint(b, 2, e.At.Milliseconds())
	b = appendString(b, 3, e.EntityID)
	b = appendMessage(b, 4, encodeVector(e.Position))
	b = appendSint(b, 5, int64(e.Value))
	b = appendDouble(b, 6, e.Radius)
	return b
}

// EncodeSnapshot 把快照编码为 protobuf 线格式
func EncodeSnapshot(s *models.Snapshot) []byte {
	b := make([]byte, 0, 256)
	b = appendVarint(b, snapTick, s.Tick)
	b = appendVarint(b, snapTimeMs, s.Time.Milliseconds())
	b = appendString(b, snapStatus, string(s.Status))
	b = appendMessage(b, snapPlayer, encodePlayer(s.Player))

	for _, e := range s.Enemies {
		var m []byte
		m = appendString(m, fieldID, e.ID)
		m = appendMessage(m, fieldPos, encodeVector(e.Position))
		m = appendVarint(m, fieldHealth, int64(e.Health))
		b = appendMessage(b, snapEnemy, m)
	}
	for _, bl := range s.Bullets {
		var m []byte
		m = appendString(m, fieldID, bl.ID)
		m = appendMessage(m, fieldPos, encodeVector(bl.Position))
		b = appendMessage(b, snapBullet, m)
	}
	for _, o := range s.Orbs {
		var m []byte
		m = appendString(m, fieldID, o.ID)
		m = appendMessage(m, fieldPos, encodeVector(o.Position))
		m = appendVarint(m, 3, int64(o.Value))
		m = appendBool(m, 4, o.Collected)
		b = appendMessage(b, snapOrb, m)
	}
	for _, g := range s.Golems {
		var m []byte
		m = appendString(m, fieldID, g.ID)
		m = appendMessage(m, fieldPos, encodeVector(g.Position))
		m = appendVarint(m, fieldHealth, int64(g.Health))
		m = appendVarint(m, 4, g.ExpiresAt.Milliseconds())
		b = appendMessage(b, snapGolem, m)
	}
	for _, sk := range s.Skills {
		b = appendMessage(b, snapSkill, encodeSkill(sk))
	}
	for _, ev := range s.Events {
		b = appendMessage(b, snapEvent, encodeEvent(ev))
	}
	b = appendString(b, snapRoomID, s.RoomID)
	return b
}

// field 一个已解析的字段
type field struct {
	num   protowire.Number
	typ   protowire.Type
	u     uint64
	bytes []byte
}

// walk 依次解析消息中的字段
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.u, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: 字段 %d: %v", ErrMalformedFrame, num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) asInt() int { return int(int64(f.u)) }
func (f field) asInt64() int64 { return int64(f.u) }
func (f field) asSint() int64 { return protowire.DecodeZigZag(f.u) }
func (f field) asBool() bool { return protowire.DecodeBool(f.u) }
func (f field) asDouble() float64 { return math.Float64frombits(f.u) }
func (f field) asString() string { return string(f.bytes) }
func (f field) asMs() time.Duration { return time.Duration(int64(f.u)) * time.Millisecond }

func decodeVector(b []byte) (models.Vector2D, error) {
	var v models.Vector2D
	err := walk(b, func(f field) error {
		switch f.num {
		case vecX:
			v.X = f.asDouble()
		case vecY:
			v.Y = f.asDouble()
		}
		return nil
	})
	return v, err
}

func decodePlayer(b []byte) (models.PlayerView, error) {
	var p models.PlayerView
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case fieldID:
			p.ID = f.asString()
		case fieldPos:
			p.Position, err = decodeVector(f.bytes)
		case fieldHealth:
			p.Health = f.asInt()
		case 4:
			p.MaxHealth = f.asInt()
		case 5:
			p.Exp = f.asInt()
		case 6:
			p.ExpToNext = f.asInt()
		case 7:
			p.Level = f.asInt()
		case 8:
			p.Kills = f.asInt()
		case 9:
			p.IsAlive = f.asBool()
		case 10:
			p.Shield = f.asInt()
		}
		return err
	})
	return p, err
}

func decodeSkill(b []byte) (models.SkillInfo, error) {
	var s models.SkillInfo
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			s.ID = models.SkillID(f.asString())
		case 2:
			s.Name = f.asString()
		case 3:
			s.Level = f.asInt()
		case 4:
			s.CooldownMs = f.asInt64()
		case 5:
			s.LastCastMs = f.asSint()
		case 6:
			s.RemainingMs = f.asInt64()
		case 7:
			s.AutoTriggered = f.asBool()
		}
		return nil
	})
	return s, err
}

func decodeEvent(b []byte) (models.Event, error) {
	var e models.Event
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			e.Type = models.EventType(f.asString())
		case 2:
			e.At = f.asMs()
		case 3:
			e.EntityID = f.asString()
		case 4:
			e.Position, err = decodeVector(f.bytes)
		case 5:
			e.Value = int(f.asSint())
		case 6:
			e.Radius = f.asDouble()
		}
		return err
	})
	return e, err
}

// entityFields 敌人、子弹、经验球、傀儡共用的前三个字段
type entityFields struct {
	id     string
	pos    models.Vector2D
	health int
	extra  map[protowire.Number]field
}

func decodeEntity(b []byte) (entityFields, error) {
	var e entityFields
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case fieldID:
			e.id = f.asString()
		case fieldPos:
			e.pos, err = decodeVector(f.bytes)
		case fieldHealth:
			e.health = f.asInt()
		default:
			if e.extra == nil {
				e.extra = make(map[protowire.Number]field)
			}
			e.extra[f.num] = f
		}
		return err
	})
	return e, err
}

// DecodeSnapshot 解析 EncodeSnapshot 生成的二进制帧
func DecodeSnapshot(b []byte) (*models.Snapshot, error) {
	s := &models.Snapshot{
		Enemies: []models.EnemyView{},
		Bullets: []models.BulletView{},
		Orbs:    []models.OrbView{},
	}
	err := walk(b, func(f field) error {
		switch f.num {
		case snapTick:
			s.Tick = f.asInt64()
		case snapTimeMs:
			s.Time = f.asMs()
		case snapStatus:
			s.Status = models.RoomStatus(f.asString())
		case snapRoomID:
			s.RoomID = f.asString()
		case snapPlayer:
			p, err := decodePlayer(f.bytes)
			if err != nil {
				return err
			}
			s.Player = p
		case snapEnemy:
			e, err := decodeEntity(f.bytes)
			if err != nil {
				return err
			}
			s.Enemies = append(s.Enemies, models.EnemyView{ID: e.id, Position: e.pos, Health: e.health})
		case snapBullet:
			e, err := decodeEntity(f.bytes)
			if err != nil {
				return err
			}
			s.Bullets = append(s.Bullets, models.BulletView{ID: e.id, Position: e.pos})
		case snapOrb:
			e, err := decodeEntity(f.bytes)
			if err != nil {
				return err
			}
			// 经验球的第三个字段是数值
			s.Orbs = append(s.Orbs, models.OrbView{
				ID:        e.id,
				Position:  e.pos,
				Value:     e.health,
				Collected: e.extra[4].asBool(),
			})
		case snapGolem:
			e, err := decodeEntity(f.bytes)
			if err != nil {
				return err
			}
			s.Golems = append(s.Golems, models.GolemView{
				ID:        e.id,
				Position:  e.pos,
				Health:    e.health,
				ExpiresAt: e.extra[4].asMs(),
			})
		case snapSkill:
			sk, err := decodeSkill(f.bytes)
			if err != nil {
				return err
			}
			s.Skills = append(s.Skills, sk)
		case snapEvent:
			ev, err := decodeEvent(f.bytes)
			if err != nil {
				return err
			}
			s.Events = append(s.Events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
