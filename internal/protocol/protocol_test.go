package protocol

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		RoomID: "room-1",
		Tick:   42,
		Time:   700 * time.Millisecond,
		Status: models.RoomPlaying,
		Player: models.PlayerView{
			ID:        "p",
			Position:  models.Vector2D{X: 640.5, Y: 360},
			Health:    80,
			MaxHealth: 100,
			Exp:       12,
			ExpToNext: 38,
			Level:     3,
			Kills:     9,
			IsAlive:   true,
			Shield:    60,
		},
		Enemies: []models.EnemyView{
			{ID: "e1", Position: models.Vector2D{X: 40, Y: 100.25}, Health: 30},
			{ID: "e2", Position: models.Vector2D{X: -0.5, Y: 0}, Health: 0},
		},
		Bullets: []models.BulletView{{ID: "b1", Position: models.Vector2D{X: 1, Y: 2}}},
		Orbs:    []models.OrbView{{ID: "o1", Position: models.Vector2D{X: 5, Y: 6}, Value: 10, Collected: true}},
		Golems:  []models.GolemView{{ID: "g1", Position: models.Vector2D{X: 680, Y: 360}, Health: 200, ExpiresAt: 20 * time.Second}},
		Skills: []models.SkillInfo{
			{ID: models.SkillFireball, Name: "火球术", Level: 1, CooldownMs: 5000, LastCastMs: -1, AutoTriggered: true},
			{ID: models.SkillFrostShield, Name: "冰霜护盾", Level: 1, CooldownMs: 15000, LastCastMs: 300, RemainingMs: 14600},
		},
		Events: []models.Event{
			{Type: models.EventExplosion, At: 700 * time.Millisecond, EntityID: "e1", Position: models.Vector2D{X: 40, Y: 100}, Value: 20, Radius: 80},
		},
	}
}

func TestSnapshotBinaryRoundTrip(t *testing.T) {
	in := sampleSnapshot()
	out, err := DecodeSnapshot(EncodeSnapshot(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.RoomID != in.RoomID || out.Tick != in.Tick || out.Time != in.Time || out.Status != in.Status {
		t.Fatalf("header mismatch: %+v", out)
	}
	if out.Player != in.Player {
		t.Fatalf("player: got %+v want %+v", out.Player, in.Player)
	}
	if len(out.Enemies) != 2 || out.Enemies[0] != in.Enemies[0] || out.Enemies[1] != in.Enemies[1] {
		t.Fatalf("enemies: %+v", out.Enemies)
	}
	if out.Bullets[0] != in.Bullets[0] || out.Orbs[0] != in.Orbs[0] || out.Golems[0] != in.Golems[0] {
		t.Fatalf("entities: %+v %+v %+v", out.Bullets, out.Orbs, out.Golems)
	}
	for i := range in.Skills {
		if out.Skills[i] != in.Skills[i] {
			t.Fatalf("skill %d: got %+v want %+v", i, out.Skills[i], in.Skills[i])
		}
	}
	if out.Events[0] != in.Events[0] {
		t.Fatalf("event: %+v", out.Events[0])
	}
}

func TestDecodeSnapshotSkipsUnknownFields(t *testing.T) {
	b := EncodeSnapshot(&models.Snapshot{Tick: 7})
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(1.5))

	s, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Tick != 7 {
		t.Fatalf("tick %d", s.Tick)
	}
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	b := EncodeSnapshot(sampleSnapshot())
	if _, err := DecodeSnapshot(b[:len(b)-3]); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("truncated frame: got %v", err)
	}
}

func TestEnvelope(t *testing.T) {
	data, err := Encode(MsgMove, MovePayload{X: 1, Y: -1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := Decode(data)
	if err != nil || msg.Type != MsgMove {
		t.Fatalf("decode: %v %+v", err, msg)
	}
	var mv MovePayload
	if err := DecodePayload(msg, &mv); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if v := ConvertMoveToVector(mv); v.X != 1 || v.Y != -1 {
		t.Fatalf("vector %v", v)
	}

	if _, err := Decode([]byte(`{"payload":{}}`)); err == nil {
		t.Fatalf("message without type accepted")
	}
	if err := DecodePayload(&Message{Type: MsgCast}, &CastPayload{}); err == nil {
		t.Fatalf("empty payload accepted")
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in     string
		want   Format
		ok     bool
		binary bool
	}{
		{"", FormatJSON, true, false},
		{"json", FormatJSON, true, false},
		{"proto", FormatProto, true, true},
		{"msgpack", FormatMsgpack, true, true},
		{"xml", "", false, false},
	}
	for _, tc := range cases {
		got, ok := ParseFormat(tc.in)
		if got != tc.want || ok != tc.ok || got.Binary() != tc.binary {
			t.Fatalf("ParseFormat(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func TestSnapshotMsgpack(t *testing.T) {
	in := sampleSnapshot()
	data, err := EncodeSnapshotAs(FormatMsgpack, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshotMsgpack(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.RoomID != in.RoomID || out.Tick != in.Tick || out.Player != in.Player {
		t.Fatalf("got %+v", out)
	}
	if len(out.Enemies) != 2 || out.Orbs[0] != in.Orbs[0] || out.Skills[1] != in.Skills[1] {
		t.Fatalf("entities mismatch: %+v", out)
	}

	if _, err := DecodeSnapshotMsgpack([]byte{0xc1}); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}
