package game

import (
	"testing"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

func TestProgressionLevelsWithRemainder(t *testing.T) {
	cases := []struct {
		name      string
		gains     []int
		wantLevel int
		wantExp   int
		wantUps   int
	}{
		{"below threshold", []int{49}, 1, 49, 0},
		{"exact threshold", []int{49, 1}, 2, 0, 1},
		{"carry", []int{45, 10}, 2, 5, 1},
		{"multiple levels at once", []int{120}, 3, 20, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &models.PlayerEntity{Level: 1}
			ups := 0
			tr := NewProgressionTracker(p, 50, func(ev models.Event) {
				if ev.Type == models.EventLevelUp {
					ups++
				}
			})
			for _, g := range tc.gains {
				tr.AddExperience(g)
			}
			if p.Level != tc.wantLevel || p.Exp != tc.wantExp || ups != tc.wantUps {
				t.Fatalf("level=%d exp=%d ups=%d, want %d/%d/%d",
					p.Level, p.Exp, ups, tc.wantLevel, tc.wantExp, tc.wantUps)
			}
		})
	}
}

func TestProgressionEnqueueFlush(t *testing.T) {
	p := &models.PlayerEntity{Level: 1}
	tr := NewProgressionTracker(p, 50, nil)
	tr.Enqueue(10)
	tr.Enqueue(5)
	tr.Enqueue(-3)
	if p.Exp != 0 {
		t.Fatalf("exp applied before flush")
	}
	tr.Flush()
	if p.Exp != 15 || tr.ExpToNext() != 35 {
		t.Fatalf("exp=%d toNext=%d", p.Exp, tr.ExpToNext())
	}
	if tr.Flush() != 0 || p.Exp != 15 {
		t.Fatalf("second flush changed exp")
	}
	if r := tr.Ratio(); r != 0.3 {
		t.Fatalf("ratio: %v", r)
	}
}
