package game

import (
	"testing"
	"time"
)

func TestTimerQueueFiresInOrder(t *testing.T) {
	q := NewTimerQueue()
	var got []string
	q.ScheduleAt(2*time.Second, "a", func(time.Duration) { got = append(got, "late") })
	q.ScheduleAt(time.Second, "a", func(time.Duration) { got = append(got, "first") })
	q.ScheduleAt(time.Second, "b", func(time.Duration) { got = append(got, "second") })

	if n := q.Drain(500 * time.Millisecond); n != 0 {
		t.Fatalf("expected nothing due at 500ms, fired %d", n)
	}
	if n := q.Drain(time.Second); n != 2 {
		t.Fatalf("expected 2 timers at 1s, fired %d", n)
	}
	if n := q.Drain(3 * time.Second); n != 1 {
		t.Fatalf("expected 1 timer at 3s, fired %d", n)
	}

	want := []string{"first", "second", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", got, want)
		}
	}
}

func TestTimerCallbackSeesFireTime(t *testing.T) {
	q := NewTimerQueue()
	var at time.Duration
	q.ScheduleAt(time.Second, "", func(now time.Duration) { at = now })
	q.Drain(5 * time.Second)
	if at != time.Second {
		t.Fatalf("callback time: got %v want 1s", at)
	}
	if q.Now() != 5*time.Second {
		t.Fatalf("queue time after drain: got %v", q.Now())
	}
}

func TestTimerReentrantScheduling(t *testing.T) {
	q := NewTimerQueue()
	var fired []time.Duration
	q.ScheduleAt(time.Second, "p", func(now time.Duration) {
		fired = append(fired, now)
		// 相对于触发时间，已经到期的定时器在同一次 Drain 中执行
		q.ScheduleAt(time.Second, "p", func(now time.Duration) {
			fired = append(fired, now)
		})
		q.ScheduleAt(10*time.Second, "p", func(now time.Duration) {
			fired = append(fired, now)
		})
	})

	q.Drain(3 * time.Second)
	if len(fired) != 2 || fired[0] != time.Second || fired[1] != 2*time.Second {
		t.Fatalf("unexpected fire times: %v", fired)
	}
	if q.Len() != 1 {
		t.Fatalf("expected one pending timer, got %d", q.Len())
	}
}

func TestTimerCancel(t *testing.T) {
	q := NewTimerQueue()
	fired := false
	tok := q.ScheduleAt(time.Second, "", func(time.Duration) { fired = true })
	if !tok.Valid() {
		t.Fatalf("expected valid token")
	}
	if !q.Cancel(tok) {
		t.Fatalf("cancel should succeed once")
	}
	if q.Cancel(tok) {
		t.Fatalf("second cancel should report false")
	}
	q.Drain(2 * time.Second)
	if fired {
		t.Fatalf("cancelled timer fired")
	}
}

func TestTimerCancelOwner(t *testing.T) {
	q := NewTimerQueue()
	count := 0
	for i := 1; i <= 3; i++ {
		q.ScheduleAt(time.Duration(i)*time.Second, "enemy-1", func(time.Duration) { count++ })
	}
	q.ScheduleAt(time.Second, "enemy-2", func(time.Duration) { count += 10 })

	if n := q.CancelOwner("enemy-1"); n != 3 {
		t.Fatalf("expected 3 cancelled, got %d", n)
	}
	q.Drain(5 * time.Second)
	if count != 10 {
		t.Fatalf("only enemy-2 timer should fire, count=%d", count)
	}
}

func TestTimerCloseStopsEverything(t *testing.T) {
	q := NewTimerQueue()
	fired := 0
	q.ScheduleAt(time.Second, "a", func(time.Duration) {
		fired++
		q.Close()
	})
	q.ScheduleAt(time.Second, "b", func(time.Duration) { fired++ })

	q.Drain(time.Second)
	if fired != 1 {
		t.Fatalf("no timer should fire after close, fired=%d", fired)
	}
	if tok := q.ScheduleAt(0, "c", func(time.Duration) { fired++ }); tok.Valid() {
		t.Fatalf("closed queue accepted a timer")
	}
	q.Drain(10 * time.Second)
	if fired != 1 || q.Len() != 0 {
		t.Fatalf("closed queue fired or kept timers: fired=%d len=%d", fired, q.Len())
	}
}
