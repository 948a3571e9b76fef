package game

import (
	"container/heap"
	"time"
)

// TimerToken 定时器句柄，零值表示无效
type TimerToken struct {
	id uint64
}

// Valid 句柄是否有效
func (t TimerToken) Valid() bool {
	return t.id != 0
}

// Scheduler 延迟回调调度能力
type Scheduler interface {
	// ScheduleAt 在当前模拟时间 delay 之后执行 fn，owner 为所属实体ID
	ScheduleAt(delay time.Duration, owner string, fn func(now time.Duration)) TimerToken
	Cancel(token TimerToken) bool
	CancelOwner(owner string) int
}

type timerEntry struct {
	id     uint64
	fireAt time.Duration
	owner  string
	fn     func(now time.Duration)
	index  int
}

// timerHeap 按 (fireAt, id) 排序的小顶堆，id 单调递增即调度顺序
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].id < h[j].id
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerQueue 模拟时间驱动的定时器队列，只在模拟协程内使用
type TimerQueue struct {
	now     time.Duration
	nextID  uint64
	entries timerHeap
	byID    map[uint64]*timerEntry
	byOwner map[string]map[uint64]struct{}
	closed  bool
}

// NewTimerQueue 创建定时器队列
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{
		byID:    make(map[uint64]*timerEntry),
		byOwner: make(map[string]map[uint64]struct{}),
	}
}

// Now 当前调度基准时间
func (q *TimerQueue) Now() time.Duration {
	return q.now
}

// Len 待执行的定时器数量
func (q *TimerQueue) Len() int {
	return len(q.byID)
}

// ScheduleAt 注册延迟回调，队列关闭后返回无效句柄
func (q *TimerQueue) ScheduleAt(delay time.Duration, owner string, fn func(now time.Duration)) TimerToken {
	if q.closed || fn == nil {
		return TimerToken{}
	}
	if delay < 0 {
		delay = 0
	}

	q.nextID++
	e := &timerEntry{
		id:     q.nextID,
		fireAt: q.now + delay,
		owner:  owner,
		fn:     fn,
	}
	heap.Push(&q.entries, e)
	q.byID[e.id] = e
	if owner != "" {
		ids, ok := q.byOwner[owner]
		if !ok {
			ids = make(map[uint64]struct{})
			q.byOwner[owner] = ids
		}
		ids[e.id] = struct{}{}
	}

	return TimerToken{id: e.id}
}

// Cancel 取消单个定时器，已执行或已取消时返回 false
func (q *TimerQueue) Cancel(token TimerToken) bool {
	e, ok := q.byID[token.id]
	if !ok {
		return false
	}
	heap.Remove(&q.entries, e.index)
	q.forget(e)
	return true
}

// CancelOwner 取消某个实体拥有的全部定时器
func (q *TimerQueue) CancelOwner(owner string) int {
	ids, ok := q.byOwner[owner]
	if !ok {
		return 0
	}
	n := 0
	for id := range ids {
		if e, ok := q.byID[id]; ok {
			heap.Remove(&q.entries, e.index)
			delete(q.byID, id)
			n++
		}
	}
	delete(q.byOwner, owner)
	return n
}

// Drain 按触发时间顺序执行所有到期的定时器
// 回调内新注册的定时器以该回调的触发时间为基准，若已到期则在本次 Drain 内执行
func (q *TimerQueue) Drain(now time.Duration) int {
	if q.closed {
		return 0
	}
	if now < q.now {
		now = q.now
	}

	fired := 0
	for len(q.entries) > 0 && !q.closed {
		top := q.entries[0]
		if top.fireAt > now {
			break
		}
		heap.Pop(&q.entries)
		q.forget(top)

		if top.fireAt > q.now {
			q.now = top.fireAt
		}
		top.fn(top.fireAt)
		fired++
	}

	if !q.closed {
		q.now = now
	}
	return fired
}

// Close 取消全部定时器，之后不再接受新的定时器
func (q *TimerQueue) Close() {
	q.closed = true
	q.entries = nil
	q.byID = make(map[uint64]*timerEntry)
	q.byOwner = make(map[string]map[uint64]struct{})
}

func (q *TimerQueue) forget(e *timerEntry) {
	delete(q.byID, e.id)
	if e.owner == "" {
		return
	}
	if ids, ok := q.byOwner[e.owner]; ok {
		delete(ids, e.id)
		if len(ids) == 0 {
			delete(q.byOwner, e.owner)
		}
	}
}
