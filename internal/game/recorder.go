package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jacl-coder/PixelStorm-Survivor/internal/models"
)

// RunRecorder 记录结束的一局，只写不读
type RunRecorder interface {
	RecordRun(ctx context.Context, rec *models.RunRecord) error
}

// RecorderFunc 函数适配器
type RecorderFunc func(ctx context.Context, rec *models.RunRecord) error

// RecordRun 调用函数本身
func (f RecorderFunc) RecordRun(ctx context.Context, rec *models.RunRecord) error {
	return f(ctx, rec)
}

// MultiRecorder 依次写入多个记录器，单个失败只记录日志
type MultiRecorder []RunRecorder

// RecordRun 写入全部记录器，返回第一个错误
func (m MultiRecorder) RecordRun(ctx context.Context, rec *models.RunRecord) error {
	var first error
	for _, r := range m {
		if err := r.RecordRun(ctx, rec); err != nil {
			log.Printf("记录对局 %s 失败: %v", rec.ID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// 持久化超时
const recordTimeout = 5 * time.Second

// inflight 尚未完成的异步记录
var inflight sync.WaitGroup

// WaitRecorded 等待已结束对局的结果写入完成，每次写入最多 recordTimeout
func WaitRecorded() {
	inflight.Wait()
}

// recordAsync 在后台写入对局结果，不阻塞模拟协程
func recordAsync(recorder RunRecorder, rec *models.RunRecord) {
	if recorder == nil {
		return
	}
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := recorder.RecordRun(ctx, rec); err != nil {
			log.Printf("保存对局 %s 结果失败: %v", rec.ID, err)
		}
	}()
}
