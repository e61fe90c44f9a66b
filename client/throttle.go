package client

import (
	"time"

	"arenasync/protocol"
)

// LocalSample 本地玩家一帧的状态
type LocalSample struct {
	Position   protocol.Vec2
	Facing     protocol.Direction
	IsMoving   bool
	IsAirborne bool
}

// MovementThrottle 决定是否发送 playerMovement：
// 状态位变化立即发送（不受间隔限制）；否则位移超过阈值且距上次发送至少 Interval 才发送。
type MovementThrottle struct {
	Interval  time.Duration
	Threshold float64 // 像素

	sent     bool
	lastAt   time.Time
	lastSent LocalSample
}

func NewMovementThrottle(interval time.Duration, threshold float64) *MovementThrottle {
	return &MovementThrottle{Interval: interval, Threshold: threshold}
}

// Commit 在发送成功后记录样本；发送失败时不调用，下一帧会重试同一状态变化
func (t *MovementThrottle) Commit(now time.Time, s LocalSample) {
	t.sent = true
	t.lastAt = now
	t.lastSent = s
}

// ShouldEmit 只做判断，不改变节流状态
func (t *MovementThrottle) ShouldEmit(now time.Time, s LocalSample) bool {
	if !t.sent {
		return true
	}
	last := t.lastSent
	if s.IsMoving != last.IsMoving || s.IsAirborne != last.IsAirborne || s.Facing != last.Facing {
		return true
	}
	moved := s.Position.Sub(last.Position).LenSq() > t.Threshold*t.Threshold
	return moved && now.Sub(t.lastAt) >= t.Interval
}

// Reset 新会话开始时调用，下一帧必定发送
func (t *MovementThrottle) Reset() {
	t.sent = false
}

// EdgeTrigger 边沿触发：按键从松开到按下时只触发一次
type EdgeTrigger struct {
	prev bool
}

func (e *EdgeTrigger) Fire(pressed bool) bool {
	fired := pressed && !e.prev
	e.prev = pressed
	return fired
}
