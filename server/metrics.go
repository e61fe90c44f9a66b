package server

import (
	"sync/atomic"
)

// Metrics 记录房间运行期的关键指标（用于监控与调试）
type Metrics struct {
	Connects           int64 // 建立的连接数
	Disconnects        int64 // 断开的连接数
	EventsAccepted     int64 // 通过校验并处理的入站事件
	EventsRejected     int64 // 解码/校验失败或未知事件，被丢弃
	UnknownSenderNoops int64 // 发送者已不在注册表（与断开竞争），按空操作处理
	Deliveries         int64 // 成功入队的出站消息
	QueueFullDropped   int64 // 因发送队列满被丢弃的出站消息
	NetSimDropped      int64 // 因模拟丢包被丢弃的出站消息
	LateDropped        int64 // 模拟延迟到期时连接已关闭，被丢弃的出站消息
	Dispatches         int64 // Room 循环处理的命令数
	TotalDispatchNs    int64 // 命令处理累计耗时（纳秒）
}

func (m *Metrics) IncConnects() { atomic.AddInt64(&m.Connects, 1) }
func (m *Metrics) IncDisconnects() { atomic.AddInt64(&m.Disconnects, 1) }
func (m *Metrics) IncAccepted() { atomic.AddInt64(&m.EventsAccepted, 1) }
func (m *Metrics) IncRejected() { atomic.AddInt64(&m.EventsRejected, 1) }
func (m *Metrics) IncUnknownSenderNoops() { atomic.AddInt64(&m.UnknownSenderNoops, 1) }
func (m *Metrics) IncDeliveries() { atomic.AddInt64(&m.Deliveries, 1) }
func (m *Metrics) IncQueueFullDropped() { atomic.AddInt64(&m.QueueFullDropped, 1) }
func (m *Metrics) IncNetSimDropped() { atomic.AddInt64(&m.NetSimDropped, 1) }
func (m *Metrics) IncLateDropped() { atomic.AddInt64(&m.LateDropped, 1) }
func (m *Metrics) AddDispatch(ns int64) {
	atomic.AddInt64(&m.Dispatches, 1)
	atomic.AddInt64(&m.TotalDispatchNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	n := atomic.LoadInt64(&m.Dispatches)
	total := atomic.LoadInt64(&m.TotalDispatchNs)
	var avgUs float64
	if n > 0 {
		avgUs = float64(total) / float64(n) / 1e3
	}
	return map[string]any{
		"connects":             atomic.LoadInt64(&m.Connects),
		"disconnects":          atomic.LoadInt64(&m.Disconnects),
		"events_accepted":      atomic.LoadInt64(&m.EventsAccepted),
		"events_rejected":      atomic.LoadInt64(&m.EventsRejected),
		"unknown_sender_noops": atomic.LoadInt64(&m.UnknownSenderNoops),
		"deliveries":           atomic.LoadInt64(&m.Deliveries),
		"queue_full_dropped":   atomic.LoadInt64(&m.QueueFullDropped),
		"netsim_dropped":       atomic.LoadInt64(&m.NetSimDropped),
		"late_dropped":         atomic.LoadInt64(&m.LateDropped),
		"dispatches":           n,
		"avg_dispatch_us":      avgUs,
	}
}
