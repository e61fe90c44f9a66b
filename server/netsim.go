package server

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"arenasync/config"
	"arenasync/protocol"
)

// LinkConditioner 出站链路模拟：按概率丢包、在 [min,max] 内随机延迟。
// 随机延迟会打乱同一连接上的消息顺序，正好用来复现客户端的乱序场景。
type LinkConditioner struct {
	mu       sync.RWMutex
	delayMin time.Duration
	delayMax time.Duration
	dropProb float64
	rng      *rand.Rand
	rngMu    sync.Mutex
	metrics  *Metrics
}

func NewLinkConditioner(cfg config.NetSimConfig, metrics *Metrics) *LinkConditioner {
	if metrics == nil {
		metrics = &Metrics{}
	}
	lc := &LinkConditioner{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		metrics: metrics,
	}
	lc.Set(cfg)
	return lc
}

// Set 热更新参数
func (lc *LinkConditioner) Set(cfg config.NetSimConfig) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.delayMin = time.Duration(cfg.DelayMinMs) * time.Millisecond
	lc.delayMax = time.Duration(cfg.DelayMaxMs) * time.Millisecond
	if lc.delayMax < lc.delayMin {
		lc.delayMax = lc.delayMin
	}
	lc.dropProb = cfg.DropProb
}

func (lc *LinkConditioner) Get() config.NetSimConfig {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return config.NetSimConfig{
		DelayMinMs: int(lc.delayMin / time.Millisecond),
		DelayMaxMs: int(lc.delayMax / time.Millisecond),
		DropProb:   lc.dropProb,
	}
}

// Active 是否需要包装连接
func (lc *LinkConditioner) Active() bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.dropProb > 0 || lc.delayMax > 0
}

// plan 决定一帧的命运
func (lc *LinkConditioner) plan() (drop bool, delay time.Duration) {
	lc.mu.RLock()
	minD, maxD, p := lc.delayMin, lc.delayMax, lc.dropProb
	lc.mu.RUnlock()

	lc.rngMu.Lock()
	defer lc.rngMu.Unlock()
	if p > 0 && lc.rng.Float64() < p {
		return true, 0
	}
	delay = minD
	if span := maxD - minD; span > 0 {
		delay += time.Duration(lc.rng.Int63n(int64(span) + 1))
	}
	return false, delay
}

// Wrap 给连接套上链路模拟。参数为零时直接透传，热更新后对新旧连接都生效。
func (lc *LinkConditioner) Wrap(c Conn) Conn {
	return &conditionedConn{inner: c, lc: lc}
}

type conditionedConn struct {
	inner  Conn
	lc     *LinkConditioner
	closed atomic.Bool
}

func (c *conditionedConn) Codec() protocol.Codec { return c.inner.Codec() }

func (c *conditionedConn) Close() {
	c.closed.Store(true)
	c.inner.Close()
}

// Enqueue 模拟丢包视为已发出（网络丢了它），返回 true
func (c *conditionedConn) Enqueue(frame []byte) bool {
	if !c.lc.Active() {
		return c.inner.Enqueue(frame)
	}
	drop, delay := c.lc.plan()
	if drop {
		c.lc.metrics.IncNetSimDropped()
		return true
	}
	if delay <= 0 {
		return c.inner.Enqueue(frame)
	}
	time.AfterFunc(delay, func() {
		// 延迟期间连接已关闭，不算队列满
		if c.closed.Load() {
			c.lc.metrics.IncLateDropped()
			return
		}
		if !c.inner.Enqueue(frame) {
			c.lc.metrics.IncQueueFullDropped()
		}
	})
	return true
}
