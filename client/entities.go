package client

import (
	"sort"
	"time"

	"arenasync/protocol"

	"go.uber.org/zap"
)

// EntityManager 维护 id → RemoteProxy。创建是幂等的：任何引用未知 id 的事件
// （加入、移动、跳跃、攻击）都可以创建替身，因此事件的到达顺序无关紧要。
//
// 已离开的 id 记入墓碑，本会话内其迟到事件一律丢弃；服务端不会复用 id，
// 墓碑只在 Reset（新会话）时清空。
type EntityManager struct {
	localID    string
	proxies    map[string]*RemoteProxy
	tombstones map[string]struct{}
	renderer   Renderer
	tuning     Tuning
	log        *zap.SugaredLogger
}

func NewEntityManager(r Renderer, t Tuning, log *zap.SugaredLogger) *EntityManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &EntityManager{
		proxies:    make(map[string]*RemoteProxy),
		tombstones: make(map[string]struct{}),
		renderer:   r,
		tuning:     t,
		log:        log,
	}
}

// SetLocalID 设置本地玩家 id，涉及它的远端事件一律忽略
func (m *EntityManager) SetLocalID(id string) {
	m.localID = id
	if p, ok := m.proxies[id]; ok {
		p.destroy()
		delete(m.proxies, id)
	}
}

func (m *EntityManager) LocalID() string { return m.localID }

// Proxy 查询替身
func (m *EntityManager) Proxy(id string) (*RemoteProxy, bool) {
	p, ok := m.proxies[id]
	return p, ok
}

func (m *EntityManager) Len() int { return len(m.proxies) }

// IDs 排序后的替身 id
func (m *EntityManager) IDs() []string {
	ids := make([]string, 0, len(m.proxies))
	for id := range m.proxies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset 销毁全部替身并清空墓碑（重连即新会话）
func (m *EntityManager) Reset() {
	for id, p := range m.proxies {
		p.destroy()
		delete(m.proxies, id)
	}
	m.tombstones = make(map[string]struct{})
}

// ensure 取得或按需创建替身；本地玩家或墓碑中的 id 返回 nil
func (m *EntityManager) ensure(id string, at protocol.Vec2, facing protocol.Direction) (*RemoteProxy, bool) {
	if id == "" || id == m.localID {
		return nil, false
	}
	if p, ok := m.proxies[id]; ok {
		return p, false
	}
	if _, dead := m.tombstones[id]; dead {
		m.log.Debugw("late event for departed player dropped", "id", id)
		return nil, false
	}
	p := newRemoteProxy(id, at, facing, m.renderer.Spawn(id, at))
	m.proxies[id] = p
	m.log.Debugw("proxy created", "id", id, "x", at.X, "y", at.Y)
	return p, true
}

// ApplyCurrentPlayers 全量快照：一次性物化所有已在线的玩家
func (m *EntityManager) ApplyCurrentPlayers(records []protocol.PlayerRecord) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			m.log.Warnw("bad snapshot record skipped", "err", err)
			continue
		}
		m.ApplyNewPlayer(r)
	}
}

// ApplyNewPlayer 已存在的替身保持不变：newPlayer 可能晚于该玩家的移动到达
func (m *EntityManager) ApplyNewPlayer(r protocol.PlayerRecord) {
	p, created := m.ensure(r.ID, r.Position(), r.Direction)
	if p == nil || !created {
		return
	}
	p.IsMoving = r.IsMoving
	p.IsAirborne = r.IsAirborne
}

// ApplyMoved 更新目标与电平状态，从不改动 IsAttacking
func (m *EntityManager) ApplyMoved(ev protocol.PlayerMoved) {
	p, _ := m.ensure(ev.ID, ev.Position, ev.Direction)
	if p == nil {
		return
	}
	p.Target = ev.Position
	p.setFacing(ev.Direction)
	p.IsMoving = ev.IsMoving
	p.IsAirborne = ev.IsAirborne
}

// ApplyJumped 更新目标并触发弹起补间。跳跃是离散事件，
// 两次低频采样之间的线性插值会把它抹平，所以单独做视觉表现。
func (m *EntityManager) ApplyJumped(ev protocol.PlayerJumped) {
	p, _ := m.ensure(ev.ID, ev.Position, ev.Direction)
	if p == nil {
		return
	}
	p.Target = ev.Position
	p.setFacing(ev.Direction)
	p.pop()
}

func (m *EntityManager) ApplyAttacked(ev protocol.PlayerAttacked) {
	p, _ := m.ensure(ev.ID, ev.Position, ev.Direction)
	if p == nil {
		return
	}
	p.Target = ev.Position
	p.setFacing(ev.Direction)
	p.IsAirborne = ev.IsAirborne
	p.attack(m.tuning)
}

// ApplyDisconnected 销毁替身并记入墓碑
func (m *EntityManager) ApplyDisconnected(ev protocol.PlayerDisconnected) {
	if ev.ID == m.localID {
		return
	}
	if p, ok := m.proxies[ev.ID]; ok {
		p.destroy()
		delete(m.proxies, ev.ID)
		m.log.Debugw("proxy destroyed", "id", ev.ID)
	}
	m.tombstones[ev.ID] = struct{}{}
}

// ApplyChat 给发送者的替身挂气泡；返回 false 表示发送者没有替身（自己或未知）
func (m *EntityManager) ApplyChat(ev protocol.ChatMessageReceived) bool {
	p, ok := m.proxies[ev.ID]
	if !ok {
		return false
	}
	p.say(ev.Message, m.tuning.ChatBubbleTTL)
	return true
}

// Step 调和循环，每个渲染帧调用一次
func (m *EntityManager) Step(dt time.Duration) {
	for _, p := range m.proxies {
		p.step(dt, m.tuning)
	}
}

// Close 拆除时销毁所有替身
func (m *EntityManager) Close() {
	m.Reset()
}
