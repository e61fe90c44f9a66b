package server

import "sort"

// Registry 会话注册表：连接标识 → 玩家记录。
// 实现无需加锁，调用方（Room 循环）保证串行访问。
type Registry interface {
	Upsert(p PlayerState)
	Get(id PlayerID) (PlayerState, bool)
	Remove(id PlayerID) bool
	Snapshot() []PlayerState
	Len() int
}

// MemoryRegistry 进程内 map 实现，不做持久化
type MemoryRegistry struct {
	players map[PlayerID]PlayerState
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{players: make(map[PlayerID]PlayerState)}
}

func (r *MemoryRegistry) Upsert(p PlayerState) {
	r.players[p.ID] = p
}

func (r *MemoryRegistry) Get(id PlayerID) (PlayerState, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *MemoryRegistry) Remove(id PlayerID) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

// Snapshot 按 id 排序的值拷贝
func (r *MemoryRegistry) Snapshot() []PlayerState {
	out := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRegistry) Len() int { return len(r.players) }
