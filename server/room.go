package server

import (
	"time"

	"go.uber.org/zap"
)

// Room 全局唯一房间：注册表与广播器只在 Run 所在的 goroutine 中被访问，
// 网络协程只通过 inbox 投递命令，因此无需加锁。
type Room struct {
	broadcaster *Broadcaster
	inbox       chan any
	done        chan struct{}
	metrics     *Metrics
	log         *zap.SugaredLogger

	statsInterval time.Duration
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(b *Broadcaster, inboxSize int, statsInterval time.Duration, metrics *Metrics, log *zap.SugaredLogger) *Room {
	if metrics == nil {
		metrics = &Metrics{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Room{
		broadcaster:   b,
		inbox:         make(chan any, inboxSize), // 足够缓冲，避免网络读阻塞
		done:          make(chan struct{}),
		metrics:       metrics,
		log:           log,
		statsInterval: statsInterval,
	}
}

// post 投递命令；房间已停止时返回 false
func (r *Room) post(cmd any) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

// JoinPlayer 将连接加入房间（在 Room 线程中生效）
func (r *Room) JoinPlayer(id PlayerID, conn Conn) bool {
	return r.post(joinCmd{ID: id, Conn: conn})
}

// OnInput 入站数据。阻塞投递以保持同一连接内的顺序，背压落在该连接的读协程上。
func (r *Room) OnInput(in Input) bool {
	return r.post(in)
}

// RequestLeave 请求在 Room 线程中移除玩家，避免并发改动注册表
func (r *Room) RequestLeave(id PlayerID) {
	r.post(leaveCmd{ID: id})
}

// Done 在 Run 返回后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

// handle 逐条处理命令，处理完一条再处理下一条
func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		r.broadcaster.Connect(c.ID, c.Conn)
	case Input:
		r.broadcaster.Dispatch(c.PlayerID, c.Frame)
	case leaveCmd:
		r.broadcaster.Disconnect(c.ID)
	default:
		r.log.Errorw("unknown room command", "cmd", c)
	}
}
