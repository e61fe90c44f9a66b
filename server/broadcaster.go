package server

import (
	"strings"

	"arenasync/protocol"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Conn 广播器眼中的一条连接：只管入队，不等待送达
type Conn interface {
	Codec() protocol.Codec
	// Enqueue 非阻塞入队，返回 false 表示被丢弃
	Enqueue(frame []byte) bool
	Close()
}

type BroadcasterOptions struct {
	Spawn         protocol.Vec2
	ChatMaxLength int
}

// Broadcaster 事件路由：入站事件 → 注册表变更 → 转发给部分/全部连接。
// 所有方法都必须在同一个 goroutine（Room 循环）中调用。
type Broadcaster struct {
	registry Registry
	conns    map[PlayerID]Conn
	opts     BroadcasterOptions
	metrics  *Metrics
	log      *zap.SugaredLogger
}

func NewBroadcaster(reg Registry, opts BroadcasterOptions, metrics *Metrics, log *zap.SugaredLogger) *Broadcaster {
	if metrics == nil {
		metrics = &Metrics{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Broadcaster{
		registry: reg,
		conns:    make(map[PlayerID]Conn),
		opts:     opts,
		metrics:  metrics,
		log:      log,
	}
}

// Connect 新连接：分配默认记录，只给新连接发送握手与全量快照
func (b *Broadcaster) Connect(id PlayerID, conn Conn) {
	if old, ok := b.conns[id]; ok {
		b.log.Warnw("duplicate connection id, closing previous", "id", id)
		old.Close()
	}
	b.conns[id] = conn
	b.registry.Upsert(NewPlayerState(id, b.opts.Spawn))
	b.metrics.IncConnects()

	snapshot := b.registry.Snapshot()
	records := make([]protocol.PlayerRecord, 0, len(snapshot))
	for _, p := range snapshot {
		records = append(records, p.Record())
	}
	b.sendTo(id, protocol.EvConnected, protocol.Connected{ID: string(id)})
	b.sendTo(id, protocol.EvCurrentPlayers, records)
	b.log.Infow("player connected", "id", id, "online", b.registry.Len())
}

// Disconnect 删除记录并通知剩余连接
func (b *Broadcaster) Disconnect(id PlayerID) {
	conn, hadConn := b.conns[id]
	if hadConn {
		delete(b.conns, id)
		conn.Close()
	}
	removed := b.registry.Remove(id)
	if !hadConn && !removed {
		return
	}
	b.metrics.IncDisconnects()
	b.broadcast(protocol.EvPlayerDisconnected, protocol.PlayerDisconnected{ID: string(id)}, "")
	b.log.Infow("player disconnected", "id", id, "online", b.registry.Len())
}

// Dispatch 处理来自 id 的一帧原始数据。格式错误只记录并丢弃。
func (b *Broadcaster) Dispatch(id PlayerID, frame []byte) {
	conn, ok := b.conns[id]
	if !ok {
		b.metrics.IncUnknownSenderNoops()
		b.log.Debugw("frame from unknown connection dropped", "id", id)
		return
	}
	codec := conn.Codec()
	env, err := codec.Decode(frame)
	if err != nil {
		b.reject(id, "", err)
		return
	}

	switch env.Event {
	case protocol.EvNewPlayer:
		err = b.onNewPlayer(id, codec, env)
	case protocol.EvPlayerMovement:
		err = b.onMovement(id, codec, env)
	case protocol.EvPlayerJump:
		err = b.onJump(id, codec, env)
	case protocol.EvPlayerAttack:
		err = b.onAttack(id, codec, env)
	case protocol.EvChatMessage:
		err = b.onChat(id, codec, env)
	default:
		err = errors.Wrapf(protocol.ErrUnknownEvent, "%q", env.Event)
	}
	if err != nil {
		b.reject(id, env.Event, err)
		return
	}
	b.metrics.IncAccepted()
}

func (b *Broadcaster) reject(id PlayerID, event string, err error) {
	b.metrics.IncRejected()
	b.log.Warnw("event dropped", "id", id, "event", event, "err", err)
}

// checkClaim 载荷中的 id 只用于日志，永远以连接标识为准
func (b *Broadcaster) checkClaim(id PlayerID, claimed, event string) {
	if claimed != "" && claimed != string(id) {
		b.log.Debugw("payload id ignored", "id", id, "claimed", claimed, "event", event)
	}
}

func (b *Broadcaster) onNewPlayer(id PlayerID, codec protocol.Codec, env protocol.Envelope) error {
	msg, err := protocol.DecodePayload[protocol.NewPlayer](codec, env)
	if err != nil {
		return err
	}
	b.checkClaim(id, msg.ID, env.Event)
	p, ok := b.registry.Get(id)
	if !ok {
		b.metrics.IncUnknownSenderNoops()
		return nil
	}
	if msg.X != nil {
		p.Position = protocol.Vec2{X: *msg.X, Y: *msg.Y}
		b.registry.Upsert(p)
	}
	b.broadcast(protocol.EvNewPlayer, p.Record(), id)
	return nil
}

func (b *Broadcaster) onMovement(id PlayerID, codec protocol.Codec, env protocol.Envelope) error {
	msg, err := protocol.DecodePayload[protocol.PlayerMovement](codec, env)
	if err != nil {
		return err
	}
	b.checkClaim(id, msg.ID, env.Event)
	p, ok := b.registry.Get(id)
	if !ok {
		b.metrics.IncUnknownSenderNoops()
		return nil
	}
	p.Position = *msg.Position
	p.Direction = msg.Direction
	p.IsMoving = msg.IsMoving
	p.IsAirborne = msg.IsAirborne
	b.registry.Upsert(p)

	b.broadcast(protocol.EvPlayerMoved, protocol.PlayerMoved{
		ID:         string(id),
		Position:   p.Position,
		Direction:  p.Direction,
		IsMoving:   p.IsMoving,
		IsAirborne: p.IsAirborne,
	}, id)
	return nil
}

// onJump 跳跃是瞬时事件：无条件转发，不改 isAirborne
func (b *Broadcaster) onJump(id PlayerID, codec protocol.Codec, env protocol.Envelope) error {
	msg, err := protocol.DecodePayload[protocol.PlayerJump](codec, env)
	if err != nil {
		return err
	}
	b.checkClaim(id, msg.ID, env.Event)
	if p, ok := b.registry.Get(id); ok {
		p.Position = *msg.Position
		p.Direction = msg.Direction
		b.registry.Upsert(p)
	}
	b.broadcast(protocol.EvPlayerJumped, protocol.PlayerJumped{
		ID:        string(id),
		Position:  *msg.Position,
		Direction: msg.Direction,
		VelocityY: msg.VelocityY,
	}, id)
	return nil
}

func (b *Broadcaster) onAttack(id PlayerID, codec protocol.Codec, env protocol.Envelope) error {
	msg, err := protocol.DecodePayload[protocol.PlayerAttack](codec, env)
	if err != nil {
		return err
	}
	b.checkClaim(id, msg.ID, env.Event)
	if p, ok := b.registry.Get(id); ok {
		p.Position = *msg.Position
		p.Direction = msg.Direction
		p.IsAirborne = msg.IsAirborne
		b.registry.Upsert(p)
	}
	b.broadcast(protocol.EvPlayerAttacked, protocol.PlayerAttacked{
		ID:         string(id),
		Position:   *msg.Position,
		Direction:  msg.Direction,
		IsAirborne: msg.IsAirborne,
	}, id)
	return nil
}

// onChat 聊天回显给所有人（包括发送者），用于发送方确认
func (b *Broadcaster) onChat(id PlayerID, codec protocol.Codec, env protocol.Envelope) error {
	msg, err := protocol.DecodePayload[protocol.ChatMessage](codec, env)
	if err != nil {
		return err
	}
	b.checkClaim(id, msg.ID, env.Event)
	text := strings.TrimSpace(msg.Message)
	if limit := b.opts.ChatMaxLength; limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = string(r[:limit])
		}
	}
	b.broadcast(protocol.EvChatMessageReceived, protocol.ChatMessageReceived{
		ID:        string(id),
		Message:   text,
		Timestamp: msg.Timestamp,
	}, "")
	return nil
}

func (b *Broadcaster) sendTo(id PlayerID, event string, payload any) {
	conn, ok := b.conns[id]
	if !ok {
		return
	}
	frames := make(map[string][]byte, 1)
	b.deliver(conn, frames, event, payload)
}

// broadcast 发给除 except 之外的所有连接；except 为空表示全部
func (b *Broadcaster) broadcast(event string, payload any, except PlayerID) {
	frames := make(map[string][]byte, 2)
	for id, conn := range b.conns {
		if id == except {
			continue
		}
		b.deliver(conn, frames, event, payload)
	}
}

// deliver 按连接的编码懒编码一次，同一次广播内复用
func (b *Broadcaster) deliver(conn Conn, frames map[string][]byte, event string, payload any) {
	codec := conn.Codec()
	frame, ok := frames[codec.Name()]
	if !ok {
		var err error
		frame, err = codec.Encode(event, payload)
		if err != nil {
			b.log.Errorw("encode failed", "event", event, "codec", codec.Name(), "err", err)
			return
		}
		frames[codec.Name()] = frame
	}
	if conn.Enqueue(frame) {
		b.metrics.IncDeliveries()
	} else {
		b.metrics.IncQueueFullDropped()
	}
}

// Online 当前在线人数
func (b *Broadcaster) Online() int { return b.registry.Len() }

// CloseAll 关闭所有连接（进程退出时）
func (b *Broadcaster) CloseAll() {
	for id, conn := range b.conns {
		conn.Close()
		delete(b.conns, id)
	}
}
