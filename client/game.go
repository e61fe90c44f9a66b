package client

import (
	"context"
	"time"

	"arenasync/protocol"

	"go.uber.org/zap"
)

// Link 是 Game 对传输层的全部依赖，Transport 实现了它
type Link interface {
	Emitter
	Codec() protocol.Codec
	Messages() <-chan protocol.Envelope
	StatusChanges() <-chan Status
	Close()
}

type GameOptions struct {
	Tuning            Tuning
	EmitInterval      time.Duration
	PositionThreshold float64
	Status            StatusSink // 可为 nil
	Chat              ChatSink   // 可为 nil
}

// maxDrainPerFrame 单帧最多处理的入站消息数，避免洪峰时饿死渲染
const maxDrainPerFrame = 1024

// Game 客户端组件：网络消息、远端调和与本地发送都在 Frame 所在的线程中执行
type Game struct {
	link     Link
	entities *EntityManager
	local    *LocalPlayer
	status   StatusSink
	chat     ChatSink
	log      *zap.SugaredLogger

	localID   string
	announced bool
	closed    bool
}

func NewGame(link Link, r Renderer, body Body, opts GameOptions, log *zap.SugaredLogger) *Game {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Game{
		link:     link,
		entities: NewEntityManager(r, opts.Tuning, log.Named("entities")),
		local:    NewLocalPlayer(body, link, NewMovementThrottle(opts.EmitInterval, opts.PositionThreshold)),
		status:   opts.Status,
		chat:     opts.Chat,
		log:      log,
	}
}

func (g *Game) Entities() *EntityManager { return g.entities }
func (g *Game) Local() *LocalPlayer { return g.local }

// LocalID 当前会话中服务端分配的 id；未连接时为空
func (g *Game) LocalID() string { return g.localID }

// Frame 一帧：处理已到达的消息 → 远端插值与动画 → 本地节流发送
func (g *Game) Frame(now time.Time, dt time.Duration, in Input) {
	if g.closed {
		return
	}
	g.drain()
	g.entities.Step(dt)
	if g.announced {
		if err := g.local.Update(now, in); err != nil {
			g.log.Debugw("local update not sent", "err", err)
		}
	}
}

// Say 发送聊天
func (g *Game) Say(text string, now time.Time) error {
	return g.local.Say(text, now)
}

func (g *Game) drain() {
	for i := 0; i < maxDrainPerFrame; i++ {
		select {
		case s := <-g.link.StatusChanges():
			g.onStatus(s)
		case env := <-g.link.Messages():
			g.handle(env)
		default:
			return
		}
	}
}

func (g *Game) onStatus(s Status) {
	// 状态与消息来自两个通道，同一帧内顺序不确定，会话切换只由 connected 事件决定
	g.log.Infow("connection status", "status", s.String())
	if g.status != nil {
		g.status.ConnectionStatus(s)
	}
}

func decodeInto[T any](g *Game, env protocol.Envelope) (T, bool) {
	v, err := protocol.DecodePayload[T](g.link.Codec(), env)
	if err != nil {
		g.log.Warnw("event dropped", "event", env.Event, "err", err)
		return v, false
	}
	return v, true
}

func (g *Game) handle(env protocol.Envelope) {
	switch env.Event {
	case protocol.EvConnected:
		if msg, ok := decodeInto[protocol.Connected](g, env); ok {
			// 新会话：重建世界，等待全量快照
			g.localID = msg.ID
			g.announced = false
			g.entities.Reset()
			g.entities.SetLocalID(msg.ID)
		}
	case protocol.EvCurrentPlayers:
		if recs, ok := decodeInto[[]protocol.PlayerRecord](g, env); ok {
			g.entities.ApplyCurrentPlayers(recs)
			if g.localID != "" && !g.announced {
				if err := g.local.Announce(); err != nil {
					g.log.Warnw("announce failed", "err", err)
					return
				}
				g.announced = true
			}
		}
	case protocol.EvNewPlayer:
		if rec, ok := decodeInto[protocol.PlayerRecord](g, env); ok {
			g.entities.ApplyNewPlayer(rec)
		}
	case protocol.EvPlayerMoved:
		if ev, ok := decodeInto[protocol.PlayerMoved](g, env); ok {
			g.entities.ApplyMoved(ev)
		}
	case protocol.EvPlayerJumped:
		if ev, ok := decodeInto[protocol.PlayerJumped](g, env); ok {
			g.entities.ApplyJumped(ev)
		}
	case protocol.EvPlayerAttacked:
		if ev, ok := decodeInto[protocol.PlayerAttacked](g, env); ok {
			g.entities.ApplyAttacked(ev)
		}
	case protocol.EvPlayerDisconnected:
		if ev, ok := decodeInto[protocol.PlayerDisconnected](g, env); ok {
			g.entities.ApplyDisconnected(ev)
		}
	case protocol.EvChatMessageReceived:
		if ev, ok := decodeInto[protocol.ChatMessageReceived](g, env); ok {
			g.entities.ApplyChat(ev)
			if g.chat != nil {
				g.chat.Chat(ev.ID, ev.Message, ev.Timestamp, ev.ID == g.localID)
			}
		}
	default:
		g.log.Warnw("unknown event dropped", "event", env.Event)
	}
}

// Run 以固定帧率驱动 Frame，直到 ctx 取消；返回前执行 Close
func (g *Game) Run(ctx context.Context, fps int, input func() Input) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	defer g.Close()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			var in Input
			if input != nil {
				in = input()
			}
			g.Frame(now, now.Sub(last), in)
			last = now
		}
	}
}

// Close 拆除：关闭连接、停止帧处理、销毁所有替身。可重复调用。
func (g *Game) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.link.Close()
	g.entities.Close()
}
