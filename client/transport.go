package client

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"arenasync/config"
	"arenasync/protocol"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

var (
	ErrNotConnected  = errors.New("transport not connected")
	ErrSendQueueFull = errors.New("send queue full")
)

type TransportOptions struct {
	URL               string
	Codec             protocol.Codec
	ReconnectAttempts int
	ReconnectBackoff  time.Duration // 固定退避
	InboxSize         int
	SendQueue         int
	ReadLimit         int64
}

// TransportOptionsFromConfig 由客户端配置生成传输参数
func TransportOptionsFromConfig(c config.ClientConfig) (TransportOptions, error) {
	codec, err := protocol.CodecByName(c.Codec)
	if err != nil {
		return TransportOptions{}, err
	}
	return TransportOptions{
		URL:               c.URL,
		Codec:             codec,
		ReconnectAttempts: c.ReconnectAttempts,
		ReconnectBackoff:  c.ReconnectBackoff,
		InboxSize:         c.InboxSize,
		SendQueue:         64,
		ReadLimit:         1 << 20,
	}, nil
}

// Transport 每个客户端一条 WebSocket 连接，断线后按固定退避自动重连，次数有上限。
// 每次重连都是新会话（服务端会分配新 id），不尝试恢复旧身份。
// 收到的消息只投递到 Messages 通道，由帧循环在自己的线程中处理。
type Transport struct {
	opts      TransportOptions
	messages  chan protocol.Envelope
	status    chan Status
	out       chan []byte
	connected atomic.Bool
	log       *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewTransport(opts TransportOptions, log *zap.SugaredLogger) *Transport {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Codec == nil {
		opts.Codec = protocol.JSONCodec{}
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	return &Transport{
		opts:     opts,
		messages: make(chan protocol.Envelope, opts.InboxSize),
		status:   make(chan Status, 8),
		out:      make(chan []byte, opts.SendQueue),
		log:      log,
	}
}

func (t *Transport) Codec() protocol.Codec { return t.opts.Codec }
func (t *Transport) Messages() <-chan protocol.Envelope { return t.messages }
func (t *Transport) StatusChanges() <-chan Status { return t.status }
func (t *Transport) Connected() bool { return t.connected.Load() }

// Emit 编码后非阻塞入队；未连接或队列满时直接返回错误，不重试
func (t *Transport) Emit(event string, payload any) error {
	if !t.connected.Load() {
		return ErrNotConnected
	}
	frame, err := t.opts.Codec.Encode(event, payload)
	if err != nil {
		return err
	}
	select {
	case t.out <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close 停止 Run（若在运行）
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// setStatus 只保留最新的若干状态，满了丢最旧的
func (t *Transport) setStatus(s Status) {
	for {
		select {
		case t.status <- s:
			return
		default:
		}
		select {
		case <-t.status:
		default:
		}
	}
}

func (t *Transport) dialURL() (string, error) {
	u, err := url.Parse(t.opts.URL)
	if err != nil {
		return "", errors.Wrap(err, "parse url")
	}
	q := u.Query()
	q.Set("codec", t.opts.Codec.Name())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run 连接并保持，直到 ctx 取消（返回 nil）或重连次数耗尽（返回最后一次的错误）
func (t *Transport) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	target, err := t.dialURL()
	if err != nil {
		return err
	}

	t.setStatus(StatusConnecting)
	failures := 0
	for {
		established, err := t.session(ctx, target)
		if ctx.Err() != nil {
			t.setStatus(StatusDisconnected)
			return nil
		}
		if established {
			failures = 0
		}
		failures++
		if failures > t.opts.ReconnectAttempts {
			t.setStatus(StatusDisconnected)
			return errors.Wrapf(err, "giving up after %d reconnect attempts", t.opts.ReconnectAttempts)
		}
		t.log.Warnw("connection lost, reconnecting", "attempt", failures, "backoff", t.opts.ReconnectBackoff, "err", err)
		t.setStatus(StatusReconnecting)

		timer := time.NewTimer(t.opts.ReconnectBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.setStatus(StatusDisconnected)
			return nil
		case <-timer.C:
		}
	}
}

// session 一次连接的完整生命周期；established 表示握手成功过
func (t *Transport) session(ctx context.Context, target string) (established bool, err error) {
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return false, errors.Wrap(err, "dial")
	}
	conn.SetReadLimit(t.opts.ReadLimit)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// 上一个会话遗留的出站帧属于旧身份，丢弃
	t.drainOut()
	t.connected.Store(true)
	defer t.connected.Store(false)
	t.setStatus(StatusConnected)
	t.log.Infow("connected", "url", target)

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	werr := make(chan error, 1)
	go func() {
		werr <- t.writeLoop(sctx, conn)
		cancel()
	}()

	err = t.readLoop(sctx, conn)
	cancel()
	if wErr := <-werr; err == nil {
		err = wErr
	}
	return true, err
}

func (t *Transport) drainOut() {
	for {
		select {
		case <-t.out:
		default:
			return
		}
	}
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return errors.Wrapf(err, "closed by server (%d)", status)
			}
			return errors.Wrap(err, "read")
		}
		env, err := t.opts.Codec.Decode(data)
		if err != nil {
			t.log.Warnw("bad frame dropped", "err", err)
			continue
		}
		select {
		case t.messages <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *Transport) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	typ := websocket.MessageText
	if t.opts.Codec.Binary() {
		typ = websocket.MessageBinary
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-t.out:
			if err := conn.Write(ctx, typ, frame); err != nil {
				return errors.Wrap(err, "write")
			}
		}
	}
}
