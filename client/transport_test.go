package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arenasync/config"
	"arenasync/protocol"
	"arenasync/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func wsURL(hs *httptest.Server) string {
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
}

// flakyServer 每个连接发一条 connected；第一个连接随即被服务端关闭
func flakyServer(t *testing.T) *httptest.Server {
	var sessions int64
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := atomic.AddInt64(&sessions, 1)
		frame, _ := protocol.JSONCodec{}.Encode(protocol.EvConnected, protocol.Connected{ID: fmt.Sprintf("session-%d", n)})
		if err := c.Write(r.Context(), websocket.MessageText, frame); err != nil {
			return
		}
		if n == 1 {
			c.Close(websocket.StatusGoingAway, "restart")
			return
		}
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(hs.Close)
	return hs
}

func runTransport(t *testing.T, tr *Transport) <-chan error {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		errc <- tr.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})
	return errc
}

func nextConnected(t *testing.T, tr *Transport) string {
	t.Helper()
	select {
	case env := <-tr.Messages():
		require.Equal(t, protocol.EvConnected, env.Event)
		msg, err := protocol.DecodePayload[protocol.Connected](tr.Codec(), env)
		require.NoError(t, err)
		return msg.ID
	case <-time.After(2 * time.Second):
		t.Fatal("no connected event")
	}
	return ""
}

func TestTransportReconnectsAsFreshSession(t *testing.T) {
	hs := flakyServer(t)
	tr := NewTransport(TransportOptions{
		URL:               wsURL(hs),
		ReconnectAttempts: 3,
		ReconnectBackoff:  10 * time.Millisecond,
	}, nil)
	runTransport(t, tr)

	assert.Equal(t, "session-1", nextConnected(t, tr))
	assert.Equal(t, "session-2", nextConnected(t, tr))

	var seen []Status
	require.Eventually(t, func() bool {
		for {
			select {
			case s := <-tr.StatusChanges():
				seen = append(seen, s)
			default:
				return tr.Connected() && len(seen) > 0 && seen[len(seen)-1] == StatusConnected
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, seen, StatusReconnecting)
}

func TestTransportGivesUpAfterAttempts(t *testing.T) {
	hs := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(hs)
	hs.Close()

	tr := NewTransport(TransportOptions{URL: url, ReconnectAttempts: 2, ReconnectBackoff: time.Millisecond}, nil)
	errc := runTransport(t, tr)
	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "giving up after 2 reconnect attempts")
	case <-time.After(3 * time.Second):
		t.Fatal("transport kept retrying")
	}
	assert.False(t, tr.Connected())
	assert.ErrorIs(t, tr.Emit(protocol.EvChatMessage, protocol.ChatMessage{Message: "x"}), ErrNotConnected)
}

func TestTransportOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Client
	cfg.Codec = protocol.CodecMsgPack
	opts, err := TransportOptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, protocol.CodecMsgPack, opts.Codec.Name())

	tr := NewTransport(opts, nil)
	u, err := tr.dialURL()
	require.NoError(t, err)
	assert.Contains(t, u, "codec=msgpack")

	cfg.Codec = "xml"
	_, err = TransportOptionsFromConfig(cfg)
	assert.Error(t, err)
}

// tapLink 在 Transport 与 Game 之间转发入站消息，并保留一份副本
type tapLink struct {
	*Transport
	out  chan protocol.Envelope
	mu   sync.Mutex
	seen []protocol.Envelope
}

func newTapLink(t *testing.T, tr *Transport) *tapLink {
	l := &tapLink{Transport: tr, out: make(chan protocol.Envelope, 256)}
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })
	go func() {
		for {
			select {
			case <-stop:
				return
			case env := <-tr.Messages():
				l.mu.Lock()
				l.seen = append(l.seen, env)
				l.mu.Unlock()
				select {
				case l.out <- env:
				case <-stop:
					return
				}
			}
		}
	}()
	return l
}

func (l *tapLink) Messages() <-chan protocol.Envelope { return l.out }

// received 返回收到的 event 消息中 id 字段为 id 的条数
func (l *tapLink) received(event, id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, env := range l.seen {
		if env.Event != event {
			continue
		}
		var v struct {
			ID string `json:"id" msgpack:"id"`
		}
		if err := l.Codec().Unmarshal(env.Payload, &v); err == nil && v.ID == id {
			n++
		}
	}
	return n
}

type player struct {
	game   *Game
	body   *fakeBody
	render *fakeRenderer
	link   *tapLink
}

func startPlayer(t *testing.T, hs *httptest.Server, codec protocol.Codec, x, y float64) *player {
	t.Helper()
	tr := NewTransport(TransportOptions{URL: wsURL(hs), Codec: codec, ReconnectAttempts: 1, ReconnectBackoff: 10 * time.Millisecond}, nil)
	runTransport(t, tr)
	p := &player{body: newFakeBody(x, y), render: &fakeRenderer{}, link: newTapLink(t, tr)}
	p.game = NewGame(p.link, p.render, p.body, GameOptions{
		Tuning:            testTuning(),
		EmitInterval:      50 * time.Millisecond,
		PositionThreshold: 1,
	}, nil)
	t.Cleanup(p.game.Close)
	return p
}

func TestJumpReachesOnlyOtherPlayer(t *testing.T) {
	cfg := *config.Default()
	cfg.Server.WebDir = ""
	s := server.New(cfg, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hs.Close()
		cancel()
		<-stopped
	})

	a := startPlayer(t, hs, protocol.JSONCodec{}, 100, 100)
	b := startPlayer(t, hs, protocol.MsgPackCodec{}, 300, 100)

	now := time.Now()
	in := map[*player]Input{}
	pump := func() {
		now = now.Add(frame)
		for _, p := range []*player{a, b} {
			p.game.Frame(now, frame, in[p])
		}
	}

	require.Eventually(t, func() bool {
		pump()
		aid, bid := a.game.LocalID(), b.game.LocalID()
		if aid == "" || bid == "" {
			return false
		}
		_, aSeesB := a.game.Entities().Proxy(bid)
		_, bSeesA := b.game.Entities().Proxy(aid)
		return aSeesB && bSeesA
	}, 3*time.Second, 5*time.Millisecond)
	aid := a.game.LocalID()

	a.body.pos = protocol.Vec2{X: 160, Y: 80}
	a.body.vy = -500
	a.body.grounded = false
	in[a] = Input{Jump: true}

	var proxy *RemoteProxy
	require.Eventually(t, func() bool {
		pump()
		proxy, _ = b.game.Entities().Proxy(aid)
		return proxy != nil && b.render.sprite(aid).minOffset < 0
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, protocol.Vec2{X: 160, Y: 80}, proxy.Target)
	assert.Less(t, proxy.Current.X, 160.0, "still interpolating toward the target")
	assert.Greater(t, proxy.Current.X, 100.0)

	// 聊天会回显给发送者；同一连接上的出站消息有序，回显到达时跳跃若被回显也已到达
	require.NoError(t, a.game.Say("sync", now))
	require.Eventually(t, func() bool {
		pump()
		return a.link.received(protocol.EvChatMessageReceived, aid) == 1
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, b.link.received(protocol.EvPlayerJumped, aid))
	assert.Zero(t, a.link.received(protocol.EvPlayerJumped, aid), "sender does not get its own jump back")
	assert.Zero(t, a.link.received(protocol.EvPlayerMoved, aid))
	assert.Zero(t, a.render.count(aid))
	assert.Equal(t, 1, a.game.Entities().Len())
}
