package server

import (
	"net/http"
	"sync"
	"time"

	"arenasync/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type wsOptions struct {
	WriteWait    time.Duration
	PingInterval time.Duration
	PongWait     time.Duration
	ReadLimit    int64
}

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws    *websocket.Conn
	codec protocol.Codec
	send  chan []byte
	done  chan struct{}
	once  sync.Once
	opts  wsOptions
}

func NewClientConn(ws *websocket.Conn, codec protocol.Codec, queue int, opts wsOptions) *ClientConn {
	return &ClientConn{
		ws:    ws,
		codec: codec,
		send:  make(chan []byte, queue),
		done:  make(chan struct{}),
		opts:  opts,
	}
}

func (c *ClientConn) Codec() protocol.Codec { return c.codec }

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性直接丢弃，后续同一玩家的更新会覆盖它
		return false
	}
}

// Close 通知写协程结束；可重复调用
func (c *ClientConn) Close() {
	c.once.Do(func() { close(c.done) })
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	msgType := websocket.TextMessage
	if c.codec.Binary() {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(msgType, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			return
		}
	}
}

// readPump 读取客户端帧，原样交给房间线程解码
func (c *ClientConn) readPump(room *Room, id PlayerID) {
	defer c.Close()
	// 读泵退出时，通知房间在 Room 线程中移除该玩家
	defer room.RequestLeave(id)
	c.ws.SetReadLimit(c.opts.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if !room.OnInput(Input{PlayerID: id, Frame: payload}) {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：/ws?codec=json|msgpack
// 连接标识由服务端生成，客户端无法指定。
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("upgrade error", "err", err, "remote", r.RemoteAddr)
		return
	}

	id := PlayerID(uuid.NewString())
	client := NewClientConn(ws, codec, s.cfg.Room.SendQueue, wsOptions{
		WriteWait:    s.cfg.Server.WriteWait,
		PingInterval: s.cfg.Server.PingInterval,
		PongWait:     s.cfg.Server.PongWait,
		ReadLimit:    s.cfg.Server.ReadLimit,
	})
	go client.writePump()

	if !s.room.JoinPlayer(id, s.netsim.Wrap(client)) {
		client.Close()
		return
	}
	s.log.Debugw("ws accepted", "id", id, "codec", codec.Name(), "remote", r.RemoteAddr)
	go client.readPump(s.room, id)
}
