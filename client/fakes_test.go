package client

import (
	"sync"

	"arenasync/protocol"
)

type fakeSprite struct {
	id        string
	pos       protocol.Vec2
	facing    protocol.Direction
	offsetY   float64
	minOffset float64
	played    []Animation
	bubble    string
	destroyed bool
}

func (s *fakeSprite) SetPosition(p protocol.Vec2) { s.pos = p }
func (s *fakeSprite) SetFacing(d protocol.Direction) { s.facing = d }
func (s *fakeSprite) SetOffsetY(dy float64) {
	s.offsetY = dy
	if dy < s.minOffset {
		s.minOffset = dy
	}
}
func (s *fakeSprite) Play(a Animation) { s.played = append(s.played, a) }
func (s *fakeSprite) ShowBubble(text string) { s.bubble = text }
func (s *fakeSprite) HideBubble() { s.bubble = "" }
func (s *fakeSprite) Destroy() { s.destroyed = true }

func (s *fakeSprite) last() Animation {
	if len(s.played) == 0 {
		return ""
	}
	return s.played[len(s.played)-1]
}

type fakeRenderer struct {
	spawned []*fakeSprite
}

func (r *fakeRenderer) Spawn(id string, at protocol.Vec2) Sprite {
	s := &fakeSprite{id: id, pos: at}
	r.spawned = append(r.spawned, s)
	return s
}

func (r *fakeRenderer) sprite(id string) *fakeSprite {
	for i := len(r.spawned) - 1; i >= 0; i-- {
		if r.spawned[i].id == id {
			return r.spawned[i]
		}
	}
	return nil
}

func (r *fakeRenderer) count(id string) int {
	n := 0
	for _, s := range r.spawned {
		if s.id == id {
			n++
		}
	}
	return n
}

type fakeBody struct {
	pos      protocol.Vec2
	vy       float64
	grounded bool
	facing   protocol.Direction
	moving   bool
}

func newFakeBody(x, y float64) *fakeBody {
	return &fakeBody{pos: protocol.Vec2{X: x, Y: y}, grounded: true, facing: protocol.DirRight}
}

func (b *fakeBody) Position() protocol.Vec2 { return b.pos }
func (b *fakeBody) VelocityY() float64 { return b.vy }
func (b *fakeBody) Grounded() bool { return b.grounded }
func (b *fakeBody) Facing() protocol.Direction { return b.facing }
func (b *fakeBody) Moving() bool { return b.moving }

type emitted struct {
	event   string
	payload any
}

type recordEmitter struct {
	mu   sync.Mutex
	sent []emitted
	err  error
}

func (e *recordEmitter) Emit(event string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, emitted{event: event, payload: payload})
	return nil
}

func (e *recordEmitter) events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.sent))
	for _, s := range e.sent {
		out = append(out, s.event)
	}
	return out
}

func (e *recordEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = nil
}

// fakeLink 用内存通道模拟传输层，消息按 JSON 编码后入队
type fakeLink struct {
	recordEmitter
	messages chan protocol.Envelope
	status   chan Status
	closed   bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		messages: make(chan protocol.Envelope, 64),
		status:   make(chan Status, 8),
	}
}

func (l *fakeLink) Codec() protocol.Codec { return protocol.JSONCodec{} }
func (l *fakeLink) Messages() <-chan protocol.Envelope { return l.messages }
func (l *fakeLink) StatusChanges() <-chan Status { return l.status }
func (l *fakeLink) Close() { l.closed = true }

func (l *fakeLink) push(event string, payload any) {
	frame, err := protocol.JSONCodec{}.Encode(event, payload)
	if err != nil {
		panic(err)
	}
	env, err := protocol.JSONCodec{}.Decode(frame)
	if err != nil {
		panic(err)
	}
	l.messages <- env
}

type statusRecorder struct{ seen []Status }

func (r *statusRecorder) ConnectionStatus(s Status) { r.seen = append(r.seen, s) }

type chatLine struct {
	from string
	text string
	self bool
}

type chatRecorder struct{ lines []chatLine }

func (r *chatRecorder) Chat(fromID, message string, _ int64, self bool) {
	r.lines = append(r.lines, chatLine{from: fromID, text: message, self: self})
}

func testTuning() Tuning {
	t := DefaultTuning()
	t.Smoothing = 0.2
	return t
}
