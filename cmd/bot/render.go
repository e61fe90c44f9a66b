package main

import (
	"arenasync/client"
	"arenasync/protocol"

	"go.uber.org/zap"
)

// logRenderer 无界面渲染：只把远端替身的可见变化写进日志
type logRenderer struct {
	log *zap.SugaredLogger
}

func (r logRenderer) Spawn(id string, at protocol.Vec2) client.Sprite {
	r.log.Debugw("spawn", "id", id, "x", at.X, "y", at.Y)
	return &logSprite{id: id, log: r.log}
}

type logSprite struct {
	id   string
	anim client.Animation
	log  *zap.SugaredLogger
}

func (s *logSprite) SetPosition(protocol.Vec2) {}
func (s *logSprite) SetFacing(protocol.Direction) {}
func (s *logSprite) SetOffsetY(float64) {}

func (s *logSprite) Play(a client.Animation) {
	if a != s.anim {
		s.anim = a
		s.log.Debugw("animation", "id", s.id, "anim", a)
	}
}

func (s *logSprite) ShowBubble(text string) { s.log.Infow("bubble", "id", s.id, "text", text) }
func (s *logSprite) HideBubble() {}
func (s *logSprite) Destroy() { s.log.Debugw("despawn", "id", s.id) }

// logSink 连接状态与聊天
type logSink struct {
	log *zap.SugaredLogger
}

func (l logSink) ConnectionStatus(s client.Status) {
	l.log.Infow("status", "status", s.String())
}

func (l logSink) Chat(fromID, message string, timestamp int64, self bool) {
	l.log.Infow("chat", "from", fromID, "msg", message, "ts", timestamp, "self", self)
}
