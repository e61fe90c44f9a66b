package client

import (
	"time"

	"arenasync/protocol"

	"github.com/pkg/errors"
)

// Emitter 出站通道
type Emitter interface {
	Emit(event string, payload any) error
}

// Input 一帧的输入按键（电平），由外部输入层映射
type Input struct {
	Jump   bool
	Attack bool
}

// LocalPlayer 本地玩家：读物理体状态，按节流策略发送网络事件
type LocalPlayer struct {
	body     Body
	out      Emitter
	throttle *MovementThrottle
	jump     EdgeTrigger
	attack   EdgeTrigger
}

func NewLocalPlayer(body Body, out Emitter, throttle *MovementThrottle) *LocalPlayer {
	return &LocalPlayer{body: body, out: out, throttle: throttle}
}

func (l *LocalPlayer) sample() LocalSample {
	return LocalSample{
		Position:   l.body.Position(),
		Facing:     l.body.Facing(),
		IsMoving:   l.body.Moving(),
		IsAirborne: !l.body.Grounded(),
	}
}

// Announce 本地初始化完成后发送一次 newPlayer，并让下一帧必定发送位置
func (l *LocalPlayer) Announce() error {
	l.throttle.Reset()
	pos := l.body.Position()
	return l.out.Emit(protocol.EvNewPlayer, protocol.NewPlayer{X: &pos.X, Y: &pos.Y})
}

// Update 每帧调用（在外部物理更新之后）。跳跃与攻击是边沿事件，每次按下只发一次。
func (l *LocalPlayer) Update(now time.Time, in Input) error {
	s := l.sample()
	pos := s.Position

	if l.jump.Fire(in.Jump) {
		if err := l.out.Emit(protocol.EvPlayerJump, protocol.PlayerJump{
			Position:  &pos,
			Direction: s.Facing,
			VelocityY: l.body.VelocityY(),
		}); err != nil {
			return errors.Wrap(err, "emit jump")
		}
	}
	if l.attack.Fire(in.Attack) {
		if err := l.out.Emit(protocol.EvPlayerAttack, protocol.PlayerAttack{
			Position:   &pos,
			Direction:  s.Facing,
			IsAirborne: s.IsAirborne,
		}); err != nil {
			return errors.Wrap(err, "emit attack")
		}
	}
	if l.throttle.ShouldEmit(now, s) {
		if err := l.out.Emit(protocol.EvPlayerMovement, protocol.PlayerMovement{
			Position:   &pos,
			Direction:  s.Facing,
			IsMoving:   s.IsMoving,
			IsAirborne: s.IsAirborne,
		}); err != nil {
			return errors.Wrap(err, "emit movement")
		}
		l.throttle.Commit(now, s)
	}
	return nil
}

// Say 发送聊天；服务端回显后才会出现在 ChatSink
func (l *LocalPlayer) Say(text string, now time.Time) error {
	return l.out.Emit(protocol.EvChatMessage, protocol.ChatMessage{Message: text, Timestamp: now.UnixMilli()})
}
