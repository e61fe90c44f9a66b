package client

import (
	"math"
	"time"

	"arenasync/config"
	"arenasync/protocol"
)

// Tuning 远端实体的手感参数
type Tuning struct {
	Smoothing       float64 // 每帧插值系数 α，越大越跟手
	AnimationLock   time.Duration
	AttackDuration  time.Duration
	JumpPopDuration time.Duration
	JumpPopHeight   float64
	ChatBubbleTTL   time.Duration
}

func DefaultTuning() Tuning {
	return TuningFromConfig(config.Default().Client)
}

func TuningFromConfig(c config.ClientConfig) Tuning {
	return Tuning{
		Smoothing:       c.Smoothing,
		AnimationLock:   c.AnimationLock,
		AttackDuration:  c.AttackDuration,
		JumpPopDuration: c.JumpPopDuration,
		JumpPopHeight:   c.JumpPopHeight,
		ChatBubbleTTL:   c.ChatBubbleTTL,
	}
}

// AnimState 远端实体的动画状态机
type AnimState int

const (
	StateIdle AnimState = iota
	StateWalking
	StateAirborne
	StateAttacking
)

func (s AnimState) Animation() Animation {
	switch s {
	case StateWalking:
		return AnimWalk
	case StateAirborne:
		return AnimJump
	case StateAttacking:
		return AnimAttack
	}
	return AnimIdle
}

func (s AnimState) String() string { return string(s.Animation()) }

// RemoteProxy 其他玩家在本地的替身。网络回调只写 Target 与状态位，
// 插值与动画仲裁只在 step 中进行。
type RemoteProxy struct {
	ID      string
	Current protocol.Vec2 // 显示坐标（插值后）
	Target  protocol.Vec2 // 最近一次收到的坐标

	Facing      protocol.Direction
	IsAirborne  bool
	IsMoving    bool
	IsAttacking bool

	state      AnimState
	lockLeft   time.Duration
	attackLeft time.Duration

	popElapsed time.Duration
	popActive  bool
	offsetY    float64

	bubble     string
	bubbleLeft time.Duration

	sprite Sprite
}

func newRemoteProxy(id string, at protocol.Vec2, facing protocol.Direction, sprite Sprite) *RemoteProxy {
	if !facing.Valid() {
		facing = protocol.DirRight
	}
	p := &RemoteProxy{
		ID:      id,
		Current: at,
		Target:  at,
		Facing:  facing,
		state:   StateIdle,
		sprite:  sprite,
	}
	sprite.SetFacing(facing)
	sprite.Play(AnimIdle)
	return p
}

// State 当前动画状态
func (p *RemoteProxy) State() AnimState { return p.state }

// Locked 动画锁是否生效
func (p *RemoteProxy) Locked() bool { return p.lockLeft > 0 }

// OffsetY 跳跃弹起的当前视觉偏移（向上为负）
func (p *RemoteProxy) OffsetY() float64 { return p.offsetY }

// Bubble 当前气泡文字，空串表示没有
func (p *RemoteProxy) Bubble() string { return p.bubble }

// desired 优先级：攻击 > 离地 > 移动 > 站立
func (p *RemoteProxy) desired() AnimState {
	switch {
	case p.IsAttacking:
		return StateAttacking
	case p.IsAirborne:
		return StateAirborne
	case p.IsMoving:
		return StateWalking
	}
	return StateIdle
}

// enter 进入状态并播放对应动画，同时挂上防抖锁
func (p *RemoteProxy) enter(s AnimState, lock time.Duration) {
	p.state = s
	p.lockLeft = lock
	p.sprite.Play(s.Animation())
}

// arbitrate 锁定期间跳过选择；否则按优先级切换
func (p *RemoteProxy) arbitrate(lock time.Duration) {
	if p.lockLeft > 0 {
		return
	}
	if want := p.desired(); want != p.state {
		p.enter(want, lock)
	}
}

func (p *RemoteProxy) setFacing(d protocol.Direction) {
	if d.Valid() && d != p.Facing {
		p.Facing = d
		p.sprite.SetFacing(d)
	}
}

// attack 进入攻击状态，不受动画锁限制；重复攻击会重新计时
func (p *RemoteProxy) attack(t Tuning) {
	p.IsAttacking = true
	p.attackLeft = t.AttackDuration
	p.enter(StateAttacking, t.AnimationLock)
}

// pop 触发一次竖直弹起补间，与位置插值相互独立
func (p *RemoteProxy) pop() {
	p.popActive = true
	p.popElapsed = 0
}

func (p *RemoteProxy) say(text string, ttl time.Duration) {
	p.bubble = text
	p.bubbleLeft = ttl
	p.sprite.ShowBubble(text)
}

func countdown(left, dt time.Duration) time.Duration {
	if left -= dt; left < 0 {
		return 0
	}
	return left
}

// step 每帧一次：指数平滑逼近目标，推进各个计时器，再做动画仲裁
func (p *RemoteProxy) step(dt time.Duration, t Tuning) {
	p.Current = protocol.Lerp(p.Current, p.Target, t.Smoothing)
	p.sprite.SetPosition(p.Current)

	p.lockLeft = countdown(p.lockLeft, dt)

	if p.IsAttacking {
		p.attackLeft = countdown(p.attackLeft, dt)
		if p.attackLeft == 0 {
			// 攻击自带时长，到期即按最新的移动/离地状态恢复
			p.IsAttacking = false
			p.enter(p.desired(), t.AnimationLock)
		}
	}

	if p.popActive {
		p.popElapsed += dt
		if p.popElapsed >= t.JumpPopDuration || t.JumpPopDuration <= 0 {
			p.popActive = false
			p.offsetY = 0
		} else {
			phase := float64(p.popElapsed) / float64(t.JumpPopDuration)
			p.offsetY = -t.JumpPopHeight * math.Sin(math.Pi*phase)
		}
		p.sprite.SetOffsetY(p.offsetY)
	}

	if p.bubble != "" {
		p.bubbleLeft = countdown(p.bubbleLeft, dt)
		if p.bubbleLeft == 0 {
			p.bubble = ""
			p.sprite.HideBubble()
		}
	}

	p.arbitrate(t.AnimationLock)
}

// destroy 释放精灵与附属的临时元素；之后计时器随对象一起失效
func (p *RemoteProxy) destroy() {
	if p.bubble != "" {
		p.bubble = ""
		p.sprite.HideBubble()
	}
	p.sprite.Destroy()
}
