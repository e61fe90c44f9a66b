package client

import "arenasync/protocol"

// 渲染/物理层以能力集的形式注入，本包不关心素材、碰撞盒或画布尺寸。

// Animation 动画名
type Animation string

const (
	AnimIdle   Animation = "idle"
	AnimWalk   Animation = "walk"
	AnimJump   Animation = "jump"
	AnimAttack Animation = "attack"
)

// Renderer 在 (x,y) 处创建一个精灵
type Renderer interface {
	Spawn(id string, at protocol.Vec2) Sprite
}

// Sprite 远端玩家的可视化替身
type Sprite interface {
	SetPosition(p protocol.Vec2)
	SetFacing(d protocol.Direction)
	// SetOffsetY 纯视觉的竖直偏移（跳跃弹起），不影响插值坐标
	SetOffsetY(dy float64)
	Play(a Animation)
	ShowBubble(text string)
	HideBubble()
	Destroy()
}

// Body 本地玩家的物理体，由外部物理层每帧更新
type Body interface {
	Position() protocol.Vec2
	VelocityY() float64
	Grounded() bool
	Facing() protocol.Direction
	Moving() bool
}

// Status 连接状态
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusReconnecting
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// StatusSink 连接状态指示（UI 上的小圆点之类）
type StatusSink interface {
	ConnectionStatus(s Status)
}

// ChatSink 收到的聊天（包括自己发出后的回显）
type ChatSink interface {
	Chat(fromID string, message string, timestamp int64, self bool)
}
