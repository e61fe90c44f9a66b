package server

import "arenasync/protocol"

// PlayerID 连接标识，由服务端在握手时分配，连接关闭后即失效
type PlayerID string

// PlayerState 服务端持有的玩家记录，每个连接一条。
// 只有所属连接发来的事件能修改它。
type PlayerState struct {
	ID         PlayerID
	Position   protocol.Vec2
	Direction  protocol.Direction
	IsMoving   bool
	IsAirborne bool
}

// NewPlayerState 以出生点与默认朝向创建记录
func NewPlayerState(id PlayerID, spawn protocol.Vec2) PlayerState {
	return PlayerState{
		ID:        id,
		Position:  spawn,
		Direction: protocol.DirRight,
	}
}

// Record 转换为线上格式
func (p PlayerState) Record() protocol.PlayerRecord {
	return protocol.PlayerRecord{
		ID:         string(p.ID),
		X:          p.Position.X,
		Y:          p.Position.Y,
		Direction:  p.Direction,
		IsMoving:   p.IsMoving,
		IsAirborne: p.IsAirborne,
	}
}
