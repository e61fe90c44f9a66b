package main

import (
	"math/rand"
	"time"

	"arenasync/client"
	"arenasync/protocol"
)

const (
	walkSpeed = 160.0  // px/s
	jumpSpeed = -500.0 // 向上为负
	gravity   = 1200.0
	arenaMinX = 20.0
	arenaMaxX = 780.0
)

// walker 一个随机游走的本地物理体：左右走、偶尔停下、偶尔跳跃或攻击
type walker struct {
	pos      protocol.Vec2
	vy       float64
	groundY  float64
	facing   protocol.Direction
	moving   bool
	rng      *rand.Rand
	decideIn time.Duration
}

func newWalker(spawn protocol.Vec2, rng *rand.Rand) *walker {
	return &walker{pos: spawn, groundY: spawn.Y, facing: protocol.DirRight, rng: rng}
}

func (w *walker) Position() protocol.Vec2 { return w.pos }
func (w *walker) VelocityY() float64 { return w.vy }
func (w *walker) Grounded() bool { return w.pos.Y >= w.groundY && w.vy >= 0 }
func (w *walker) Facing() protocol.Direction { return w.facing }
func (w *walker) Moving() bool { return w.moving }

// step 推进一帧物理，返回本帧的按键
func (w *walker) step(dt time.Duration) client.Input {
	sec := dt.Seconds()
	var in client.Input

	w.decideIn -= dt
	if w.decideIn <= 0 {
		w.decideIn = time.Duration(300+w.rng.Intn(900)) * time.Millisecond
		switch r := w.rng.Float64(); {
		case r < 0.2:
			w.moving = false
		case r < 0.6:
			w.moving, w.facing = true, protocol.DirLeft
		default:
			w.moving, w.facing = true, protocol.DirRight
		}
		if w.Grounded() && w.rng.Float64() < 0.3 {
			w.vy = jumpSpeed
			in.Jump = true
		}
		in.Attack = w.rng.Float64() < 0.15
	}

	if w.moving {
		dx := walkSpeed * sec
		if w.facing == protocol.DirLeft {
			dx = -dx
		}
		w.pos.X += dx
		if w.pos.X < arenaMinX {
			w.pos.X, w.facing = arenaMinX, protocol.DirRight
		} else if w.pos.X > arenaMaxX {
			w.pos.X, w.facing = arenaMaxX, protocol.DirLeft
		}
	}

	// 起跳帧保持初速度，下一帧开始积分
	if !in.Jump && !w.Grounded() {
		w.vy += gravity * sec
		w.pos.Y += w.vy * sec
		if w.pos.Y >= w.groundY {
			w.pos.Y, w.vy = w.groundY, 0
		}
	}
	return in
}
