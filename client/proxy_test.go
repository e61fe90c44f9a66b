package client

import (
	"testing"
	"time"

	"arenasync/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnProxy(t *testing.T, m *EntityManager) *RemoteProxy {
	t.Helper()
	m.ApplyNewPlayer(protocol.PlayerRecord{ID: "a", X: 0, Y: 0, Direction: protocol.DirRight})
	p, ok := m.Proxy("a")
	require.True(t, ok)
	return p
}

func TestAnimationFollowsMovementFlags(t *testing.T) {
	m, r := newTestManager()
	p := spawnProxy(t, m)
	assert.Equal(t, AnimIdle, r.sprite("a").last())

	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Position: protocol.Vec2{X: 5}, Direction: protocol.DirRight, IsMoving: true})
	m.Step(frame)
	assert.Equal(t, StateWalking, p.State())
	assert.Equal(t, AnimWalk, r.sprite("a").last())

	m.Step(testTuning().AnimationLock)
	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Position: protocol.Vec2{X: 5}, Direction: protocol.DirRight, IsMoving: true, IsAirborne: true})
	m.Step(frame)
	assert.Equal(t, StateAirborne, p.State(), "airborne outranks walking")
}

func TestAnimationLockSuppressesFlicker(t *testing.T) {
	m, r := newTestManager()
	p := spawnProxy(t, m)

	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Direction: protocol.DirRight, IsMoving: true})
	m.Step(frame)
	require.Equal(t, StateWalking, p.State())
	require.True(t, p.Locked())

	// 锁定期间的抖动不触发切换
	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Direction: protocol.DirRight})
	m.Step(frame)
	assert.Equal(t, StateWalking, p.State())
	plays := len(r.sprite("a").played)

	m.Step(testTuning().AnimationLock)
	assert.Equal(t, StateIdle, p.State())
	assert.Len(t, r.sprite("a").played, plays+1)
}

func TestAttackOverridesLockAndExpires(t *testing.T) {
	m, _ := newTestManager()
	p := spawnProxy(t, m)
	tuning := testTuning()

	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Direction: protocol.DirRight, IsMoving: true})
	m.Step(frame)
	require.True(t, p.Locked())

	m.ApplyAttacked(protocol.PlayerAttacked{ID: "a", Position: protocol.Vec2{X: 3}, Direction: protocol.DirLeft})
	assert.Equal(t, StateAttacking, p.State(), "attack enters immediately even when locked")
	assert.Equal(t, protocol.DirLeft, p.Facing)

	// 攻击期间的移动只更新状态位，不打断攻击
	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Position: protocol.Vec2{X: 3}, Direction: protocol.DirLeft, IsMoving: true})
	m.Step(tuning.AttackDuration / 2)
	assert.Equal(t, StateAttacking, p.State())
	assert.True(t, p.IsAttacking)

	m.Step(tuning.AttackDuration / 2)
	assert.False(t, p.IsAttacking)
	assert.Equal(t, StateWalking, p.State())
}

func TestRepeatedAttackRestartsTimer(t *testing.T) {
	m, _ := newTestManager()
	p := spawnProxy(t, m)
	d := testTuning().AttackDuration
	atk := protocol.PlayerAttacked{ID: "a", Direction: protocol.DirRight}

	m.ApplyAttacked(atk)
	m.Step(d - frame)
	m.ApplyAttacked(atk)
	m.Step(d - frame)
	assert.Equal(t, StateAttacking, p.State())
	m.Step(frame)
	assert.Equal(t, StateIdle, p.State())
}

func TestJumpPopIsIndependentOfInterpolation(t *testing.T) {
	m, r := newTestManager()
	p := spawnProxy(t, m)
	tuning := testTuning()

	m.ApplyJumped(protocol.PlayerJumped{ID: "a", Position: protocol.Vec2{X: 100}, Direction: protocol.DirRight, VelocityY: -500})
	m.Step(tuning.JumpPopDuration / 2)

	assert.InDelta(t, -tuning.JumpPopHeight, p.OffsetY(), 1e-9, "peak at half duration")
	assert.InDelta(t, 20, p.Current.X, 1e-9, "x keeps interpolating")
	assert.Equal(t, 0.0, p.Current.Y, "pop is visual only")

	m.Step(tuning.JumpPopDuration)
	assert.Zero(t, p.OffsetY())
	assert.Zero(t, r.sprite("a").offsetY)
	assert.Less(t, r.sprite("a").minOffset, 0.0)
}

func TestDestroyStopsTimers(t *testing.T) {
	m, r := newTestManager()
	spawnProxy(t, m)
	m.ApplyAttacked(protocol.PlayerAttacked{ID: "a", Direction: protocol.DirRight})
	m.ApplyChat(protocol.ChatMessageReceived{ID: "a", Message: "x"})
	m.ApplyDisconnected(protocol.PlayerDisconnected{ID: "a"})

	s := r.sprite("a")
	plays := len(s.played)
	m.Step(time.Second)
	assert.Len(t, s.played, plays, "destroyed proxy gets no more callbacks")
	assert.True(t, s.destroyed)
}

func TestInvalidFacingKeepsPrevious(t *testing.T) {
	m, _ := newTestManager()
	p := spawnProxy(t, m)
	m.ApplyMoved(protocol.PlayerMoved{ID: "a", Direction: protocol.Direction("up")})
	assert.Equal(t, protocol.DirRight, p.Facing)
}
