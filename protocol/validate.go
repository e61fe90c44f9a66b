package protocol

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Validator 由所有消息实现；DecodePayload 在解码后自动调用
type Validator interface {
	Validate() error
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func checkPosition(p *Vec2) error {
	if p == nil {
		return errors.Wrap(ErrMissingField, "position")
	}
	if !finite(p.X, p.Y) {
		return errors.Wrapf(ErrMissingField, "position is not finite: %v", *p)
	}
	return nil
}

func checkDirection(d Direction) error {
	if !d.Valid() {
		return errors.Wrapf(ErrInvalidDirection, "%q", string(d))
	}
	return nil
}

func checkID(id string) error {
	if id == "" {
		return errors.Wrap(ErrMissingField, "id")
	}
	return nil
}

func (m Connected) Validate() error { return checkID(m.ID) }

func (m PlayerRecord) Validate() error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	if !finite(m.X, m.Y) {
		return errors.Wrap(ErrMissingField, "x/y")
	}
	return checkDirection(m.Direction)
}

func (m NewPlayer) Validate() error {
	if (m.X == nil) != (m.Y == nil) {
		return errors.Wrap(ErrMissingField, "x and y must be sent together")
	}
	if m.X != nil && !finite(*m.X, *m.Y) {
		return errors.Wrap(ErrMissingField, "x/y")
	}
	return nil
}

func (m PlayerMovement) Validate() error {
	if err := checkPosition(m.Position); err != nil {
		return err
	}
	return checkDirection(m.Direction)
}

func (m PlayerJump) Validate() error {
	if err := checkPosition(m.Position); err != nil {
		return err
	}
	if !finite(m.VelocityY) {
		return errors.Wrap(ErrMissingField, "velocityY")
	}
	return checkDirection(m.Direction)
}

func (m PlayerAttack) Validate() error {
	if err := checkPosition(m.Position); err != nil {
		return err
	}
	return checkDirection(m.Direction)
}

func (m ChatMessage) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return errors.Wrap(ErrInvalidMessage, "empty")
	}
	return nil
}

func (m PlayerMoved) Validate() error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	return checkDirection(m.Direction)
}

func (m PlayerJumped) Validate() error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	return checkDirection(m.Direction)
}

func (m PlayerAttacked) Validate() error {
	if err := checkID(m.ID); err != nil {
		return err
	}
	return checkDirection(m.Direction)
}

func (m ChatMessageReceived) Validate() error { return checkID(m.ID) }

func (m PlayerDisconnected) Validate() error { return checkID(m.ID) }
