package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope 解出的外层信封：事件名 + 尚未解码的载荷
type Envelope struct {
	Event   string
	Payload []byte
}

// Codec 线上编码。每条连接在握手时选定一种，之后不再变化。
type Codec interface {
	Name() string
	// Binary 为 true 时应以二进制帧发送
	Binary() bool
	Encode(event string, payload any) ([]byte, error)
	Decode(frame []byte) (Envelope, error)
	Unmarshal(payload []byte, out any) error
}

const (
	CodecJSON    = "json"
	CodecMsgPack = "msgpack"
)

// CodecByName 按名称选择编码，空串视为 json
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgPack:
		return MsgPackCodec{}, nil
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "%q", name)
}

// DecodePayload 解码载荷并做边界校验
func DecodePayload[T any](c Codec, env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, errors.Wrapf(ErrMissingField, "empty payload for %q", env.Event)
	}
	if err := c.Unmarshal(env.Payload, &out); err != nil {
		return out, errors.Wrapf(err, "decode %q payload", env.Event)
	}
	if v, ok := any(out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return out, errors.Wrapf(err, "validate %q", env.Event)
		}
	}
	return out, nil
}

func checkEncode(event string, payload any) error {
	if event == "" {
		return errors.New("trying to encode envelope with empty event")
	}
	if payload == nil {
		return errors.Errorf("trying to encode nil payload for %q", event)
	}
	return nil
}

// JSONCodec 文本帧：{"t":"playerMoved","p":{...}}
type JSONCodec struct{}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

func (JSONCodec) Name() string { return CodecJSON }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(event string, payload any) ([]byte, error) {
	if err := checkEncode(event, payload); err != nil {
		return nil, err
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %q", event)
	}
	return json.Marshal(jsonEnvelope{T: event, P: pb})
}

func (JSONCodec) Decode(frame []byte) (Envelope, error) {
	if len(frame) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var e jsonEnvelope
	if err := json.Unmarshal(frame, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "decode envelope")
	}
	if e.T == "" {
		return Envelope{}, errors.Wrap(ErrMissingField, "t")
	}
	return Envelope{Event: e.T, Payload: e.P}, nil
}

func (JSONCodec) Unmarshal(payload []byte, out any) error {
	return json.Unmarshal(payload, out)
}

// MsgPackCodec 二进制帧，结构与 JSON 相同；复用 json 标签
type MsgPackCodec struct{}

type msgpackEnvelope struct {
	T string             `json:"t"`
	P msgpack.RawMessage `json:"p"`
}

func (MsgPackCodec) Name() string { return CodecMsgPack }
func (MsgPackCodec) Binary() bool { return true }

func (MsgPackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c MsgPackCodec) Encode(event string, payload any) ([]byte, error) {
	if err := checkEncode(event, payload); err != nil {
		return nil, err
	}
	pb, err := c.marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %q", event)
	}
	return c.marshal(msgpackEnvelope{T: event, P: pb})
}

func (c MsgPackCodec) Decode(frame []byte) (Envelope, error) {
	if len(frame) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var e msgpackEnvelope
	if err := c.Unmarshal(frame, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "decode envelope")
	}
	if e.T == "" {
		return Envelope{}, errors.Wrap(ErrMissingField, "t")
	}
	return Envelope{Event: e.T, Payload: e.P}, nil
}

func (MsgPackCodec) Unmarshal(payload []byte, out any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	return dec.Decode(out)
}
