package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var errPayloadShort = errors.New("protocol: payload too short")

func encodeString(buf *bytes.Buffer, value string) error {
	b := []byte(value)
	if len(b) > 0xFFFF {
		return errors.New("protocol: string too long")
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(b))); err != nil {
		return err
	}
	if len(b) > 0 {
		if _, err := buf.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	n := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if len(b) < int(n) {
		return "", nil, errPayloadShort
	}
	return string(b[:n]), b[n:], nil
}

// Hello is the observer's connection handshake, naming the display it wants
// to subscribe to.
type Hello struct {
	DisplayID string
}

// Welcome is the compositor's handshake reply.
type Welcome struct {
	DisplayID string
	Accepted  bool
}

// HotplugEvent mirrors connregistry.EventThread.OnHotplug (§4.8).
type HotplugEvent struct {
	DisplayID string
	Connected bool
}

// ScreenPowerEvent mirrors OnScreenAcquired/OnScreenReleased; the direction
// is carried by the message type (MsgScreenAcquired vs MsgScreenReleased),
// not by a field, since the two events never need to be told apart once
// decoded by a handler already dispatching on type.
type ScreenPowerEvent struct {
	DisplayID string
}

// ConfigChangedEvent mirrors OnConfigChanged.
type ConfigChangedEvent struct {
	DisplayID string
	ConfigID  int32
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeString(buf, h.DisplayID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	displayID, _, err := decodeString(b)
	if err != nil {
		return Hello{}, err
	}
	return Hello{DisplayID: displayID}, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeString(buf, w.DisplayID); err != nil {
		return nil, err
	}
	accepted := byte(0)
	if w.Accepted {
		accepted = 1
	}
	buf.WriteByte(accepted)
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	displayID, rest, err := decodeString(b)
	if err != nil {
		return Welcome{}, err
	}
	if len(rest) < 1 {
		return Welcome{}, errPayloadShort
	}
	return Welcome{DisplayID: displayID, Accepted: rest[0] != 0}, nil
}

func EncodeHotplug(ev HotplugEvent) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeString(buf, ev.DisplayID); err != nil {
		return nil, err
	}
	connected := byte(0)
	if ev.Connected {
		connected = 1
	}
	buf.WriteByte(connected)
	return buf.Bytes(), nil
}

func DecodeHotplug(b []byte) (HotplugEvent, error) {
	displayID, rest, err := decodeString(b)
	if err != nil {
		return HotplugEvent{}, err
	}
	if len(rest) < 1 {
		return HotplugEvent{}, errPayloadShort
	}
	return HotplugEvent{DisplayID: displayID, Connected: rest[0] != 0}, nil
}

func EncodeScreenPower(ev ScreenPowerEvent) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeString(buf, ev.DisplayID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeScreenPower(b []byte) (ScreenPowerEvent, error) {
	displayID, _, err := decodeString(b)
	if err != nil {
		return ScreenPowerEvent{}, err
	}
	return ScreenPowerEvent{DisplayID: displayID}, nil
}

func EncodeConfigChanged(ev ConfigChangedEvent) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := encodeString(buf, ev.DisplayID); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, ev.ConfigID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeConfigChanged(b []byte) (ConfigChangedEvent, error) {
	displayID, rest, err := decodeString(b)
	if err != nil {
		return ConfigChangedEvent{}, err
	}
	if len(rest) < 4 {
		return ConfigChangedEvent{}, errPayloadShort
	}
	return ConfigChangedEvent{
		DisplayID: displayID,
		ConfigID:  int32(binary.LittleEndian.Uint32(rest[:4])),
	}, nil
}
