package rendersurface

import (
	"bytes"
	"fmt"

	"github.com/framegrace/surfaceflow/internal/dump"
	"github.com/framegrace/surfaceflow/internal/logx"
	"github.com/framegrace/surfaceflow/protocol"
)

// WireEventThread implements connregistry.EventThread by framing each
// forwarded event with the wire protocol and handing it to write, so a
// connected observer of a virtual display sees hotplug/power/config-changed
// notifications the same way it sees posted frames (§4.8).
type WireEventThread struct {
	sessionID   [16]byte
	write       func([]byte)
	seq         uint64
	phaseOffset int64
}

// NewWireEventThread returns a WireEventThread that frames events under
// sessionID and hands the encoded bytes to write.
func NewWireEventThread(sessionID [16]byte, write func([]byte)) *WireEventThread {
	return &WireEventThread{sessionID: sessionID, write: write}
}

func (t *WireEventThread) send(msgType protocol.MessageType, payload []byte) {
	t.seq++
	hdr := protocol.Header{
		Version:   protocol.Version,
		Type:      msgType,
		Flags:     protocol.FlagChecksum,
		SessionID: t.sessionID,
		Sequence:  t.seq,
	}
	var framed bytes.Buffer
	if err := protocol.WriteMessage(&framed, hdr, payload); err != nil {
		logx.Warnf("rendersurface: wire event encode failed: %v", err)
		return
	}
	t.write(framed.Bytes())
}

func (t *WireEventThread) OnHotplug(displayID string, connected bool) {
	payload, err := protocol.EncodeHotplug(protocol.HotplugEvent{DisplayID: displayID, Connected: connected})
	if err != nil {
		logx.Warnf("rendersurface: encode hotplug failed: %v", err)
		return
	}
	t.send(protocol.MsgHotplug, payload)
}

func (t *WireEventThread) OnScreenAcquired(displayID string) {
	payload, err := protocol.EncodeScreenPower(protocol.ScreenPowerEvent{DisplayID: displayID})
	if err != nil {
		logx.Warnf("rendersurface: encode screen-acquired failed: %v", err)
		return
	}
	t.send(protocol.MsgScreenAcquired, payload)
}

func (t *WireEventThread) OnScreenReleased(displayID string) {
	payload, err := protocol.EncodeScreenPower(protocol.ScreenPowerEvent{DisplayID: displayID})
	if err != nil {
		logx.Warnf("rendersurface: encode screen-released failed: %v", err)
		return
	}
	t.send(protocol.MsgScreenReleased, payload)
}

func (t *WireEventThread) OnConfigChanged(displayID string, configID int) {
	payload, err := protocol.EncodeConfigChanged(protocol.ConfigChangedEvent{DisplayID: displayID, ConfigID: int32(configID)})
	if err != nil {
		logx.Warnf("rendersurface: encode config-changed failed: %v", err)
		return
	}
	t.send(protocol.MsgConfigChanged, payload)
}

// Write forwards a raw payload (e.g. a posted-frame PNG already framed by
// VirtualSurface.Flip) straight through, so one WireEventThread can serve as
// both the event-thread BroadcastSink writes frames to and the connregistry
// forwarding target for the same observer.
func (t *WireEventThread) Write(payload []byte) { t.write(payload) }

func (t *WireEventThread) SetPhaseOffset(offsetNanos int64) { t.phaseOffset = offsetNanos }

func (t *WireEventThread) Dump() string {
	return dump.Table([]dump.Row{
		{Label: "phaseOffsetNanos", Value: fmt.Sprintf("%d", t.phaseOffset)},
		{Label: "sequence", Value: fmt.Sprintf("%d", t.seq)},
	})
}
