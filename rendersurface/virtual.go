package rendersurface

import (
	"bytes"
	"image"
	"image/png"

	"github.com/framegrace/surfaceflow/compose"
	"github.com/framegrace/surfaceflow/connregistry"
	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/internal/logx"
	"github.com/framegrace/surfaceflow/protocol"
)

// FramePublisher delivers an encoded posted-frame payload to a display's
// subscribers. It is satisfied by *connregistry.Registry; VirtualSurface
// itself takes a plain sink function (see BroadcastSink below).
type FramePublisher interface {
	Broadcast(displayID string, fn func(connregistry.EventThread))
}

// VirtualSurface implements compose.RenderSurface for a virtual display:
// instead of flipping to real hardware, each posted frame is PNG-encoded
// and written as a protocol.MsgBufferDelta-framed payload (this repo reuses
// the teacher's existing MsgBufferDelta wire type rather than inventing a
// parallel one) to the surface's sink function.
type VirtualSurface struct {
	displayID string
	sessionID [16]byte
	sink      func(payload []byte)
	w, h      int
	buf       *image.RGBA
	seq       uint64

	dataspace          compose.Dataspace
	protected          bool
	expensiveRendering bool
}

// NewVirtualSurface returns a VirtualSurface that hands each posted frame's
// encoded payload to sink (typically a connection write, or a registry
// broadcast closure).
func NewVirtualSurface(displayID string, sessionID [16]byte, w, h int, sink func(payload []byte)) *VirtualSurface {
	return &VirtualSurface{displayID: displayID, sessionID: sessionID, sink: sink, w: w, h: h}
}

func (s *VirtualSurface) SetDisplaySize(w, h int) { s.w, s.h = w, h }
func (s *VirtualSurface) GetSize() (int, int)     { return s.w, s.h }
func (s *VirtualSurface) SetBufferDataspace(ds compose.Dataspace) { s.dataspace = ds }

func (s *VirtualSurface) BeginFrame(mustRecompose bool)         {}
func (s *VirtualSurface) PrepareFrame(useClient, useDevice bool) {}

func (s *VirtualSurface) DequeueBuffer() (*compose.Buffer, *fence.Fence, bool) {
	s.buf = image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	return &compose.Buffer{Image: s.buf}, fence.Signaled(), true
}

func (s *VirtualSurface) QueueBuffer(readyFence *fence.Fence) {}

// Flip encodes the current buffer as PNG and frames it with the teacher's
// wire protocol before handing it to sink.
func (s *VirtualSurface) Flip() {
	if s.buf == nil || s.sink == nil {
		return
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, s.buf); err != nil {
		logx.Warnf("rendersurface: virtual display %s PNG encode failed: %v", s.displayID, err)
		return
	}

	s.seq++
	hdr := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgBufferDelta,
		Flags:     protocol.FlagChecksum,
		SessionID: s.sessionID,
		Sequence:  s.seq,
	}
	var framed bytes.Buffer
	if err := protocol.WriteMessage(&framed, hdr, encoded.Bytes()); err != nil {
		logx.Warnf("rendersurface: virtual display %s frame encode failed: %v", s.displayID, err)
		return
	}
	s.sink(framed.Bytes())
}

func (s *VirtualSurface) OnPresentDisplayCompleted() {}

func (s *VirtualSurface) GetClientTargetAcquireFence() *fence.Fence { return fence.Signaled() }

func (s *VirtualSurface) SetProtected(protected bool) { s.protected = protected }
func (s *VirtualSurface) IsProtected() bool           { return s.protected }

// SetExpensiveRenderingExpected records the hint; there is no GPU power
// budget behind a PNG-encoded virtual surface to act on it (§4.6 step 5).
func (s *VirtualSurface) SetExpensiveRenderingExpected(expected bool) { s.expensiveRendering = expected }

// BroadcastSink adapts a connregistry.Registry into a VirtualSurface sink
// function that writes the payload to every connection subscribed to
// displayID via its event-thread.
func BroadcastSink(reg *connregistry.Registry, displayID string, write func(connregistry.EventThread, []byte)) func([]byte) {
	return func(payload []byte) {
		reg.Broadcast(displayID, func(t connregistry.EventThread) {
			write(t, payload)
		})
	}
}
