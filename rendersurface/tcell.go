// Package rendersurface provides concrete RenderSurface implementations for
// the composition core (§6.1). TcellSurface rasterizes the posted RGBA
// buffer onto a terminal using tcell, the way the teacher's texel/screen.go
// and texel/driver_tcell.go drive a tcell.Screen; VirtualSurface instead
// publishes posted frames to connregistry subscribers, standing in for a
// virtual-display buffer sink.
package rendersurface

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/surfaceflow/compose"
	"github.com/framegrace/surfaceflow/fence"
)

// halfBlock is the rune used to render two vertically-stacked pixels in one
// terminal cell: foreground color carries the top pixel, background color
// the bottom, matching the half-block rasterization technique.
const halfBlock = '▀'

// TcellSurface implements compose.RenderSurface over a tcell.Screen (§6.1).
// There is no real GPU/DRM backing this surface, so its fences are
// channel-backed and already signaled by the time a caller could observe
// them — there is no asynchronous present to wait on (§9.1, "Fence type").
type TcellSurface struct {
	screen tcell.Screen
	w, h   int
	buf    *image.RGBA

	dataspace          compose.Dataspace
	protected          bool
	expensiveRendering bool
	clientAcq          *fence.Fence
}

// NewTcellSurface wraps an already-initialized tcell.Screen.
func NewTcellSurface(screen tcell.Screen) *TcellSurface {
	w, h := screen.Size()
	return &TcellSurface{screen: screen, w: w, h: h, clientAcq: fence.Signaled()}
}

func (s *TcellSurface) SetDisplaySize(w, h int) { s.w, s.h = w, h }
func (s *TcellSurface) GetSize() (int, int)     { return s.w, s.h }
func (s *TcellSurface) SetBufferDataspace(ds compose.Dataspace) { s.dataspace = ds }

func (s *TcellSurface) BeginFrame(mustRecompose bool) {}

func (s *TcellSurface) PrepareFrame(useClient, useDevice bool) {}

// DequeueBuffer hands back a fresh RGBA buffer sized to the terminal's pixel
// grid (two rows per terminal cell, per the half-block technique). A real
// render surface would apply producer-side backpressure here (§5,
// "Suspension points"); this one always succeeds since it owns its own
// backing store.
func (s *TcellSurface) DequeueBuffer() (*compose.Buffer, *fence.Fence, bool) {
	s.buf = image.NewRGBA(image.Rect(0, 0, s.w, s.h*2))
	return &compose.Buffer{Image: s.buf}, fence.Signaled(), true
}

func (s *TcellSurface) QueueBuffer(readyFence *fence.Fence) {
	if readyFence != nil {
		// There is no real GPU to wait on; the buffer is already drawn
		// synchronously by the render engine, so this is advisory only.
		_ = readyFence
	}
}

// Flip rasterizes the buffered RGBA image onto the terminal using the
// half-block technique and shows it.
func (s *TcellSurface) Flip() {
	if s.buf == nil {
		return
	}
	for cy := 0; cy*2 < s.buf.Bounds().Dy() && cy < s.h; cy++ {
		for x := 0; x < s.w; x++ {
			top := s.buf.RGBAAt(x, cy*2)
			bottom := color.RGBA{}
			if cy*2+1 < s.buf.Bounds().Dy() {
				bottom = s.buf.RGBAAt(x, cy*2+1)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.screen.SetContent(x, cy, halfBlock, nil, style)
		}
	}
	s.screen.Show()
}

func (s *TcellSurface) OnPresentDisplayCompleted() {}

func (s *TcellSurface) GetClientTargetAcquireFence() *fence.Fence { return s.clientAcq }

func (s *TcellSurface) SetProtected(protected bool) { s.protected = protected }
func (s *TcellSurface) IsProtected() bool           { return s.protected }

// SetExpensiveRenderingExpected records the hint; a terminal half-block
// rasterizer has no GPU power budget to act on it, so this is bookkeeping
// only (§4.6 step 5).
func (s *TcellSurface) SetExpensiveRenderingExpected(expected bool) { s.expensiveRendering = expected }
