// Package compose implements the per-output composition core: visibility
// and coverage computation, composition-strategy selection, client
// composition, and the per-frame driver that sequences them. The hardware
// composer, render surface, render engine and display color profile are
// external collaborators; this file declares the narrow contracts the core
// consumes from them (§6 of the design).
package compose

import (
	"image"

	"github.com/framegrace/surfaceflow/fence"
	"github.com/framegrace/surfaceflow/region"
)

// Buffer is a dequeued drawing target. The producer side of buffer queues is
// explicitly out of scope; this is the minimal shape the client composition
// pipeline needs to hand to a render engine.
type Buffer struct {
	Image *image.RGBA
}

// RenderSurface is the render-surface contract consumed by the per-frame
// driver (§6, "Render-surface contract").
type RenderSurface interface {
	SetDisplaySize(w, h int)
	GetSize() (int, int)
	SetBufferDataspace(ds Dataspace)
	BeginFrame(mustRecompose bool)
	PrepareFrame(useClient, useDevice bool)
	DequeueBuffer() (*Buffer, *fence.Fence, bool)
	QueueBuffer(readyFence *fence.Fence)
	Flip()
	OnPresentDisplayCompleted()
	GetClientTargetAcquireFence() *fence.Fence
	SetProtected(protected bool)
	IsProtected() bool
	SetExpensiveRenderingExpected(expected bool)
}

// RenderEngine is the render-engine contract consumed by client composition
// (§6, "Render-engine contract").
type RenderEngine interface {
	SupportsProtectedContent() bool
	IsProtected() bool
	UseProtectedContext(use bool)
	DrawLayers(settings DisplaySettings, layers []LayerSettings, buf *Buffer, useCache bool, inFence *fence.Fence) (*fence.Fence, error)
}

// DisplayColorProfile is the display-color-profile contract consumed by
// color profile selection (§4.4).
type DisplayColorProfile interface {
	Resolve(candidate Dataspace, intent RenderIntent) (ColorProfile, error)
	HasLegacyHDRSupport(ds Dataspace) bool
}

// DisplaySettings parameterizes a client-composition draw call (§4.6).
type DisplaySettings struct {
	PhysicalDisplay region.Rect
	Clip            region.Rect
	GlobalTransform [16]float64
	Orientation     int
	OutputDataspace Dataspace
	MaxLuminance    float64
	ColorTransform  *[16]float64
}

// LayerSettings describes one draw request generated by client composition
// (§4.6).
type LayerSettings struct {
	Geometry        region.Rect
	Alpha           float64
	SolidColor      *[3]float64
	DisableBlending bool
	Source          *Buffer
}

// TargetSettings is passed to LayerFE.PrepareClientComposition (§6).
type TargetSettings struct {
	Clip                     region.Rect
	UseIdentityTransform     bool
	NeedsFiltering           bool
	IsSecure                 bool
	SupportsProtectedContent bool
	ClearRegion              region.Region
}

// LatchSubset selects which part of a layer's front-end state to latch.
type LatchSubset int

const (
	BasicGeometry LatchSubset = iota
	GeometryAndContent
	Content
)

// LayerID stably identifies an input layer across frames. Go has no weak
// reference usable the way the spec implies; released-layer tracking here
// keeps the LayerID together with the FE handle last latched for it
// (ReleasedLayer), and a nil FE is skipped like a failed weak-reference
// promotion (§9.1).
type LayerID int64

// FEState is the layer front-end state latched once per frame (§3, "Layer
// (input)").
type FEState struct {
	Bounds                 region.Rect
	Transform              region.Transform
	Dataspace              Dataspace
	Alpha                  float64
	TransparentRegionHint  region.Region
	IsVisible              bool
	IsOpaque               bool
	ContentDirty           bool
	ForceClientComposition bool
	HasProtectedContent    bool
	LayerStackID           int64
	InternalOnly           bool
	NeedsFiltering         bool
}

// LayerFE is the layer-FE contract consumed by the core (§6).
type LayerFE interface {
	LatchCompositionState(state *FEState, subset LatchSubset)
	PrepareClientComposition(target TargetSettings) (LayerSettings, bool)
	OnLayerDisplayed(release *fence.Fence)
}

// InputLayer pairs a stable identity with its front-end handle (§3).
type InputLayer struct {
	ID LayerID
	FE LayerFE
}

// LayerTable resolves a LayerID to its front-end handle. Implementations may
// return (nil, false) for layers that have gone away, which the core treats
// identically to a failed weak-reference promotion.
type LayerTable interface {
	Lookup(id LayerID) (LayerFE, bool)
}
