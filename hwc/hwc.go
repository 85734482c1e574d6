// Package hwc defines the hardware-composer contract consumed by the
// composition core (§6: "the display hardware composer"). The wire protocol
// to a real hardware composer driver is out of scope; this package only
// describes the narrow interface the composition core calls into, plus a
// Null implementation (no hardware composer bound, e.g. virtual displays)
// and a Fake test double.
package hwc

import (
	"github.com/framegrace/surfaceflow/fence"
)

// CompositionType is the per-layer composition type a hardware composer may
// request.
type CompositionType int

const (
	Invalid CompositionType = iota
	Client
	Device
	SolidColor
	Cursor
	Sideband
)

// LayerRequest is a per-layer request a hardware composer may make, e.g.
// asking the compositor to clear its client target under this layer.
type LayerRequest int

const (
	RequestNone LayerRequest = iota
	RequestClearClientTarget
)

// DisplayRequest is a bitset of display-wide requests.
type DisplayRequest int

const (
	DisplayRequestNone         DisplayRequest = 0
	DisplayRequestFlipClient   DisplayRequest = 1 << 0
)

// LayerHandle identifies a layer at the hardware-composer level.
type LayerHandle uint64

// Changes is the result of a getDeviceCompositionChanges call.
type Changes struct {
	ChangedTypes     map[LayerHandle]CompositionType
	DisplayRequests  DisplayRequest
	LayerRequests    map[LayerHandle]LayerRequest
}

// Capability is a queryable hardware-composer capability.
type Capability int

const (
	CapSkipClientColorTransform Capability = iota
)

// Composer is the hardware-composer contract consumed by the composition
// core. A nil Composer means "no hardware composer bound", matching the
// spec's "if a hardware composer is bound (physical display)" branch — the
// compose package checks for nil rather than calling into Null in that case,
// but Null is provided for explicit wiring (e.g. tests that want to assert
// the default-path behavior without a type switch).
type Composer interface {
	GetDeviceCompositionChanges(displayID string, needsClient bool) (*Changes, error)
	PresentAndGetReleaseFences(displayID string) error
	GetPresentFence(displayID string) *fence.Fence
	GetLayerReleaseFence(displayID string, layer LayerHandle) *fence.Fence
	ClearReleaseFences(displayID string)
	SetColorTransform(displayID string, matrix [16]float64) error
	SetActiveColorMode(displayID string, mode int, dataspace int) error
	DisconnectDisplay(displayID string)
	HasDisplayCapability(displayID string, cap Capability) bool
}

// Null is a Composer with no backing hardware: every query fails or returns
// the identity default, matching "HWC changes query failure: log, leave
// defaults" in the error handling design.
type Null struct{}

func (Null) GetDeviceCompositionChanges(string, bool) (*Changes, error) { return nil, nil }
func (Null) PresentAndGetReleaseFences(string) error                    { return nil }
func (Null) GetPresentFence(string) *fence.Fence                        { return fence.Signaled() }
func (Null) GetLayerReleaseFence(string, LayerHandle) *fence.Fence      { return fence.NoFence }
func (Null) ClearReleaseFences(string)                                  {}
func (Null) SetColorTransform(string, [16]float64) error                { return nil }
func (Null) SetActiveColorMode(string, int, int) error                  { return nil }
func (Null) DisconnectDisplay(string)                                   {}
func (Null) HasDisplayCapability(string, Capability) bool               { return false }
