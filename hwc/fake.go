package hwc

import "github.com/framegrace/surfaceflow/fence"

// Fake is a Composer test double driven entirely by explicit field
// assignments and method calls, for use in compose package tests in place of
// a real driver.
type Fake struct {
	Changes        *Changes
	ChangesErr     error
	PresentFences  map[string]*fence.Fence
	ReleaseFences  map[LayerHandle]*fence.Fence
	Capabilities   map[Capability]bool
	PresentCalls   int
	ColorTransform [16]float64
}

// NewFake returns a Fake with initialized maps.
func NewFake() *Fake {
	return &Fake{
		PresentFences: make(map[string]*fence.Fence),
		ReleaseFences: make(map[LayerHandle]*fence.Fence),
		Capabilities:  make(map[Capability]bool),
	}
}

func (f *Fake) GetDeviceCompositionChanges(string, bool) (*Changes, error) {
	return f.Changes, f.ChangesErr
}

func (f *Fake) PresentAndGetReleaseFences(string) error {
	f.PresentCalls++
	return nil
}

func (f *Fake) GetPresentFence(displayID string) *fence.Fence {
	if fc, ok := f.PresentFences[displayID]; ok {
		return fc
	}
	return fence.Signaled()
}

func (f *Fake) GetLayerReleaseFence(_ string, layer LayerHandle) *fence.Fence {
	if fc, ok := f.ReleaseFences[layer]; ok {
		return fc
	}
	return fence.NoFence
}

func (f *Fake) ClearReleaseFences(string) {
	f.ReleaseFences = make(map[LayerHandle]*fence.Fence)
}

func (f *Fake) SetColorTransform(_ string, matrix [16]float64) error {
	f.ColorTransform = matrix
	return nil
}

func (f *Fake) SetActiveColorMode(string, int, int) error { return nil }
func (f *Fake) DisconnectDisplay(string)                  {}

func (f *Fake) HasDisplayCapability(_ string, cap Capability) bool {
	return f.Capabilities[cap]
}
