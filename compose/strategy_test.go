package compose

import (
	"errors"
	"testing"

	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/region"
)

func TestChooseCompositionStrategyNoComposerDefaultsToClient(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.Composer = nil

	ChooseCompositionStrategy(out)

	if !out.State.UsesClientComposition || out.State.UsesDeviceComposition {
		t.Fatalf("no composer bound should default to pure client composition, got client=%v device=%v",
			out.State.UsesClientComposition, out.State.UsesDeviceComposition)
	}
}

func TestChooseCompositionStrategyQueryFailureLeavesDefaults(t *testing.T) {
	out := outputWithBounds(10, 10)
	composer := hwc.NewFake()
	composer.ChangesErr = errors.New("hwc unavailable")
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if !out.State.UsesClientComposition || out.State.UsesDeviceComposition {
		t.Fatalf("HWC query failure should leave the safe client-composition default")
	}
}

func TestChooseCompositionStrategyAppliesChangedTypes(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())

	h := hwc.LayerHandle(42)
	out.Layers[0].HWCHandle = &h

	composer := hwc.NewFake()
	composer.Changes = &hwc.Changes{
		ChangedTypes: map[hwc.LayerHandle]hwc.CompositionType{h: hwc.Device},
	}
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if out.Layers[0].DeviceCompositionType != hwc.Device {
		t.Fatalf("expected layer's device composition type to be updated to Device")
	}
	if out.State.UsesDeviceComposition != true || out.State.UsesClientComposition {
		t.Fatalf("single layer fully claimed by the device should use pure device composition, got client=%v device=%v",
			out.State.UsesClientComposition, out.State.UsesDeviceComposition)
	}
}

func TestChooseCompositionStrategyForceClientOverridesDeviceClaim(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())

	h := hwc.LayerHandle(1)
	out.Layers[0].HWCHandle = &h
	out.Layers[0].ForceClientComposition = true

	composer := hwc.NewFake()
	composer.Changes = &hwc.Changes{
		ChangedTypes: map[hwc.LayerHandle]hwc.CompositionType{h: hwc.Device},
	}
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if !out.Layers[0].RequiresClientComposition() {
		t.Fatalf("ForceClientComposition must win over a device claim")
	}
	if !out.State.UsesClientComposition {
		t.Fatalf("a forced-client layer should keep UsesClientComposition set")
	}
}

func TestChooseCompositionStrategyClearClientTargetRequest(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())

	h := hwc.LayerHandle(7)
	out.Layers[0].HWCHandle = &h
	out.Layers[0].ClearClientTarget = true // stale from a previous frame

	composer := hwc.NewFake()
	composer.Changes = &hwc.Changes{
		LayerRequests: map[hwc.LayerHandle]hwc.LayerRequest{h: hwc.RequestClearClientTarget},
	}
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if !out.Layers[0].ClearClientTarget {
		t.Fatalf("expected ClearClientTarget request to be applied")
	}
}

func TestChooseCompositionStrategyResetsStaleClearClientTarget(t *testing.T) {
	out := outputWithBounds(10, 10)
	l := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: l}}, NewFrameState())
	out.Layers[0].ClearClientTarget = true

	composer := hwc.NewFake()
	composer.Changes = &hwc.Changes{} // no requests this time
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if out.Layers[0].ClearClientTarget {
		t.Fatalf("ClearClientTarget from a prior frame must not carry over without a fresh request")
	}
}

func TestChooseCompositionStrategyFlipClientOnDisplayRequest(t *testing.T) {
	out := outputWithBounds(10, 10)
	composer := hwc.NewFake()
	composer.Changes = &hwc.Changes{DisplayRequests: hwc.DisplayRequestFlipClient}
	out.Composer = composer

	ChooseCompositionStrategy(out)

	if !out.State.FlipClientTarget {
		t.Fatalf("expected FlipClientTarget to be set from the display-request bitset")
	}
}
