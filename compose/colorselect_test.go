package compose

import (
	"errors"
	"testing"

	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/region"
)

// fakeColorProfile is a DisplayColorProfile test double driven by field
// assignment, mirroring hwc.Fake's style.
type fakeColorProfile struct {
	resolved       ColorProfile
	resolveErr     error
	legacyHDR      map[Dataspace]bool
	lastCandidate  Dataspace
	lastIntent     RenderIntent
}

func (f *fakeColorProfile) Resolve(candidate Dataspace, intent RenderIntent) (ColorProfile, error) {
	f.lastCandidate = candidate
	f.lastIntent = intent
	if f.resolveErr != nil {
		return ColorProfile{}, f.resolveErr
	}
	if f.resolved != (ColorProfile{}) {
		return f.resolved, nil
	}
	return ColorProfile{Mode: ColorModeNative, Dataspace: candidate, RenderIntent: intent}, nil
}

func (f *fakeColorProfile) HasLegacyHDRSupport(ds Dataspace) bool {
	return f.legacyHDR[ds]
}

func TestUpdateColorProfileUnmanagedIsPassthrough(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.ColorProfile = &fakeColorProfile{}
	out.State.ColorMode = ColorModeDisplayP3 // something non-native to start

	changed := UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingUnmanaged}, NewFrameState())

	if !changed {
		t.Fatalf("expected a profile change away from the stale starting mode")
	}
	if out.State.ColorMode != ColorModeNative || out.State.Dataspace != DataspaceUnknown {
		t.Fatalf("unmanaged color setting should resolve to native/unknown, got %v/%v", out.State.ColorMode, out.State.Dataspace)
	}
}

func TestUpdateColorProfileWidestGamutWins(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{}
	out.ColorProfile = profile

	srgb := newOpaqueLayer(region.NewRect(0, 0, 5, 5))
	srgb.state.Dataspace = DataspaceSRGB
	p3 := newOpaqueLayer(region.NewRect(5, 0, 10, 5))
	p3.state.Dataspace = DataspaceDisplayP3

	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: srgb}, {ID: 2, FE: p3}}, frame)

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged}, frame)

	if profile.lastCandidate != DataspaceDisplayP3 {
		t.Fatalf("expected the widest-gamut layer's dataspace (P3) to be proposed, got %v", profile.lastCandidate)
	}
}

func TestUpdateColorProfileHDRPromotionWithoutLegacySupport(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{legacyHDR: map[Dataspace]bool{}}
	out.ColorProfile = profile

	hdr := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	hdr.state.Dataspace = DataspaceBT2020PQ

	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: hdr}}, frame)
	// Already claimed for device composition, so it does not force client
	// composition and does not block the HDR promotion.
	out.Layers[0].DeviceCompositionType = hwc.Device

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged}, frame)

	if profile.lastCandidate != DataspaceBT2020PQ {
		t.Fatalf("expected promotion to the HDR dataspace when legacy support is absent, got %v", profile.lastCandidate)
	}
	if profile.lastIntent != RenderIntentToneMapColorimetric {
		t.Fatalf("managed + HDR should select tone-map colorimetric intent, got %v", profile.lastIntent)
	}
}

func TestUpdateColorProfileLegacyHDRSupportSkipsPromotion(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{legacyHDR: map[Dataspace]bool{DataspaceBT2020PQ: true}}
	out.ColorProfile = profile

	hdr := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	hdr.state.Dataspace = DataspaceBT2020PQ

	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: hdr}}, frame)
	// Claimed for device composition so that only the legacy HDR support,
	// not hdrForcesClient, can be what skips the promotion.
	out.Layers[0].DeviceCompositionType = hwc.Device

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged}, frame)

	if profile.lastCandidate == DataspaceBT2020PQ {
		t.Fatalf("legacy HDR support present should skip promotion to the HDR dataspace")
	}
}

func TestUpdateColorProfileBT2020FamilyPromotedEvenWhenHDRForcesClient(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{legacyHDR: map[Dataspace]bool{}}
	out.ColorProfile = profile

	hdr := newOpaqueLayer(region.NewRect(0, 0, 10, 10))
	hdr.state.Dataspace = DataspaceBT2020HLG

	frame := NewFrameState()
	RunVisibilityPass(out, []InputLayer{{ID: 1, FE: hdr}}, frame)
	// Not claimed by the device: RequiresClientComposition() is true, so
	// hdrForcesClient suppresses step 4's promotion to the HDR dataspace.
	// The base BT2020-family scan in the loop above must still pick
	// DisplayBT2020 rather than leaving bestDataSpace at sRGB.

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged}, frame)

	if profile.lastCandidate != DataspaceDisplayBT2020 {
		t.Fatalf("expected a BT2020-family (HLG) layer to select DisplayBT2020 even when it forces client composition, got %v", profile.lastCandidate)
	}
}

func TestUpdateColorProfileForceOutputColorModeOverride(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{}
	out.ColorProfile = profile

	forced := ColorModeDisplayBT2020
	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged, ForceOutputColorMode: &forced}, NewFrameState())

	if profile.lastCandidate != DataspaceDisplayBT2020 {
		t.Fatalf("forced color mode should override the scanned candidate, got %v", profile.lastCandidate)
	}
}

func TestUpdateColorProfileVendorIntentPassedThrough(t *testing.T) {
	out := outputWithBounds(10, 10)
	profile := &fakeColorProfile{}
	out.ColorProfile = profile

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingVendor, VendorRenderIntent: RenderIntentEnhance}, NewFrameState())

	if profile.lastIntent != RenderIntentEnhance {
		t.Fatalf("vendor color setting should pass the vendor render intent through verbatim, got %v", profile.lastIntent)
	}
}

func TestUpdateColorProfileResolveErrorKeepsExistingProfile(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.State.ColorMode = ColorModeSRGB
	out.State.Dataspace = DataspaceSRGB
	profile := &fakeColorProfile{resolveErr: errors.New("setColorMode ignored on virtual display")}
	out.ColorProfile = profile

	changed := UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingManaged}, NewFrameState())

	if changed {
		t.Fatalf("a Resolve error should leave the profile unchanged")
	}
	if out.State.ColorMode != ColorModeSRGB {
		t.Fatalf("profile should be untouched after a Resolve error")
	}
}

func TestUpdateColorProfileIdempotentReDirtiesOnlyOnChange(t *testing.T) {
	out := outputWithBounds(10, 10)
	out.ColorProfile = &fakeColorProfile{}

	UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingUnmanaged}, NewFrameState())
	out.State.DirtyRegion = region.Region{}

	changed := UpdateColorProfile(out, RefreshArgs{ColorSetting: ColorSettingUnmanaged}, NewFrameState())
	if changed {
		t.Fatalf("second call with an unchanged profile should report no change")
	}
	if !out.State.DirtyRegion.IsEmpty() {
		t.Fatalf("unchanged profile must not dirty the output")
	}
}
