package compose

import (
	"github.com/framegrace/surfaceflow/hwc"
	"github.com/framegrace/surfaceflow/internal/logx"
)

// ChooseCompositionStrategy implements §4.3. The default is pure client
// composition; if a hardware composer is bound it is consulted for
// requested type changes, then usesClient/usesDevice are recomputed from the
// final per-layer flags.
func ChooseCompositionStrategy(out *Output) {
	out.State.UsesClientComposition = true
	out.State.UsesDeviceComposition = false

	if out.Composer == nil {
		return
	}

	needsClient := anyLayersRequireClientComposition(out)
	changes, err := out.Composer.GetDeviceCompositionChanges(out.DisplayID, needsClient)
	if err != nil {
		// HWC changes query failure: log, leave defaults (§7).
		logx.Warnf("compose: GetDeviceCompositionChanges on %s failed: %v", out.DisplayID, err)
		return
	}
	if changes == nil {
		return
	}

	for handle, newType := range changes.ChangedTypes {
		if ol := out.findOutputLayerByHandle(handle); ol != nil {
			ol.DeviceCompositionType = newType
		}
	}

	if changes.DisplayRequests&hwc.DisplayRequestFlipClient != 0 {
		out.State.FlipClientTarget = true
	}

	for _, ol := range out.Layers {
		ol.ClearClientTarget = false
	}
	for handle, req := range changes.LayerRequests {
		ol := out.findOutputLayerByHandle(handle)
		if ol == nil {
			continue
		}
		switch req {
		case hwc.RequestClearClientTarget:
			ol.ClearClientTarget = true
		}
	}

	out.State.UsesClientComposition = anyLayersRequireClientComposition(out)
	out.State.UsesDeviceComposition = !allLayersRequireClientComposition(out)
}
