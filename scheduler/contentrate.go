package scheduler

import "time"

// historySize matches the original implementation's HISTORY_SIZE ring
// buffer length (SPEC_FULL.md §3.1).
const historySize = 90

// sample is one layer-history entry (SPEC_FULL.md §3.1, "Layer history
// sample").
type sample struct {
	layerID     int64
	presentTime time.Time
}

// ContentRateEstimator is the layer-history content-rate estimator referred
// to by §4.7's "Inputs": it keeps a fixed-size ring of recent present
// timestamps per layer and derives an estimated refresh rate plus an
// isHDRContent flag for the layer the caller asks about.
type ContentRateEstimator struct {
	capacity int
	samples  map[int64][]sample
	hdr      map[int64]bool
}

// NewContentRateEstimator returns an estimator with the given per-layer ring
// capacity.
func NewContentRateEstimator(capacity int) *ContentRateEstimator {
	return &ContentRateEstimator{
		capacity: capacity,
		samples:  make(map[int64][]sample),
		hdr:      make(map[int64]bool),
	}
}

// RecordPresent appends a present-time sample for layerID, evicting the
// oldest sample once the ring reaches capacity.
func (c *ContentRateEstimator) RecordPresent(layerID int64, at time.Time, isHDR bool) {
	ring := c.samples[layerID]
	ring = append(ring, sample{layerID: layerID, presentTime: at})
	if len(ring) > c.capacity {
		ring = ring[len(ring)-c.capacity:]
	}
	c.samples[layerID] = ring
	c.hdr[layerID] = isHDR
}

// Estimate returns (refreshRate, isHDR) for layerID, per §3's
// "contentRefreshRate" and "isHDRContent" fields. A layer with fewer than
// two samples has no meaningful rate and returns (0, false).
func (c *ContentRateEstimator) Estimate(layerID int64) (float64, bool) {
	ring := c.samples[layerID]
	if len(ring) < 2 {
		return 0, false
	}
	span := ring[len(ring)-1].presentTime.Sub(ring[0].presentTime)
	if span <= 0 {
		return 0, false
	}
	intervals := len(ring) - 1
	fps := float64(intervals) / span.Seconds()
	return fps, c.hdr[layerID]
}

// Forget drops all history for a layer that has left the composition, e.g.
// once it moves to ReleasedLayers.
func (c *ContentRateEstimator) Forget(layerID int64) {
	delete(c.samples, layerID)
	delete(c.hdr, layerID)
}
