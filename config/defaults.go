// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for compositor configuration.

package config

// applySystemDefaults registers the compositor's construction-time knobs:
// the refresh-rate map, debounce durations, the devOpt flags, and the
// color-management mode (§2.1).
func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("", Section{
		"colorManagementMode": "managed",
	})
	cfg.RegisterDefaults("scheduler", Section{
		"switchingSupported":  true,
		"forceHDRToDefault":   true,
		"supportKernelTimer":  false,
		"rateMap":             defaultRateMap(),
		"idleTimerMs":         100,
		"touchTimerMs":        500,
		"displayPowerTimerMs": 500,
	})
	cfg.RegisterDefaults("devOpt", Section{
		"forceClientComposition": false,
		"repaintFlash":           false,
		"repaintFlashDelayMs":    100,
	})
}

// applyAppDefaults exists only to match the teacher's construction idiom
// (config.go calls it alongside applySystemDefaults); this domain has no
// per-output config section distinct from "scheduler"/"devOpt".
func applyAppDefaults(app string, cfg Config) {}

func defaultRateMap() []map[string]interface{} {
	return []map[string]interface{}{
		{"type": "DEFAULT", "fps": 60.0},
		{"type": "PERFORMANCE", "fps": 120.0},
	}
}
