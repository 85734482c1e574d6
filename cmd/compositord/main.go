// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/compositord/main.go
// Summary: Entrypoint wiring one output's composition core to a concrete
// render surface, engine and color profile, driven by a fixed-rate loop.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/framegrace/surfaceflow/colorprofile"
	"github.com/framegrace/surfaceflow/compose"
	"github.com/framegrace/surfaceflow/config"
	"github.com/framegrace/surfaceflow/connregistry"
	"github.com/framegrace/surfaceflow/internal/dump"
	"github.com/framegrace/surfaceflow/internal/logx"
	"github.com/framegrace/surfaceflow/region"
	"github.com/framegrace/surfaceflow/renderengine"
	"github.com/framegrace/surfaceflow/rendersurface"
	"github.com/framegrace/surfaceflow/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "compositord: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("compositord", flag.ContinueOnError)
	virtual := fs.Bool("virtual", false, "run against a headless virtual display instead of the terminal")
	displayID := fs.String("display", "disp-0", "display ID for this output")
	fps := fs.Float64("fps", 60, "driver loop rate in frames per second")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	sys := config.System()
	out := compose.NewOutput(*displayID, *displayID)
	out.Internal = true
	out.State.IsEnabled = true
	out.ColorProfile = colorprofile.NewDefault()
	out.RenderEngine = renderengine.NewGGEngine()

	reg := connregistry.New()

	var cleanup func()
	var thread connregistry.EventThread = &logEventThread{displayID: *displayID}
	if *virtual {
		w, h := 80, 24
		sink := rendersurface.BroadcastSink(reg, *displayID, func(t connregistry.EventThread, payload []byte) {
			if ct, ok := t.(interface{ Write([]byte) }); ok {
				ct.Write(payload)
			}
		})
		surf := rendersurface.NewVirtualSurface(*displayID, [16]byte{}, w, h, sink)
		out.Surface = surf
		setOutputBounds(out, w, h)
		cleanup = func() {}
		thread = rendersurface.NewWireEventThread([16]byte{}, func(payload []byte) {
			logx.Debugf("compositord: wire payload for %s (%d bytes)", *displayID, len(payload))
		})
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("new tcell screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init tcell screen: %w", err)
		}
		surf := rendersurface.NewTcellSurface(screen)
		out.Surface = surf
		w, h := screen.Size()
		setOutputBounds(out, w, h*2)
		cleanup = screen.Fini
	}
	defer cleanup()

	sched := newSchedulerFromConfig(sys)
	startTimers(sched, sys)
	defer sched.StopTimers()

	handle := reg.Register(*displayID, thread)
	defer reg.Unregister(handle)

	sched.OnChangeRefreshRate(func(t scheduler.RefreshRateType, event scheduler.ChangeEvent) {
		logx.Debugf("compositord: refresh rate type now %s (event=%v)", t, event)
	})

	var stopDebugInput func()
	if *virtual && term.IsTerminal(int(os.Stdin.Fd())) {
		stopDebugInput = startDebugInput(sched)
		defer stopDebugInput()
	}

	ctx := make(chan os.Signal, 1)
	signal.Notify(ctx, syscall.SIGINT, syscall.SIGTERM)

	args := refreshArgsFromConfig(sys)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / *fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx:
			return nil
		case <-ticker.C:
			fences := compose.RunFrame(out, args, nil, compose.NewFrameState())
			if fences.PresentFence != nil {
				sched.AddPresentFence()
			}
		}
	}
}

func setOutputBounds(out *compose.Output, w, h int) {
	bounds := region.NewRect(0, 0, w, h)
	out.State.Bounds = bounds
	out.State.Viewport = bounds
	out.State.Scissor = bounds
	out.State.Transform = region.Identity()
}

func newSchedulerFromConfig(sys config.Config) *scheduler.Scheduler {
	rateMapRaw, _ := sys.Section("scheduler")["rateMap"].([]interface{})
	var rateMap []scheduler.RateMapEntry
	for _, raw := range rateMapRaw {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		t := scheduler.Default
		if entry["type"] == "PERFORMANCE" {
			t = scheduler.Performance
		}
		fps, _ := entry["fps"].(float64)
		rateMap = append(rateMap, scheduler.RateMapEntry{Type: t, FPS: fps})
	}
	if len(rateMap) == 0 {
		rateMap = []scheduler.RateMapEntry{
			{Type: scheduler.Default, FPS: 60},
			{Type: scheduler.Performance, FPS: 120},
		}
	}
	return scheduler.New(scheduler.Config{
		SwitchingSupported: sys.GetBool("scheduler", "switchingSupported", true),
		ForceHDRToDefault:  sys.GetBool("scheduler", "forceHDRToDefault", true),
		RateMap:            rateMap,
	})
}

func startTimers(sched *scheduler.Scheduler, sys config.Config) {
	idleMs := sys.GetInt("scheduler", "idleTimerMs", 100)
	touchMs := sys.GetInt("scheduler", "touchTimerMs", 500)
	powerMs := sys.GetInt("scheduler", "displayPowerTimerMs", 500)
	kernelTimer := sys.GetBool("scheduler", "supportKernelTimer", false)
	sched.StartIdleTimer(time.Duration(idleMs)*time.Millisecond, kernelTimer)
	sched.StartTouchTimer(time.Duration(touchMs) * time.Millisecond)
	sched.StartDisplayPowerTimer(time.Duration(powerMs) * time.Millisecond)
}

func refreshArgsFromConfig(sys config.Config) compose.RefreshArgs {
	setting := compose.ColorSettingManaged
	switch sys.GetString("", "colorManagementMode", "managed") {
	case "unmanaged":
		setting = compose.ColorSettingUnmanaged
	case "enhanced":
		setting = compose.ColorSettingEnhanced
	}
	return compose.RefreshArgs{
		ColorSetting:                 setting,
		DevOptForceClientComposition: sys.GetBool("devOpt", "forceClientComposition", false),
		DevOptRepaintFlash:           sys.GetBool("devOpt", "repaintFlash", false),
	}
}

// logEventThread is a minimal connregistry.EventThread that logs every
// forwarded event and renders a diagnostic dump on request.
type logEventThread struct {
	displayID   string
	phaseOffset int64
}

func (t *logEventThread) OnHotplug(displayID string, connected bool) {
	logx.Debugf("compositord: hotplug display=%s connected=%v", displayID, connected)
}
func (t *logEventThread) OnScreenAcquired(displayID string) {
	logx.Debugf("compositord: screen acquired display=%s", displayID)
}
func (t *logEventThread) OnScreenReleased(displayID string) {
	logx.Debugf("compositord: screen released display=%s", displayID)
}
func (t *logEventThread) OnConfigChanged(displayID string, configID int) {
	logx.Debugf("compositord: config changed display=%s configID=%d", displayID, configID)
}
func (t *logEventThread) SetPhaseOffset(offsetNanos int64) { t.phaseOffset = offsetNanos }
func (t *logEventThread) Dump() string {
	return dump.Table([]dump.Row{
		{Label: "display", Value: t.displayID},
		{Label: "phaseOffsetNanos", Value: fmt.Sprintf("%d", t.phaseOffset)},
	})
}

// startDebugInput puts stdin into raw mode and reads single keystrokes to
// drive the scheduler's touch-active signal ('t' toggles it), standing in
// for real touch-panel input when running against a virtual display.
func startDebugInput(sched *scheduler.Scheduler) func() {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logx.Warnf("compositord: failed to enter raw mode for debug input: %v", err)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		touchActive := false
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				return
			}
			select {
			case <-done:
				return
			default:
			}
			switch buf[0] {
			case 't':
				touchActive = !touchActive
				sched.SetTouchActive(touchActive)
			case 'q':
				return
			}
		}
	}()

	return func() {
		close(done)
		term.Restore(fd, oldState)
	}
}
