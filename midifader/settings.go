package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/jfbarahonag/midi-fader/pkg/device"
	"github.com/jfbarahonag/midi-fader/pkg/fader"
	"github.com/jfbarahonag/midi-fader/pkg/filter"
	"github.com/jfbarahonag/midi-fader/pkg/midimap"
	"github.com/jfbarahonag/midi-fader/pkg/monitor"
)

// showSettingsDialog displays the settings dialog with tabs.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		container.NewTabItem("Serial", createSerialTab(state)),
		container.NewTabItem("Faders", createFadersTab(state)),
		container.NewTabItem("MIDI", createMIDITab(state)),
		container.NewTabItem("Monitor", createMonitorTab(state)),
		container.NewTabItem("Simulation", createSimTab(state)),
	)

	settingsDialog := dialog.NewCustom("Settings", "Close", tabs, state.window)
	settingsDialog.Resize(fyne.NewSize(600, 500))
	settingsDialog.Show()
}

// createSerialTab creates the serial port configuration tab.
func createSerialTab(state *appState) fyne.CanvasObject {
	// Get available serial ports
	ports, err := device.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Keep the configured port selectable even when it is not plugged in
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := widget.NewForm(
		widget.NewFormItem("Port", portSelect),
		widget.NewFormItem("Baud Rate", baudEntry),
	)
	form.SubmitText = "Apply"
	form.OnSubmit = func() {
		baud, err := strconv.Atoi(baudEntry.Text)
		if err != nil || baud <= 0 {
			dialog.ShowError(fmt.Errorf("invalid baud rate: %s", baudEntry.Text), state.window)
			return
		}

		selectedPort := portMap[portSelect.Selected]
		if selectedPort == "" {
			selectedPort = portSelect.Selected
		}

		portChanged := selectedPort != state.cfg.Serial.Port
		state.cfg.Serial.Port = selectedPort
		state.cfg.Serial.Baud = baud

		if err := state.cfg.Save("config.yaml"); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			return
		}

		// Reconnect to the new port if currently connected
		if portChanged && state.device != nil && state.device.IsConnected() {
			closeFrameChain(state.chain)
			state.chain = nil
			state.device = nil
			handleConnect(state)
		}
	}

	return form
}

// createFadersTab creates the fader bank configuration tab.
func createFadersTab(state *appState) fyne.CanvasObject {
	channelsEntry := widget.NewEntry()
	channelsEntry.SetText(strconv.Itoa(state.cfg.Faders.Channels))

	filterSelect := widget.NewSelect([]string{
		filter.TypeEMA,
		filter.TypeMedian3,
		filter.TypeRaw,
	}, nil)
	filterSelect.SetSelected(state.cfg.Filter.Type)

	alphaEntry := widget.NewEntry()
	alphaEntry.SetText(strconv.FormatFloat(float64(state.cfg.Filter.Alpha), 'f', -1, 32))

	form := widget.NewForm(
		widget.NewFormItem("Channels", channelsEntry),
		widget.NewFormItem("Filter", filterSelect),
		widget.NewFormItem("Filter Alpha", alphaEntry),
	)
	form.SubmitText = "Apply"
	form.OnSubmit = func() {
		channels, err := strconv.Atoi(channelsEntry.Text)
		if err != nil || channels < 1 || channels > fader.MaxChannels {
			dialog.ShowError(fmt.Errorf("channels must be 1-%d", fader.MaxChannels), state.window)
			return
		}

		alpha, err := strconv.ParseFloat(alphaEntry.Text, 32)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid filter alpha: %s", alphaEntry.Text), state.window)
			return
		}
		if _, err := filter.New(filterSelect.Selected, float32(alpha)); err != nil {
			dialog.ShowError(err, state.window)
			return
		}

		state.cfg.Faders.Channels = channels
		state.cfg.Filter.Type = filterSelect.Selected
		state.cfg.Filter.Alpha = float32(alpha)

		if err := state.cfg.Save("config.yaml"); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			return
		}

		// The monitor is sized for a channel count, so it has to be rebuilt
		restartMonitor(state)
	}

	return form
}

// createMIDITab creates the MIDI output configuration tab.
func createMIDITab(state *appState) fyne.CanvasObject {
	deviceEntry := widget.NewEntry()
	deviceEntry.SetText(state.cfg.MIDI.Device)
	deviceEntry.SetPlaceHolder("empty = system default")

	channelEntry := widget.NewEntry()
	channelEntry.SetText(strconv.Itoa(int(state.cfg.MIDI.Channel)))

	controllersEntry := widget.NewEntry()
	controllersEntry.SetText(formatControllers(state.cfg.MIDI.Controllers))

	form := widget.NewForm(
		widget.NewFormItem("Output Device", deviceEntry),
		widget.NewFormItem("Channel (0-15)", channelEntry),
		widget.NewFormItem("CC Numbers", controllersEntry),
	)
	form.SubmitText = "Apply"
	form.OnSubmit = func() {
		channel, err := strconv.Atoi(channelEntry.Text)
		if err != nil || channel < 0 || channel > int(midimap.MaxChannel) {
			dialog.ShowError(fmt.Errorf("MIDI channel must be 0-%d", midimap.MaxChannel), state.window)
			return
		}

		controllers, err := parseControllers(controllersEntry.Text)
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if _, err := midimap.New(uint8(channel), controllers); err != nil {
			dialog.ShowError(err, state.window)
			return
		}

		state.cfg.MIDI.Device = deviceEntry.Text
		state.cfg.MIDI.Channel = uint8(channel)
		state.cfg.MIDI.Controllers = controllers

		if err := state.cfg.Save("config.yaml"); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			return
		}

		state.view.SetControllers(controllers)

		// An open MIDI output keeps its old mapping, so drop it and let the
		// user re-enable with the new one
		state.midiMu.Lock()
		enabled := state.midiOut != nil
		state.midiMu.Unlock()
		if enabled {
			disableMIDIOutput(state)
			fmt.Println("MIDI output disabled, re-enable to apply the new mapping")
		}
	}

	return form
}

// createMonitorTab creates the motion monitor configuration tab.
func createMonitorTab(state *appState) fyne.CanvasObject {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(strconv.FormatFloat(state.cfg.Monitor.WindowSeconds, 'f', -1, 64))

	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(strconv.Itoa(int(state.cfg.Monitor.MotionThreshold)))

	holdEntry := widget.NewEntry()
	holdEntry.SetText(state.cfg.Monitor.MotionHold.String())

	form := widget.NewForm(
		widget.NewFormItem("Trail Window (seconds)", windowEntry),
		widget.NewFormItem("Motion Threshold (counts)", thresholdEntry),
		widget.NewFormItem("Motion Hold", holdEntry),
	)
	form.SubmitText = "Apply"
	form.OnSubmit = func() {
		window, err := strconv.ParseFloat(windowEntry.Text, 64)
		if err != nil || window <= 0 {
			dialog.ShowError(fmt.Errorf("invalid trail window: %s", windowEntry.Text), state.window)
			return
		}

		threshold, err := strconv.Atoi(thresholdEntry.Text)
		if err != nil || threshold < 0 || threshold > int(fader.Max) {
			dialog.ShowError(fmt.Errorf("invalid motion threshold: %s", thresholdEntry.Text), state.window)
			return
		}

		hold, err := time.ParseDuration(holdEntry.Text)
		if err != nil {
			dialog.ShowError(fmt.Errorf("invalid motion hold: %w", err), state.window)
			return
		}

		state.cfg.Monitor.WindowSeconds = window
		state.cfg.Monitor.MotionThreshold = uint16(threshold)
		state.cfg.Monitor.MotionHold = hold

		if err := state.cfg.Save("config.yaml"); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			return
		}

		restartMonitor(state)
	}

	return form
}

// createSimTab creates the simulated device configuration tab.
func createSimTab(state *appState) fyne.CanvasObject {
	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(strconv.Itoa(int(state.cfg.Sim.NoiseLevel)))

	sweepEntry := widget.NewEntry()
	sweepEntry.SetText(state.cfg.Sim.SweepPeriod.String())

	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Sim.SampleInterval.String())

	form := widget.NewForm(
		widget.NewFormItem("Noise Level (counts)", noiseEntry),
		widget.NewFormItem("Sweep Period", sweepEntry),
		widget.NewFormItem("Sample Interval", intervalEntry),
	)
	form.SubmitText = "Apply"
	form.OnSubmit = func() {
		noise, err := strconv.Atoi(noiseEntry.Text)
		if err != nil || noise < 0 || noise > int(fader.Max) {
			dialog.ShowError(fmt.Errorf("invalid noise level: %s", noiseEntry.Text), state.window)
			return
		}

		sweep, err := time.ParseDuration(sweepEntry.Text)
		if err != nil || sweep <= 0 {
			dialog.ShowError(fmt.Errorf("invalid sweep period: %s", sweepEntry.Text), state.window)
			return
		}

		interval, err := time.ParseDuration(intervalEntry.Text)
		if err != nil || interval <= 0 {
			dialog.ShowError(fmt.Errorf("invalid sample interval: %s", intervalEntry.Text), state.window)
			return
		}

		state.cfg.Sim.NoiseLevel = uint16(noise)
		state.cfg.Sim.SweepPeriod = sweep
		state.cfg.Sim.SampleInterval = interval

		if err := state.cfg.Save("config.yaml"); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			return
		}
	}

	return form
}

// restartMonitor rebuilds the monitor from the current config and restarts
// the frame chain when one is running. Needed whenever a setting changes
// that the monitor was sized or parameterized with.
func restartMonitor(state *appState) {
	wasConnected := state.device != nil && state.device.IsConnected()
	if wasConnected {
		closeFrameChain(state.chain)
		state.chain = nil
		state.device = nil
	}

	state.monitor = monitor.New(state.cfg)
	registerMonitorCallbacks(state)

	if wasConnected {
		handleConnect(state)
	}
}

// parseControllers parses a comma-separated list of MIDI CC numbers.
func parseControllers(s string) ([]uint8, error) {
	parts := strings.Split(s, ",")
	controllers := make([]uint8, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid controller number %q", part)
		}
		if n < 0 || n > int(midimap.MaxData) {
			return nil, fmt.Errorf("controller number %d out of range 0-%d", n, midimap.MaxData)
		}
		controllers = append(controllers, uint8(n))
	}
	if len(controllers) == 0 {
		return nil, fmt.Errorf("at least one controller number required")
	}
	return controllers, nil
}

// formatControllers renders controller numbers as a comma-separated list.
func formatControllers(controllers []uint8) string {
	parts := make([]string, len(controllers))
	for i, cc := range controllers {
		parts[i] = strconv.Itoa(int(cc))
	}
	return strings.Join(parts, ", ")
}
