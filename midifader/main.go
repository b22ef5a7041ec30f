package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/jfbarahonag/midi-fader/pkg/bankview"
	"github.com/jfbarahonag/midi-fader/pkg/config"
	"github.com/jfbarahonag/midi-fader/pkg/device"
	"github.com/jfbarahonag/midi-fader/pkg/midimap"
	"github.com/jfbarahonag/midi-fader/pkg/midiout"
	"github.com/jfbarahonag/midi-fader/pkg/monitor"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use the simulated fader bank instead of a serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.jfbarahonag.midifader")

	// Create main window
	window := application.NewWindow("MIDI Fader")
	window.Resize(fyne.NewSize(900, 600))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		monitor: monitor.New(cfg),
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(state)

	// Create bank view for fader display
	view := bankview.New(cfg)
	state.view = view

	registerMonitorCallbacks(state)

	// Create border layout with toolbar at top and bank view as content
	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		view,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// frameChain tracks the components of a running frame stream for graceful
// shutdown.
type frameChain struct {
	device      device.Device
	frames      <-chan device.Frame
	monitorDone chan struct{} // Closed when the monitor goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg     *config.Config
	device  device.Device
	monitor *monitor.Monitor
	view    *bankview.BankView
	window  fyne.Window

	connectBtn *widget.Button
	midiBtn    *widget.Button
	useMock    bool
	chain      *frameChain // Current frame chain (nil if not connected)

	// MIDI output (protected by midiMu)
	midiMu     sync.Mutex
	mapper     *midimap.Mapper
	midiOut    *midiout.Out
	midiEvents []midimap.Event // Reused between callbacks

	// Throttling for view updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings
// on the left and the MIDI output toggle on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	midiBtn := widget.NewButtonWithIcon("MIDI", theme.VolumeUpIcon(), func() {
		handleMIDIToggle(state)
	})
	midiBtn.Disable()
	state.midiBtn = midiBtn

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		container.NewHBox(midiBtn),                 // right
		nil, // center (spacer)
	)
}

// registerMonitorCallbacks attaches the bank view and the MIDI output to
// the monitor. Call it once per monitor instance; the callbacks live for
// the monitor's lifetime and survive reconnects.
func registerMonitorCallbacks(state *appState) {
	// Throttle view updates to ~60 FPS (16.67ms between updates) to keep
	// the UI smooth no matter how fast frames arrive.
	const updateInterval = 16 * time.Millisecond
	state.monitor.OnUpdate(func(values []uint16, trails [][]monitor.Position, moving []bool) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		// Update the bank view on the main thread
		fyne.Do(func() {
			state.view.UpdateData(values, trails, moving)
		})
	})

	// The MIDI callback is never throttled: every audible change goes out,
	// and the mapper suppresses everything below 7-bit resolution.
	state.monitor.OnUpdate(func(values []uint16, trails [][]monitor.Position, moving []bool) {
		state.midiMu.Lock()
		defer state.midiMu.Unlock()

		if state.midiOut == nil {
			return
		}
		state.midiEvents = state.mapper.Translate(state.midiEvents, values)
		if len(state.midiEvents) == 0 {
			return
		}
		if err := state.midiOut.Send(state.mapper.Status(), state.midiEvents); err != nil {
			log.Printf("MIDI send failed: %v", err)
		}
	})
}

// closeFrameChain gracefully closes the frame chain. Closing the device
// closes its frames channel, which lets the monitor goroutine drain the
// remaining frames and exit.
func closeFrameChain(chain *frameChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		chain.device.Close()
	}

	if chain.monitorDone != nil {
		<-chain.monitorDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close the frame chain
		closeFrameChain(state.chain)
		state.chain = nil
		state.device = nil
		state.midiBtn.Disable()
		disableMIDIOutput(state)
		if state.useMock {
			fmt.Println("Disconnected from simulated device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	// Connect
	var dev device.Device
	if state.useMock {
		dev = device.NewSim(state.cfg)
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = dev
	if state.useMock {
		fmt.Println("Connected to simulated device")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	state.midiBtn.Enable()

	// Reset monitor shutdown flag for the new chain
	state.monitor.ResetShutdown()

	frames := dev.Frames()
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		state.monitor.ProcessFrames(frames)
	}()

	// Store chain for graceful shutdown
	state.chain = &frameChain{
		device:      dev,
		frames:      frames,
		monitorDone: monitorDone,
	}
}
