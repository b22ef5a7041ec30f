package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jfbarahonag/midi-fader/pkg/device"
)

// TestMonitor_GracefulShutdown_NoCallbacksAfterClose tests that the monitor
// stops sending callbacks after the input channel is closed.
func TestMonitor_GracefulShutdown_NoCallbacksAfterClose(t *testing.T) {
	m := New(testConfig(1))

	callbackMu := &sync.Mutex{}
	callbackCount := 0
	m.OnUpdate(func(values []uint16, trails [][]Position, moving []bool) {
		callbackMu.Lock()
		callbackCount++
		callbackMu.Unlock()
	})

	// First chain - send frames and close
	input := make(chan device.Frame, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ProcessFrames(input)
	}()

	for i := 0; i < 3; i++ {
		input <- frameAt(time.Duration(i)*100*time.Millisecond, uint16(1000+i))
	}
	close(input)

	select {
	case <-done:
		// ProcessFrames finished - shutdown flag is now set
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessFrames did not finish within timeout")
	}

	callbackMu.Lock()
	initialCount := callbackCount
	callbackMu.Unlock()
	assert.Equal(t, 3, initialCount)

	// A second chain without ResetShutdown processes frames but must not
	// fire callbacks.
	input2 := make(chan device.Frame, 1)
	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		m.ProcessFrames(input2)
	}()
	input2 <- frameAt(time.Second, 3000)
	close(input2)

	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("Second ProcessFrames did not finish within timeout")
	}

	callbackMu.Lock()
	finalCount := callbackCount
	callbackMu.Unlock()
	assert.Equal(t, initialCount, finalCount, "No callbacks should be sent after channel closes")
	assert.Equal(t, []uint16{3000}, m.Values(), "state still updates while callbacks are muted")
}

// TestMonitor_ResetShutdown tests that ResetShutdown allows callbacks again.
func TestMonitor_ResetShutdown(t *testing.T) {
	m := New(testConfig(1))

	callbackMu := &sync.Mutex{}
	callbackCount := 0
	m.OnUpdate(func(values []uint16, trails [][]Position, moving []bool) {
		callbackMu.Lock()
		callbackCount++
		callbackMu.Unlock()
	})

	// First chain - send and close
	input1 := make(chan device.Frame, 10)
	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		m.ProcessFrames(input1)
	}()
	input1 <- frameAt(0, 1000)
	close(input1)

	select {
	case <-done1:
	case <-time.After(2 * time.Second):
		t.Fatal("First ProcessFrames did not finish within timeout")
	}

	callbackMu.Lock()
	countAfterFirst := callbackCount
	callbackMu.Unlock()
	assert.Equal(t, 1, countAfterFirst)

	// Second chain after ResetShutdown - callbacks flow again.
	m.ResetShutdown()

	input2 := make(chan device.Frame, 10)
	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		m.ProcessFrames(input2)
	}()
	input2 <- frameAt(time.Second, 2000)
	close(input2)

	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("Second ProcessFrames did not finish within timeout")
	}

	callbackMu.Lock()
	countAfterSecond := callbackCount
	callbackMu.Unlock()
	assert.Greater(t, countAfterSecond, countAfterFirst, "Callbacks should flow again after ResetShutdown")
}
