package hotkey

import (
	"testing"
	"time"
)

func waitToggle(t *testing.T, d *Driver) {
	t.Helper()
	select {
	case <-d.Toggles():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for toggle")
	}
}

func assertNoToggle(t *testing.T, d *Driver, within time.Duration) {
	t.Helper()
	select {
	case <-d.Toggles():
		t.Fatal("unexpected toggle")
	case <-time.After(within):
	}
}

func TestHoldToTalk(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	d := NewDriver(fk, threshold)

	fk.SimKeydown()
	waitToggle(t, d) // start

	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitToggle(t, d) // stop on release
}

func TestShortTapTogglesUntilNextTap(t *testing.T) {
	fk := NewFake()
	threshold := 200 * time.Millisecond
	d := NewDriver(fk, threshold)

	fk.SimKeydown()
	waitToggle(t, d) // start
	fk.SimKeyup()    // released before threshold, keeps recording

	assertNoToggle(t, d, 50*time.Millisecond)

	fk.SimKeydown()
	fk.SimKeyup()
	waitToggle(t, d) // stop
}

func TestAlternatingHoldAndTapCycles(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	d := NewDriver(fk, threshold)

	// Cycle 1: hold
	fk.SimKeydown()
	waitToggle(t, d)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitToggle(t, d)

	// Cycle 2: tap on, tap off
	fk.SimKeydown()
	waitToggle(t, d)
	fk.SimKeyup()
	time.Sleep(20 * time.Millisecond)
	fk.SimKeydown()
	fk.SimKeyup()
	waitToggle(t, d)

	// Cycle 3: hold again
	fk.SimKeydown()
	waitToggle(t, d)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitToggle(t, d)
}
