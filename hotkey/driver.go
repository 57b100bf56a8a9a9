package hotkey

import "time"

// Driver turns raw keydown/keyup pairs into dictation toggle pulses.
// The same key works both ways: a short tap toggles recording on and
// leaves it running until the next tap, while holding the key past
// longPress acts as push-to-talk and stops recording on release.
// Start and stop are both plain toggles because the backend itself
// only understands toggle.
type Driver struct {
	toggles chan struct{}
}

func NewDriver(hk Hotkey, longPress time.Duration) *Driver {
	d := &Driver{toggles: make(chan struct{}, 2)}
	go d.run(hk, longPress)
	return d
}

// Toggles delivers one pulse per intended recording flip.
func (d *Driver) Toggles() <-chan struct{} { return d.toggles }

func (d *Driver) emit() {
	select {
	case d.toggles <- struct{}{}:
	default:
	}
}

func (d *Driver) run(hk Hotkey, longPress time.Duration) {
	for {
		<-hk.Keydown()
		d.emit() // recording starts either way

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// Held past the threshold: push-to-talk, release stops.
			<-hk.Keyup()
			d.emit()
		case <-hk.Keyup():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			// Short tap: recording stays on until the next full
			// press-and-release.
			<-hk.Keydown()
			<-hk.Keyup()
			d.emit()
		}
	}
}
