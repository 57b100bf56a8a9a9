package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"panokeet/backend"
	"panokeet/beep"
	"panokeet/hotkey"
	"panokeet/log"
	"panokeet/popup"
	"panokeet/session"
)

// runTestMode drives a real session against a live backend from stdin
// commands instead of the global hotkey. Used by integration scripts.
func runTestMode(backendURL string) {
	beep.Disable()

	client := backend.New(backendURL)
	mgr := popup.NewManager(nullWindow{}, popup.NewFocuser())
	ctrl = session.New(client, mgr, beepCues{}, noopClip{}, session.NopSink{}, session.Config{})
	defer func() {
		log.SessionEnd(ctrl.SavedCount())
		ctrl.Close()
	}()

	hk := hotkey.NewFake()
	drv := hotkey.NewDriver(hk, 350*time.Millisecond)
	go func() {
		for range drv.Toggles() {
			ctrl.Toggle()
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "KEYDOWN":
			hk.SimKeydown()
		case cmd == "KEYUP":
			hk.SimKeyup()
		case cmd == "TOGGLE":
			ctrl.Toggle()
		case cmd == "CANCEL":
			ctrl.Cancel()
		case cmd == "RESET":
			ctrl.Reset()
		case cmd == "STATE":
			fmt.Println(ctrl.Snapshot().State)
		case cmd == "SAVE":
			ctrl.Save(ctrl.Snapshot().Draft.Current)
		case strings.HasPrefix(cmd, "SAVE "):
			ctrl.Save(cmd[5:])
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "QUIT":
			return
		}
	}
}

type noopClip struct{}

func (noopClip) Copy(string) error { return nil }
