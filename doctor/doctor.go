// Package doctor runs interactive end-to-end checks of everything the
// dictation client needs from the machine: the local backend, the
// global hotkey, the clipboard path, and focus capture.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"panokeet/backend"
	"panokeet/clipboard"
	"panokeet/hotkey"
	"panokeet/popup"
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(backendURL string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("panokeet doctor - interactive system diagnostics")
	fmt.Println("=================================================")

	allPass := true

	if !checkBackend(backendURL) {
		allPass = false
	}
	if !checkHotkey() {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}
	if allPass && !checkFocus() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkBackend(backendURL string) bool {
	fmt.Println()
	fmt.Println("[1/4] Transcription backend")
	fmt.Printf("Checking %s...\n", backendURL)

	client := backend.New(backendURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		fmt.Printf("  FAIL: backend not reachable: %v\n", err)
		fmt.Println("  Is the transcription server running?")
		return false
	}

	st, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("  FAIL: /health ok but /status failed: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: backend healthy (status=%s, recording=%v)\n", st.Status, st.Recording)
	return true
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[2/4] Hotkey detection")

	info, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", info)
	fmt.Println("Press Ctrl+Shift+Space...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid triggering next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[3/4] Clipboard and paste")

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	testStr := "panokeet-doctor-test"
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}

	if err := clipboard.Paste(); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	// Reset terminal and use fresh reader for confirmation
	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Print("Did the text \"panokeet-doctor-test\" appear? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: clipboard/paste not confirmed")
		return false
	}
	fmt.Println("  PASS: clipboard and paste verified by user")
	return true
}

func checkFocus() bool {
	fmt.Println()
	fmt.Println("[4/4] Focus capture")

	foc := popup.NewFocuser()
	h, err := foc.Frontmost()
	if err != nil {
		fmt.Printf("  FAIL: cannot detect frontmost app: %v\n", err)
		fmt.Println("  Refocus after dictation will be skipped at runtime.")
		return false
	}
	fmt.Printf("  Frontmost app: %s\n", h)

	fmt.Println("  Switching focus back in 3 seconds, watch the window...")
	time.Sleep(3 * time.Second)
	if err := foc.Activate(h); err != nil {
		fmt.Printf("  FAIL: cannot restore focus: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Did focus return to this terminal? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: focus restore not confirmed")
		return false
	}
	fmt.Println("  PASS: focus capture and restore verified by user")
	return true
}
