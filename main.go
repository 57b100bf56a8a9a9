package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"panokeet/backend"
	"panokeet/beep"
	"panokeet/clipboard"
	"panokeet/doctor"
	"panokeet/hotkey"
	"panokeet/log"
	"panokeet/login"
	"panokeet/popup"
	"panokeet/session"
	"panokeet/shutdown"
	"panokeet/update"
)

var version = "dev"

var (
	ctrl      *session.Controller
	autoPaste bool

	// Set by initGUI in -tags gui builds.
	guiMode        bool
	guiPopupWindow popup.Window
	guiLevelFn     func(float64)
)

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if ctrl != nil {
			log.SessionEnd(ctrl.SavedCount())
			ctrl.Close()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// initCrashLog routes runtime crashes to crash_log.txt before anything
// else runs. Uses the default log directory; run() re-points it when
// -logpath overrides the location.
func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		return
	}
	openCrashLog()
}

func openCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// pasteAfterRefocus sends the paste keystroke once the popup has closed
// and focus has had time to return to the app being dictated into.
func pasteAfterRefocus() {
	if !autoPaste {
		return
	}
	time.Sleep(popup.RefocusDelay + 150*time.Millisecond)
	if err := clipboard.Paste(); err != nil {
		log.Errorf("auto-paste failed: %v", err)
	}
}

func runUpdate() {
	if version == "dev" {
		fmt.Println("Dev build — cannot check for updates.")
		os.Exit(0)
	}
	fmt.Printf("panokeet %s — checking for updates...\n", version)
	rel, err := update.CheckLatest(version)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if rel == nil {
		fmt.Println("Already up to date.")
		os.Exit(0)
	}
	fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted.")
		os.Exit(0)
	}
	fmt.Printf("Downloading %s...\n", rel.Version)
	if err := update.Apply(rel); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated to %s\n", rel.Version)
	os.Exit(0)
}

func runLogin(args []string) {
	mode := "status"
	if len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case "on":
		if err := login.Enable(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Start at login enabled.")
	case "off":
		if err := login.Disable(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Start at login disabled.")
	case "status":
		if login.Enabled() {
			fmt.Println("Start at login: on")
		} else {
			fmt.Println("Start at login: off")
		}
	default:
		fmt.Fprintln(os.Stderr, "Usage: panokeet login [on|off|status]")
		os.Exit(1)
	}
	os.Exit(0)
}

func defaultBackendURL() string {
	if env := os.Getenv("PANOKEET_BACKEND_URL"); env != "" {
		return env
	}
	return backend.DefaultBaseURL
}

func run() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		runUpdate()
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "login" {
		runLogin(os.Args[2:])
		return
	}

	backendFlag := flag.String("backend", defaultBackendURL(), "Transcription backend base URL")
	pollFlag := flag.Duration("poll", session.DefaultStatusInterval, "Status/pending poll interval")
	levelPollFlag := flag.Duration("levelpoll", session.DefaultLevelInterval, "Audio level poll interval while recording")
	thresholdFlag := flag.Int("threshold", session.DefaultFailureThreshold, "Consecutive poll failures before escalating")
	pasteFlag := flag.Bool("paste", false, "Auto-paste to the focused window after saving a transcript")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for push-to-talk vs tap (e.g., 350ms)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	// Consumed by the platform main before run(); registered here so
	// flag.Parse accepts it.
	flag.Bool("gui", false, "Run with graphical popup (requires -tags gui build)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if *logPathFlag != "" {
		openCrashLog()
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("panokeet %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(*backendFlag))
	}
	autoPaste = *pasteFlag

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !*tuiFlag && !guiMode && os.Getenv("_PANOKEET_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_PANOKEET_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(*backendFlag, *pollFlag, *levelPollFlag)
	}

	if *testFlag {
		runTestMode(*backendFlag)
		return
	}

	if autoPaste {
		if err := clipboard.InitPaste(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}

	client := backend.New(*backendFlag)

	var window popup.Window
	switch {
	case guiMode:
		window = guiPopupWindow
	case *tuiFlag:
		window = tuiWindow{}
	default:
		window = nullWindow{}
	}
	mgr := popup.NewManager(window, popup.NewFocuser())

	ctrl = session.New(client, mgr, beepCues{}, clipboard.Writer{}, uiSink{}, session.Config{
		StatusInterval:   *pollFlag,
		LevelInterval:    *levelPollFlag,
		FailureThreshold: *thresholdFlag,
	})

	// Start TUI
	if *tuiFlag && !guiMode {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(ctrl)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()
	}

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(UpdateAvailableMsg{Version: rel.Version})
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	go beep.Init()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	drv := hotkey.NewDriver(hk, *longPressFlag)
	for range drv.Toggles() {
		ctrl.Toggle()
	}
}
