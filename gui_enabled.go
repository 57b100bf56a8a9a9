//go:build gui

package main

import (
	"runtime"

	"panokeet/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(
		func() { run() },
		func() {
			if ctrl != nil {
				ctrl.Toggle()
			}
		},
		gracefulShutdown,
	)
	guiPopupWindow = guiApp
	guiLevelFn = guiApp.SetLevel
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
}
