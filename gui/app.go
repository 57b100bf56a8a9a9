//go:build gui

package gui

import (
	_ "embed"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/go-gl/glfw/v3.3/glfw"

	"panokeet/popup"
)

//go:generate go run assets/gen_icon.go
//go:embed assets/tray.png
var trayIcon []byte

// App is the graphical popup: a frameless, always-on-top splash window
// at the bottom center of the screen that shows the waveform while
// recording, a progress note while transcribing, and the transcript
// when it is ready. It satisfies popup.Window; every method may be
// called from any goroutine.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	wave    *WaveWidget
	status  *widget.Label
	body    *widget.Label
	content *fyne.Container

	onReady  func()
	onToggle func()
	onQuit   func()
	posX     int
	posY     int
}

func NewApp(onReady, onToggle, onQuit func()) *App {
	return &App{onReady: onReady, onToggle: onToggle, onQuit: onQuit}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.panokeet.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		icon := fyne.NewStaticResource("tray.png", trayIcon)
		menu := fyne.NewMenu("panokeet",
			fyne.NewMenuItem("Toggle Recording", func() {
				if a.onToggle != nil {
					a.onToggle()
				}
			}),
			fyne.NewMenuItem("Quit", func() {
				if a.onQuit != nil {
					a.onQuit()
				}
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	}

	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	// Frameless splash window so the popup has no titlebar or border.
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("panokeet")
	}

	a.wave = NewWaveWidget()
	a.status = widget.NewLabel("")
	a.body = widget.NewLabel("")
	a.body.Wrapping = fyne.TextWrapWord
	a.content = container.NewVBox(a.status, a.wave, a.body)

	a.window.SetContent(a.content)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)
	a.window.Resize(fyne.NewSize(420, 140))

	winSize := a.window.Canvas().Size()
	if winSize.Width == 0 {
		winSize = fyne.NewSize(420, 140)
	}
	a.posX = (screenW - int(winSize.Width)) / 2
	a.posY = screenH - int(winSize.Height) - 20

	go a.onReady()

	// Event loop runs with the window hidden until the first Show.
	a.fyneApp.Run()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// Show implements popup.Window. The window is raised without taking
// keyboard focus so the app being dictated into keeps receiving keys.
func (a *App) Show(c popup.Content) {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		a.apply(c)

		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(a.posX, a.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
		} else {
			a.window.Show()
		}
	})
}

// Update implements popup.Window: swap content in place, no hide/show.
func (a *App) Update(c popup.Content) {
	fyne.Do(func() {
		if a.window != nil {
			a.apply(c)
		}
	})
}

// Hide implements popup.Window.
func (a *App) Hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
	})
}

// SetLevel feeds one audio-level sample into the waveform.
func (a *App) SetLevel(level float64) {
	a.wave.Push(level)
}

func (a *App) apply(c popup.Content) {
	switch c.Kind {
	case popup.KindRecording:
		a.status.SetText("● recording")
		a.body.SetText("")
		a.wave.Reset()
		a.wave.Show()
	case popup.KindTranscribing:
		a.status.SetText("… transcribing")
		a.body.SetText("")
		a.wave.Hide()
	case popup.KindTranscript:
		a.status.SetText(fmt.Sprintf("transcript ready (%.1fs)", c.Duration))
		a.body.SetText(c.Transcript)
		a.wave.Hide()
	}
}
