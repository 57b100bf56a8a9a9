//go:build gui

package gui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const waveBars = 30

var (
	barColorLoud  = color.RGBA{255, 80, 80, 255}
	barColorQuiet = color.RGBA{180, 60, 60, 255}
)

// WaveWidget draws the last waveBars audio-level samples as a bar strip,
// newest on the right. Push is safe from any goroutine.
type WaveWidget struct {
	widget.BaseWidget
	mu     sync.Mutex
	levels [waveBars]float64
	head   int
}

func NewWaveWidget() *WaveWidget {
	w := &WaveWidget{}
	w.ExtendBaseWidget(w)
	return w
}

func (w *WaveWidget) Push(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	w.mu.Lock()
	w.levels[w.head] = level
	w.head = (w.head + 1) % waveBars
	w.mu.Unlock()
	fyne.Do(func() {
		w.Refresh()
	})
}

func (w *WaveWidget) Reset() {
	w.mu.Lock()
	w.levels = [waveBars]float64{}
	w.head = 0
	w.mu.Unlock()
	fyne.Do(func() {
		w.Refresh()
	})
}

// snapshot returns the levels oldest first.
func (w *WaveWidget) snapshot() [waveBars]float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out [waveBars]float64
	for i := 0; i < waveBars; i++ {
		out[i] = w.levels[(w.head+i)%waveBars]
	}
	return out
}

func (w *WaveWidget) MinSize() fyne.Size {
	return fyne.NewSize(waveBars*12, 48)
}

func (w *WaveWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &waveRenderer{wave: w}
	for i := range r.bars {
		r.bars[i] = canvas.NewRectangle(barColorQuiet)
	}
	return r
}

type waveRenderer struct {
	wave *WaveWidget
	bars [waveBars]*canvas.Rectangle
	size fyne.Size
}

func (r *waveRenderer) Layout(size fyne.Size) {
	r.size = size
	r.place()
}

func (r *waveRenderer) place() {
	levels := r.wave.snapshot()
	barW := r.size.Width / float32(waveBars)
	for i, rect := range r.bars {
		h := float32(levels[i]) * r.size.Height
		if h < 2 {
			h = 2
		}
		rect.Move(fyne.NewPos(float32(i)*barW+1, (r.size.Height-h)/2))
		rect.Resize(fyne.NewSize(barW-2, h))
	}
}

func (r *waveRenderer) MinSize() fyne.Size {
	return r.wave.MinSize()
}

func (r *waveRenderer) Refresh() {
	levels := r.wave.snapshot()
	r.place()
	for i, rect := range r.bars {
		if levels[i] > 0.5 {
			rect.FillColor = barColorLoud
		} else {
			rect.FillColor = barColorQuiet
		}
		rect.Refresh()
	}
}

func (r *waveRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, waveBars)
	for _, rect := range r.bars {
		objs = append(objs, rect)
	}
	return objs
}

func (r *waveRenderer) Destroy() {}
