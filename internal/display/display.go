// Package display draws controller telemetry onto camera frames and shows
// them in an optional preview window.
package display

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/telemetry"
)

var (
	labelColor    = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	pausedColor   = color.RGBA{R: 0, G: 165, B: 255, A: 0}
	landmarkColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	boneColor     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// connections are the landmark pairs drawn as the hand skeleton.
var connections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// toPixel converts a normalized landmark to image coordinates.
func toPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// Annotate draws the hand skeleton and the gesture label of f onto img.
func Annotate(img *gocv.Mat, f telemetry.Frame) {
	if img == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	if f.Hand != nil {
		for _, c := range connections {
			a := toPixel(f.Hand.Points[c[0]], w, h)
			b := toPixel(f.Hand.Points[c[1]], w, h)
			gocv.Line(img, a, b, boneColor, 2)
		}
		for _, p := range f.Hand.Points {
			gocv.Circle(img, toPixel(p, w, h), 4, landmarkColor, -1)
		}
	}

	text, c := f.Label, labelColor
	if f.Paused {
		text, c = text+" (paused)", pausedColor
	}
	gocv.PutText(img, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, c, 2)
}

// Window shows annotated frames in a desktop window. It implements
// telemetry.ImageSink and must be driven from a single goroutine.
type Window struct {
	title  string
	window *gocv.Window
	onQuit func()
	once   sync.Once
}

// NewWindow creates a Window. onQuit is called once when 'q' is pressed.
func NewWindow(title string, onQuit func()) *Window {
	return &Window{title: title, onQuit: onQuit}
}

// PublishImage shows img and polls the keyboard.
func (w *Window) PublishImage(img *gocv.Mat, _ telemetry.Frame) {
	if img == nil || img.Empty() {
		return
	}
	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}

	w.window.IMShow(*img)
	if key := w.window.WaitKey(1); key == 'q' || key == 'Q' {
		w.once.Do(func() {
			if w.onQuit != nil {
				w.onQuit()
			}
		})
	}
}

// Close destroys the window.
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}
