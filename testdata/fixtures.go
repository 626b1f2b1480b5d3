// Package testdata provides synthetic camera frames and gesture scripts for
// end-to-end tests.
package testdata

import (
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handspeak/internal/detector"
)

// Frame size of the synthetic camera.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Frames returns n synthetic frames, each with a filled square at a
// different position so consecutive frames differ. Close them with
// CloseAll.
func Frames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
		x := (i * 40) % (FrameWidth - 100)
		gocv.Rectangle(&m, image.Rect(x, 100, x+100, 200), color.RGBA{R: 200, G: 160, B: 120, A: 255}, -1)
		frames = append(frames, &m)
	}
	return frames
}

// CloseAll releases frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// Step is one frame of a gesture script: the hand shown at time At, or no
// hand when Hand is nil.
type Step struct {
	At   time.Duration
	Hand *detector.HandLandmarks
}

// Hands returns the detector output for the step.
func (s Step) Hands() []detector.HandLandmarks {
	if s.Hand == nil {
		return nil
	}
	return []detector.HandLandmarks{*s.Hand}
}

func hand(h detector.HandLandmarks) *detector.HandLandmarks {
	return &h
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// CooldownScript shows palm, nothing, palm, nothing, thumbs up at
// 0, 0.1, 0.3, 0.4 and 2.0 seconds. With the palm trained as HELLO and the
// thumbs up as YES the second HELLO falls inside the word cooldown.
func CooldownScript() []Step {
	return []Step{
		{At: 0, Hand: hand(detector.OpenPalmLandmarks())},
		{At: ms(100)},
		{At: ms(300), Hand: hand(detector.OpenPalmLandmarks())},
		{At: ms(400)},
		{At: ms(2000), Hand: hand(detector.ThumbsUpLandmarks())},
	}
}

// HoldScript shows hand for d, sampled every 100ms starting at start.
func HoldScript(h detector.HandLandmarks, start, d time.Duration) []Step {
	var steps []Step
	for t := start; t <= start+d; t += ms(100) {
		steps = append(steps, Step{At: t, Hand: hand(h)})
	}
	return steps
}
