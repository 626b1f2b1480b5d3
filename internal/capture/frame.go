package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Resize returns a copy of frame scaled to width x height. A non-positive
// size, or a frame already at that size, yields a plain clone.
func Resize(frame *gocv.Mat, width, height int) (*gocv.Mat, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	if width <= 0 || height <= 0 || (frame.Cols() == width && frame.Rows() == height) {
		out := frame.Clone()
		return &out, nil
	}

	out := gocv.NewMat()
	gocv.Resize(*frame, &out, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	if out.Empty() {
		out.Close()
		return nil, fmt.Errorf("resize frame to %dx%d: %w", width, height, ErrEmptyFrame)
	}
	return &out, nil
}

// EncodeJPEG encodes frame for the display stream.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
