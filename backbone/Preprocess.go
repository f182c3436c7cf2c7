package backbone

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Channels is the number of colour channels of a frame
const Channels = 3

// Preprocess resizes an RGB frame to size x size and returns it in
// channel-major (CHW) layout scaled to [0, 1]. The frame must be in
// row-major height x width x channel (HWC) layout with values in
// [0, 255].
func Preprocess(frame []float64, height, width, size int) ([]float64,
	error) {
	if height <= 0 || width <= 0 || size <= 0 {
		return nil, fmt.Errorf("preprocess: invalid dimensions %dx%d -> %d",
			height, width, size)
	}
	if len(frame) != height*width*Channels {
		return nil, fmt.Errorf("preprocess: frame has %d values, want "+
			"%d x %d x %d", len(frame), height, width, Channels)
	}

	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			in := (y*width + x) * Channels
			out := src.PixOffset(x, y)
			for c := 0; c < Channels; c++ {
				src.Pix[out+c] = toUint8(frame[in+c])
			}
			src.Pix[out+3] = math.MaxUint8
		}
	}

	dst := src
	if height != size || width != size {
		dst = image.NewRGBA(image.Rect(0, 0, size, size))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src,
			nil)
	}

	plane := size * size
	chw := make([]float64, Channels*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			offset := dst.PixOffset(x, y)
			for c := 0; c < Channels; c++ {
				chw[c*plane+y*size+x] = float64(dst.Pix[offset+c]) / 255
			}
		}
	}
	return chw, nil
}

func toUint8(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(math.Round(v))
}
